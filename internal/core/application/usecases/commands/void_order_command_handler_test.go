package commands_test

import (
	"testing"
	"time"

	"clinicalorders/internal/core/application/usecases/commands"
	"clinicalorders/internal/core/domain/model/kernel"
	"clinicalorders/internal/core/domain/model/order"
	"clinicalorders/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func voidHandlers(t *testing.T, f *fixture) (*commands.VoidOrderCommandHandler, *commands.UnvoidOrderCommandHandler) {
	t.Helper()
	v, err := commands.NewVoidOrderCommandHandler(f.deps())
	require.NoError(t, err)
	u, err := commands.NewUnvoidOrderCommandHandler(f.deps())
	require.NoError(t, err)
	return v, u
}

func voidCmd(t *testing.T, id kernel.UUID) commands.VoidOrderCommand {
	t.Helper()
	by := kernel.NewUUID()
	cmd, err := commands.NewVoidOrderCommand(id, "entered in error", &by)
	require.NoError(t, err)
	return cmd
}

func unvoidCmd(t *testing.T, id kernel.UUID) commands.UnvoidOrderCommand {
	t.Helper()
	cmd, err := commands.NewUnvoidOrderCommand(id)
	require.NoError(t, err)
	return cmd
}

func TestVoidUnvoid_RevisionRoundTrip(t *testing.T) {
	f := newFixture(t)
	save := f.saveHandler(t)
	void, unvoid := voidHandlers(t, f)

	a := f.mustSave(t, save, f.drugOrder(t, order.ActionNew, day1, f.ibuprofen200))
	b := f.mustSave(t, save, f.revisionOf(t, a, order.ActionRevise, day2))
	backdated := day2.Add(-time.Second)
	assert.Equal(t, backdated, *f.get(t, a.UUID()).DateStopped())

	voided, err := void.Handle(t.Context(), voidCmd(t, b.UUID()))
	require.NoError(t, err)
	assert.True(t, voided.IsVoided())
	assert.Equal(t, day3, *voided.DateVoided())
	assert.Equal(t, "entered in error", voided.VoidReason())

	a = f.get(t, a.UUID())
	assert.Nil(t, a.DateStopped())
	assert.True(t, a.IsActive(day3))
	assert.False(t, f.get(t, b.UUID()).IsActive(day3))

	restored, err := unvoid.Handle(t.Context(), unvoidCmd(t, b.UUID()))
	require.NoError(t, err)
	assert.False(t, restored.IsVoided())
	assert.Equal(t, backdated, *f.get(t, a.UUID()).DateStopped())
	assert.True(t, f.get(t, b.UUID()).IsActive(day3))

	assert.Equal(t, 1, f.metrics.voided)
	assert.Equal(t, 1, f.metrics.unvoided)
}

func TestVoid_NewOrderLeavesOthersAlone(t *testing.T) {
	f := newFixture(t)
	save := f.saveHandler(t)
	void, _ := voidHandlers(t, f)

	a := f.mustSave(t, save, f.drugOrder(t, order.ActionNew, day1, f.ibuprofen200))
	b := f.mustSave(t, save, f.drugOrder(t, order.ActionNew, day1, f.ibuprofen400))

	_, err := void.Handle(t.Context(), voidCmd(t, a.UUID()))
	require.NoError(t, err)
	assert.False(t, f.get(t, b.UUID()).IsVoided())

	_, err = void.Handle(t.Context(), voidCmd(t, a.UUID()))
	require.ErrorIs(t, err, errs.ErrValueIsInvalid)
}

func TestUnvoid_Rejections(t *testing.T) {
	t.Run("previous order stopped again", func(t *testing.T) {
		f := newFixture(t)
		save := f.saveHandler(t)
		void, unvoid := voidHandlers(t, f)

		a := f.mustSave(t, save, f.drugOrder(t, order.ActionNew, day1, f.ibuprofen200))
		b := f.mustSave(t, save, f.revisionOf(t, a, order.ActionRevise, day2))
		_, err := void.Handle(t.Context(), voidCmd(t, b.UUID()))
		require.NoError(t, err)

		f.mustSave(t, save, f.revisionOf(t, a, order.ActionRevise, day3))

		_, err = unvoid.Handle(t.Context(), unvoidCmd(t, b.UUID()))
		var cannot *order.CannotUnvoidOrderError
		require.ErrorAs(t, err, &cannot)
		assert.Equal(t, a.UUID().String(), cannot.PreviousOrderUUID)
		assert.True(t, f.get(t, b.UUID()).IsVoided())
		assert.Equal(t, []string{"unvoid:cannot_unvoid_order"}, f.metrics.rejected)
	})

	t.Run("previous order voided", func(t *testing.T) {
		f := newFixture(t)
		save := f.saveHandler(t)
		void, unvoid := voidHandlers(t, f)

		a := f.mustSave(t, save, f.drugOrder(t, order.ActionNew, day1, f.ibuprofen200))
		b := f.mustSave(t, save, f.revisionOf(t, a, order.ActionRevise, day2))
		_, err := void.Handle(t.Context(), voidCmd(t, b.UUID()))
		require.NoError(t, err)
		_, err = void.Handle(t.Context(), voidCmd(t, a.UUID()))
		require.NoError(t, err)

		_, err = unvoid.Handle(t.Context(), unvoidCmd(t, b.UUID()))
		require.ErrorIs(t, err, order.ErrCannotUnvoidOrder)
	})

	t.Run("order not voided", func(t *testing.T) {
		f := newFixture(t)
		_, unvoid := voidHandlers(t, f)
		a := f.mustSave(t, f.saveHandler(t), f.drugOrder(t, order.ActionNew, day1, f.ibuprofen200))

		_, err := unvoid.Handle(t.Context(), unvoidCmd(t, a.UUID()))
		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})
}

func TestUnvoid_NewOrderOverlappingLaterOrder(t *testing.T) {
	f := newFixture(t)
	save := f.saveHandler(t)
	void, unvoid := voidHandlers(t, f)

	a := f.mustSave(t, save, f.drugOrder(t, order.ActionNew, day1, f.ibuprofen200))
	_, err := void.Handle(t.Context(), voidCmd(t, a.UUID()))
	require.NoError(t, err)
	b := f.mustSave(t, save, f.drugOrder(t, order.ActionNew, day2, f.ibuprofen200))

	_, err = unvoid.Handle(t.Context(), unvoidCmd(t, a.UUID()))
	var cannot *order.CannotUnvoidOrderError
	require.ErrorAs(t, err, &cannot)
	assert.Equal(t, a.UUID().String(), cannot.OrderUUID)
	var ambiguous *order.AmbiguousOrderError
	require.ErrorAs(t, cannot.Cause, &ambiguous)
	assert.Equal(t, []string{b.UUID().String()}, ambiguous.Conflicting)

	assert.True(t, f.get(t, a.UUID()).IsVoided())
	assert.Equal(t, []kernel.UUID{b.UUID()}, f.activeUUIDs(t, day3))
	assert.Equal(t, []string{"unvoid:cannot_unvoid_order"}, f.metrics.rejected)
	assert.Equal(t, 0, f.metrics.unvoided)
}

func TestUnvoid_OtherDrugDoesNotConflict(t *testing.T) {
	f := newFixture(t)
	save := f.saveHandler(t)
	void, unvoid := voidHandlers(t, f)

	a := f.mustSave(t, save, f.drugOrder(t, order.ActionNew, day1, f.ibuprofen200))
	_, err := void.Handle(t.Context(), voidCmd(t, a.UUID()))
	require.NoError(t, err)
	b := f.mustSave(t, save, f.drugOrder(t, order.ActionNew, day2, f.ibuprofen400))

	_, err = unvoid.Handle(t.Context(), unvoidCmd(t, a.UUID()))
	require.NoError(t, err)
	assert.ElementsMatch(t, []kernel.UUID{a.UUID(), b.UUID()}, f.activeUUIDs(t, day3))
}

func TestVoid_MidChainRevisionIsRefused(t *testing.T) {
	f := newFixture(t)
	save := f.saveHandler(t)
	void, _ := voidHandlers(t, f)

	a := f.mustSave(t, save, f.drugOrder(t, order.ActionNew, day1, f.ibuprofen200))
	b := f.mustSave(t, save, f.revisionOf(t, a, order.ActionRevise, day2))
	c := f.mustSave(t, save, f.revisionOf(t, b, order.ActionRevise, day3))

	_, err := void.Handle(t.Context(), voidCmd(t, b.UUID()))
	var ambiguous *order.AmbiguousOrderError
	require.ErrorAs(t, err, &ambiguous)
	assert.Equal(t, a.UUID().String(), ambiguous.OrderUUID)
	assert.Equal(t, []string{c.UUID().String()}, ambiguous.Conflicting)

	assert.False(t, f.get(t, b.UUID()).IsVoided())
	assert.Equal(t, day2.Add(-time.Second), *f.get(t, a.UUID()).DateStopped())
	assert.Equal(t, []kernel.UUID{c.UUID()}, f.activeUUIDs(t, day3))
	assert.Equal(t, []string{"void:ambiguous_order"}, f.metrics.rejected)
	assert.Equal(t, 0, f.metrics.voided)

	// Unwinding the chain from its end is allowed.
	_, err = void.Handle(t.Context(), voidCmd(t, c.UUID()))
	require.NoError(t, err)
	_, err = void.Handle(t.Context(), voidCmd(t, b.UUID()))
	require.NoError(t, err)
	assert.Equal(t, []kernel.UUID{a.UUID()}, f.activeUUIDs(t, day3))
}

func TestNewVoidOrderCommand(t *testing.T) {
	_, err := commands.NewVoidOrderCommand(kernel.NewUUID(), "  ", nil)
	require.ErrorIs(t, err, errs.ErrValueIsRequired)

	cmd, err := commands.NewVoidOrderCommand(kernel.NewUUID(), " duplicate ", nil)
	require.NoError(t, err)
	assert.Equal(t, "duplicate", cmd.Reason())
	assert.Nil(t, cmd.VoidedBy())

	var empty commands.VoidOrderCommand
	require.ErrorIs(t, empty.Validate(), commands.ErrVoidOrderCommandIsNotConstructed)
}
