package commands_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"clinicalorders/internal/adapters/out/authz"
	"clinicalorders/internal/adapters/out/memory"
	"clinicalorders/internal/core/application/usecases/commands"
	"clinicalorders/internal/core/domain/model/kernel"
	"clinicalorders/internal/core/domain/model/order"
	"clinicalorders/internal/core/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveOrderCommandHandler_NewDrugOrder(t *testing.T) {
	f := newFixture(t)
	h := f.saveHandler(t)

	candidate, err := order.NewOrder(kernel.NewUUID(), f.patient, order.ActionNew, order.VariantDrug)
	require.NoError(t, err)
	require.NoError(t, candidate.SetDrug(f.ibuprofen200))

	saved, err := f.save(t, h, candidate)
	require.NoError(t, err)

	assert.True(t, saved.IsPersisted())
	assert.Equal(t, "ORD-1", saved.OrderNumber())
	assert.Equal(t, f.ibuprofen, *saved.Concept())
	assert.Equal(t, f.drugType, *saved.OrderType())
	assert.Equal(t, f.outpatient, *saved.CareSetting())
	assert.Equal(t, day3, *saved.DateActivated())
	assert.Equal(t, day3, *saved.DateCreated())

	assert.False(t, candidate.IsPersisted(), "candidate must be left untouched")
	assert.Nil(t, candidate.Concept())

	stored := f.get(t, saved.UUID())
	assert.Equal(t, saved.OrderNumber(), stored.OrderNumber())
	assert.Equal(t, []string{"NEW"}, f.metrics.saved)
}

func TestSaveOrderCommandHandler_Ibuprofen(t *testing.T) {
	f := newFixture(t)
	h := f.saveHandler(t)

	a := f.mustSave(t, h, f.drugOrder(t, order.ActionNew, day1, f.ibuprofen200))

	_, err := f.save(t, h, f.drugOrder(t, order.ActionNew, day2, f.ibuprofen200))
	require.ErrorIs(t, err, order.ErrAmbiguousOrder)
	var ambiguous *order.AmbiguousOrderError
	require.ErrorAs(t, err, &ambiguous)
	assert.Equal(t, []string{a.UUID().String()}, ambiguous.Conflicting)
	assert.Equal(t, []string{"save:ambiguous_order"}, f.metrics.rejected)

	b, err := f.save(t, h, f.revisionOf(t, a, order.ActionRevise, day2))
	require.NoError(t, err)

	a = f.get(t, a.UUID())
	require.NotNil(t, a.DateStopped())
	assert.Equal(t, day2.Add(-time.Second), *a.DateStopped())
	assert.False(t, a.IsActive(day2))
	assert.True(t, a.IsActive(day2.Add(-2*time.Second)))
	assert.True(t, b.IsActive(day2))

	assert.Equal(t, a.Orderable(), b.Orderable())
	assert.Equal(t, a.OrderType(), b.OrderType())
	assert.Equal(t, a.CareSetting(), b.CareSetting())
	assert.Equal(t, a.Variant(), b.Variant())

	active, err := memory.NewUnitOfWorkFactory(f.store).Create().OrderRepository().
		GetActiveOrders(t.Context(), ports.ActiveOrdersFilter{Patient: f.patient, AsOf: day2})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.True(t, active[0].IsEqual(b))
}

func TestSaveOrderCommandHandler_AllowedParallel(t *testing.T) {
	f := newFixture(t)
	h := f.saveHandler(t)

	a := f.mustSave(t, h, f.drugOrder(t, order.ActionNew, day1, f.ibuprofen200))

	_, err := f.save(t, h, f.drugOrder(t, order.ActionNew, day2, f.ibuprofen200), a.UUID())
	require.NoError(t, err)
}

func TestSaveOrderCommandHandler_OtherOrderablesDoNotConflict(t *testing.T) {
	f := newFixture(t)
	h := f.saveHandler(t)

	f.mustSave(t, h, f.drugOrder(t, order.ActionNew, day1, f.ibuprofen200))
	f.mustSave(t, h, f.drugOrder(t, order.ActionNew, day2, f.ibuprofen400))

	inpatient := f.drugOrder(t, order.ActionNew, day2, f.ibuprofen200)
	require.NoError(t, inpatient.SetCareSetting(f.inpatient))
	f.mustSave(t, h, inpatient)
}

func TestSaveOrderCommandHandler_TestOrdersMayOverlap(t *testing.T) {
	f := newFixture(t)
	h := f.saveHandler(t)

	for _, at := range []time.Time{day1, day2} {
		o, err := order.NewOrder(kernel.NewUUID(), f.patient, order.ActionNew, order.VariantTest)
		require.NoError(t, err)
		require.NoError(t, o.SetConcept(f.bloodCount))
		require.NoError(t, o.SetDateActivated(at))

		saved, err := f.save(t, h, o)
		require.NoError(t, err)
		assert.Equal(t, f.testType, *saved.OrderType())
	}
}

func TestSaveOrderCommandHandler_Discontinue(t *testing.T) {
	discontinuation := func(t *testing.T, f *fixture) *order.Order {
		t.Helper()
		o, err := order.NewOrder(kernel.NewUUID(), f.patient, order.ActionDiscontinue, order.VariantDrug)
		require.NoError(t, err)
		require.NoError(t, o.SetConcept(f.ibuprofen))
		require.NoError(t, o.SetOrderReason(nil, "resolved"))
		return o
	}

	t.Run("single match is resolved and stopped", func(t *testing.T) {
		f := newFixture(t)
		h := f.saveHandler(t)
		a := f.mustSave(t, h, f.drugOrder(t, order.ActionNew, day1, f.ibuprofen200))

		dc, err := f.save(t, h, discontinuation(t, f))
		require.NoError(t, err)

		require.NotNil(t, dc.PreviousOrder())
		assert.Equal(t, a.UUID(), *dc.PreviousOrder())
		assert.Equal(t, f.ibuprofen200, *dc.Drug())
		assert.False(t, dc.IsActive(day3))

		a = f.get(t, a.UUID())
		assert.Equal(t, day3.Add(-time.Second), *a.DateStopped())
	})

	t.Run("two matches are ambiguous", func(t *testing.T) {
		f := newFixture(t)
		h := f.saveHandler(t)
		a := f.mustSave(t, h, f.drugOrder(t, order.ActionNew, day1, f.ibuprofen200))
		b := f.mustSave(t, h, f.drugOrder(t, order.ActionNew, day1, f.ibuprofen400))

		_, err := f.save(t, h, discontinuation(t, f))
		require.ErrorIs(t, err, order.ErrAmbiguousOrder)

		assert.Nil(t, f.get(t, a.UUID()).DateStopped())
		assert.Nil(t, f.get(t, b.UUID()).DateStopped())
	})

	t.Run("no match saves a standalone discontinuation", func(t *testing.T) {
		f := newFixture(t)
		h := f.saveHandler(t)

		dc, err := f.save(t, h, discontinuation(t, f))
		require.NoError(t, err)
		assert.Nil(t, dc.PreviousOrder())
	})

	t.Run("explicit previous order", func(t *testing.T) {
		f := newFixture(t)
		h := f.saveHandler(t)
		a := f.mustSave(t, h, f.drugOrder(t, order.ActionNew, day1, f.ibuprofen200))
		f.mustSave(t, h, f.drugOrder(t, order.ActionNew, day1, f.ibuprofen400))

		_, err := f.save(t, h, f.revisionOf(t, a, order.ActionDiscontinue, day3))
		require.NoError(t, err)
		assert.Equal(t, day3.Add(-time.Second), *f.get(t, a.UUID()).DateStopped())
	})
}

func TestSaveOrderCommandHandler_AutoExpireDate(t *testing.T) {
	t.Run("date only is rolled to end of day", func(t *testing.T) {
		f := newFixture(t)
		h := f.saveHandler(t)

		o := f.drugOrder(t, order.ActionNew, day1, f.ibuprofen200)
		expire := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
		require.NoError(t, o.SetAutoExpireDate(&expire))

		saved := f.mustSave(t, h, o)
		assert.Equal(t, time.Date(2024, 1, 10, 23, 59, 59, 0, time.UTC), *saved.AutoExpireDate())
		assert.Equal(t, *saved.AutoExpireDate(), *f.get(t, saved.UUID()).AutoExpireDate())
	})

	t.Run("derived from dosing duration", func(t *testing.T) {
		f := newFixture(t)
		h := f.saveHandler(t)

		o := f.drugOrder(t, order.ActionNew, day1, f.ibuprofen200)
		dosing, err := order.NewDosing(400, "mg", 3, 5, order.DurationUnitDays)
		require.NoError(t, err)
		require.NoError(t, o.SetDosing(dosing))

		saved := f.mustSave(t, h, o)
		assert.Equal(t, time.Date(2024, 1, 6, 8, 59, 59, 0, time.UTC), *saved.AutoExpireDate())
	})

	t.Run("derived date falling on midnight is kept", func(t *testing.T) {
		f := newFixture(t)
		h := f.saveHandler(t)

		activated := time.Date(2024, 1, 1, 0, 0, 1, 0, time.UTC)
		o := f.drugOrder(t, order.ActionNew, activated, f.ibuprofen200)
		dosing, err := order.NewDosing(200, "mg", 3, 1, order.DurationUnitDays)
		require.NoError(t, err)
		require.NoError(t, o.SetDosing(dosing))

		saved := f.mustSave(t, h, o)
		assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), *saved.AutoExpireDate())
		assert.Equal(t, *saved.AutoExpireDate(), *f.get(t, saved.UUID()).AutoExpireDate())
	})

	t.Run("expired orders do not conflict", func(t *testing.T) {
		f := newFixture(t)
		h := f.saveHandler(t)

		o := f.drugOrder(t, order.ActionNew, day1, f.ibuprofen200)
		expire := day2.Add(-time.Hour)
		require.NoError(t, o.SetAutoExpireDate(&expire))
		f.mustSave(t, h, o)

		f.mustSave(t, h, f.drugOrder(t, order.ActionNew, day2, f.ibuprofen200))
	})
}

func TestSaveOrderCommandHandler_Retrospective(t *testing.T) {
	f := newFixture(t)
	h := f.saveHandler(t)

	a := f.drugOrder(t, order.ActionNew, day1, f.ibuprofen200)
	expire := day2
	require.NoError(t, a.SetAutoExpireDate(&expire))
	a = f.mustSave(t, h, a)

	revisedAt := day1.Add(12 * time.Hour)

	_, err := f.save(t, h, f.revisionOf(t, a, order.ActionRevise, revisedAt))
	require.ErrorIs(t, err, order.ErrCannotStopInactiveOrder)

	cmd, err := commands.NewSaveOrderCommand(
		f.revisionOf(t, a, order.ActionRevise, revisedAt),
		commands.OrderContext{CareSetting: &f.outpatient},
		true,
		nil,
	)
	require.NoError(t, err)
	_, err = h.Handle(t.Context(), cmd)
	require.NoError(t, err)

	assert.Equal(t, revisedAt.Add(-time.Second), *f.get(t, a.UUID()).DateStopped())
}

func TestSaveOrderCommandHandler_Rejections(t *testing.T) {
	t.Run("already persisted", func(t *testing.T) {
		f := newFixture(t)
		h := f.saveHandler(t)
		a := f.mustSave(t, h, f.drugOrder(t, order.ActionNew, day1, f.ibuprofen200))

		_, err := f.save(t, h, a)
		require.ErrorIs(t, err, order.ErrUnchangeableObject)
	})

	t.Run("missing concept", func(t *testing.T) {
		f := newFixture(t)
		o, err := order.NewOrder(kernel.NewUUID(), f.patient, order.ActionNew, order.VariantGeneric)
		require.NoError(t, err)

		_, err = f.save(t, f.saveHandler(t), o)
		var missing *order.MissingRequiredPropertyError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, order.PropertyConcept, missing.Property)
	})

	t.Run("generic order without a mapped type", func(t *testing.T) {
		f := newFixture(t)
		o, err := order.NewOrder(kernel.NewUUID(), f.patient, order.ActionNew, order.VariantGeneric)
		require.NoError(t, err)
		require.NoError(t, o.SetConcept(kernel.NewUUID()))

		_, err = f.save(t, f.saveHandler(t), o)
		var missing *order.MissingRequiredPropertyError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, order.PropertyOrderType, missing.Property)
	})

	t.Run("missing care setting", func(t *testing.T) {
		f := newFixture(t)
		cmd, err := commands.NewSaveOrderCommand(
			f.drugOrder(t, order.ActionNew, day1, f.ibuprofen200), commands.OrderContext{}, false, nil)
		require.NoError(t, err)

		_, err = f.saveHandler(t).Handle(t.Context(), cmd)
		var missing *order.MissingRequiredPropertyError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, order.PropertyCareSetting, missing.Property)
	})

	t.Run("revise without previous order", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.save(t, f.saveHandler(t), f.drugOrder(t, order.ActionRevise, day1, f.ibuprofen200))
		var missing *order.MissingRequiredPropertyError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, order.PropertyPreviousOrder, missing.Property)
	})

	t.Run("variant not accepted by order type", func(t *testing.T) {
		f := newFixture(t)
		cmd, err := commands.NewSaveOrderCommand(
			f.drugOrder(t, order.ActionNew, day1, f.ibuprofen200),
			commands.OrderContext{OrderType: &f.testType, CareSetting: &f.outpatient},
			false,
			nil,
		)
		require.NoError(t, err)

		_, err = f.saveHandler(t).Handle(t.Context(), cmd)
		require.ErrorIs(t, err, order.ErrOrderTypeMismatch)
	})

	t.Run("revision of another orderable", func(t *testing.T) {
		f := newFixture(t)
		h := f.saveHandler(t)
		a := f.mustSave(t, h, f.drugOrder(t, order.ActionNew, day1, f.ibuprofen200))

		o := f.drugOrder(t, order.ActionRevise, day2, f.ibuprofen400)
		prev := a.UUID()
		require.NoError(t, o.SetPreviousOrder(&prev))

		_, err := f.save(t, h, o)
		var edited *order.EditedOrderDoesNotMatchPreviousError
		require.ErrorAs(t, err, &edited)
		assert.Equal(t, order.FieldOrderable, edited.Field)
		assert.Nil(t, f.get(t, a.UUID()).DateStopped(), "previous order must not be stopped")
	})

	t.Run("revision in another care setting", func(t *testing.T) {
		f := newFixture(t)
		h := f.saveHandler(t)
		a := f.mustSave(t, h, f.drugOrder(t, order.ActionNew, day1, f.ibuprofen200))

		o := f.revisionOf(t, a, order.ActionRevise, day2)
		require.NoError(t, o.SetCareSetting(f.inpatient))

		_, err := f.save(t, h, o)
		var edited *order.EditedOrderDoesNotMatchPreviousError
		require.ErrorAs(t, err, &edited)
		assert.Equal(t, order.FieldCareSetting, edited.Field)
	})

	t.Run("revision of a discontinuation", func(t *testing.T) {
		f := newFixture(t)
		h := f.saveHandler(t)
		a := f.mustSave(t, h, f.drugOrder(t, order.ActionNew, day1, f.ibuprofen200))
		dc := f.mustSave(t, h, f.revisionOf(t, a, order.ActionDiscontinue, day2))

		_, err := f.save(t, h, f.revisionOf(t, dc, order.ActionRevise, day3))
		require.ErrorIs(t, err, order.ErrCannotStopDiscontinuationOrder)
	})

	t.Run("not authorized", func(t *testing.T) {
		f := newFixture(t)
		deps := f.deps()
		deps.Authorizer = authz.NewStatic(ports.PrivilegeGetOrders)
		h, err := commands.NewSaveOrderCommandHandler(commands.SaveOrderCommandHandlerDeps{
			Deps:     deps,
			Concepts: f.store.Concepts(),
			Numbers:  &failingGenerator{},
		})
		require.NoError(t, err)

		_, err = f.save(t, h, f.drugOrder(t, order.ActionNew, day1, f.ibuprofen200))
		require.ErrorIs(t, err, ports.ErrNotAuthorized)
		assert.Equal(t, []string{"save:not_authorized"}, f.metrics.rejected)
	})
}

func TestSaveOrderCommandHandler_NumberingFailureSavesNothing(t *testing.T) {
	f := newFixture(t)
	h, err := commands.NewSaveOrderCommandHandler(commands.SaveOrderCommandHandlerDeps{
		Deps:     f.deps(),
		Concepts: f.store.Concepts(),
		Numbers:  &failingGenerator{},
	})
	require.NoError(t, err)

	o := f.drugOrder(t, order.ActionNew, day1, f.ibuprofen200)
	_, err = f.save(t, h, o)
	require.Error(t, err)
	assert.Equal(t, []string{"save:infrastructure"}, f.metrics.rejected)

	_, err = memory.NewUnitOfWorkFactory(f.store).Create().OrderRepository().GetByUUID(t.Context(), o.UUID())
	require.Error(t, err)
}

func TestSaveOrderCommandHandler_ConcurrentNumbersAreUnique(t *testing.T) {
	f := newFixture(t)
	h := f.saveHandler(t)

	const n = 25
	numbers := make(chan string, n)
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o, err := order.NewOrder(kernel.NewUUID(), kernel.NewUUID(), order.ActionNew, order.VariantDrug)
			if !assert.NoError(t, err) {
				return
			}
			if !assert.NoError(t, o.SetDrug(f.ibuprofen200)) {
				return
			}
			cmd, err := commands.NewSaveOrderCommand(o, commands.OrderContext{CareSetting: &f.outpatient}, false, nil)
			if !assert.NoError(t, err) {
				return
			}
			saved, err := h.Handle(t.Context(), cmd)
			if assert.NoError(t, err) {
				numbers <- saved.OrderNumber()
			}
		}()
	}
	wg.Wait()
	close(numbers)

	seen := make(map[string]struct{}, n)
	for number := range numbers {
		_, dup := seen[number]
		assert.False(t, dup, "duplicate order number %s", number)
		seen[number] = struct{}{}
	}
	assert.Len(t, seen, n)
}

func TestSaveOrderCommandHandler_ConceptClassMapping(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()

	class := kernel.NewUUID()
	f.store.RegisterConcept(f.bloodCount, class)
	parent := f.testType
	hematology, err := order.NewOrderType(kernel.NewUUID(), "Hematology", order.VariantTest, &parent)
	require.NoError(t, err)
	require.NoError(t, hematology.MapConceptClass(class))
	require.NoError(t, memory.NewUnitOfWorkFactory(f.store).Create().OrderTypeRepository().Add(ctx, hematology))

	o, err := order.NewOrder(kernel.NewUUID(), f.patient, order.ActionNew, order.VariantTest)
	require.NoError(t, err)
	require.NoError(t, o.SetConcept(f.bloodCount))

	saved, err := f.save(t, f.saveHandler(t), o)
	require.NoError(t, err)
	assert.Equal(t, hematology.UUID(), *saved.OrderType())
}

func TestNewSaveOrderCommandHandler_RequiresDependencies(t *testing.T) {
	f := newFixture(t)

	_, err := commands.NewSaveOrderCommandHandler(commands.SaveOrderCommandHandlerDeps{Deps: f.deps()})
	require.Error(t, err)

	deps := f.deps()
	deps.UoWFactory = nil
	_, err = commands.NewSaveOrderCommandHandler(commands.SaveOrderCommandHandlerDeps{
		Deps:     deps,
		Concepts: f.store.Concepts(),
		Numbers:  &failingGenerator{},
	})
	require.Error(t, err)
}

type failingGenerator struct{}

func (*failingGenerator) Next(_ context.Context) (string, error) {
	return "", errors.New("sequence unavailable")
}
