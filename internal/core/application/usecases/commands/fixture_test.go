package commands_test

import (
	"sync"
	"testing"
	"time"

	"clinicalorders/internal/adapters/out/authz"
	"clinicalorders/internal/adapters/out/memory"
	"clinicalorders/internal/core/application/numbering"
	"clinicalorders/internal/core/application/usecases/commands"
	"clinicalorders/internal/core/domain/model/kernel"
	"clinicalorders/internal/core/domain/model/order"
	"clinicalorders/internal/core/ports"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var (
	day1 = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	day2 = day1.AddDate(0, 0, 1)
	day3 = day1.AddDate(0, 0, 2)
)

type funcUoWFactory func() commands.OrderUoW

func (f funcUoWFactory) Create() commands.OrderUoW {
	return f()
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type recorder struct {
	mu       sync.Mutex
	saved    []string
	rejected []string
	stopped  int
	voided   int
	unvoided int
}

func (r *recorder) OrderSaved(action string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = append(r.saved, action)
}

func (r *recorder) OrderRejected(operation, kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejected = append(r.rejected, operation+":"+kind)
}

func (r *recorder) OrderStopped() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped++
}

func (r *recorder) OrderVoided() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.voided++
}

func (r *recorder) OrderUnvoided() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unvoided++
}

// fixture is an in-memory order store seeded with a drug and a test order type, an
// outpatient and an inpatient care setting, and ibuprofen in two strengths.
type fixture struct {
	store   *memory.Store
	locker  *memory.Locker
	clock   *testClock
	metrics *recorder

	patient    kernel.UUID
	outpatient kernel.UUID
	inpatient  kernel.UUID
	drugType   kernel.UUID
	testType   kernel.UUID

	ibuprofen    kernel.UUID
	ibuprofen200 kernel.UUID
	ibuprofen400 kernel.UUID
	bloodCount   kernel.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := t.Context()

	f := &fixture{
		store:        memory.NewStore(),
		locker:       memory.NewLocker(),
		clock:        &testClock{now: day3},
		metrics:      &recorder{},
		patient:      kernel.NewUUID(),
		outpatient:   kernel.NewUUID(),
		inpatient:    kernel.NewUUID(),
		drugType:     kernel.NewUUID(),
		testType:     kernel.NewUUID(),
		ibuprofen:    kernel.NewUUID(),
		ibuprofen200: kernel.NewUUID(),
		ibuprofen400: kernel.NewUUID(),
		bloodCount:   kernel.NewUUID(),
	}

	uow := memory.NewUnitOfWorkFactory(f.store).Create()

	drugs, err := order.NewOrderType(f.drugType, "Drug order", order.VariantDrug, nil)
	require.NoError(t, err)
	require.NoError(t, uow.OrderTypeRepository().Add(ctx, drugs))
	tests, err := order.NewOrderType(f.testType, "Test order", order.VariantTest, nil)
	require.NoError(t, err)
	require.NoError(t, uow.OrderTypeRepository().Add(ctx, tests))

	outpatient, err := order.NewCareSetting(f.outpatient, "Outpatient", order.CareSettingKindOutpatient, false)
	require.NoError(t, err)
	require.NoError(t, uow.CareSettingRepository().Add(ctx, outpatient))
	inpatient, err := order.NewCareSetting(f.inpatient, "Inpatient", order.CareSettingKindInpatient, false)
	require.NoError(t, err)
	require.NoError(t, uow.CareSettingRepository().Add(ctx, inpatient))

	f.store.RegisterDrug(f.ibuprofen200, f.ibuprofen)
	f.store.RegisterDrug(f.ibuprofen400, f.ibuprofen)

	return f
}

func (f *fixture) deps() commands.Deps {
	factory := memory.NewUnitOfWorkFactory(f.store)
	return commands.Deps{
		UoWFactory: funcUoWFactory(func() commands.OrderUoW { return factory.Create() }),
		Locker:     f.locker,
		Authorizer: authz.AllowAll{},
		Clock:      f.clock.Now,
		Logger:     zerolog.Nop(),
		Metrics:    f.metrics,
	}
}

func (f *fixture) saveHandler(t *testing.T) *commands.SaveOrderCommandHandler {
	t.Helper()
	numbers, err := numbering.NewSequenceGenerator(numbering.DefaultPrefix, memory.NewSequence(1))
	require.NoError(t, err)
	h, err := commands.NewSaveOrderCommandHandler(commands.SaveOrderCommandHandlerDeps{
		Deps:     f.deps(),
		Concepts: f.store.Concepts(),
		Numbers:  numbers,
	})
	require.NoError(t, err)
	return h
}

func (f *fixture) drugOrder(t *testing.T, action order.Action, activated time.Time, drug kernel.UUID) *order.Order {
	t.Helper()
	o, err := order.NewOrder(kernel.NewUUID(), f.patient, action, order.VariantDrug)
	require.NoError(t, err)
	require.NoError(t, o.SetDrug(drug))
	require.NoError(t, o.SetDateActivated(activated))
	return o
}

func (f *fixture) revisionOf(t *testing.T, previous *order.Order, action order.Action, activated time.Time) *order.Order {
	t.Helper()
	o := f.drugOrder(t, action, activated, *previous.Drug())
	prev := previous.UUID()
	require.NoError(t, o.SetPreviousOrder(&prev))
	return o
}

// save submits o in the outpatient setting.
func (f *fixture) save(
	t *testing.T,
	h *commands.SaveOrderCommandHandler,
	o *order.Order,
	allowedParallel ...kernel.UUID,
) (*order.Order, error) {
	t.Helper()
	cmd, err := commands.NewSaveOrderCommand(o, commands.OrderContext{CareSetting: &f.outpatient}, false, allowedParallel)
	require.NoError(t, err)
	return h.Handle(t.Context(), cmd)
}

func (f *fixture) mustSave(t *testing.T, h *commands.SaveOrderCommandHandler, o *order.Order) *order.Order {
	t.Helper()
	saved, err := f.save(t, h, o)
	require.NoError(t, err)
	return saved
}

func (f *fixture) get(t *testing.T, id kernel.UUID) *order.Order {
	t.Helper()
	o, err := memory.NewUnitOfWorkFactory(f.store).Create().OrderRepository().GetByUUID(t.Context(), id)
	require.NoError(t, err)
	return o
}

// activeUUIDs lists the patient's orders active at asOf.
func (f *fixture) activeUUIDs(t *testing.T, asOf time.Time) []kernel.UUID {
	t.Helper()
	active, err := memory.NewUnitOfWorkFactory(f.store).Create().OrderRepository().
		GetActiveOrders(t.Context(), ports.ActiveOrdersFilter{Patient: f.patient, AsOf: asOf})
	require.NoError(t, err)
	ids := make([]kernel.UUID, 0, len(active))
	for _, o := range active {
		ids = append(ids, o.UUID())
	}
	return ids
}
