package queries_test

import (
	"testing"
	"time"

	"clinicalorders/internal/adapters/out/memory"
	"clinicalorders/internal/core/domain/model/kernel"
	"clinicalorders/internal/core/domain/model/order"

	"github.com/stretchr/testify/require"
)

var (
	day1 = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	day2 = day1.AddDate(0, 0, 1)
	day3 = day1.AddDate(0, 0, 2)
)

// fixture is an in-memory store with a drug type tree (drug > chemo > antibiotics,
// the last one retired) and a lab type.
type fixture struct {
	uow *memory.UnitOfWork

	patient    kernel.UUID
	outpatient kernel.UUID
	inpatient  kernel.UUID

	drugType  kernel.UUID
	chemoType kernel.UUID
	retired   kernel.UUID
	labType   kernel.UUID

	aspirin kernel.UUID
	tablet  kernel.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		uow:        memory.NewUnitOfWorkFactory(memory.NewStore()).Create(),
		patient:    kernel.NewUUID(),
		outpatient: kernel.NewUUID(),
		inpatient:  kernel.NewUUID(),
		drugType:   kernel.NewUUID(),
		chemoType:  kernel.NewUUID(),
		retired:    kernel.NewUUID(),
		labType:    kernel.NewUUID(),
		aspirin:    kernel.NewUUID(),
		tablet:     kernel.NewUUID(),
	}

	f.addType(t, f.drugType, "Drug order", order.VariantDrug, nil)
	f.addType(t, f.chemoType, "Chemotherapy", order.VariantDrug, f.drugType.Ptr())
	f.addType(t, f.retired, "Antibiotics", order.VariantDrug, f.chemoType.Ptr())
	f.addType(t, f.labType, "Lab test", order.VariantTest, nil)

	return f
}

func (f *fixture) addType(t *testing.T, id kernel.UUID, name string, variant order.Variant, parent *kernel.UUID) {
	t.Helper()
	ot, err := order.NewOrderType(id, name, variant, parent)
	require.NoError(t, err)
	if id.IsEqual(f.retired) {
		ot.Retire()
	}
	require.NoError(t, f.uow.OrderTypeRepository().Add(t.Context(), ot))
}

// add persists a drug order of the aspirin tablet.
func (f *fixture) add(t *testing.T, number string, orderType, careSetting kernel.UUID, activated time.Time) *order.Order {
	t.Helper()
	return f.addFor(t, f.patient, number, orderType, careSetting, activated)
}

func (f *fixture) addFor(
	t *testing.T,
	patient kernel.UUID,
	number string,
	orderType, careSetting kernel.UUID,
	activated time.Time,
) *order.Order {
	t.Helper()
	o, err := order.NewOrder(kernel.NewUUID(), patient, order.ActionNew, order.VariantDrug)
	require.NoError(t, err)
	require.NoError(t, o.SetConcept(f.aspirin))
	require.NoError(t, o.SetDrug(f.tablet))
	require.NoError(t, o.SetOrderType(orderType))
	require.NoError(t, o.SetCareSetting(careSetting))
	require.NoError(t, o.SetDateActivated(activated))
	require.NoError(t, o.AssignOrderNumber(number))
	require.NoError(t, f.uow.OrderRepository().Add(t.Context(), o))
	return o
}

func numbers(orders []*order.Order) []string {
	out := make([]string, 0, len(orders))
	for _, o := range orders {
		out = append(out, o.OrderNumber())
	}
	return out
}

func fixedClock(t time.Time) kernel.Clock {
	return func() time.Time { return t }
}
