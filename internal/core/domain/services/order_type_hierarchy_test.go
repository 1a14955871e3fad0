package services_test

import (
	"context"
	"errors"
	"testing"

	"clinicalorders/internal/core/domain/model/kernel"
	"clinicalorders/internal/core/domain/model/order"
	"clinicalorders/internal/core/domain/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSubtypeSource struct {
	mock.Mock
}

func (m *MockSubtypeSource) GetSubtypes(ctx context.Context, parent kernel.UUID, includeRetired bool) ([]*order.OrderType, error) {
	args := m.Called(ctx, parent, includeRetired)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.OrderType), args.Error(1)
}

func newType(t *testing.T, name string, parent *kernel.UUID) *order.OrderType {
	t.Helper()
	ot, err := order.NewOrderType(kernel.NewUUID(), name, order.VariantGeneric, parent)
	require.NoError(t, err)
	return ot
}

func TestOrderTypeHierarchy_Subtypes(t *testing.T) {
	t.Run("should walk the tree breadth first", func(t *testing.T) {
		ctx := t.Context()
		root := newType(t, "Order", nil)
		drug := newType(t, "Drug Order", root.UUID().Ptr())
		test := newType(t, "Test Order", root.UUID().Ptr())
		infusion := newType(t, "Infusion", drug.UUID().Ptr())

		source := &MockSubtypeSource{}
		source.On("GetSubtypes", ctx, root.UUID(), true).Return([]*order.OrderType{drug, test}, nil)
		source.On("GetSubtypes", ctx, drug.UUID(), true).Return([]*order.OrderType{infusion}, nil)
		source.On("GetSubtypes", ctx, test.UUID(), true).Return([]*order.OrderType{}, nil)
		source.On("GetSubtypes", ctx, infusion.UUID(), true).Return(nil, nil)

		subtypes, err := services.NewOrderTypeHierarchy(source).Subtypes(ctx, root.UUID(), true)

		require.NoError(t, err)
		require.Len(t, subtypes, 3)
		assert.Equal(t, []string{"Drug Order", "Test Order", "Infusion"},
			[]string{subtypes[0].Name(), subtypes[1].Name(), subtypes[2].Name()})
		source.AssertExpectations(t)
	})

	t.Run("should include the root in WithSubtypes", func(t *testing.T) {
		ctx := t.Context()
		root := newType(t, "Lab", nil)
		child := newType(t, "Hematology", root.UUID().Ptr())

		source := &MockSubtypeSource{}
		source.On("GetSubtypes", ctx, root.UUID(), false).Return([]*order.OrderType{child}, nil)
		source.On("GetSubtypes", ctx, child.UUID(), false).Return(nil, nil)

		ids, err := services.NewOrderTypeHierarchy(source).WithSubtypes(ctx, root.UUID(), false)

		require.NoError(t, err)
		assert.Equal(t, []kernel.UUID{root.UUID(), child.UUID()}, ids)
	})

	t.Run("should reject a cycle instead of looping", func(t *testing.T) {
		ctx := t.Context()
		a := newType(t, "A", nil)
		b := newType(t, "B", a.UUID().Ptr())

		source := &MockSubtypeSource{}
		source.On("GetSubtypes", ctx, a.UUID(), true).Return([]*order.OrderType{b}, nil)
		source.On("GetSubtypes", ctx, b.UUID(), true).Return([]*order.OrderType{a}, nil)

		_, err := services.NewOrderTypeHierarchy(source).Subtypes(ctx, a.UUID(), true)

		assert.ErrorIs(t, err, services.ErrOrderTypeCycle)
	})

	t.Run("should propagate store failures", func(t *testing.T) {
		ctx := t.Context()
		root := newType(t, "Order", nil)
		storeErr := errors.New("connection reset")

		source := &MockSubtypeSource{}
		source.On("GetSubtypes", ctx, root.UUID(), true).Return(nil, storeErr)

		_, err := services.NewOrderTypeHierarchy(source).Subtypes(ctx, root.UUID(), true)

		assert.ErrorIs(t, err, storeErr)
	})

	t.Run("should reject an empty root", func(t *testing.T) {
		_, err := services.NewOrderTypeHierarchy(&MockSubtypeSource{}).Subtypes(t.Context(), kernel.UUID{}, true)

		assert.ErrorIs(t, err, kernel.ErrUUIDIsNotConstructed)
	})
}
