package orderrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clinicalorders/internal/core/domain/model/kernel"
	"clinicalorders/internal/core/domain/model/order"
	"clinicalorders/internal/core/ports"
	"clinicalorders/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const uniqueViolation = "23505"

// mutableColumns are the only columns Update writes. Everything else is fixed once
// the order is saved.
var mutableColumns = []string{
	"date_stopped",
	"fulfiller_status",
	"fulfiller_comment",
	"voided",
	"voided_by",
	"date_voided",
	"void_reason",
}

var _ ports.OrderRepository = (*GormOrderRepository)(nil)

// GormOrderRepository implements OrderRepository using GORM.
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GORM order repository.
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Add inserts a candidate order and assigns the generated id to it.
func (r *GormOrderRepository) Add(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}
	if aggregate.IsPersisted() {
		return order.NewUnchangeableObjectError(aggregate.UUID().String())
	}

	dto, err := fromDomain(aggregate)
	if err != nil {
		return err
	}
	if err = r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		if isUniqueViolation(err) {
			return errs.NewValueIsInvalidErrorWithCause("order",
				fmt.Errorf("order %s or number %q already exists: %w", aggregate.UUID(), aggregate.OrderNumber(), err))
		}
		return err
	}

	return aggregate.AssignID(dto.ID)
}

// Update writes the mutable columns of a persisted order.
func (r *GormOrderRepository) Update(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto, err := fromDomain(aggregate)
	if err != nil {
		return err
	}
	result := r.db.WithContext(ctx).
		Model(&OrderDTO{}).
		Where("uuid = ?", dto.UUID).
		Select(mutableColumns).
		Updates(&dto)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("orderUuid", aggregate.UUID())
	}

	return nil
}

func (r *GormOrderRepository) Delete(ctx context.Context, id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}

	result := r.db.WithContext(ctx).Where("uuid = ?", id.Bytes()).Delete(&OrderDTO{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("orderUuid", id)
	}

	return nil
}

func (r *GormOrderRepository) Get(ctx context.Context, id int64) (*order.Order, error) {
	return r.first(ctx, "orderId", id, "id = ?", id)
}

func (r *GormOrderRepository) GetByUUID(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	return r.first(ctx, "orderUuid", id, "uuid = ?", id.Bytes())
}

func (r *GormOrderRepository) GetByOrderNumber(ctx context.Context, number string) (*order.Order, error) {
	return r.first(ctx, "orderNumber", number, "order_number = ?", number)
}

// GetActiveOrders returns the patient's orders active at filter.AsOf.
func (r *GormOrderRepository) GetActiveOrders(ctx context.Context, filter ports.ActiveOrdersFilter) ([]*order.Order, error) {
	if err := filter.Patient.Validate(); err != nil {
		return nil, err
	}

	q := r.db.WithContext(ctx).
		Scopes(ActiveAt(filter.AsOf)).
		Where("patient = ?", filter.Patient.Bytes())
	if filter.CareSetting != nil {
		q = q.Where("care_setting = ?", filter.CareSetting.Bytes())
	}
	if len(filter.OrderTypes) > 0 {
		types := make([]uuid.UUID, 0, len(filter.OrderTypes))
		for _, t := range filter.OrderTypes {
			types = append(types, t.Bytes())
		}
		q = q.Where("order_type IN ?", types)
	}

	return r.find(q)
}

func (r *GormOrderRepository) GetAllActive(ctx context.Context, asOf time.Time) ([]*order.Order, error) {
	return r.find(r.db.WithContext(ctx).Scopes(ActiveAt(asOf)))
}

func (r *GormOrderRepository) ExistsWithPreviousOrder(ctx context.Context, id kernel.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&OrderDTO{}).
		Where("previous_order = ?", id.Bytes()).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ActiveAt restricts a query on the orders table to orders in effect at asOf.
func ActiveAt(asOf time.Time) func(*gorm.DB) *gorm.DB {
	at := kernel.Instant(asOf)
	return func(db *gorm.DB) *gorm.DB {
		return db.
			Where("voided = ?", false).
			Where("action <> ?", order.ActionDiscontinue.String()).
			Where("date_activated <= ?", at).
			Where("date_stopped IS NULL OR date_stopped > ?", at).
			Where("auto_expire_date IS NULL OR auto_expire_date > ?", at)
	}
}

func (r *GormOrderRepository) first(ctx context.Context, param string, key any, query string, args ...any) (*order.Order, error) {
	var dto OrderDTO
	if err := r.db.WithContext(ctx).First(&dto, append([]any{query}, args...)...).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError(param, key)
		}
		return nil, err
	}

	return toDomain(dto)
}

func (r *GormOrderRepository) find(q *gorm.DB) ([]*order.Order, error) {
	var dtos []OrderDTO
	if err := q.Order("date_activated, id").Find(&dtos).Error; err != nil {
		return nil, err
	}

	orders := make([]*order.Order, 0, len(dtos))
	for _, dto := range dtos {
		o, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}

	return orders, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
