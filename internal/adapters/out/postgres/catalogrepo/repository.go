package catalogrepo

import (
	"context"
	"errors"
	"fmt"

	"clinicalorders/internal/core/domain/model/kernel"
	"clinicalorders/internal/core/domain/model/order"
	"clinicalorders/internal/core/ports"
	"clinicalorders/internal/pkg/errs"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	_ ports.OrderTypeRepository   = (*GormOrderTypeRepository)(nil)
	_ ports.CareSettingRepository = (*GormCareSettingRepository)(nil)
	_ ports.ConceptDirectory      = (*GormConceptDirectory)(nil)
)

type GormOrderTypeRepository struct {
	db *gorm.DB
}

func NewGormOrderTypeRepository(db *gorm.DB) *GormOrderTypeRepository {
	return &GormOrderTypeRepository{db: db}
}

// Add inserts the type together with its concept class mappings.
func (r *GormOrderTypeRepository) Add(ctx context.Context, orderType *order.OrderType) error {
	if err := orderType.Validate(); err != nil {
		return err
	}

	dto := orderTypeFromDomain(orderType)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		if isUniqueViolation(err) {
			return errs.NewValueIsInvalidErrorWithCause("orderType",
				fmt.Errorf("order type %s already exists: %w", orderType.UUID(), err))
		}
		return err
	}
	return nil
}

func (r *GormOrderTypeRepository) Get(ctx context.Context, id kernel.UUID) (*order.OrderType, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto OrderTypeDTO
	err := r.db.WithContext(ctx).Preload("ConceptClasses").First(&dto, "uuid = ?", id.Bytes()).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("orderType", id)
		}
		return nil, err
	}
	return orderTypeToDomain(dto)
}

func (r *GormOrderTypeRepository) GetSubtypes(
	ctx context.Context,
	parent kernel.UUID,
	includeRetired bool,
) ([]*order.OrderType, error) {
	q := r.db.WithContext(ctx).Where("parent = ?", parent.Bytes())
	if !includeRetired {
		q = q.Where("retired = ?", false)
	}
	return r.find(q)
}

func (r *GormOrderTypeRepository) GetByConceptClass(ctx context.Context, conceptClass kernel.UUID) (*order.OrderType, error) {
	mapped := r.db.Model(&OrderTypeConceptClassDTO{}).
		Select("order_type").
		Where("concept_class = ?", conceptClass.Bytes())

	found, err := r.find(r.db.WithContext(ctx).
		Where("retired = ?", false).
		Where("uuid IN (?)", mapped))
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, errs.NewObjectNotFoundError("conceptClass", conceptClass)
	}
	return found[0], nil
}

// GetByVariant returns the first unretired type, by name, declaring exactly variant.
func (r *GormOrderTypeRepository) GetByVariant(ctx context.Context, variant order.Variant) (*order.OrderType, error) {
	found, err := r.find(r.db.WithContext(ctx).
		Where("retired = ?", false).
		Where("variant = ?", variant.String()))
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, errs.NewObjectNotFoundError("variant", variant.String())
	}
	return found[0], nil
}

func (r *GormOrderTypeRepository) find(q *gorm.DB) ([]*order.OrderType, error) {
	var dtos []OrderTypeDTO
	if err := q.Preload("ConceptClasses").Order("name, uuid").Find(&dtos).Error; err != nil {
		return nil, err
	}

	types := make([]*order.OrderType, 0, len(dtos))
	for _, dto := range dtos {
		t, err := orderTypeToDomain(dto)
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, nil
}

type GormCareSettingRepository struct {
	db *gorm.DB
}

func NewGormCareSettingRepository(db *gorm.DB) *GormCareSettingRepository {
	return &GormCareSettingRepository{db: db}
}

func (r *GormCareSettingRepository) Add(ctx context.Context, careSetting *order.CareSetting) error {
	if err := careSetting.Validate(); err != nil {
		return err
	}

	dto := careSettingFromDomain(careSetting)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		if isUniqueViolation(err) {
			return errs.NewValueIsInvalidErrorWithCause("careSetting",
				fmt.Errorf("care setting %s already exists: %w", careSetting.UUID(), err))
		}
		return err
	}
	return nil
}

func (r *GormCareSettingRepository) Get(ctx context.Context, id kernel.UUID) (*order.CareSetting, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto CareSettingDTO
	if err := r.db.WithContext(ctx).First(&dto, "uuid = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("careSetting", id)
		}
		return nil, err
	}
	return careSettingToDomain(dto)
}

// GormConceptDirectory reads the concepts and drugs tables.
type GormConceptDirectory struct {
	db *gorm.DB
}

func NewGormConceptDirectory(db *gorm.DB) *GormConceptDirectory {
	return &GormConceptDirectory{db: db}
}

// RegisterConcept adds or reclassifies a concept.
func (d *GormConceptDirectory) RegisterConcept(ctx context.Context, concept, conceptClass kernel.UUID) error {
	dto := ConceptDTO{UUID: concept.Bytes(), ConceptClass: conceptClass.Bytes()}
	return d.db.WithContext(ctx).Save(&dto).Error
}

// RegisterDrug adds a drug formulation of concept.
func (d *GormConceptDirectory) RegisterDrug(ctx context.Context, drug, concept kernel.UUID) error {
	dto := DrugDTO{UUID: drug.Bytes(), Concept: concept.Bytes()}
	return d.db.WithContext(ctx).Save(&dto).Error
}

func (d *GormConceptDirectory) ConceptOfDrug(ctx context.Context, drug kernel.UUID) (kernel.UUID, error) {
	var dto DrugDTO
	if err := d.db.WithContext(ctx).First(&dto, "uuid = ?", drug.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return kernel.UUID{}, errs.NewObjectNotFoundError("drug", drug)
		}
		return kernel.UUID{}, err
	}
	return kernel.UUIDFromBytes(dto.Concept[:])
}

func (d *GormConceptDirectory) ConceptClassOf(ctx context.Context, concept kernel.UUID) (kernel.UUID, error) {
	var dto ConceptDTO
	if err := d.db.WithContext(ctx).First(&dto, "uuid = ?", concept.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return kernel.UUID{}, errs.NewObjectNotFoundError("concept", concept)
		}
		return kernel.UUID{}, err
	}
	return kernel.UUIDFromBytes(dto.ConceptClass[:])
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
