package queries

import (
	"errors"
	"time"

	"clinicalorders/internal/core/domain/model/kernel"
	"clinicalorders/internal/pkg/guard"
)

var ErrFindActiveOrderConflictsQueryIsNotConstructed = errors.New(
	"FindActiveOrderConflictsQuery must be created via NewFindActiveOrderConflictsQuery constructor",
)

// FindActiveOrderConflictsQuery scans the whole store for orders that are active at
// the same time although the save rules should have prevented it. Saves that race
// across processes without a shared lock are the usual cause.
type FindActiveOrderConflictsQuery struct { //nolint:recvcheck //using for validation
	asOf  *time.Time
	guard guard.ConstructorGuard
}

// NewFindActiveOrderConflictsQuery audits the instant asOf, or now when nil.
func NewFindActiveOrderConflictsQuery(asOf *time.Time) FindActiveOrderConflictsQuery {
	return FindActiveOrderConflictsQuery{asOf: kernel.InstantPtr(asOf), guard: guard.NewConstructorGuard()}
}

func (q FindActiveOrderConflictsQuery) Validate() error {
	return q.guard.Validate(ErrFindActiveOrderConflictsQueryIsNotConstructed)
}

func (q FindActiveOrderConflictsQuery) AsOf() *time.Time {
	return kernel.InstantPtr(q.asOf)
}

// ActiveOrderConflict is one order together with the later active orders it
// conflicts with.
type ActiveOrderConflict struct {
	Patient       kernel.UUID
	CareSetting   kernel.UUID
	Order         kernel.UUID
	OrderNumber   string
	ConflictsWith []kernel.UUID
}
