// Package memory keeps orders, the order type catalog and the concept dictionary in
// process memory. It backs single-node deployments without a database lock service
// and the command tests.
//
// Writes made through a UnitOfWork stay private to it until Commit. Catalog and
// dictionary registrations are applied to the Store immediately.
package memory

import (
	"context"
	"fmt"
	"sync"

	"clinicalorders/internal/core/domain/model/kernel"
	"clinicalorders/internal/core/domain/model/order"
	"clinicalorders/internal/pkg/errs"
)

// Store is the shared state behind every UnitOfWork created from it.
type Store struct {
	mu     sync.RWMutex
	orders map[kernel.UUID]order.Snapshot
	lastID int64

	types        map[kernel.UUID]*order.OrderType
	careSettings map[kernel.UUID]*order.CareSetting

	drugConcepts   map[kernel.UUID]kernel.UUID
	conceptClasses map[kernel.UUID]kernel.UUID
}

func NewStore() *Store {
	return &Store{
		orders:         make(map[kernel.UUID]order.Snapshot),
		types:          make(map[kernel.UUID]*order.OrderType),
		careSettings:   make(map[kernel.UUID]*order.CareSetting),
		drugConcepts:   make(map[kernel.UUID]kernel.UUID),
		conceptClasses: make(map[kernel.UUID]kernel.UUID),
	}
}

// RegisterDrug records the concept a drug is a formulation of.
func (s *Store) RegisterDrug(drug, concept kernel.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drugConcepts[drug] = concept
}

// RegisterConcept records the class of a concept.
func (s *Store) RegisterConcept(concept, class kernel.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conceptClasses[concept] = class
}

// Concepts exposes the registered drugs and concepts as a ports.ConceptDirectory.
func (s *Store) Concepts() *ConceptDirectory {
	return &ConceptDirectory{store: s}
}

func (s *Store) nextID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastID++
	return s.lastID
}

// ConceptDirectory answers drug and concept class lookups from a Store.
type ConceptDirectory struct {
	store *Store
}

func (d *ConceptDirectory) ConceptOfDrug(_ context.Context, drug kernel.UUID) (kernel.UUID, error) {
	d.store.mu.RLock()
	defer d.store.mu.RUnlock()
	concept, ok := d.store.drugConcepts[drug]
	if !ok {
		return kernel.UUID{}, errs.NewObjectNotFoundError("drug", drug)
	}
	return concept, nil
}

func (d *ConceptDirectory) ConceptClassOf(_ context.Context, concept kernel.UUID) (kernel.UUID, error) {
	d.store.mu.RLock()
	defer d.store.mu.RUnlock()
	class, ok := d.store.conceptClasses[concept]
	if !ok {
		return kernel.UUID{}, errs.NewObjectNotFoundError("concept", concept)
	}
	return class, nil
}

func copyOrderType(t *order.OrderType) (*order.OrderType, error) {
	c, err := order.RestoreOrderType(t.UUID(), t.Name(), t.Variant(), t.Parent(), t.IsRetired(), t.ConceptClasses())
	if err != nil {
		return nil, fmt.Errorf("copy order type %s: %w", t.UUID(), err)
	}
	return c, nil
}
