package memory

import (
	"context"
	"errors"

	"clinicalorders/internal/core/domain/model/kernel"
	"clinicalorders/internal/core/domain/model/order"
	"clinicalorders/internal/core/ports"
)

var ErrNoActiveTransaction = errors.New("memory: no active transaction")

var _ ports.UnitOfWork = (*UnitOfWork)(nil)

// UnitOfWorkFactory creates units of work over one Store.
type UnitOfWorkFactory struct {
	store *Store
}

func NewUnitOfWorkFactory(store *Store) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{store: store}
}

func (f *UnitOfWorkFactory) Create() *UnitOfWork {
	return &UnitOfWork{store: f.store}
}

// UnitOfWork buffers order writes between Begin and Commit. Outside a transaction
// writes go straight to the Store.
type UnitOfWork struct {
	store *Store

	active bool
	// pending holds written snapshots by uuid; a nil entry is a delete.
	pending map[kernel.UUID]*order.Snapshot
}

func (u *UnitOfWork) Begin(_ context.Context) error {
	u.active = true
	u.pending = make(map[kernel.UUID]*order.Snapshot)
	return nil
}

func (u *UnitOfWork) Commit(_ context.Context) error {
	if !u.active {
		return ErrNoActiveTransaction
	}

	u.store.mu.Lock()
	defer u.store.mu.Unlock()
	for id, s := range u.pending {
		if s == nil {
			delete(u.store.orders, id)
			continue
		}
		u.store.orders[id] = *s
	}

	u.active = false
	u.pending = nil
	return nil
}

func (u *UnitOfWork) Rollback(_ context.Context) error {
	if !u.active {
		return ErrNoActiveTransaction
	}
	u.active = false
	u.pending = nil
	return nil
}

func (u *UnitOfWork) InTx() bool {
	return u.active
}

func (u *UnitOfWork) OrderRepository() ports.OrderRepository {
	return &OrderRepository{uow: u}
}

func (u *UnitOfWork) OrderTypeRepository() ports.OrderTypeRepository {
	return &OrderTypeRepository{store: u.store}
}

func (u *UnitOfWork) CareSettingRepository() ports.CareSettingRepository {
	return &CareSettingRepository{store: u.store}
}

// lookup returns the snapshot visible to this unit of work.
func (u *UnitOfWork) lookup(id kernel.UUID) (order.Snapshot, bool) {
	if u.active {
		if s, ok := u.pending[id]; ok {
			if s == nil {
				return order.Snapshot{}, false
			}
			return *s, true
		}
	}

	u.store.mu.RLock()
	defer u.store.mu.RUnlock()
	s, ok := u.store.orders[id]
	return s, ok
}

// visible returns every snapshot visible to this unit of work.
func (u *UnitOfWork) visible() []order.Snapshot {
	u.store.mu.RLock()
	merged := make(map[kernel.UUID]order.Snapshot, len(u.store.orders))
	for id, s := range u.store.orders {
		merged[id] = s
	}
	u.store.mu.RUnlock()

	if u.active {
		for id, s := range u.pending {
			if s == nil {
				delete(merged, id)
				continue
			}
			merged[id] = *s
		}
	}

	out := make([]order.Snapshot, 0, len(merged))
	for _, s := range merged {
		out = append(out, s)
	}
	return out
}

func (u *UnitOfWork) write(id kernel.UUID, s *order.Snapshot) {
	if u.active {
		u.pending[id] = s
		return
	}

	u.store.mu.Lock()
	defer u.store.mu.Unlock()
	if s == nil {
		delete(u.store.orders, id)
		return
	}
	u.store.orders[id] = *s
}
