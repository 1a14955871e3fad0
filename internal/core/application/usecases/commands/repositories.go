// Package commands contains the operations that change order state: saving candidates
// through the lifecycle engine, and the stop, void, unvoid, fulfiller and purge paths.
// Every handler validates its command, authorizes the caller, and does its writes in
// a single unit of work.
package commands

import (
	"context"

	"clinicalorders/internal/core/ports"
)

// Unit of Work interfaces provide transaction management for command handlers.
type (
	// TxManager handles database transaction lifecycle.
	TxManager interface {
		Begin(ctx context.Context) error
		Commit(ctx context.Context) error
		Rollback(ctx context.Context) error
	}

	// OrderRepoFactory provides access to the order repository within a transaction.
	OrderRepoFactory interface {
		OrderRepository() ports.OrderRepository
	}

	// CatalogRepoFactory provides the order type and care setting repositories.
	CatalogRepoFactory interface {
		OrderTypeRepository() ports.OrderTypeRepository
		CareSettingRepository() ports.CareSettingRepository
	}

	// OrderUoW manages transactions for lifecycle operations.
	//
	//   uow := factory.Create()
	//   err := uow.Begin(ctx)
	//   defer uow.Rollback(ctx)
	//
	//   orders := uow.OrderRepository()
	//   // ... perform operations
	//
	//   err = uow.Commit(ctx)
	OrderUoW interface {
		TxManager
		OrderRepoFactory
		CatalogRepoFactory
	}

	// OrderUoWFactory creates new order unit of work instances.
	OrderUoWFactory interface {
		Create() OrderUoW
	}
)
