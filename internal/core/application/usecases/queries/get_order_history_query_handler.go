package queries

import (
	"context"
	"database/sql"

	"clinicalorders/internal/core/domain/model/kernel"
	"clinicalorders/internal/pkg/errs"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaxHistoryDepth bounds the chain walk. previous_order links are written once and
// cannot form a cycle through the lifecycle engine, but rows edited by hand could.
const MaxHistoryDepth = 1000

// GetOrderHistoryQueryHandler reads the chain straight from the orders table with a
// recursive query.
type GetOrderHistoryQueryHandler struct {
	db *gorm.DB
}

func NewGetOrderHistoryQueryHandler(db *gorm.DB) GetOrderHistoryQueryHandler {
	return GetOrderHistoryQueryHandler{db: db}
}

// Handle returns the order followed by each previous order in turn. An unknown
// order is errs.ErrObjectNotFound.
func (h GetOrderHistoryQueryHandler) Handle(
	ctx context.Context,
	query GetOrderHistoryQuery,
) ([]GetOrderHistoryQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	rows, err := h.db.WithContext(ctx).Raw(`
		WITH RECURSIVE chain AS (
			SELECT uuid, order_number, action, previous_order, date_activated, date_stopped, voided,
				0 AS depth, ARRAY[uuid] AS path
			FROM orders
			WHERE uuid = ?
			UNION ALL
			SELECT o.uuid, o.order_number, o.action, o.previous_order, o.date_activated, o.date_stopped, o.voided,
				c.depth + 1, c.path || o.uuid
			FROM orders o
			JOIN chain c ON o.uuid = c.previous_order
			WHERE c.depth < ? AND NOT o.uuid = ANY(c.path)
		)
		SELECT uuid, order_number, action, date_activated, date_stopped, voided
		FROM chain
		ORDER BY depth
	`, query.OrderUUID().Bytes(), MaxHistoryDepth).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := make([]GetOrderHistoryQueryResponse, 0)
	for rows.Next() {
		var (
			entry   GetOrderHistoryQueryResponse
			id      uuid.UUID
			stopped sql.NullTime
		)
		if err = rows.Scan(&id, &entry.OrderNumber, &entry.Action, &entry.DateActivated, &stopped, &entry.Voided); err != nil {
			return nil, err
		}

		orderID, idErr := kernel.UUIDFromBytes(id[:])
		if idErr != nil {
			return nil, idErr
		}
		entry.UUID = orderID
		entry.DateActivated = entry.DateActivated.UTC()
		if stopped.Valid {
			t := stopped.Time.UTC()
			entry.DateStopped = &t
		}
		history = append(history, entry)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	if len(history) == 0 {
		return nil, errs.NewObjectNotFoundError("orderUuid", query.OrderUUID())
	}
	return history, nil
}
