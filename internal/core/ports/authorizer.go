package ports

import (
	"context"
	"errors"
)

// ErrNotAuthorized is wrapped by Authorizer implementations when a privilege is missing.
var ErrNotAuthorized = errors.New("not authorized")

// Privilege names an action a caller must be allowed to perform.
type Privilege string

const (
	PrivilegeAddOrders    Privilege = "Add Orders"
	PrivilegeEditOrders   Privilege = "Edit Orders"
	PrivilegeDeleteOrders Privilege = "Delete Orders"
	PrivilegePurgeOrders  Privilege = "Purge Orders"
	PrivilegeGetOrders    Privilege = "Get Orders"
)

// Authorizer is consulted before every mutating command.
type Authorizer interface {
	Authorize(ctx context.Context, privilege Privilege) error
}
