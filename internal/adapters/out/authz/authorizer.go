// Package authz provides the privilege checks the command handlers consult before
// changing orders.
package authz

import (
	"context"
	"fmt"

	"clinicalorders/internal/core/ports"
)

var (
	_ ports.Authorizer = AllowAll{}
	_ ports.Authorizer = (*Static)(nil)
)

// AllowAll grants every privilege. Used by the CLI, which runs with operator rights.
type AllowAll struct{}

func (AllowAll) Authorize(context.Context, ports.Privilege) error {
	return nil
}

// Static grants a fixed set of privileges.
type Static struct {
	granted map[ports.Privilege]struct{}
}

func NewStatic(privileges ...ports.Privilege) *Static {
	granted := make(map[ports.Privilege]struct{}, len(privileges))
	for _, p := range privileges {
		granted[p] = struct{}{}
	}
	return &Static{granted: granted}
}

func (s *Static) Authorize(_ context.Context, privilege ports.Privilege) error {
	if _, ok := s.granted[privilege]; !ok {
		return fmt.Errorf("%w: missing privilege %q", ports.ErrNotAuthorized, privilege)
	}
	return nil
}
