// Package ledger exposes the ledger operations the way remote callers see
// them: mutating calls answer with a human-readable status line, reads return
// records.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"estateledger/internal/core"
	"estateledger/pkg/domain"
)

// Status lines returned to callers.
const (
	StatusUserRegistered      = "User registered successfully"
	StatusAnonymous           = "Anonymous Principal not allowed"
	StatusAlreadyRegistered   = "User already registered"
	StatusInvalidPropertyType = "Invalid property type"
	StatusPropertyNotFound    = "Property not found"
	StatusZeroShares          = "Cannot buy zero shares"
	StatusOverflow            = "Purchase amount overflows ledger arithmetic"
)

// Endpoint dispatches caller requests to a core.Service.
type Endpoint struct {
	svc *core.Service
}

// NewEndpoint wraps svc.
func NewEndpoint(svc *core.Service) *Endpoint {
	return &Endpoint{svc: svc}
}

// status renders validation failures as status lines. Anything else, a
// failed snapshot write above all, is returned as an error: the call did not
// happen.
func status(err error) (string, error) {
	var insufficient domain.InsufficientSharesError
	switch {
	case errors.As(err, &insufficient):
		return fmt.Sprintf("Not enough shares available. Only %d shares left", insufficient.Available), nil
	case errors.Is(err, domain.ErrInvalidCaller):
		return StatusAnonymous, nil
	case errors.Is(err, domain.ErrAlreadyRegistered):
		return StatusAlreadyRegistered, nil
	case errors.Is(err, domain.ErrInvalidPropertyType):
		return StatusInvalidPropertyType, nil
	case errors.Is(err, domain.ErrPropertyNotFound):
		return StatusPropertyNotFound, nil
	case errors.Is(err, domain.ErrZeroQuantity):
		return StatusZeroShares, nil
	case errors.Is(err, domain.ErrAmountOverflow):
		return StatusOverflow, nil
	default:
		return "", err
	}
}

// RegisterUser registers the caller.
func (e *Endpoint) RegisterUser(ctx context.Context, caller domain.Principal) (string, error) {
	if _, err := e.svc.RegisterUser(ctx, caller); err != nil {
		return status(err)
	}
	return StatusUserRegistered, nil
}

// GetUserData returns the caller's record, creating it on first use.
func (e *Endpoint) GetUserData(ctx context.Context, caller domain.Principal) (domain.User, error) {
	return e.svc.GetOrCreateUser(ctx, caller)
}

// RegisterProperty lists a property owned by the caller.
func (e *Endpoint) RegisterProperty(ctx context.Context, caller domain.Principal, in core.PropertyInput) (string, error) {
	p, err := e.svc.RegisterProperty(ctx, caller, in)
	if err != nil {
		return status(err)
	}
	return fmt.Sprintf("Property registered successfully with id: %d", p.ID), nil
}

// GetAllProperties lists every property.
func (e *Endpoint) GetAllProperties(ctx context.Context) ([]domain.Property, error) {
	return e.svc.ListProperties(ctx)
}

// GetUserRegisteredProperties lists the properties the caller registered.
func (e *Endpoint) GetUserRegisteredProperties(ctx context.Context, caller domain.Principal) ([]domain.Property, error) {
	return e.svc.ListRegisteredProperties(ctx, caller)
}

// RegisterLease records a lease with the caller as tenant.
func (e *Endpoint) RegisterLease(ctx context.Context, caller domain.Principal, in core.LeaseInput) (string, error) {
	l, err := e.svc.RegisterLease(ctx, caller, in)
	if err != nil {
		return status(err)
	}
	return fmt.Sprintf("Lease registered with ID: %d", l.ID), nil
}

// GetAllLeases lists every lease.
func (e *Endpoint) GetAllLeases(ctx context.Context) ([]domain.Lease, error) {
	return e.svc.ListLeases(ctx)
}

// GetMyLeases lists the caller's leases.
func (e *Endpoint) GetMyLeases(ctx context.Context, caller domain.Principal) ([]domain.Lease, error) {
	return e.svc.ListMyLeases(ctx, caller)
}

// BuyShare buys shares of a property for the caller.
func (e *Endpoint) BuyShare(ctx context.Context, caller domain.Principal, id domain.PropertyID, shares domain.Shares) (string, error) {
	p, err := e.svc.BuyShares(ctx, caller, id, shares)
	if err != nil {
		return status(err)
	}
	return fmt.Sprintf("Successfully bought %d shares of property %d for a total of %d tokens", p.Shares, p.PropertyID, p.TotalCost), nil
}

// GetUserInvestedProperties lists the caller's holdings.
func (e *Endpoint) GetUserInvestedProperties(ctx context.Context, caller domain.Principal) ([]domain.InvestedProperty, error) {
	return e.svc.ListInvestedProperties(ctx, caller)
}

// PreUpgrade is fired by the host before the process is taken out of service.
func (e *Endpoint) PreUpgrade(ctx context.Context) error {
	return e.svc.Suspend(ctx)
}

// PostUpgrade is fired by the host when the process is back in service.
func (e *Endpoint) PostUpgrade(ctx context.Context) error {
	return e.svc.Resume(ctx)
}
