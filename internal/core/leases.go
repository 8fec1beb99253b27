package core

import (
	"context"
	"fmt"

	"estateledger/pkg/domain"
)

// LeaseInput carries the registration fields of a lease. Dates are opaque.
type LeaseInput struct {
	PropertyID        PropertyID
	TenantName        string
	TenantEmail       string
	TenantPhone       string
	StartDate         string
	EndDate           string
	MonthlyRent       Amount
	SecurityDeposit   Amount
	Terms             string
	SpecialConditions string
}

// RegisterLease records an Active lease with caller as tenant. The property
// must exist.
func (s *Service) RegisterLease(ctx context.Context, caller Principal, in LeaseInput) (Lease, error) {
	var created Lease
	err := s.mutate(ctx, "register_lease", caller, func(tx Transaction) error {
		if _, ok := tx.FindProperty(in.PropertyID); !ok {
			return fmt.Errorf("property %d: %w", in.PropertyID, domain.ErrPropertyNotFound)
		}
		var err error
		created, err = tx.CreateLease(Lease{
			PropertyID:        in.PropertyID,
			Tenant:            caller,
			TenantName:        in.TenantName,
			TenantEmail:       in.TenantEmail,
			TenantPhone:       in.TenantPhone,
			StartDate:         in.StartDate,
			EndDate:           in.EndDate,
			MonthlyRent:       in.MonthlyRent,
			SecurityDeposit:   in.SecurityDeposit,
			Terms:             in.Terms,
			SpecialConditions: in.SpecialConditions,
			Status:            domain.LeaseActive,
		})
		return err
	})
	return created, err
}

// ListLeases returns every lease in id order.
func (s *Service) ListLeases(ctx context.Context) ([]Lease, error) {
	var out []Lease
	err := s.read(ctx, "list_leases", "", func(v View) error {
		out = v.ListLeases()
		return nil
	})
	return out, err
}

// ListMyLeases returns the leases whose tenant is caller.
func (s *Service) ListMyLeases(ctx context.Context, caller Principal) ([]Lease, error) {
	out := []Lease{}
	err := s.read(ctx, "list_my_leases", caller, func(v View) error {
		for _, l := range v.ListLeases() {
			if l.Tenant == caller {
				out = append(out, l)
			}
		}
		return nil
	})
	return out, err
}
