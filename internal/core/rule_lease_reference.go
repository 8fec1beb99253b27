package core

import (
	"context"
	"fmt"
	"strconv"

	"estateledger/pkg/domain"
)

// NewLeasePropertyReferenceRule blocks leases pointing at unknown properties.
func NewLeasePropertyReferenceRule() domain.Rule {
	return leasePropertyReferenceRule{}
}

type leasePropertyReferenceRule struct{}

func (leasePropertyReferenceRule) Name() string { return "lease_property_reference" }

func (r leasePropertyReferenceRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, l := range view.ListLeases() {
		if _, ok := view.FindProperty(l.PropertyID); ok {
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     r.Name(),
			Severity: domain.SeverityBlock,
			Message:  fmt.Sprintf("lease %d references missing property %d", l.ID, l.PropertyID),
			Entity:   domain.EntityLease,
			EntityID: strconv.FormatUint(uint64(l.ID), 10),
		})
	}
	return res, nil
}
