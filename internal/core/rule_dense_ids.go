package core

import (
	"context"
	"fmt"
	"strconv"

	"estateledger/pkg/domain"
)

// NewDenseIDsRule blocks states where property or lease ids are not 1..N in
// registration order. Lookups resolve id N to position N-1.
func NewDenseIDsRule() domain.Rule {
	return denseIDsRule{}
}

type denseIDsRule struct{}

func (denseIDsRule) Name() string { return "dense_ids" }

func (r denseIDsRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for i, p := range view.ListProperties() {
		if want := domain.PropertyID(i + 1); p.ID != want {
			res.Violations = append(res.Violations, r.violation(domain.EntityProperty, uint64(p.ID), uint64(want)))
		}
	}
	for i, l := range view.ListLeases() {
		if want := domain.LeaseID(i + 1); l.ID != want {
			res.Violations = append(res.Violations, r.violation(domain.EntityLease, uint64(l.ID), uint64(want)))
		}
	}
	return res, nil
}

func (r denseIDsRule) violation(entity domain.EntityType, got, want uint64) domain.Violation {
	return domain.Violation{
		Rule:     r.Name(),
		Severity: domain.SeverityBlock,
		Message:  fmt.Sprintf("%s at position %d has id %d", entity, want, got),
		Entity:   entity,
		EntityID: strconv.FormatUint(got, 10),
	}
}
