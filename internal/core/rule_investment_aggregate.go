package core

import (
	"context"
	"fmt"

	"estateledger/pkg/domain"
)

// NewInvestmentAggregateRule blocks user records holding more than one
// investment aggregate for the same property.
func NewInvestmentAggregateRule() domain.Rule {
	return investmentAggregateRule{}
}

type investmentAggregateRule struct{}

func (investmentAggregateRule) Name() string { return "investment_aggregate_unique" }

func (r investmentAggregateRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for id, user := range view.ListUsers() {
		seen := make(map[domain.PropertyID]struct{}, len(user.Investments))
		for _, inv := range user.Investments {
			if _, dup := seen[inv.PropertyID]; dup {
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     r.Name(),
					Severity: domain.SeverityBlock,
					Message:  fmt.Sprintf("duplicate investment aggregate for property %d", inv.PropertyID),
					Entity:   domain.EntityUser,
					EntityID: id.String(),
				})
				continue
			}
			seen[inv.PropertyID] = struct{}{}
		}
	}
	return res, nil
}
