package core

import (
	"context"
	"fmt"
	"strconv"

	"estateledger/pkg/domain"
)

// NewInvestorConsistencyRule blocks states where a property's investor map
// and its investors' user records disagree on the shares held. Investments
// naming unknown properties are left alone; listings skip them.
func NewInvestorConsistencyRule() domain.Rule {
	return investorConsistencyRule{}
}

type investorConsistencyRule struct{}

func (investorConsistencyRule) Name() string { return "investor_aggregate_consistency" }

func (r investorConsistencyRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	users := view.ListUsers()
	for _, p := range view.ListProperties() {
		for who, held := range p.Investors {
			var owned domain.Shares
			if inv, ok := users[who].InvestmentIn(p.ID); ok {
				owned = inv.SharesOwned
			}
			if owned != held {
				res.Violations = append(res.Violations, r.violation(p.ID, who, held, owned))
			}
		}
	}
	for who, u := range users {
		for _, inv := range u.Investments {
			p, ok := view.FindProperty(inv.PropertyID)
			if !ok {
				continue
			}
			if _, listed := p.Investors[who]; !listed {
				res.Violations = append(res.Violations, r.violation(p.ID, who, 0, inv.SharesOwned))
			}
		}
	}
	return res, nil
}

func (r investorConsistencyRule) violation(id domain.PropertyID, who domain.Principal, held, owned domain.Shares) domain.Violation {
	return domain.Violation{
		Rule:     r.Name(),
		Severity: domain.SeverityBlock,
		Message:  fmt.Sprintf("property %d lists %d shares for %s, user record holds %d", id, held, who, owned),
		Entity:   domain.EntityProperty,
		EntityID: strconv.FormatUint(uint64(id), 10),
	}
}
