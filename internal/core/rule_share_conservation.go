package core

import (
	"context"
	"fmt"
	"strconv"

	"estateledger/pkg/domain"
)

// NewShareConservationRule blocks any state where a property's available
// shares plus all investor holdings differ from its issued share count.
func NewShareConservationRule() domain.Rule {
	return shareConservationRule{}
}

type shareConservationRule struct{}

func (shareConservationRule) Name() string { return "share_conservation" }

func (r shareConservationRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, p := range view.ListProperties() {
		held := p.SharesHeld()
		total, err := checkedAdd(held, p.Financials.AvailableShares)
		if err == nil && total == p.IssuedShares {
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     r.Name(),
			Severity: domain.SeverityBlock,
			Message:  fmt.Sprintf("property %d: %d available + %d held != %d issued", p.ID, p.Financials.AvailableShares, held, p.IssuedShares),
			Entity:   domain.EntityProperty,
			EntityID: strconv.FormatUint(uint64(p.ID), 10),
		})
	}
	return res, nil
}
