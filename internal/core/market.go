package core

import (
	"context"
	"fmt"

	"estateledger/pkg/domain"
)

// Purchase describes a completed share purchase.
type Purchase struct {
	PropertyID PropertyID
	Shares     Shares
	TotalCost  Amount
}

// BuyShares moves shares from the property's available pool to caller and
// charges shares x price to the caller's record, all in one transaction.
//
// Failures are checked in order: ErrZeroQuantity, ErrPropertyNotFound,
// InsufficientSharesError, ErrAmountOverflow. None of them change state.
func (s *Service) BuyShares(ctx context.Context, caller Principal, id PropertyID, shares Shares) (Purchase, error) {
	var purchase Purchase
	err := s.mutate(ctx, "buy_shares", caller, func(tx Transaction) error {
		if shares == 0 {
			return domain.ErrZeroQuantity
		}
		property, ok := tx.FindProperty(id)
		if !ok {
			return fmt.Errorf("property %d: %w", id, domain.ErrPropertyNotFound)
		}
		available := property.Financials.AvailableShares
		if shares > available {
			return domain.InsufficientSharesError{PropertyID: id, Requested: shares, Available: available}
		}
		cost, err := checkedMul(shares, property.Financials.PricePerShare)
		if err != nil {
			return fmt.Errorf("purchase cost: %w", err)
		}

		if _, err := tx.UpdateProperty(id, func(p *Property) error {
			held, err := checkedAdd(p.Investors[caller], shares)
			if err != nil {
				return err
			}
			p.Financials.AvailableShares -= shares
			p.Investors[caller] = held
			return nil
		}); err != nil {
			return err
		}

		if _, err := upsertUser(tx, caller, func(u *User) error {
			total, err := checkedAdd(u.TotalInvestment, cost)
			if err != nil {
				return fmt.Errorf("total investment: %w", err)
			}
			value, err := checkedAdd(u.CurrentValue, cost)
			if err != nil {
				return fmt.Errorf("current value: %w", err)
			}
			u.TotalInvestment = total
			u.CurrentValue = value
			return creditInvestment(u, id, shares)
		}); err != nil {
			return err
		}

		purchase = Purchase{PropertyID: id, Shares: shares, TotalCost: cost}
		return nil
	})
	return purchase, err
}

// creditInvestment keeps a single aggregate per property.
func creditInvestment(u *User, id PropertyID, shares Shares) error {
	for i := range u.Investments {
		if u.Investments[i].PropertyID != id {
			continue
		}
		owned, err := checkedAdd(u.Investments[i].SharesOwned, shares)
		if err != nil {
			return err
		}
		u.Investments[i].SharesOwned = owned
		return nil
	}
	u.Investments = append(u.Investments, Investment{PropertyID: id, SharesOwned: shares})
	return nil
}

// ListInvestedProperties joins the caller's investment aggregates with the
// current property records. Aggregates whose property does not resolve are
// skipped.
func (s *Service) ListInvestedProperties(ctx context.Context, caller Principal) ([]InvestedProperty, error) {
	out := []InvestedProperty{}
	err := s.read(ctx, "list_invested_properties", caller, func(v View) error {
		user, ok := v.FindUser(caller)
		if !ok {
			return nil
		}
		for _, inv := range user.Investments {
			p, ok := v.FindProperty(inv.PropertyID)
			if !ok {
				continue
			}
			out = append(out, InvestedProperty{Property: p, SharesOwned: inv.SharesOwned})
		}
		return nil
	})
	return out, err
}
