package integration

import (
	"context"
	"errors"
	"testing"

	"estateledger/internal/core"
	"estateledger/pkg/domain"
)

func TestIntegrationLedgerRelationships(t *testing.T) {
	ctx := context.Background()

	for _, variant := range snapshotVariants() {
		t.Run(variant.name, func(t *testing.T) {
			dir := t.TempDir()
			svc := core.NewInMemoryService(nil, core.WithSnapshotStore(variant.open(t, dir)))

			if _, err := svc.RegisterLease(ctx, "tenant", core.LeaseInput{PropertyID: 1}); !errors.Is(err, domain.ErrPropertyNotFound) {
				t.Fatalf("expected lease on missing property to fail, got %v", err)
			}
			if _, err := svc.BuyShares(ctx, "investor", 1, 1); !errors.Is(err, domain.ErrPropertyNotFound) {
				t.Fatalf("expected buy on missing property to fail, got %v", err)
			}

			first, err := svc.RegisterProperty(ctx, "owner", core.PropertyInput{Type: "MixedUse", AvailableShares: 40, PricePerShare: 25, MonthlyRent: 100})
			if err != nil {
				t.Fatalf("register first: %v", err)
			}
			second, err := svc.RegisterProperty(ctx, "owner", core.PropertyInput{Type: "Industrial", AvailableShares: 10, PricePerShare: 7, MonthlyRent: 50})
			if err != nil {
				t.Fatalf("register second: %v", err)
			}

			purchases := []struct {
				who    domain.Principal
				id     domain.PropertyID
				shares domain.Shares
			}{
				{"investor", first.ID, 15},
				{"investor", second.ID, 10},
				{"other", first.ID, 20},
				{"investor", first.ID, 5},
			}
			for _, p := range purchases {
				if _, err := svc.BuyShares(ctx, p.who, p.id, p.shares); err != nil {
					t.Fatalf("buy %d of %d for %s: %v", p.shares, p.id, p.who, err)
				}
			}
			var insufficient domain.InsufficientSharesError
			if _, err := svc.BuyShares(ctx, "other", second.ID, 1); !errors.As(err, &insufficient) || insufficient.Available != 0 {
				t.Fatalf("expected sold-out property to report 0 left, got %v", err)
			}

			restarted := core.NewInMemoryService(nil, core.WithSnapshotStore(variant.open(t, dir)))
			if err := restarted.Resume(ctx); err != nil {
				t.Fatalf("resume: %v", err)
			}
			if _, err := core.VerifySnapshot(ctx, nil, restarted.ExportSnapshot()); err != nil {
				t.Fatalf("restored ledger violates invariants: %v", err)
			}

			invested, err := restarted.ListInvestedProperties(ctx, "investor")
			if err != nil {
				t.Fatalf("list invested: %v", err)
			}
			if len(invested) != 2 || invested[0].SharesOwned != 20 || invested[1].SharesOwned != 10 {
				t.Fatalf("unexpected holdings: %+v", invested)
			}
			owner, found, err := restarted.GetUser(ctx, "owner")
			if err != nil || !found {
				t.Fatalf("owner missing: %v", err)
			}
			if owner.MonthlyIncome != 150 || len(owner.RegisteredProperties) != 2 {
				t.Fatalf("unexpected owner record: %+v", owner)
			}
			investor, _, err := restarted.GetUser(ctx, "investor")
			if err != nil {
				t.Fatalf("get investor: %v", err)
			}
			if want := domain.Amount(20*25 + 10*7); investor.TotalInvestment != want {
				t.Fatalf("expected total investment %d, got %d", want, investor.TotalInvestment)
			}
		})
	}
}
