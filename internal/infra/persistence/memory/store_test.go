package memory

import (
	"context"
	"errors"
	"estateledger/pkg/domain"
	"testing"
)

type failingSaver struct {
	calls int
	err   error
}

func (f *failingSaver) Save(context.Context, Snapshot) error {
	f.calls++
	return f.err
}

type blockingRule struct{}

func (blockingRule) Name() string { return "block" }

func (blockingRule) Evaluate(context.Context, domain.RuleView, []domain.Change) (domain.Result, error) {
	return domain.Result{Violations: []domain.Violation{{Rule: "block", Severity: domain.SeverityBlock, Message: "always"}}}, nil
}

func TestStoreRunInTransactionAndSnapshots(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if _, ok := tx.FindProperty(1); ok {
			t.Fatalf("expected missing property lookup")
		}
		created, err := tx.CreateProperty(domain.Property{Title: "Loft"})
		if err != nil {
			return err
		}
		if created.ID != 1 {
			t.Fatalf("expected id 1, got %d", created.ID)
		}
		if len(tx.Snapshot().ListProperties()) != 1 {
			t.Fatalf("snapshot mismatch")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("run transaction: %v", err)
	}
	if len(store.ListProperties()) != 1 {
		t.Fatalf("expected committed property")
	}
	snapshot := store.ExportState()
	store.ImportState(Snapshot{})
	if len(store.ListProperties()) != 0 {
		t.Fatalf("expected cleared state")
	}
	store.ImportState(snapshot)
	if len(store.ListProperties()) != 1 {
		t.Fatalf("expected restored state")
	}
	if store.RulesEngine() == nil {
		t.Fatalf("expected rules engine")
	}
}

func TestStoreDenseIDs(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		var got domain.PropertyID
		var lease domain.LeaseID
		if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			p, err := tx.CreateProperty(domain.Property{ID: 99})
			if err != nil {
				return err
			}
			got = p.ID
			l, err := tx.CreateLease(domain.Lease{ID: 42, PropertyID: p.ID})
			lease = l.ID
			return err
		}); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		if got != domain.PropertyID(i) || lease != domain.LeaseID(i) {
			t.Fatalf("expected ids %d, got property %d lease %d", i, got, lease)
		}
	}
}

func TestStoreCallbackErrorDiscardsChanges(t *testing.T) {
	store := NewStore(nil)
	boom := errors.New("boom")
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		if _, err := tx.CreateUser("alice", domain.User{}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, ok := store.GetUser("alice"); ok {
		t.Fatalf("expected user creation rolled back")
	}
}

func TestStoreSaverFailureRollsBack(t *testing.T) {
	saver := &failingSaver{err: errors.New("disk full")}
	store := NewStore(nil, WithSaver(saver))
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateUser("alice", domain.User{})
		return err
	})
	if !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	if saver.calls != 1 {
		t.Fatalf("expected one save attempt, got %d", saver.calls)
	}
	if _, ok := store.GetUser("alice"); ok {
		t.Fatalf("expected live state untouched after failed save")
	}
}

func TestStoreSkipsSaveWithoutChanges(t *testing.T) {
	saver := &failingSaver{}
	store := NewStore(nil, WithSaver(saver))
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, _ = tx.FindUser("nobody")
		return nil
	}); err != nil {
		t.Fatalf("read-only transaction: %v", err)
	}
	if saver.calls != 0 {
		t.Fatalf("expected no save for a transaction without changes")
	}
}

func TestStoreRuleViolation(t *testing.T) {
	store := NewStore(domain.NewRulesEngine())
	store.RulesEngine().Register(blockingRule{})
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, e := tx.CreateProperty(domain.Property{Title: "Fail"})
		return e
	})
	var violation domain.RuleViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("expected rule violation, got %v", err)
	}
	if len(store.ListProperties()) != 0 {
		t.Fatalf("expected blocked transaction not committed")
	}
}

func TestStoreCreateUserTwice(t *testing.T) {
	store := NewStore(nil)
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		if _, err := tx.CreateUser("alice", domain.User{}); err != nil {
			return err
		}
		_, err := tx.CreateUser("alice", domain.User{})
		return err
	})
	if !errors.Is(err, domain.ErrAlreadyRegistered) {
		t.Fatalf("expected already registered, got %v", err)
	}
}

func TestStoreUpdateMissingRecords(t *testing.T) {
	store := NewStore(nil)
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.UpdateProperty(7, func(*domain.Property) error { return nil })
		return err
	})
	if !errors.Is(err, domain.ErrPropertyNotFound) {
		t.Fatalf("expected property not found, got %v", err)
	}
	_, err = store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.UpdateUser("ghost", func(*domain.User) error { return nil })
		return err
	})
	if err == nil {
		t.Fatalf("expected missing user error")
	}
}

func TestViewReturnsCopies(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.CreateProperty(domain.Property{
			Images:    []string{"a.png"},
			Investors: map[domain.Principal]domain.Shares{"bob": 5},
		})
		return err
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := store.View(ctx, func(v domain.View) error {
		p, ok := v.FindProperty(1)
		if !ok {
			t.Fatalf("expected property 1")
		}
		p.Images[0] = "mutated"
		p.Investors["bob"] = 500
		return nil
	}); err != nil {
		t.Fatalf("view: %v", err)
	}
	p := store.ListProperties()[0]
	if p.Images[0] != "a.png" || p.Investors["bob"] != 5 {
		t.Fatalf("view leaked a mutable reference: %+v", p)
	}
}

func TestUpdatePropertyKeepsID(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if _, err := tx.CreateProperty(domain.Property{}); err != nil {
			return err
		}
		updated, err := tx.UpdateProperty(1, func(p *domain.Property) error {
			p.ID = 9
			p.Title = "renamed"
			return nil
		})
		if err != nil {
			return err
		}
		if updated.ID != 1 {
			t.Fatalf("expected id preserved, got %d", updated.ID)
		}
		return nil
	}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := store.View(ctx, func(v domain.View) error {
		if _, ok := v.FindLease(1); ok {
			t.Fatalf("expected no lease")
		}
		if got := v.ListProperties()[0].Title; got != "renamed" {
			t.Fatalf("expected renamed, got %q", got)
		}
		return nil
	}); err != nil {
		t.Fatalf("view: %v", err)
	}
}
