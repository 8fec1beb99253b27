// Package memory provides the in-memory authoritative ledger state. It is the
// only holder of live records; durable backends plug in through a Saver that
// is invoked before a transaction's state is made live.
package memory

import (
	"context"
	"estateledger/pkg/domain"
	"fmt"
	"strconv"
	"sync"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interface.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// User aliases domain.User for in-memory persistence operations.
	User = domain.User
	// Property aliases domain.Property.
	Property = domain.Property
	// Lease aliases domain.Lease.
	Lease = domain.Lease
	// Principal aliases domain.Principal.
	Principal = domain.Principal
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// View aliases domain.View providing read-only state.
	View = domain.View
	// Snapshot aliases domain.Snapshot.
	Snapshot = domain.Snapshot
)

// Saver durably records a snapshot. A failing Save aborts the transaction.
type Saver interface {
	Save(ctx context.Context, snapshot Snapshot) error
}

type memoryState struct {
	users      map[Principal]User
	properties []Property
	leases     []Lease
}

func newMemoryState() memoryState {
	return memoryState{
		users:      make(map[Principal]User),
		properties: []Property{},
		leases:     []Lease{},
	}
}

func (s memoryState) clone() memoryState {
	cloned := memoryState{
		users:      make(map[Principal]User, len(s.users)),
		properties: make([]Property, len(s.properties)),
		leases:     make([]Lease, len(s.leases)),
	}
	for k, v := range s.users {
		cloned.users[k] = v.Clone()
	}
	for i, p := range s.properties {
		cloned.properties[i] = p.Clone()
	}
	for i, l := range s.leases {
		cloned.leases[i] = l.Clone()
	}
	return cloned
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	cloned := state.clone()
	return Snapshot{
		Users:      cloned.users,
		Properties: cloned.properties,
		Leases:     cloned.leases,
	}
}

func memoryStateFromSnapshot(s Snapshot) memoryState {
	n := s.Normalize()
	return memoryState{
		users:      n.Users,
		properties: n.Properties,
		leases:     n.Leases,
	}
}

// Store provides an in-memory transactional store for the ledger.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	saver  Saver
}

// Option configures a Store.
type Option func(*Store)

// WithSaver makes every committed transaction durable through saver before
// it becomes visible.
func WithSaver(saver Saver) Option {
	return func(s *Store) { s.saver = saver }
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine, opts ...Option) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	s := &Store{
		state:  newMemoryState(),
		engine: engine,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the store state wholesale with the provided snapshot.
// It does not invoke the Saver.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(snapshot)
}

// RulesEngine exposes the currently configured engine.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// transaction represents a mutation set applied to a private copy of the state.
type transaction struct {
	state   memoryState
	changes []Change
}

// transactionView exposes a read-only snapshot of state.
type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) View {
	return transactionView{state: state}
}

// FindUser retrieves a user record by caller identity.
func (v transactionView) FindUser(id Principal) (User, bool) {
	u, ok := v.state.users[id]
	if !ok {
		return User{}, false
	}
	return u.Clone(), true
}

// ListUsers returns a copy of every user record.
func (v transactionView) ListUsers() map[Principal]User {
	out := make(map[Principal]User, len(v.state.users))
	for k, u := range v.state.users {
		out[k] = u.Clone()
	}
	return out
}

// FindProperty retrieves a property by id.
func (v transactionView) FindProperty(id domain.PropertyID) (Property, bool) {
	p, ok := findProperty(v.state, id)
	if !ok {
		return Property{}, false
	}
	return p.Clone(), true
}

// ListProperties returns all properties in id order.
func (v transactionView) ListProperties() []Property {
	out := make([]Property, 0, len(v.state.properties))
	for _, p := range v.state.properties {
		out = append(out, p.Clone())
	}
	return out
}

// FindLease retrieves a lease by id.
func (v transactionView) FindLease(id domain.LeaseID) (Lease, bool) {
	if id == 0 || uint64(id) > uint64(len(v.state.leases)) {
		return Lease{}, false
	}
	return v.state.leases[id-1].Clone(), true
}

// ListLeases returns all leases in id order.
func (v transactionView) ListLeases() []Lease {
	out := make([]Lease, 0, len(v.state.leases))
	for _, l := range v.state.leases {
		out = append(out, l.Clone())
	}
	return out
}

// ids are dense and 1-based, so index id-1 holds the record.
func findProperty(state *memoryState, id domain.PropertyID) (Property, bool) {
	if id == 0 || uint64(id) > uint64(len(state.properties)) {
		return Property{}, false
	}
	return state.properties[id-1], true
}

// RunInTransaction executes fn within a transactional copy of the store state.
// The copy replaces live state only when fn succeeds, no rule blocks, and the
// Saver (if any) has written it. Otherwise live state is left untouched.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{state: s.state.clone()}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil && len(tx.changes) > 0 {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	if s.saver != nil && len(tx.changes) > 0 {
		if err := s.saver.Save(ctx, snapshotFromMemoryState(tx.state)); err != nil {
			return result, &domain.PersistenceError{Op: "save snapshot", Err: err}
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(View) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	return fn(newTransactionView(&snapshot))
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() View {
	return newTransactionView(&tx.state)
}

// FindUser exposes user lookup within the transaction scope.
func (tx *transaction) FindUser(id Principal) (User, bool) {
	return newTransactionView(&tx.state).FindUser(id)
}

// CreateUser stores a new user record.
func (tx *transaction) CreateUser(id Principal, u User) (User, error) {
	if _, exists := tx.state.users[id]; exists {
		return User{}, fmt.Errorf("user %q: %w", id, domain.ErrAlreadyRegistered)
	}
	tx.state.users[id] = u.Clone()
	tx.recordChange(Change{Entity: domain.EntityUser, Action: domain.ActionCreate, After: u.Clone()})
	return u.Clone(), nil
}

// UpdateUser mutates an existing user record.
func (tx *transaction) UpdateUser(id Principal, mutator func(*User) error) (User, error) {
	current, ok := tx.state.users[id]
	if !ok {
		return User{}, fmt.Errorf("user %q not found", id)
	}
	before := current.Clone()
	current = current.Clone()
	if err := mutator(&current); err != nil {
		return User{}, err
	}
	tx.state.users[id] = current.Clone()
	tx.recordChange(Change{Entity: domain.EntityUser, Action: domain.ActionUpdate, Before: before, After: current.Clone()})
	return current.Clone(), nil
}

// FindProperty exposes property lookup within the transaction scope.
func (tx *transaction) FindProperty(id domain.PropertyID) (Property, bool) {
	return newTransactionView(&tx.state).FindProperty(id)
}

// CreateProperty appends a property, assigning the next dense id.
func (tx *transaction) CreateProperty(p Property) (Property, error) {
	p = p.Clone()
	p.ID = domain.PropertyID(len(tx.state.properties) + 1)
	tx.state.properties = append(tx.state.properties, p)
	tx.recordChange(Change{Entity: domain.EntityProperty, Action: domain.ActionCreate, After: p.Clone()})
	return p.Clone(), nil
}

// UpdateProperty mutates a property in place. The id is immutable.
func (tx *transaction) UpdateProperty(id domain.PropertyID, mutator func(*Property) error) (Property, error) {
	current, ok := findProperty(&tx.state, id)
	if !ok {
		return Property{}, fmt.Errorf("property %s: %w", strconv.FormatUint(uint64(id), 10), domain.ErrPropertyNotFound)
	}
	before := current.Clone()
	current = current.Clone()
	if err := mutator(&current); err != nil {
		return Property{}, err
	}
	current.ID = id
	tx.state.properties[id-1] = current.Clone()
	tx.recordChange(Change{Entity: domain.EntityProperty, Action: domain.ActionUpdate, Before: before, After: current.Clone()})
	return current.Clone(), nil
}

// CreateLease appends a lease, assigning the next dense id.
func (tx *transaction) CreateLease(l Lease) (Lease, error) {
	l.ID = domain.LeaseID(len(tx.state.leases) + 1)
	tx.state.leases = append(tx.state.leases, l)
	tx.recordChange(Change{Entity: domain.EntityLease, Action: domain.ActionCreate, After: l})
	return l, nil
}

// Read helpers ---------------------------------------------------------------

// GetUser retrieves a user record from committed state.
func (s *Store) GetUser(id Principal) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTransactionView(&s.state).FindUser(id)
}

// ListProperties returns all properties from committed state.
func (s *Store) ListProperties() []Property {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTransactionView(&s.state).ListProperties()
}

// ListLeases returns all leases from committed state.
func (s *Store) ListLeases() []Lease {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTransactionView(&s.state).ListLeases()
}
