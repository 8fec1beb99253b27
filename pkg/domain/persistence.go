package domain

import "context"

// Transaction is the exclusive read-write view handed to one mutating
// operation. It must not be retained after the callback returns.
type Transaction interface {
	Snapshot() View
	FindUser(id Principal) (User, bool)
	CreateUser(id Principal, user User) (User, error)
	UpdateUser(id Principal, mutator func(*User) error) (User, error)
	FindProperty(id PropertyID) (Property, bool)
	CreateProperty(Property) (Property, error)
	UpdateProperty(id PropertyID, mutator func(*Property) error) (Property, error)
	CreateLease(Lease) (Lease, error)
}

// View provides read-only access to a consistent copy of the ledger.
type View interface {
	FindUser(id Principal) (User, bool)
	ListUsers() map[Principal]User
	FindProperty(id PropertyID) (Property, bool)
	ListProperties() []Property
	FindLease(id LeaseID) (Lease, bool)
	ListLeases() []Lease
}

// PersistentStore is the transactional ledger state consumed by core.Service.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(View) error) error
	ExportState() Snapshot
	ImportState(Snapshot)
}

// SnapshotStore durably writes and reads back full ledger snapshots.
// Restore reports found=false when nothing was ever saved.
type SnapshotStore interface {
	Save(ctx context.Context, snapshot Snapshot) error
	Restore(ctx context.Context) (snapshot Snapshot, found bool, err error)
	Close() error
}
