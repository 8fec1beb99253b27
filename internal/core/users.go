package core

import (
	"context"

	"estateledger/pkg/domain"
)

// RegisterUser inserts a zero-valued record for caller. Anonymous callers get
// ErrInvalidCaller and an existing record yields ErrAlreadyRegistered.
func (s *Service) RegisterUser(ctx context.Context, caller Principal) (User, error) {
	var created User
	err := s.mutate(ctx, "register_user", caller, func(tx Transaction) error {
		if caller.IsAnonymous() {
			return domain.ErrInvalidCaller
		}
		var err error
		created, err = tx.CreateUser(caller, User{})
		return err
	})
	return created, err
}

// GetUser is a pure read of the caller's record.
func (s *Service) GetUser(ctx context.Context, caller Principal) (User, bool, error) {
	var (
		user  User
		found bool
	)
	err := s.read(ctx, "get_user", caller, func(v View) error {
		user, found = v.FindUser(caller)
		return nil
	})
	return user, found, err
}

// GetOrCreateUser returns the caller's record, creating and persisting a
// zero-valued one first when none exists.
func (s *Service) GetOrCreateUser(ctx context.Context, caller Principal) (User, error) {
	var user User
	err := s.mutate(ctx, "get_or_create_user", caller, func(tx Transaction) error {
		if existing, ok := tx.FindUser(caller); ok {
			user = existing
			return nil
		}
		var err error
		user, err = tx.CreateUser(caller, User{})
		return err
	})
	return user, err
}

// upsertUser applies mutate to the caller's record, creating it first if
// absent, inside the same transaction.
func upsertUser(tx Transaction, id Principal, mutate func(*User) error) (User, error) {
	if _, ok := tx.FindUser(id); ok {
		return tx.UpdateUser(id, mutate)
	}
	user := User{}
	if err := mutate(&user); err != nil {
		return User{}, err
	}
	return tx.CreateUser(id, user)
}
