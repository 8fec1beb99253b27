package core

import (
	"context"
	"fmt"

	"estateledger/pkg/domain"
)

// PropertyInput carries the raw registration fields of a listing. Type and
// Amenities are validated against the closed enumerations.
type PropertyInput struct {
	Title           string
	Street          string
	City            string
	State           string
	Zipcode         uint64
	Type            string
	TotalValue      Amount
	AvailableShares Shares
	PricePerShare   Amount
	Description     string
	Amenities       []string
	Images          []string
	MonthlyRent     Amount
}

// RegisterProperty lists a new property owned by owner. An unknown category
// fails with ErrInvalidPropertyType; unknown amenities are dropped. The
// owner's record gains the property id and its monthly rent as income.
func (s *Service) RegisterProperty(ctx context.Context, owner Principal, in PropertyInput) (Property, error) {
	var created Property
	err := s.mutate(ctx, "register_property", owner, func(tx Transaction) error {
		kind, err := domain.ParsePropertyType(in.Type)
		if err != nil {
			return fmt.Errorf("%q: %w", in.Type, err)
		}
		created, err = tx.CreateProperty(Property{
			Title: in.Title,
			Type:  kind,
			Address: domain.Address{
				Street:  in.Street,
				City:    in.City,
				State:   in.State,
				Zipcode: in.Zipcode,
			},
			Financials: domain.Financials{
				TotalValue:      in.TotalValue,
				AvailableShares: in.AvailableShares,
				PricePerShare:   in.PricePerShare,
			},
			IssuedShares:  in.AvailableShares,
			Description:   in.Description,
			Amenities:     domain.FilterAmenities(in.Amenities),
			Images:        append([]string(nil), in.Images...),
			MonthlyRent:   in.MonthlyRent,
			CollectedRent: 0,
			Investors:     map[Principal]Shares{},
			Owner:         owner,
		})
		if err != nil {
			return err
		}
		_, err = upsertUser(tx, owner, func(u *User) error {
			income, err := checkedAdd(u.MonthlyIncome, in.MonthlyRent)
			if err != nil {
				return fmt.Errorf("monthly income: %w", err)
			}
			u.MonthlyIncome = income
			u.RegisteredProperties = append(u.RegisteredProperties, created.ID)
			return nil
		})
		return err
	})
	return created, err
}

// ListProperties returns every property in id order.
func (s *Service) ListProperties(ctx context.Context) ([]Property, error) {
	var out []Property
	err := s.read(ctx, "list_properties", "", func(v View) error {
		out = v.ListProperties()
		return nil
	})
	return out, err
}

// ListRegisteredProperties returns the properties the caller registered.
// An unknown caller has none.
func (s *Service) ListRegisteredProperties(ctx context.Context, caller Principal) ([]Property, error) {
	out := []Property{}
	err := s.read(ctx, "list_registered_properties", caller, func(v View) error {
		user, ok := v.FindUser(caller)
		if !ok {
			return nil
		}
		for _, id := range user.RegisteredProperties {
			if p, ok := v.FindProperty(id); ok {
				out = append(out, p)
			}
		}
		return nil
	})
	return out, err
}

// GetProperty returns one property or ErrPropertyNotFound.
func (s *Service) GetProperty(ctx context.Context, id PropertyID) (Property, error) {
	var out Property
	err := s.read(ctx, "get_property", "", func(v View) error {
		p, ok := v.FindProperty(id)
		if !ok {
			return fmt.Errorf("property %d: %w", id, domain.ErrPropertyNotFound)
		}
		out = p
		return nil
	})
	return out, err
}
