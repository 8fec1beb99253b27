// Package domain defines the persistent ledger entities, value types, and
// rule evaluation primitives used by estateledger.
package domain

// EntityType identifies the type of record stored in the ledger.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityUser identifies a participant record keyed by caller identity.
	EntityUser EntityType = "user"
	// EntityProperty identifies a registered property listing.
	EntityProperty EntityType = "property"
	// EntityLease identifies a lease attached to a property.
	EntityLease EntityType = "lease"
)

// Principal is the opaque, globally unique identity of a caller.
type Principal string

// AnonymousPrincipal is the reserved identity of an unauthenticated caller.
const AnonymousPrincipal Principal = "2vxsx-fae"

// IsAnonymous reports whether p is the reserved anonymous identity.
func (p Principal) IsAnonymous() bool {
	return p == AnonymousPrincipal
}

func (p Principal) String() string { return string(p) }

// PropertyID is the dense, 1-based identifier of a property.
type PropertyID uint64

// LeaseID is the dense, 1-based identifier of a lease.
type LeaseID uint64

// Amount is a quantity of ledger tokens.
type Amount = uint64

// Shares is a count of fractional ownership units.
type Shares = uint64

// PropertyType is the closed category enumeration of a property.
type PropertyType string

// Recognised property categories.
const (
	PropertyResidential PropertyType = "Residential"
	PropertyIndustrial  PropertyType = "Industrial"
	PropertyCommercial  PropertyType = "Commercial"
	PropertyMixedUse    PropertyType = "MixedUse"
)

var propertyTypes = map[string]PropertyType{
	string(PropertyResidential): PropertyResidential,
	string(PropertyIndustrial):  PropertyIndustrial,
	string(PropertyCommercial):  PropertyCommercial,
	string(PropertyMixedUse):    PropertyMixedUse,
}

// ParsePropertyType validates a category name. Matching is exact.
func ParsePropertyType(raw string) (PropertyType, error) {
	pt, ok := propertyTypes[raw]
	if !ok {
		return "", ErrInvalidPropertyType
	}
	return pt, nil
}

// Amenity is the closed amenity tag enumeration.
type Amenity string

// Recognised amenity tags.
const (
	AmenityParking         Amenity = "Parking"
	AmenityPool            Amenity = "Pool"
	AmenityGym             Amenity = "Gym"
	AmenitySecurity        Amenity = "Security"
	AmenityGarden          Amenity = "Garden"
	AmenityBalcony         Amenity = "Balcony"
	AmenityAirConditioning Amenity = "AirConditioning"
	AmenityHeating         Amenity = "Heating"
	AmenityElevator        Amenity = "Elevator"
	AmenityStorage         Amenity = "Storage"
)

var amenities = map[string]Amenity{
	string(AmenityParking):         AmenityParking,
	string(AmenityPool):            AmenityPool,
	string(AmenityGym):             AmenityGym,
	string(AmenitySecurity):        AmenitySecurity,
	string(AmenityGarden):          AmenityGarden,
	string(AmenityBalcony):         AmenityBalcony,
	string(AmenityAirConditioning): AmenityAirConditioning,
	string(AmenityHeating):         AmenityHeating,
	string(AmenityElevator):        AmenityElevator,
	string(AmenityStorage):         AmenityStorage,
}

// FilterAmenities keeps recognised amenity names in input order and drops
// everything else without reporting it.
func FilterAmenities(raw []string) []Amenity {
	out := make([]Amenity, 0, len(raw))
	for _, name := range raw {
		if a, ok := amenities[name]; ok {
			out = append(out, a)
		}
	}
	return out
}

// LeaseStatus enumerates lease states. Only LeaseActive is assigned today;
// Pending and Terminated are reserved.
type LeaseStatus string

// Lease statuses.
const (
	LeaseActive     LeaseStatus = "Active"
	LeasePending    LeaseStatus = "Pending"
	LeaseTerminated LeaseStatus = "Terminated"
)

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Investment is the running total of shares one user holds in one property.
type Investment struct {
	PropertyID  PropertyID `json:"property_id"`
	SharesOwned Shares     `json:"shares_owned"`
}

// User is the per-caller aggregate record.
type User struct {
	TotalInvestment      Amount       `json:"total_investment"`
	CurrentValue         Amount       `json:"current_value"`
	MonthlyIncome        Amount       `json:"monthly_income"`
	TotalReturn          Amount       `json:"total_return"`
	RegisteredProperties []PropertyID `json:"user_registered_properties"`
	Investments          []Investment `json:"user_invested_properties"`
}

// InvestmentIn returns the caller's aggregate for the property, if any.
func (u User) InvestmentIn(id PropertyID) (Investment, bool) {
	for _, inv := range u.Investments {
		if inv.PropertyID == id {
			return inv, true
		}
	}
	return Investment{}, false
}

// Address is the structured location of a property.
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zipcode uint64 `json:"zipcode"`
}

// Financials holds the financial terms of a listing.
type Financials struct {
	TotalValue      Amount `json:"total_property_value"`
	AvailableShares Shares `json:"available_shares"`
	PricePerShare   Amount `json:"price_per_share"`
}

// Property represents a registered, fractionally owned listing.
type Property struct {
	ID            PropertyID           `json:"id"`
	Title         string               `json:"title"`
	Type          PropertyType         `json:"property_type"`
	Address       Address              `json:"address"`
	Financials    Financials           `json:"financial_details"`
	IssuedShares  Shares               `json:"issued_shares"`
	Description   string               `json:"property_description"`
	Amenities     []Amenity            `json:"amenities"`
	Images        []string             `json:"images"`
	MonthlyRent   Amount               `json:"monthly_rent"`
	CollectedRent Amount               `json:"collected_rent"` // reserved, never accrued
	Investors     map[Principal]Shares `json:"investors"`
	Owner         Principal            `json:"owner"`
}

// SharesHeld sums the investor mapping.
func (p Property) SharesHeld() Shares {
	var total Shares
	for _, s := range p.Investors {
		total += s
	}
	return total
}

// Lease is a tenancy record attached to an existing property.
type Lease struct {
	ID                LeaseID     `json:"lease_id"`
	PropertyID        PropertyID  `json:"property_id"`
	Tenant            Principal   `json:"tenant"`
	TenantName        string      `json:"tenant_name"`
	TenantEmail       string      `json:"tenant_email"`
	TenantPhone       string      `json:"tenant_phone"`
	StartDate         string      `json:"lease_start_date"`
	EndDate           string      `json:"lease_end_date"`
	MonthlyRent       Amount      `json:"monthly_rent"`
	SecurityDeposit   Amount      `json:"security_deposit"`
	Terms             string      `json:"lease_terms"`
	SpecialConditions string      `json:"special_conditions"`
	Status            LeaseStatus `json:"status"`
}

// InvestedProperty pairs a property snapshot with the caller's share count.
type InvestedProperty struct {
	Property    Property `json:"property"`
	SharesOwned Shares   `json:"shares_owned"`
}

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate the mutations captured in the transaction log.
// There is no delete: ledger records are never removed.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}
