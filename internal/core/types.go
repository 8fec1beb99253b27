package core

import (
	"estateledger/internal/infra/persistence/memory"
	"estateledger/pkg/domain"
)

type (
	Principal          = domain.Principal
	PropertyID         = domain.PropertyID
	LeaseID            = domain.LeaseID
	Amount             = domain.Amount
	Shares             = domain.Shares
	User               = domain.User
	Property           = domain.Property
	Lease              = domain.Lease
	Investment         = domain.Investment
	InvestedProperty   = domain.InvestedProperty
	Snapshot           = domain.Snapshot
	Change             = domain.Change
	Violation          = domain.Violation
	Result             = domain.Result
	Rule               = domain.Rule
	RulesEngine        = domain.RulesEngine
	RuleViolationError = domain.RuleViolationError
	Transaction        = domain.Transaction
	View               = domain.View
	SnapshotStore      = domain.SnapshotStore
	MemoryStore        = memory.Store
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)

// NewRulesEngine constructs an empty engine.
func NewRulesEngine() *RulesEngine { return domain.NewRulesEngine() }
