package core

// NewDefaultRulesEngine builds a rules engine with the built-in ledger
// invariants. dense_ids runs first: the others resolve ids by position.
func NewDefaultRulesEngine() *RulesEngine {
	engine := NewRulesEngine()
	engine.Register(NewDenseIDsRule())
	engine.Register(NewShareConservationRule())
	engine.Register(NewInvestmentAggregateRule())
	engine.Register(NewInvestorConsistencyRule())
	engine.Register(NewLeasePropertyReferenceRule())
	return engine
}
