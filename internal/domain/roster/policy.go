package roster

// Default roster limits.
const (
	DefaultMaxRiders = 20
	DefaultBudget    = 120.0
)

// Policy holds the constraints enforced on every insertion.
type Policy struct {
	MaxRiders int
	Budget    float64
	// BudgetConstrained enables the spend ceiling. Early game variants had none.
	BudgetConstrained bool
}

// DefaultPolicy returns the 20 riders / 120M policy.
func DefaultPolicy() Policy {
	return Policy{
		MaxRiders:         DefaultMaxRiders,
		Budget:            DefaultBudget,
		BudgetConstrained: true,
	}
}

func (p Policy) normalized() Policy {
	if p.MaxRiders <= 0 {
		p.MaxRiders = DefaultMaxRiders
	}
	if p.Budget <= 0 {
		p.Budget = DefaultBudget
	}
	return p
}
