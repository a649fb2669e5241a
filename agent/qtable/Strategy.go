package qtable

// Strategy selects an action from the action values of a state
type Strategy int

const (
	// Random selects uniformly at random, ignoring action values
	Random Strategy = iota

	// EpsilonGreedy selects uniformly at random with probability ε
	// and the first action of maximal value otherwise
	EpsilonGreedy

	// MostQValue always selects the first action of maximal value
	MostQValue
)

func (s Strategy) String() string {
	switch s {
	case Random:
		return "Random"
	case EpsilonGreedy:
		return "EpsilonGreedy"
	case MostQValue:
		return "MostQValue"
	default:
		return "Unknown"
	}
}
