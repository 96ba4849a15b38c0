package models

// StrategyType identifies a named strategy shape.
type StrategyType string

const (
	StrategyCoveredCall StrategyType = "covered_call"
	StrategyIronCondor  StrategyType = "iron_condor"
)

// StrategyLeg is a signed position in one instrument together with its entry
// quote. Quantity is positive for long, negative for short. Multiplier is the
// contract multiplier (1 for stock, 100 for standard equity options).
type StrategyLeg struct {
	Instrument Instrument
	Quantity   int
	Multiplier int
	Entry      Quote
}

// EntryPrice returns the per-unit price paid (long) or received (short) for
// the leg: ask when buying, bid when selling, midpoint fallback.
func (l StrategyLeg) EntryPrice() float64 {
	if l.Quantity >= 0 {
		if l.Entry.Ask > 0 {
			return l.Entry.Ask
		}
	} else {
		if l.Entry.Bid > 0 {
			return l.Entry.Bid
		}
	}
	return l.Entry.Mid()
}

// StrategyInstance is an ordered set of legs forming one named strategy.
type StrategyInstance struct {
	Type   StrategyType
	Symbol string
	Legs   []StrategyLeg
}

// PayoffPoint is one sample of the payoff curve.
type PayoffPoint struct {
	UnderlyingPrice float64
	ProfitLoss      float64
	ROI             float64
}

// Breakeven is an underlying price where the payoff curve crosses zero.
type Breakeven struct {
	Price float64
	// Direction is "above" when the strategy profits above the price and
	// "below" when it profits below it.
	Direction string
}

// PayoffProfile is the derived, read-only output of evaluating one strategy
// instance. It is created per request and never persisted.
type PayoffProfile struct {
	Type       StrategyType
	Symbol     string
	EntryCost  float64 // positive = debit paid, negative = credit received
	MaxProfit  float64
	MaxLoss    float64
	Samples    []PayoffPoint
	Breakevens []Breakeven
	Greeks     *Greeks
	// ProbabilityOfProfit is a delta-magnitude heuristic, not a
	// distributional estimate.
	ProbabilityOfProfit float64
	RiskReward          float64
}

// NetCredit returns the premium collected on entry, zero for debit strategies.
func (p *PayoffProfile) NetCredit() float64 {
	if p.EntryCost < 0 {
		return -p.EntryCost
	}
	return 0
}

// BreakevenRange returns the spread between the outermost breakeven points,
// zero when there are fewer than two.
func (p *PayoffProfile) BreakevenRange() float64 {
	if len(p.Breakevens) < 2 {
		return 0
	}
	min, max := p.Breakevens[0].Price, p.Breakevens[0].Price
	for _, b := range p.Breakevens[1:] {
		if b.Price < min {
			min = b.Price
		}
		if b.Price > max {
			max = b.Price
		}
	}
	return max - min
}
