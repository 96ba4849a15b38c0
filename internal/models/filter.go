package models

// RankKey selects the metric used to order accepted opportunities.
type RankKey string

const (
	RankByMaxProfit   RankKey = "max_profit"
	RankByRiskReward  RankKey = "risk_reward"
	RankByProbability RankKey = "probability"
	RankByScore       RankKey = "score"
)

// FilterCriteria holds the user-supplied predicates applied to evaluated
// strategy instances. Nil pointer fields are not applied.
type FilterCriteria struct {
	MinProfit           *float64
	MinRiskReward       *float64
	MinProbability      *float64
	MaxLoss             *float64
	MinPremiumCollected *float64
	MaxBreakevenRange   *float64
	RankBy              RankKey
	Limit               int
}

// Ranking is one accepted opportunity with its ranking score.
type Ranking struct {
	Profile *PayoffProfile
	Score   float64
}

// Float64Ptr returns a pointer to v, for building FilterCriteria literals.
func Float64Ptr(v float64) *float64 {
	return &v
}
