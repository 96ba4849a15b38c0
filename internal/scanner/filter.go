package scanner

import "options-scanner/internal/models"

// Accept applies the user-supplied predicates to one evaluated profile. Nil
// criteria fields are not applied.
func Accept(p *models.PayoffProfile, c models.FilterCriteria) bool {
	if c.MinProfit != nil && p.MaxProfit < *c.MinProfit {
		return false
	}
	if c.MinRiskReward != nil && p.RiskReward < *c.MinRiskReward {
		return false
	}
	if c.MinProbability != nil && p.ProbabilityOfProfit < *c.MinProbability {
		return false
	}
	if c.MaxLoss != nil && p.MaxLoss > *c.MaxLoss {
		return false
	}
	if c.MinPremiumCollected != nil && p.NetCredit() < *c.MinPremiumCollected {
		return false
	}
	if c.MaxBreakevenRange != nil {
		r := p.BreakevenRange()
		if r <= 0 || r > *c.MaxBreakevenRange {
			return false
		}
	}
	return true
}

// CompositeScore blends normalized profit, risk/reward, probability and
// collected premium into one comparable number. The divisors are scale
// anchors, not bounds; a profile can score above 1.
func CompositeScore(p *models.PayoffProfile) float64 {
	return p.MaxProfit/10000*0.3 +
		p.RiskReward/10*0.3 +
		p.ProbabilityOfProfit*0.2 +
		p.NetCredit()/5000*0.2
}

// rankValue extracts the ordering metric for a rank key. Unknown keys fall
// back to max profit.
func rankValue(p *models.PayoffProfile, key models.RankKey) float64 {
	switch key {
	case models.RankByRiskReward:
		return p.RiskReward
	case models.RankByProbability:
		return p.ProbabilityOfProfit
	case models.RankByScore:
		return CompositeScore(p)
	default:
		return p.MaxProfit
	}
}
