package scanner

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	apperrors "options-scanner/internal/errors"
	"options-scanner/internal/logging"
	"options-scanner/internal/models"
	"options-scanner/internal/strategy"
)

// Config holds scan settings.
type Config struct {
	// Workers bounds concurrent strategy evaluations.
	Workers int
	// MaxCandidates caps the combination space per scan.
	MaxCandidates int
	// MaxExpirations limits the scan to the nearest N expirations.
	MaxExpirations int
	// DefaultLimit is the result cap applied when the criteria carry none.
	DefaultLimit int
	// PayoffSamples and PriceRangeRatio shape the sampled payoff curves.
	PayoffSamples   int
	PriceRangeRatio float64
}

// Scanner evaluates every candidate instance of a strategy shape against one
// chain and returns the filtered, ranked survivors.
type Scanner struct {
	cfg    Config
	logger zerolog.Logger
}

// NewScanner creates a scanner.
func NewScanner(cfg Config, logger zerolog.Logger) *Scanner {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 10
	}
	if cfg.PayoffSamples <= 0 {
		cfg.PayoffSamples = 200
	}
	if cfg.PriceRangeRatio <= 0 {
		cfg.PriceRangeRatio = 0.5
	}
	return &Scanner{cfg: cfg, logger: logging.WithOperation(logger, "scanner")}
}

// Scan generates candidates for the strategy type, evaluates them
// concurrently, and returns accepted profiles ranked best-first. Candidates
// that fail evaluation are skipped; they disqualify themselves, not the
// scan.
func (s *Scanner) Scan(ctx context.Context, chain *models.OptionChain, typ models.StrategyType, criteria models.FilterCriteria) ([]models.Ranking, error) {
	eval, err := strategy.ForType(typ)
	if err != nil {
		return nil, err
	}

	candidates, err := s.candidates(chain, typ)
	if err != nil {
		return nil, err
	}

	priceRange := strategy.PriceRange{
		Center: chain.UnderlyingPrice,
		Ratio:  s.cfg.PriceRangeRatio,
		Steps:  s.cfg.PayoffSamples,
	}

	var mu sync.Mutex
	profiles := make([]*models.PayoffProfile, 0, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for _, candidate := range candidates {
		candidate := candidate
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			profile, err := eval.Evaluate(candidate, priceRange)
			if err != nil {
				return nil
			}
			mu.Lock()
			profiles = append(profiles, profile)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rankings := Rank(profiles, criteria, s.cfg.DefaultLimit)
	logging.LogScan(s.logger, chain.Symbol, string(typ), len(candidates), len(rankings))
	return rankings, nil
}

func (s *Scanner) candidates(chain *models.OptionChain, typ models.StrategyType) ([]models.StrategyInstance, error) {
	switch typ {
	case models.StrategyCoveredCall:
		return coveredCallCandidates(chain, s.cfg.MaxExpirations)
	case models.StrategyIronCondor:
		return ironCondorCandidates(chain, s.cfg.MaxExpirations, s.cfg.MaxCandidates), nil
	default:
		return nil, apperrors.Wrapf(apperrors.ErrInvalidStrategyShape, "no candidate generator for %q", typ)
	}
}

// Rank filters profiles against the criteria and orders the survivors by the
// rank key, best first, bounded by the criteria limit (or defaultLimit).
// Ties keep a deterministic order by entry cost.
func Rank(profiles []*models.PayoffProfile, criteria models.FilterCriteria, defaultLimit int) []models.Ranking {
	accepted := make([]models.Ranking, 0, len(profiles))
	for _, p := range profiles {
		if !Accept(p, criteria) {
			continue
		}
		accepted = append(accepted, models.Ranking{Profile: p, Score: rankValue(p, criteria.RankBy)})
	}

	sort.SliceStable(accepted, func(i, j int) bool {
		if accepted[i].Score != accepted[j].Score {
			return accepted[i].Score > accepted[j].Score
		}
		return accepted[i].Profile.EntryCost < accepted[j].Profile.EntryCost
	})

	limit := criteria.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > 0 && len(accepted) > limit {
		accepted = accepted[:limit]
	}
	return accepted
}
