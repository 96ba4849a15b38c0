// Package service is the narrow request/response surface external callers
// use. It owns the lazy session lifecycle and the short-TTL chain cache on
// top of the connector, scanner and strategy engine.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"options-scanner/internal/gateway"
	"options-scanner/internal/models"
	"options-scanner/internal/strategy"
)

// Connector is the gateway surface the service needs. The concrete
// implementation is *gateway.Connector.
type Connector interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	IsConnected() bool
	IsHealthy(ctx context.Context) bool
	State() gateway.SessionState
	UnderlyingPrice(ctx context.Context, inst models.Instrument) (float64, error)
	FetchChain(ctx context.Context, symbol string, hint models.Exchange, maxExpirations int) (*models.OptionChain, error)
}

// Scanner is the opportunity-scan surface the service needs.
type Scanner interface {
	Scan(ctx context.Context, chain *models.OptionChain, typ models.StrategyType, criteria models.FilterCriteria) ([]models.Ranking, error)
}

// Config holds service settings.
type Config struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// Service exposes chain retrieval, strategy evaluation and opportunity
// scanning. Sessions are established lazily: every gateway-touching call
// re-checks health first and reconnects a dead or degraded session.
type Service struct {
	connector Connector
	scanner   Scanner
	cfg       Config
	cache     *gocache.Cache
	logger    zerolog.Logger

	// sessionMu serializes health checks and reconnects so concurrent
	// callers cannot race a reconnect.
	sessionMu sync.Mutex
}

// New creates the service. A zero CacheTTL disables caching regardless of
// CacheEnabled.
func New(connector Connector, sc Scanner, cfg Config, logger zerolog.Logger) *Service {
	var cache *gocache.Cache
	if cfg.CacheEnabled && cfg.CacheTTL > 0 {
		cache = gocache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
	}
	return &Service{
		connector: connector,
		scanner:   sc,
		cfg:       cfg,
		cache:     cache,
		logger:    logger,
	}
}

// Close releases the gateway session.
func (s *Service) Close(ctx context.Context) error {
	return s.connector.Disconnect(ctx)
}

// SessionState reports the current gateway session state.
func (s *Service) SessionState() gateway.SessionState {
	return s.connector.State()
}

// GetOptionChain returns the option chain for a symbol, from cache when a
// fresh copy exists.
func (s *Service) GetOptionChain(ctx context.Context, symbol string) (*models.OptionChain, error) {
	logger := s.requestLogger("get_option_chain", symbol)

	cacheKey := "chain:" + symbol
	if s.cache != nil {
		if cached, ok := s.cache.Get(cacheKey); ok {
			logger.Debug().Msg("Chain served from cache")
			return cached.(*models.OptionChain), nil
		}
	}

	if err := s.ensureSession(ctx); err != nil {
		return nil, err
	}

	chain, err := s.connector.FetchChain(ctx, symbol, "", 0)
	if err != nil {
		logger.Error().Err(err).Msg("Chain fetch failed")
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(cacheKey, chain, gocache.DefaultExpiration)
	}
	return chain, nil
}

// InvalidateChain drops the cached chain for a symbol so the next request
// fetches fresh data.
func (s *Service) InvalidateChain(symbol string) {
	if s.cache != nil {
		s.cache.Delete("chain:" + symbol)
	}
}

// EvaluateStrategy computes the payoff profile for one explicit strategy
// instance. It is pure computation; no gateway session is touched.
func (s *Service) EvaluateStrategy(ctx context.Context, typ models.StrategyType, inst models.StrategyInstance) (*models.PayoffProfile, error) {
	logger := s.requestLogger("evaluate_strategy", inst.Symbol)

	eval, err := strategy.ForType(typ)
	if err != nil {
		return nil, err
	}

	inst.Type = typ
	profile, err := eval.Evaluate(inst, strategy.DefaultPriceRange(rangeCenter(inst.Legs)))
	if err != nil {
		logger.Warn().Err(err).Str("strategy", string(typ)).Msg("Evaluation failed")
		return nil, err
	}
	return profile, nil
}

// FindOpportunities fetches the symbol's chain and returns the ranked
// opportunities for a strategy type under the given criteria.
func (s *Service) FindOpportunities(ctx context.Context, typ models.StrategyType, symbol string, criteria models.FilterCriteria) ([]models.Ranking, error) {
	chain, err := s.GetOptionChain(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return s.scanner.Scan(ctx, chain, typ, criteria)
}

// ensureSession re-checks the session before use and reconnects lazily.
func (s *Service) ensureSession(ctx context.Context) error {
	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()

	if s.connector.IsConnected() && s.connector.IsHealthy(ctx) {
		return nil
	}

	s.logger.Info().Str("state", string(s.connector.State())).Msg("Re-establishing gateway session")
	if err := s.connector.Connect(ctx); err != nil {
		return fmt.Errorf("establishing session: %w", err)
	}
	return nil
}

func (s *Service) requestLogger(op, symbol string) zerolog.Logger {
	return s.logger.With().
		Str("request_id", uuid.NewString()).
		Str("operation", op).
		Str("symbol", symbol).
		Logger()
}

// rangeCenter picks the payoff sampling center for an explicit instance: the
// stock leg's entry price when one exists, otherwise the mean strike.
func rangeCenter(legs []models.StrategyLeg) float64 {
	var strikes []float64
	for _, leg := range legs {
		if !leg.Instrument.IsOption() {
			return leg.EntryPrice()
		}
		strikes = append(strikes, leg.Instrument.Strike)
	}
	if len(strikes) == 0 {
		return 0
	}
	var sum float64
	for _, s := range strikes {
		sum += s
	}
	return sum / float64(len(strikes))
}
