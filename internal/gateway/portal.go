package gateway

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	apperrors "options-scanner/internal/errors"
	"options-scanner/internal/models"
)

// Market data field IDs used on snapshot requests.
// 31 last, 84 bid, 86 ask, 87 volume, 7283 implied vol,
// 7308 delta, 7309 gamma, 7310 theta, 7311 vega, 7741 prior close.
const snapshotFields = "31,84,86,87,7283,7308,7309,7310,7311,7741"

var _ Transport = (*PortalTransport)(nil)

// PortalTransport implements Transport over the gateway's HTTP API.
type PortalTransport struct {
	httpClient *http.Client
	baseURL    string
	clientID   int
	logger     zerolog.Logger

	mu     sync.Mutex
	conids map[string]int64 // instrument key -> contract ID
}

// NewPortalTransport creates a transport for the local gateway process. The
// gateway serves HTTPS with a self-signed certificate, so verification is
// skipped for the loopback connection.
func NewPortalTransport(logger zerolog.Logger) *PortalTransport {
	tr := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
	}
	return &PortalTransport{
		httpClient: &http.Client{
			Transport: tr,
			Timeout:   30 * time.Second,
		},
		logger: logger,
		conids: make(map[string]int64),
	}
}

type authStatus struct {
	Authenticated bool `json:"authenticated"`
	Connected     bool `json:"connected"`
}

type searchResult struct {
	ConID       string          `json:"conid"`
	Symbol      string          `json:"symbol"`
	Description string          `json:"description"`
	Sections    []searchSection `json:"sections"`
}

type searchSection struct {
	SecType string `json:"secType"`
	Months  string `json:"months"`
}

type strikesResponse struct {
	Call []float64 `json:"call"`
	Put  []float64 `json:"put"`
}

type contractInfo struct {
	ConID        int64  `json:"conid"`
	Symbol       string `json:"symbol"`
	MaturityDate string `json:"maturityDate"`
}

// Connect verifies the gateway session is authenticated for this client slot.
func (t *PortalTransport) Connect(ctx context.Context, host string, port, clientID int) error {
	t.baseURL = fmt.Sprintf("https://%s:%d/v1/api", host, port)
	t.clientID = clientID

	var status authStatus
	if err := t.getJSON(ctx, "/iserver/auth/status", &status); err != nil {
		return err
	}
	if !status.Authenticated || !status.Connected {
		return fmt.Errorf("gateway session not authenticated")
	}
	return nil
}

// Disconnect releases the session.
func (t *PortalTransport) Disconnect(ctx context.Context) error {
	return t.postEmpty(ctx, "/logout")
}

// Ping round-trips the session keepalive endpoint.
func (t *PortalTransport) Ping(ctx context.Context) error {
	return t.postEmpty(ctx, "/tickle")
}

// ResolveContract fills in the gateway contract ID for an instrument.
func (t *PortalTransport) ResolveContract(ctx context.Context, inst models.Instrument) (models.Instrument, error) {
	if inst.ContractID != 0 {
		return inst, nil
	}
	if cached, ok := t.cachedConID(inst.Key()); ok {
		inst.ContractID = cached
		return inst, nil
	}

	var conid int64
	var err error
	if inst.IsOption() {
		conid, err = t.resolveOptionConID(ctx, inst)
	} else {
		conid, _, err = t.searchUnderlying(ctx, inst.Symbol)
	}
	if err != nil {
		return inst, err
	}

	inst.ContractID = conid
	t.storeConID(inst.Key(), conid)
	return inst, nil
}

// ChainParams reports the expirations and strikes available for an
// underlying. The gateway exposes expiration months; each month maps to the
// standard monthly expiration (third Friday).
func (t *PortalTransport) ChainParams(ctx context.Context, inst models.Instrument) (ChainParams, error) {
	conid, months, err := t.searchUnderlying(ctx, inst.Symbol)
	if err != nil {
		return ChainParams{}, err
	}
	if len(months) == 0 {
		return ChainParams{}, nil
	}

	var expirations []time.Time
	for _, m := range months {
		monthDate, err := parseMonth(m)
		if err != nil {
			t.logger.Debug().Str("month", m).Msg("Skipping unparsable option month")
			continue
		}
		expirations = append(expirations, thirdFriday(monthDate))
	}
	if len(expirations) == 0 {
		return ChainParams{}, nil
	}

	// Strikes are keyed per month; the nearest month carries the densest
	// grid and is used for the whole chain.
	path := fmt.Sprintf("/iserver/secdef/strikes?conid=%d&sectype=OPT&month=%s", conid, months[0])
	var strikes strikesResponse
	if err := t.getJSON(ctx, path, &strikes); err != nil {
		return ChainParams{}, err
	}

	return ChainParams{Expirations: expirations, Strikes: strikes.Put}, nil
}

// Snapshot requests a market-data snapshot for one contract. The first
// request primes the gateway's streaming subscription; the follow-up carries
// the populated fields.
func (t *PortalTransport) Snapshot(ctx context.Context, inst models.Instrument) (models.Quote, error) {
	resolved, err := t.ResolveContract(ctx, inst)
	if err != nil {
		return models.Quote{}, err
	}

	path := fmt.Sprintf("/iserver/marketdata/snapshot?conids=%d&fields=%s", resolved.ContractID, snapshotFields)

	var raw []map[string]interface{}
	if err := t.getJSON(ctx, path, &raw); err != nil {
		return models.Quote{}, err
	}
	if len(raw) == 0 {
		// Prime request returned before the subscription filled.
		if err := t.getJSON(ctx, path, &raw); err != nil {
			return models.Quote{}, err
		}
		if len(raw) == 0 {
			return models.Quote{}, apperrors.Wrapf(apperrors.ErrIncompleteQuote, "conid %d", resolved.ContractID)
		}
	}

	fields := raw[0]
	quote := models.Quote{
		Last:       parseFloat(fields["31"]),
		Bid:        parseFloat(fields["84"]),
		Ask:        parseFloat(fields["86"]),
		Volume:     int64(parseFloat(fields["87"])),
		ImpliedVol: parseFloat(fields["7283"]),
		Timestamp:  time.Now(),
	}
	if _, ok := fields["7308"]; ok {
		quote.Greeks = &models.Greeks{
			Delta: parseFloat(fields["7308"]),
			Gamma: parseFloat(fields["7309"]),
			Theta: parseFloat(fields["7310"]),
			Vega:  parseFloat(fields["7311"]),
		}
	}
	return quote, nil
}

// LastClose returns the prior close price for an instrument.
func (t *PortalTransport) LastClose(ctx context.Context, inst models.Instrument) (float64, error) {
	resolved, err := t.ResolveContract(ctx, inst)
	if err != nil {
		return 0, err
	}

	path := fmt.Sprintf("/iserver/marketdata/snapshot?conids=%d&fields=7741", resolved.ContractID)
	var raw []map[string]interface{}
	if err := t.getJSON(ctx, path, &raw); err != nil {
		return 0, err
	}
	if len(raw) == 0 {
		return 0, fmt.Errorf("no snapshot for conid %d", resolved.ContractID)
	}
	return parseFloat(raw[0]["7741"]), nil
}

func (t *PortalTransport) searchUnderlying(ctx context.Context, symbol string) (int64, []string, error) {
	path := fmt.Sprintf("/iserver/secdef/search?symbol=%s", symbol)

	var results []searchResult
	if err := t.getJSON(ctx, path, &results); err != nil {
		return 0, nil, err
	}
	if len(results) == 0 {
		return 0, nil, apperrors.Wrapf(apperrors.ErrSymbolNotFound, "%s", symbol)
	}

	for _, result := range results {
		conid, err := strconv.ParseInt(result.ConID, 10, 64)
		if err != nil {
			continue
		}
		for _, section := range result.Sections {
			if section.SecType == "OPT" {
				return conid, strings.Split(section.Months, ";"), nil
			}
		}
		// Underlying without an options section still resolves its conid.
		return conid, nil, nil
	}

	return 0, nil, apperrors.Wrapf(apperrors.ErrSymbolNotFound, "%s: no parsable contract", symbol)
}

func (t *PortalTransport) resolveOptionConID(ctx context.Context, inst models.Instrument) (int64, error) {
	underlyingConID, _, err := t.searchUnderlying(ctx, inst.Symbol)
	if err != nil {
		return 0, err
	}

	month := strings.ToUpper(inst.Expiration.Format("Jan06"))
	path := fmt.Sprintf("/iserver/secdef/info?conid=%d&sectype=OPT&month=%s&strike=%s&right=%s",
		underlyingConID, month, strconv.FormatFloat(inst.Strike, 'f', -1, 64), inst.Right)

	var contracts []contractInfo
	if err := t.getJSON(ctx, path, &contracts); err != nil {
		return 0, err
	}

	maturity := inst.Expiration.Format("20060102")
	for _, c := range contracts {
		if c.MaturityDate == maturity {
			return c.ConID, nil
		}
	}
	if len(contracts) > 0 {
		return contracts[0].ConID, nil
	}
	return 0, fmt.Errorf("no contract for %s %s %.2f %s", inst.Symbol, month, inst.Strike, inst.Right)
}

func (t *PortalTransport) cachedConID(key string) (int64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	conid, ok := t.conids[key]
	return conid, ok
}

func (t *PortalTransport) storeConID(key string, conid int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.conids[key] = conid
}

func (t *PortalTransport) getJSON(ctx context.Context, path string, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gateway returned %d for %s", resp.StatusCode, path)
	}

	return json.Unmarshal(body, target)
}

func (t *PortalTransport) postEmpty(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request %s: %w", path, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gateway returned %d for %s", resp.StatusCode, path)
	}
	return nil
}

func parseFloat(val interface{}) float64 {
	switch v := val.(type) {
	case float64:
		return v
	case string:
		f, _ := strconv.ParseFloat(strings.TrimPrefix(v, "C"), 64)
		return f
	default:
		return 0
	}
}

// parseMonth parses an option month in the gateway's MONYY format, e.g.
// "JAN26".
func parseMonth(month string) (time.Time, error) {
	if len(month) != 5 {
		return time.Time{}, fmt.Errorf("invalid month format: %s", month)
	}

	t, err := time.Parse("Jan06", month[:1]+strings.ToLower(month[1:]))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month: %s", month)
	}
	return t, nil
}

// thirdFriday returns the standard monthly expiration for a month.
func thirdFriday(monthDate time.Time) time.Time {
	current := time.Date(monthDate.Year(), monthDate.Month(), 1, 16, 0, 0, 0, time.UTC)
	for current.Weekday() != time.Friday {
		current = current.AddDate(0, 0, 1)
	}
	return current.AddDate(0, 0, 14)
}
