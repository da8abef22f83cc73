package polymarket

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"ARSPull/internal/domain/models"
	drepo "ARSPull/internal/domain/repository"
	"ARSPull/internal/service/ratelimit"
	xhttp "ARSPull/pkg/http"
	applogger "ARSPull/pkg/logger"
)

const rateKey = "polymarket:data-api"

// Client implements MarketData against the Polymarket data API.
type Client struct {
	baseURL string
	http    *xhttp.Client
	limiter *ratelimit.Limiter
	rate    float64
	logger  *applogger.Logger
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithRequestTimeout sets the per-request timeout.
func WithRequestTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.http = xhttp.NewClient(xhttp.WithTimeout(d)) }
}

// WithRate sets the sustained request rate against the upstream API.
func WithRate(perSec float64) ClientOption {
	return func(c *Client) { c.rate = perSec }
}

// NewClient creates a data API client.
func NewClient(baseURL string, logger *applogger.Logger, opts ...ClientOption) drepo.MarketData {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    xhttp.NewClient(),
		limiter: ratelimit.New(),
		rate:    5,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type leaderboardEntry struct {
	ProxyWallet string  `json:"proxyWallet"`
	Name        string  `json:"name"`
	Amount      float64 `json:"amount"`
	Volume      float64 `json:"volume"`
}

type positionEntry struct {
	ConditionID  string  `json:"conditionId"`
	Title        string  `json:"title"`
	Outcome      string  `json:"outcome"`
	Size         float64 `json:"size"`
	AvgPrice     float64 `json:"avgPrice"`
	CurPrice     float64 `json:"curPrice"`
	CurrentValue float64 `json:"currentValue"`
	CashPnL      float64 `json:"cashPnl"`
}

// Leaderboard fetches the top traders by profit over the trailing window.
func (c *Client) Leaderboard(ctx context.Context, limit int) ([]models.TraderRecord, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	var entries []leaderboardEntry
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/leaderboard",
		QueryParams: map[string][]string{
			"window": {"30d"},
			"limit":  {strconv.Itoa(limit)},
		},
	}, &entries)
	if err != nil {
		return nil, fmt.Errorf("polymarket leaderboard: %w", err)
	}

	records := make([]models.TraderRecord, 0, len(entries))
	for i, e := range entries {
		if e.ProxyWallet == "" {
			continue
		}
		rec := models.TraderRecord{
			Wallet:   e.ProxyWallet,
			Username: e.Name,
			Rank:     i + 1,
			PnL:      e.Amount,
			Volume:   e.Volume,
		}
		if e.Volume > 0 {
			rec.Efficiency = e.Amount / e.Volume
		}
		records = append(records, rec)
	}
	c.logger.Debug("leaderboard fetched", applogger.Int("traders", len(records)))
	return records, nil
}

// Positions fetches one trader's open positions.
func (c *Client) Positions(ctx context.Context, wallet string) ([]models.MarketPosition, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	var entries []positionEntry
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/positions",
		QueryParams: map[string][]string{
			"user":          {wallet},
			"sortBy":        {"CURRENT"},
			"sortDirection": {"DESC"},
		},
	}, &entries)
	if err != nil {
		return nil, fmt.Errorf("polymarket positions %s: %w", wallet, err)
	}

	positions := make([]models.MarketPosition, 0, len(entries))
	for _, e := range entries {
		dir := parseOutcome(e.Outcome)
		if !dir.Valid() {
			continue
		}
		positions = append(positions, models.MarketPosition{
			Wallet:       wallet,
			MarketID:     e.ConditionID,
			MarketTitle:  e.Title,
			Outcome:      dir,
			Shares:       e.Size,
			AvgPrice:     e.AvgPrice,
			CurrentPrice: e.CurPrice,
			CurrentValue: e.CurrentValue,
			PnL:          e.CashPnL,
		})
	}
	return positions, nil
}

// wait blocks until the token bucket grants a request or ctx ends.
func (c *Client) wait(ctx context.Context) error {
	for !c.limiter.Allow(rateKey, c.rate, c.rate) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
	return nil
}

func parseOutcome(s string) models.Direction {
	switch strings.ToLower(s) {
	case "yes":
		return models.DirectionYes
	case "no":
		return models.DirectionNo
	default:
		return models.Direction(strings.ToLower(s))
	}
}
