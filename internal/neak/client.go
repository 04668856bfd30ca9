// Package neak checks patient insurance eligibility against the national
// health fund endpoint and keeps an audit history of every check.
package neak

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// EligibilityResult classifies the fund's answer.
type EligibilityResult string

const (
	ResultEligible   EligibilityResult = "ELIGIBLE"
	ResultIneligible EligibilityResult = "INELIGIBLE"
	ResultUnknown    EligibilityResult = "UNKNOWN"
)

// CheckOutcome is the answer of one eligibility check. StatusCode retains
// the upstream HTTP status for auditing.
type CheckOutcome struct {
	Result     EligibilityResult `json:"result"`
	StatusCode int               `json:"status_code"`
	CheckedAt  time.Time         `json:"checked_at"`
}

// ClientConfig configures the upstream connection.
type ClientConfig struct {
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// Client performs eligibility lookups. Concurrent checks for the same TAJ
// collapse into a single upstream call, and outcomes are cached briefly so
// repeated front-desk lookups do not hammer the fund.
type Client struct {
	cfg   ClientConfig
	http  *http.Client
	redis *redis.Client
	group singleflight.Group
	now   func() time.Time
}

func NewClient(cfg ClientConfig, rdb *redis.Client) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = 2 * time.Minute
	}
	return &Client{
		cfg:   cfg,
		http:  &http.Client{Timeout: cfg.Timeout},
		redis: rdb,
		now:   time.Now,
	}
}

type checkRequest struct {
	TAJ  string `json:"taj"`
	Date string `json:"date"`
}

type checkResponse struct {
	Eligible *bool `json:"eligible"`
}

func cacheKey(taj string) string {
	return "neak:eligibility:" + taj
}

// Check resolves the eligibility of a TAJ number on the given date.
func (c *Client) Check(ctx context.Context, taj string, date time.Time) (CheckOutcome, error) {
	if c.redis != nil {
		if raw, err := c.redis.Get(ctx, cacheKey(taj)).Bytes(); err == nil {
			var cached CheckOutcome
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
		}
	}

	// The flight is shared with other callers, so it must not die with the
	// first caller's context; the HTTP client timeout still bounds it.
	v, err, _ := c.group.Do(taj, func() (interface{}, error) {
		return c.fetch(context.WithoutCancel(ctx), taj, date)
	})
	if err != nil {
		return CheckOutcome{}, err
	}
	outcome := v.(CheckOutcome)

	if c.redis != nil {
		if raw, err := json.Marshal(outcome); err == nil {
			c.redis.Set(ctx, cacheKey(taj), raw, c.cfg.CacheTTL)
		}
	}
	return outcome, nil
}

func (c *Client) fetch(ctx context.Context, taj string, date time.Time) (CheckOutcome, error) {
	body, err := json.Marshal(checkRequest{TAJ: taj, Date: date.Format("2006-01-02")})
	if err != nil {
		return CheckOutcome{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/eligibility", bytes.NewReader(body))
	if err != nil {
		return CheckOutcome{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return CheckOutcome{}, fmt.Errorf("eligibility request: %w", err)
	}
	defer resp.Body.Close()

	outcome := CheckOutcome{StatusCode: resp.StatusCode, CheckedAt: c.now().UTC()}
	if resp.StatusCode != http.StatusOK {
		outcome.Result = ResultUnknown
		return outcome, nil
	}

	var parsed checkResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil || parsed.Eligible == nil {
		outcome.Result = ResultUnknown
		return outcome, nil
	}
	if *parsed.Eligible {
		outcome.Result = ResultEligible
	} else {
		outcome.Result = ResultIneligible
	}
	return outcome, nil
}
