// Package eastmoney provides a client for the Eastmoney quote APIs (A-share daily history and company facts)
package eastmoney

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/guregu/null/v6"
	"golang.org/x/time/rate"

	"github.com/bobmcallan/cnstock/internal/common"
	"github.com/bobmcallan/cnstock/internal/models"
)

const (
	DefaultHistoryURL = "https://push2his.eastmoney.com/api/qt/stock/kline/get"
	DefaultQuoteURL   = "https://push2.eastmoney.com/api/qt/stock/get"
	DefaultTimeout    = 30 * time.Second
	DefaultRateLimit  = 5 // requests per second

	historyToken = "7eea3edcaed734bea9cbfc24409ed989"
	quoteToken   = "fa5fd1943c7b386f172d6893dbfba10b"

	periodDaily = "101"
	adjustNone  = "0"
)

// flexFloat handles values that may be a number, a numeric string, or a "-" placeholder.
type flexFloat struct {
	null.Float
}

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		f.Float = null.Float{}
		return nil
	}
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		f.Float = null.FloatFrom(num)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		num, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			f.Float = null.Float{}
			return nil
		}
		f.Float = null.FloatFrom(num)
		return nil
	}
	return fmt.Errorf("cannot unmarshal %s into float64", string(data))
}

// Client implements the MarketDataClient interface
type Client struct {
	historyURL string
	quoteURL   string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithHistoryURL sets the kline endpoint
func WithHistoryURL(u string) ClientOption {
	return func(c *Client) {
		c.historyURL = u
	}
}

// WithQuoteURL sets the company facts endpoint
func WithQuoteURL(u string) ClientOption {
	return func(c *Client) {
		c.quoteURL = u
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
		}
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new Eastmoney client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		historyURL: DefaultHistoryURL,
		quoteURL:   DefaultQuoteURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents an API error
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Eastmoney API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// SecID returns the provider's market-qualified id: 1.<code> for Shanghai, 0.<code> otherwise.
func SecID(symbol string) string {
	if strings.HasPrefix(symbol, "6") || strings.HasPrefix(symbol, "9") {
		return "1." + symbol
	}
	return "0." + symbol
}

// get performs a rate-limited GET request
func (c *Client) get(ctx context.Context, endpoint string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	reqURL := endpoint + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("url", endpoint).Str("secid", params.Get("secid")).Msg("Eastmoney API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   endpoint,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// klineResponse represents the API response for kline data
type klineResponse struct {
	RC   int `json:"rc"`
	Data *struct {
		Code   string   `json:"code"`
		Name   string   `json:"name"`
		Klines []string `json:"klines"`
	} `json:"data"`
}

// GetDailyHistory retrieves unadjusted daily bars. A symbol with no trading in the
// range yields an empty slice.
func (c *Client) GetDailyHistory(ctx context.Context, symbol string, from, to time.Time) ([]models.DailyBar, error) {
	params := url.Values{}
	params.Set("fields1", "f1,f2,f3,f4,f5,f6")
	params.Set("fields2", "f51,f52,f53,f54,f55,f56,f57,f58,f59,f60,f61")
	params.Set("ut", historyToken)
	params.Set("klt", periodDaily)
	params.Set("fqt", adjustNone)
	params.Set("secid", SecID(symbol))
	params.Set("beg", from.Format("20060102"))
	params.Set("end", to.Format("20060102"))

	var resp klineResponse
	if err := c.get(ctx, c.historyURL, params, &resp); err != nil {
		return nil, err
	}
	if resp.RC != 0 {
		return nil, &APIError{StatusCode: http.StatusOK, Message: fmt.Sprintf("rc=%d", resp.RC), Endpoint: c.historyURL}
	}
	if resp.Data == nil {
		return []models.DailyBar{}, nil
	}

	bars := make([]models.DailyBar, 0, len(resp.Data.Klines))
	for _, line := range resp.Data.Klines {
		bar, err := parseKline(symbol, line)
		if err != nil {
			return nil, err
		}
		bars = append(bars, bar)
	}

	c.logger.Debug().Str("symbol", symbol).Int("bars", len(bars)).Msg("Eastmoney history fetched")
	return bars, nil
}

// parseKline decodes "date,open,close,high,low,volume,amount,amplitude,pct,change,turnover".
func parseKline(symbol, line string) (models.DailyBar, error) {
	f := strings.Split(line, ",")
	if len(f) < 11 {
		return models.DailyBar{}, fmt.Errorf("malformed kline %q: want 11 fields, got %d", line, len(f))
	}

	date, err := time.Parse("2006-01-02", f[0])
	if err != nil {
		return models.DailyBar{}, fmt.Errorf("malformed kline date %q: %w", f[0], err)
	}

	nums := make([]float64, 9)
	for i := 1; i <= 9; i++ {
		v, err := strconv.ParseFloat(f[i], 64)
		if err != nil {
			return models.DailyBar{}, fmt.Errorf("malformed kline field %d in %q: %w", i, line, err)
		}
		nums[i-1] = v
	}

	bar := models.DailyBar{
		Symbol:    symbol,
		Date:      date,
		Open:      nums[0],
		Close:     nums[1],
		High:      nums[2],
		Low:       nums[3],
		Volume:    int64(nums[4]),
		Amount:    nums[5],
		Amplitude: nums[6],
		PctChange: nums[7],
		Change:    nums[8],
	}
	if t, err := strconv.ParseFloat(f[10], 64); err == nil {
		bar.TurnoverRate = null.FloatFrom(t)
	}
	return bar, nil
}

// quoteResponse represents the API response for the company snapshot
type quoteResponse struct {
	RC   int `json:"rc"`
	Data *struct {
		Code             string    `json:"f57"`
		Name             string    `json:"f58"`
		TotalShares      flexFloat `json:"f84"`
		FloatShares      flexFloat `json:"f85"`
		TotalMarketValue flexFloat `json:"f116"`
		FloatMarketValue flexFloat `json:"f117"`
	} `json:"data"`
}

// GetCompanyFacts retrieves the company snapshot items that the provider reported.
func (c *Client) GetCompanyFacts(ctx context.Context, symbol string) (map[string]float64, error) {
	params := url.Values{}
	params.Set("ut", quoteToken)
	params.Set("fltt", "2")
	params.Set("invt", "2")
	params.Set("fields", "f57,f58,f84,f85,f116,f117")
	params.Set("secid", SecID(symbol))

	var resp quoteResponse
	if err := c.get(ctx, c.quoteURL, params, &resp); err != nil {
		return nil, err
	}
	if resp.RC != 0 {
		return nil, &APIError{StatusCode: http.StatusOK, Message: fmt.Sprintf("rc=%d", resp.RC), Endpoint: c.quoteURL}
	}

	items := make(map[string]float64)
	if resp.Data == nil {
		return items, nil
	}

	add := func(key string, v flexFloat) {
		if v.Valid {
			items[key] = v.Float64
		}
	}
	add(models.FactTotalShares, resp.Data.TotalShares)
	add(models.FactFloatShares, resp.Data.FloatShares)
	add(models.FactTotalMarketValue, resp.Data.TotalMarketValue)
	add(models.FactFloatMarketValue, resp.Data.FloatMarketValue)

	return items, nil
}
