package forecast

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sony/gobreaker"

	"github.com/i474232898/bandweather/internal/observe"
)

const (
	coordinatePath = "%s/api/%s/conditions/hourly/forecast10day/q/%.2f,%.2f.json"
	postalPath     = "%s/api/%s/conditions/hourly/forecast10day/q/%s.json"

	// MaxDays is the length of the provider's 10 day forecast.
	MaxDays = 10
)

var validate = validator.New()

// Options configures a Client.
type Options struct {
	BaseURL          string
	AlternateBaseURL string
	APIKey           string
	Days             int
}

// Client fetches the conditions + 10 day forecast from a wunderground style API.
// Each Fetch issues a single GET; there is no retry.
type Client struct {
	name       string
	opts       Options
	httpClient *http.Client
	circuit    *gobreaker.CircuitBreaker
	l          *observe.Logger
}

func NewClient(httpClient *http.Client, opts Options, l *observe.Logger) *Client {
	if opts.Days <= 0 || opts.Days > MaxDays {
		opts.Days = 5
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	opts.AlternateBaseURL = strings.TrimRight(opts.AlternateBaseURL, "/")

	return &Client{
		name:       "wunderground",
		opts:       opts,
		httpClient: httpClient,
		circuit:    newCircuitBreaker("wunderground"),
		l:          l,
	}
}

func (c *Client) Name() string {
	return c.name
}

// URL builds the request URL for q. alternate selects the alternate base URL
// when one is configured.
func (c *Client) URL(q Query, alternate bool) (string, error) {
	base := c.opts.BaseURL
	if alternate && c.opts.AlternateBaseURL != "" {
		base = c.opts.AlternateBaseURL
	}

	switch {
	case q.PostalCode != "":
		return fmt.Sprintf(postalPath, base, url.PathEscape(c.opts.APIKey), url.PathEscape(q.PostalCode)), nil
	case q.Coordinate != nil:
		return fmt.Sprintf(coordinatePath, base, url.PathEscape(c.opts.APIKey), q.Coordinate.Latitude, q.Coordinate.Longitude), nil
	default:
		return "", fmt.Errorf("%w: query has neither coordinate nor postal code", ErrUnavailable)
	}
}

// Fetch returns the forecast for q. Every failure wraps ErrUnavailable.
func (c *Client) Fetch(ctx context.Context, q Query, alternate bool) (Data, error) {
	u, err := c.URL(q, alternate)
	if err != nil {
		return Data{}, err
	}

	c.l.Info("requesting forecast", map[string]any{
		"provider":  c.name,
		"alternate": alternate,
		"postal":    q.PostalCode,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Data{}, fmt.Errorf("%w: failed to create request: %v", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := doRequest(ctx, c.httpClient, c.circuit, req)
	if err != nil {
		return Data{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	var payload conditionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Data{}, fmt.Errorf("%w: failed to decode response: %v", ErrUnavailable, err)
	}
	if err := validate.Struct(&payload); err != nil {
		return Data{}, fmt.Errorf("%w: invalid response: %v", ErrUnavailable, err)
	}

	data := payload.toData(c.opts.Days)

	c.l.Info("received forecast", map[string]any{
		"provider": c.name,
		"city":     data.City,
		"days":     len(data.Days),
	})

	return data, nil
}
