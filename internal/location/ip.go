package location

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/i474232898/bandweather/internal/observe"
)

// IPProvider approximates the device position from its public IP address.
// A fix younger than maxAge is reused without a request.
type IPProvider struct {
	httpClient *http.Client
	url        string
	timeout    time.Duration
	maxAge     time.Duration
	now        func() time.Time
	l          *observe.Logger

	mu      sync.Mutex
	last    Coordinate
	lastFix time.Time
}

// NewIPProvider returns a provider querying url (ip-api.com JSON shape),
// bounded by timeout per lookup.
func NewIPProvider(client *http.Client, url string, timeout, maxAge time.Duration, l *observe.Logger) *IPProvider {
	return &IPProvider{
		httpClient: client,
		url:        url,
		timeout:    timeout,
		maxAge:     maxAge,
		now:        time.Now,
		l:          l,
	}
}

type ipLookupResponse struct {
	Status  string   `json:"status"`
	Message string   `json:"message"`
	Lat     *float64 `json:"lat"`
	Lon     *float64 `json:"lon"`
	City    string   `json:"city"`
}

func (p *IPProvider) Locate(ctx context.Context) (Coordinate, error) {
	if c, ok := p.cached(); ok {
		p.l.Debug("using cached location", map[string]any{"coordinate": c.String()})
		return c, nil
	}

	lookupCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	c, err := p.lookup(lookupCtx)
	if err != nil {
		// Parent cancellation is reported as such, everything else is "no location".
		if ctx.Err() != nil {
			return Coordinate{}, ctx.Err()
		}
		p.l.Warning("location lookup failed", map[string]any{"err": err.Error()})
		return Coordinate{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	p.mu.Lock()
	p.last, p.lastFix = c, p.now()
	p.mu.Unlock()

	return c, nil
}

func (p *IPProvider) cached() (Coordinate, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.lastFix.IsZero() || p.maxAge <= 0 {
		return Coordinate{}, false
	}
	if p.now().Sub(p.lastFix) > p.maxAge {
		return Coordinate{}, false
	}
	return p.last, true
}

func (p *IPProvider) lookup(ctx context.Context) (Coordinate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return Coordinate{}, err
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return Coordinate{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Coordinate{}, fmt.Errorf("lookup returned status %d", resp.StatusCode)
	}

	var payload ipLookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Coordinate{}, fmt.Errorf("failed to decode response: %w", err)
	}
	if payload.Status != "" && payload.Status != "success" {
		return Coordinate{}, fmt.Errorf("lookup failed: %s", payload.Message)
	}
	if payload.Lat == nil || payload.Lon == nil {
		return Coordinate{}, fmt.Errorf("lookup response has no coordinate")
	}

	return Coordinate{Latitude: *payload.Lat, Longitude: *payload.Lon}, nil
}
