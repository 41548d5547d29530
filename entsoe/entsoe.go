package entsoe

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/icodeforyou/spotwindow-go/normalize"
	"github.com/icodeforyou/spotwindow-go/types"
	"golang.org/x/time/rate"
)

const (
	Name           = "entsoe"
	DefaultURL     = "https://web-api.tp.entsoe.eu/api"
	dayAheadPrices = "A44"
	periodLayout   = "200601021504"
	curveVariable  = "A03"
	maxBodySize    = 10 << 20
)

// The platform allows 400 requests per minute and token.
const defaultRateLimit = rate.Limit(400.0 / 60.0)

type Client struct {
	baseURL    string
	domain     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(limit, burst) }
}

func New(zone string, opts ...Option) (*Client, error) {
	domain, err := EIC(zone)
	if err != nil {
		return nil, err
	}

	c := &Client{
		baseURL:    DefaultURL,
		domain:     domain,
		httpClient: &http.Client{},
		limiter:    rate.NewLimiter(defaultRateLimit, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) Name() string {
	return Name
}

// Fetch returns the day-ahead price series for [start, end). Prices are in
// EUR/MWh as published.
func (c *Client) Fetch(ctx context.Context, token string, start, end time.Time) ([]types.RawSeries, error) {
	if token == "" {
		return nil, types.NewFetchError(Name, types.ErrUnauthorized, errors.New("missing security token"))
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, types.NewFetchError(Name, types.ErrUnreachable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.requestURL(token, start, end), nil)
	if err != nil {
		return nil, types.NewFetchError(Name, types.ErrBadRequest, fmt.Errorf("failed to create request: %w", err))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, types.NewFetchError(Name, types.ErrUnreachable, fmt.Errorf("failed to fetch prices: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, types.NewFetchError(Name, types.ErrUnreachable, fmt.Errorf("failed to read response: %w", err))
	}

	// A bad request carries an acknowledgement document, the rest fail here
	if kind := types.KindForStatus(resp.StatusCode); resp.StatusCode != http.StatusOK && kind != types.ErrBadRequest {
		return nil, types.NewFetchError(Name, kind, fmt.Errorf("status code %d", resp.StatusCode))
	}

	var doc document
	decodeErr := xml.Unmarshal(body, &doc)

	if resp.StatusCode != http.StatusOK {
		if decodeErr == nil && doc.isAcknowledgement() {
			if doc.noData() {
				return []types.RawSeries{}, nil
			}
			return nil, types.NewFetchError(Name, types.ErrBadRequest, fmt.Errorf("status code %d: %s", resp.StatusCode, doc.reasonText()))
		}
		return nil, types.NewFetchError(Name, types.ErrBadRequest, fmt.Errorf("status code %d", resp.StatusCode))
	}

	if decodeErr != nil {
		return nil, types.NewFetchError(Name, types.ErrMalformed, fmt.Errorf("failed to decode response: %w", decodeErr))
	}
	if doc.isAcknowledgement() {
		if doc.noData() {
			return []types.RawSeries{}, nil
		}
		return nil, types.NewFetchError(Name, types.ErrBadRequest, errors.New(doc.reasonText()))
	}

	series, err := toRawSeries(doc)
	if err != nil {
		return nil, types.NewFetchError(Name, types.ErrMalformed, err)
	}
	return series, nil
}

func (c *Client) requestURL(token string, start, end time.Time) string {
	q := url.Values{}
	q.Set("securityToken", token)
	q.Set("documentType", dayAheadPrices)
	q.Set("in_Domain", c.domain)
	q.Set("out_Domain", c.domain)
	q.Set("periodStart", start.UTC().Format(periodLayout))
	q.Set("periodEnd", end.UTC().Format(periodLayout))
	return c.baseURL + "?" + q.Encode()
}

func toRawSeries(doc document) ([]types.RawSeries, error) {
	series := make([]types.RawSeries, 0)
	for _, ts := range doc.TimeSeries {
		for _, p := range ts.Periods {
			start, err := parseIntervalTime(p.Interval.Start)
			if err != nil {
				return nil, fmt.Errorf("invalid period start %q: %w", p.Interval.Start, err)
			}

			points := make([]types.RawPoint, len(p.Points))
			for i, pt := range p.Points {
				points[i] = types.RawPoint{Position: pt.Position, PriceAmount: pt.Price}
			}

			if ts.CurveType == curveVariable {
				points = expandCurve(points, p)
			}

			series = append(series, types.RawSeries{
				Resolution:  p.Resolution,
				PeriodStart: start,
				Points:      points,
			})
		}
	}
	return series, nil
}

// expandCurve fills positions left out of an A03 curve, where a missing
// position carries the price of the one before it.
func expandCurve(points []types.RawPoint, p period) []types.RawPoint {
	minutes, ok := normalize.ParseResolution(p.Resolution)
	if !ok || len(points) == 0 {
		return points
	}
	start, errStart := parseIntervalTime(p.Interval.Start)
	end, errEnd := parseIntervalTime(p.Interval.End)
	if errStart != nil || errEnd != nil || !end.After(start) {
		return points
	}

	count := int(end.Sub(start) / (time.Duration(minutes) * time.Minute))
	for i, pt := range points {
		if pt.Position < 1 || pt.Position > count || (i > 0 && pt.Position <= points[i-1].Position) {
			return points
		}
	}

	expanded := make([]types.RawPoint, 0, count)
	next := 0
	var last types.RawPoint
	for pos := 1; pos <= count; pos++ {
		if next < len(points) && points[next].Position == pos {
			last = points[next]
			next++
		} else if pos < points[0].Position {
			continue
		}
		expanded = append(expanded, types.RawPoint{Position: pos, PriceAmount: last.PriceAmount})
	}
	return expanded
}
