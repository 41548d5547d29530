package tibber

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/icodeforyou/spotwindow-go/convert"
	"github.com/icodeforyou/spotwindow-go/normalize"
	"github.com/icodeforyou/spotwindow-go/types"
	"github.com/samber/lo"
)

const (
	Name       = "tibber"
	DefaultURL = "https://api.tibber.com/v1-beta/gql"
)

type queryRequest struct {
	Query string `json:"query"`
}

type queryResponse[T any] struct {
	Data struct {
		Viewer struct {
			Home T `json:"home"`
		} `json:"viewer"`
	} `json:"data"`
	Errors []graphqlError `json:"errors,omitempty"`
}

type graphqlError struct {
	Message string   `json:"message"`
	Path    []string `json:"path"`
}

type priceInfo struct {
	StartsAt string  `json:"startsAt"`
	Energy   float64 `json:"energy"`
	Currency string  `json:"currency"`
}

type priceInfoResponse struct {
	CurrentSubscription *struct {
		PriceInfo struct {
			Today    []priceInfo `json:"today"`
			Tomorrow []priceInfo `json:"tomorrow"`
		} `json:"priceInfo"`
	} `json:"currentSubscription"`
}

// Tibber reads the spot part of a home's price, which is only today and
// tomorrow. The home subscription must be billed in EUR.
type Tibber struct {
	apiToken   string
	homeId     string
	url        string
	httpClient *http.Client
}

func New(apiToken string, homeId string) *Tibber {
	return NewWithURL(apiToken, homeId, DefaultURL)
}

func NewWithURL(apiToken, homeId, url string) *Tibber {
	return &Tibber{apiToken: apiToken, homeId: homeId, url: url, httpClient: &http.Client{}}
}

func (t *Tibber) Name() string {
	return Name
}

// Fetch ignores the passed token, Tibber uses its own API token.
func (t *Tibber) Fetch(ctx context.Context, _ string, start, end time.Time) ([]types.RawSeries, error) {
	if t.apiToken == "" {
		return nil, types.NewFetchError(Name, types.ErrUnauthorized, errors.New("missing api token"))
	}

	query := `
		currentSubscription {
			priceInfo {
				today { startsAt energy currency }
				tomorrow { startsAt energy currency }
			}
		}`

	body, err := doQuery[priceInfoResponse](ctx, t, query)
	if err != nil {
		return nil, err
	}
	sub := body.Data.Viewer.Home.CurrentSubscription
	if sub == nil {
		return nil, types.NewFetchError(Name, types.ErrBadRequest, errors.New("home has no current subscription"))
	}

	todayAndTomorrow := append(sub.PriceInfo.Today, sub.PriceInfo.Tomorrow...)

	startsAt := make([]time.Time, len(todayAndTomorrow))
	for i, price := range todayAndTomorrow {
		if !strings.EqualFold(price.Currency, "EUR") {
			return nil, types.NewFetchError(Name, types.ErrBadRequest, fmt.Errorf("unsupported currency %q", price.Currency))
		}
		ts, err := time.Parse(time.RFC3339, price.StartsAt)
		if err != nil {
			return nil, types.NewFetchError(Name, types.ErrMalformed, err)
		}
		startsAt[i] = ts.UTC()
	}

	series := make([]types.RawSeries, 0, len(todayAndTomorrow))
	for i, price := range todayAndTomorrow {
		if startsAt[i].Before(start) || !startsAt[i].Before(end) {
			continue
		}
		series = append(series, types.RawSeries{
			Resolution:  normalize.ResolutionOf(step(startsAt, i)),
			PeriodStart: startsAt[i],
			Points:      []types.RawPoint{{Position: 1, PriceAmount: convert.KWhToMWh(price.Energy)}},
		})
	}
	return lo.UniqBy(series, func(s types.RawSeries) int64 { return s.PeriodStart.Unix() }), nil
}

// step is the length of the interval starting at startsAt[i], taken from the
// next entry, or the previous one for the last. A lone entry is an hour.
func step(startsAt []time.Time, i int) time.Duration {
	switch {
	case i+1 < len(startsAt):
		return startsAt[i+1].Sub(startsAt[i])
	case i > 0:
		return startsAt[i].Sub(startsAt[i-1])
	default:
		return time.Hour
	}
}

func doQuery[T any](ctx context.Context, t *Tibber, innerQuery string) (*queryResponse[T], error) {
	query := fmt.Sprintf(`query {
		viewer {
			home(id:"%s") {
				%s
			}
		}
	}`, t.homeId, innerQuery)

	reqBody, err := json.Marshal(queryRequest{Query: query})
	if err != nil {
		return nil, types.NewFetchError(Name, types.ErrBadRequest, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, types.NewFetchError(Name, types.ErrBadRequest, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", t.apiToken))
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	res, err := t.httpClient.Do(req)
	if err != nil {
		return nil, types.NewFetchError(Name, types.ErrUnreachable, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, types.NewFetchError(Name, types.KindForStatus(res.StatusCode), fmt.Errorf("got status %s", res.Status))
	}

	buf, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, types.NewFetchError(Name, types.ErrUnreachable, err)
	}

	resBody := new(queryResponse[T])
	if err = json.Unmarshal(buf, resBody); err != nil {
		return nil, types.NewFetchError(Name, types.ErrMalformed, err)
	}

	if len(resBody.Errors) > 0 {
		messages := lo.Map(resBody.Errors, func(e graphqlError, _ int) string { return e.Message })
		return nil, types.NewFetchError(Name, types.ErrBadRequest, fmt.Errorf("graphql error: %s", strings.Join(messages, "; ")))
	}

	return resBody, nil
}
