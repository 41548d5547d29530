package recommend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/icodeforyou/spotwindow-go/hours"
	"github.com/icodeforyou/spotwindow-go/normalize"
	"github.com/icodeforyou/spotwindow-go/pricecache"
	"github.com/icodeforyou/spotwindow-go/types"
	"github.com/samber/lo"
)

const (
	DefaultFetchTimeout = 30 * time.Second
	DefaultDaysBack     = 1
	DefaultDaysAhead    = 2
)

type Options struct {
	Zone         string
	Token        string
	Providers    []types.MarketDataFetcher // Tried in order, first success wins
	Policy       normalize.ResolutionPolicy
	TTL          time.Duration
	MaxLookAhead int
	FetchTimeout time.Duration
	DaysBack     int
	DaysAhead    int
	Clock        func() time.Time
}

// Service answers price questions for one market zone from a cached,
// normalized hourly series that is refetched when it gets older than the ttl.
type Service struct {
	logger       *slog.Logger
	zone         string
	token        string
	providers    []types.MarketDataFetcher
	normalizer   *normalize.Normalizer
	cache        *pricecache.Cache
	clock        func() time.Time
	maxLookAhead int
	fetchTimeout time.Duration
	daysBack     int
	daysAhead    int
}

func NewService(logger *slog.Logger, opts Options) *Service {
	if len(opts.Providers) == 0 {
		panic("no market data providers")
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.MaxLookAhead <= 0 || opts.MaxLookAhead > DefaultMaxLookAhead {
		opts.MaxLookAhead = DefaultMaxLookAhead
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}
	if opts.DaysBack < 0 {
		opts.DaysBack = DefaultDaysBack
	}
	if opts.DaysAhead <= 0 {
		opts.DaysAhead = DefaultDaysAhead
	}

	return &Service{
		logger:       logger,
		zone:         opts.Zone,
		token:        opts.Token,
		providers:    opts.Providers,
		normalizer:   normalize.New(logger, opts.Policy),
		cache:        pricecache.New(opts.Zone, opts.TTL),
		clock:        opts.Clock,
		maxLookAhead: opts.MaxLookAhead,
		fetchTimeout: opts.FetchTimeout,
		daysBack:     opts.DaysBack,
		daysAhead:    opts.DaysAhead,
	}
}

func (s *Service) Zone() string {
	return s.zone
}

func (s *Service) MaxLookAhead() int {
	return s.maxLookAhead
}

// Source is the name of the provider the cached series came from.
func (s *Service) Source() string {
	return s.cache.Source()
}

func (s *Service) FetchedAt() time.Time {
	return s.cache.FetchedAt()
}

// ProviderCount is the length of the provider chain, simulated fallback included.
func (s *Service) ProviderCount() int {
	return len(s.providers)
}

// LoadTimeout bounds a full load: two attempts per provider plus slack.
func (s *Service) LoadTimeout() time.Duration {
	return time.Duration(2*len(s.providers)+1) * s.fetchTimeout
}

func (s *Service) Now() time.Time {
	return s.clock()
}

// Series returns the whole cached series, loading it on a miss.
func (s *Service) Series(ctx context.Context) ([]types.HourlyPrice, error) {
	return s.cache.GetOrLoad(ctx, s.clock, s.load)
}

func (s *Service) CurrentPrice(ctx context.Context) (types.HourlyPrice, error) {
	series, err := s.Series(ctx)
	if err != nil {
		return types.HourlyPrice{}, err
	}

	current := hours.Truncate(s.clock())
	p, found := lo.Find(series, func(p types.HourlyPrice) bool { return p.HourStart.Equal(current) })
	if !found {
		return types.HourlyPrice{}, fmt.Errorf("%w at %s", types.ErrNoCurrentData, hours.IsoString(current))
	}
	return p, nil
}

// PastPrices returns up to n hours before the current hour, oldest first.
func (s *Service) PastPrices(ctx context.Context, n int) ([]types.HourlyPrice, error) {
	if err := types.CheckRange("hours", n, 1, s.maxLookAhead); err != nil {
		return nil, err
	}
	series, err := s.Series(ctx)
	if err != nil {
		return nil, err
	}

	current := hours.Truncate(s.clock())
	past := lo.Filter(series, func(p types.HourlyPrice, _ int) bool { return p.HourStart.Before(current) })
	return lo.Subset(past, -n, uint(n)), nil
}

// FuturePrices returns up to n hours starting with the current hour.
func (s *Service) FuturePrices(ctx context.Context, n int) ([]types.HourlyPrice, error) {
	if err := types.CheckRange("hours", n, 1, s.maxLookAhead); err != nil {
		return nil, err
	}
	series, err := s.Series(ctx)
	if err != nil {
		return nil, err
	}

	current := hours.Truncate(s.clock())
	future := lo.Filter(series, func(p types.HourlyPrice, _ int) bool { return !p.HourStart.Before(current) })
	return lo.Subset(future, 0, uint(n)), nil
}

func (s *Service) RecommendBestTime(ctx context.Context, durationHours, lookAheadHours int) (Recommendation, error) {
	if err := s.validate(durationHours, lookAheadHours); err != nil {
		return Recommendation{}, err
	}

	series, err := s.Series(ctx)
	if err != nil {
		return Recommendation{}, err
	}

	rec, err := BestWindow(series, s.clock(), durationHours, lookAheadHours)
	if err != nil {
		return Recommendation{}, err
	}
	rec.Source = s.cache.Source()
	return rec, nil
}

func (s *Service) validate(durationHours, lookAheadHours int) error {
	if err := types.CheckRange("lookAheadHours", lookAheadHours, 1, s.maxLookAhead); err != nil {
		return err
	}
	return types.CheckRange("durationHours", durationHours, 1, lookAheadHours)
}

// Refresh loads a fresh series and replaces the cached one. A failed refresh
// keeps the previous entry.
func (s *Service) Refresh(ctx context.Context) error {
	source, series, err := s.load(ctx)
	if err != nil {
		return err
	}
	s.cache.PutFrom(source, series, s.clock())
	return nil
}

// Invalidate drops the cached series so the next call fetches.
func (s *Service) Invalidate() {
	s.cache.Clear()
}

func (s *Service) load(ctx context.Context) (string, []types.HourlyPrice, error) {
	today := hours.StartOfDay(s.clock())
	start := today.AddDate(0, 0, -s.daysBack)
	end := today.AddDate(0, 0, s.daysAhead)

	var lastErr error
	for _, provider := range s.providers {
		logger := s.logger.With(slog.String("provider", provider.Name()))

		raw, err := s.fetch(ctx, logger, provider, start, end)
		if err != nil {
			logger.Error("fetching prices failed", slog.Any("error", err))
			lastErr = err
			continue
		}

		series, err := s.normalizer.Normalize(raw)
		if err != nil {
			logger.Error("normalizing prices failed", slog.Any("error", err))
			lastErr = fmt.Errorf("%s: %w", provider.Name(), err)
			continue
		}

		// Empty answers fall through to the next provider
		if len(series) == 0 {
			logger.Warn("provider returned no prices",
				slog.String("start", hours.IsoString(start)),
				slog.String("end", hours.IsoString(end)))
			lastErr = fmt.Errorf("%s returned no prices: %w", provider.Name(), &types.InsufficientDataError{Required: 1})
			continue
		}

		logger.Info("prices loaded",
			slog.String("zone", s.zone),
			slog.Int("noOfSeries", len(raw)),
			slog.Int("noOfHours", len(series)))
		return provider.Name(), series, nil
	}

	return "", nil, lastErr
}

// fetch calls the provider under the fetch timeout, retrying once when the
// provider was unreachable.
func (s *Service) fetch(ctx context.Context, logger *slog.Logger, provider types.MarketDataFetcher, start, end time.Time) ([]types.RawSeries, error) {
	raw, err := s.fetchOnce(ctx, provider, start, end)
	var fe *types.FetchError
	if err != nil && errors.As(err, &fe) && fe.Retryable() && ctx.Err() == nil {
		logger.Warn("provider unreachable, retrying once", slog.Any("error", err))
		raw, err = s.fetchOnce(ctx, provider, start, end)
	}
	return raw, err
}

func (s *Service) fetchOnce(ctx context.Context, provider types.MarketDataFetcher, start, end time.Time) ([]types.RawSeries, error) {
	ctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()
	return provider.Fetch(ctx, s.token, start, end)
}
