// Package providers builds the market data fetchers and the recommendation
// service from the application config.
package providers

import (
	"fmt"
	"log/slog"

	"github.com/icodeforyou/spotwindow-go/config"
	"github.com/icodeforyou/spotwindow-go/elprisetjustnu"
	"github.com/icodeforyou/spotwindow-go/entsoe"
	"github.com/icodeforyou/spotwindow-go/nordpool"
	"github.com/icodeforyou/spotwindow-go/recommend"
	"github.com/icodeforyou/spotwindow-go/simulated"
	"github.com/icodeforyou/spotwindow-go/tibber"
	"github.com/icodeforyou/spotwindow-go/types"
)

// FromConfig returns the configured fetchers in priority order, with the
// simulated fallback last when enabled.
func FromConfig(logger *slog.Logger, cnfg config.AppConfigEnergyPrice) ([]types.MarketDataFetcher, error) {
	fetchers := make([]types.MarketDataFetcher, 0, len(cnfg.GetProviders())+1)

	for _, name := range cnfg.GetProviders() {
		switch name {
		case config.ProviderEntsoe:
			client, err := entsoe.New(cnfg.Area)
			if err != nil {
				return nil, err
			}
			fetchers = append(fetchers, client)
		case config.ProviderNordpool:
			fetchers = append(fetchers, nordpool.New(cnfg.Area))
		case config.ProviderElprisetjustnu:
			fetchers = append(fetchers, elprisetjustnu.New(cnfg.Area))
		case config.ProviderTibber:
			fetchers = append(fetchers, tibber.New(cnfg.TibberToken, cnfg.TibberHomeId))
		default:
			return nil, &types.ConfigError{Key: "energy_price.providers", Reason: fmt.Sprintf("unknown provider %s", name)}
		}
	}

	if cnfg.HasFallback() {
		fetchers = append(fetchers, simulated.New(logger.With(slog.String("provider", simulated.Name))))
	}
	return fetchers, nil
}

// NewService wires a recommendation service for the configured zone.
func NewService(logger *slog.Logger, cnfg *config.AppConfig) (*recommend.Service, error) {
	fetchers, err := FromConfig(logger, cnfg.EnergyPrice)
	if err != nil {
		return nil, err
	}
	if len(fetchers) == 0 {
		return nil, &types.ConfigError{Key: "energy_price.providers", Reason: "no provider configured"}
	}

	return recommend.NewService(logger, recommend.Options{
		Zone:         cnfg.EnergyPrice.Area,
		Token:        cnfg.EnergyPrice.Token,
		Providers:    fetchers,
		Policy:       cnfg.EnergyPrice.GetResolutionPolicy(),
		TTL:          cnfg.EnergyPrice.GetTtl(),
		MaxLookAhead: cnfg.Recommend.GetMaxLookAhead(),
		FetchTimeout: cnfg.EnergyPrice.GetFetchTimeout(),
		DaysBack:     cnfg.EnergyPrice.GetDaysBack(),
		DaysAhead:    cnfg.EnergyPrice.GetDaysAhead(),
	}), nil
}
