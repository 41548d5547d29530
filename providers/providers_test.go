package providers

import (
	"io"
	"log/slog"
	"testing"

	"github.com/icodeforyou/spotwindow-go/config"
	"github.com/icodeforyou/spotwindow-go/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func names(fetchers []types.MarketDataFetcher) []string {
	out := make([]string, len(fetchers))
	for i, f := range fetchers {
		out[i] = f.Name()
	}
	return out
}

func TestFromConfigKeepsOrder(t *testing.T) {
	fetchers, err := FromConfig(testLogger(), config.AppConfigEnergyPrice{
		Area:      "SE3",
		Providers: []string{"elprisetjustnu", "nordpool", "tibber", "entsoe"},
		Fallback:  "simulated",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"elprisetjustnu", "nordpool", "tibber", "entsoe", "simulated"}, names(fetchers))
}

func TestFromConfigDefaultsToEntsoe(t *testing.T) {
	fetchers, err := FromConfig(testLogger(), config.AppConfigEnergyPrice{Area: "NL"})
	require.NoError(t, err)
	assert.Equal(t, []string{"entsoe"}, names(fetchers))
}

func TestFromConfigErrors(t *testing.T) {
	_, err := FromConfig(testLogger(), config.AppConfigEnergyPrice{Area: "XX"})
	assert.ErrorIs(t, err, types.ErrConfig)

	_, err = FromConfig(testLogger(), config.AppConfigEnergyPrice{Area: "NL", Providers: []string{"octopus"}})
	assert.ErrorIs(t, err, types.ErrConfig)
}

func TestNewService(t *testing.T) {
	svc, err := NewService(testLogger(), &config.AppConfig{
		EnergyPrice: config.AppConfigEnergyPrice{Area: "NL", Token: "token"},
	})
	require.NoError(t, err)
	assert.Equal(t, "NL", svc.Zone())
	assert.Equal(t, 168, svc.MaxLookAhead())
}
