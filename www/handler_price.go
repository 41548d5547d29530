package www

import (
	"log/slog"
	"net/http"

	"github.com/icodeforyou/spotwindow-go/recommend"
	"github.com/icodeforyou/spotwindow-go/types"
)

type priceResponse struct {
	Zone   string              `json:"zone"`
	Source string              `json:"source"`
	Prices []types.HourlyPrice `json:"prices"`
}

type currentPriceResponse struct {
	Zone   string `json:"zone"`
	Source string `json:"source"`
	types.HourlyPrice
}

func NewCurrentPriceHandler(logger *slog.Logger, svc *recommend.Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cur, err := svc.CurrentPrice(r.Context())
		if err != nil {
			writeError(w, r, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, currentPriceResponse{
			Zone:        svc.Zone(),
			Source:      svc.Source(),
			HourlyPrice: cur,
		})
	})
}

func NewPastPricesHandler(logger *slog.Logger, svc *recommend.Service, defaults RequestDefaults) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n, err := intOrDefault(r.URL, "hours", defaults.Hours)
		if err != nil {
			writeError(w, r, logger, err)
			return
		}
		prices, err := svc.PastPrices(r.Context(), n)
		if err != nil {
			writeError(w, r, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, priceResponse{Zone: svc.Zone(), Source: svc.Source(), Prices: prices})
	})
}

func NewFuturePricesHandler(logger *slog.Logger, svc *recommend.Service, defaults RequestDefaults) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n, err := intOrDefault(r.URL, "hours", defaults.Hours)
		if err != nil {
			writeError(w, r, logger, err)
			return
		}
		prices, err := svc.FuturePrices(r.Context(), n)
		if err != nil {
			writeError(w, r, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, priceResponse{Zone: svc.Zone(), Source: svc.Source(), Prices: prices})
	})
}
