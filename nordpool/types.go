package nordpool

import "time"

type dayAheadPrices struct {
	DeliveryDateCET  string       `json:"deliveryDateCET"`
	Version          int          `json:"version"`
	Market           string       `json:"market"`
	Currency         string       `json:"currency"`
	MultiAreaEntries []areaEntry  `json:"multiAreaEntries"`
	AreaStates       []areaStatus `json:"areaStates"`
}

type areaEntry struct {
	DeliveryStart time.Time          `json:"deliveryStart"`
	DeliveryEnd   time.Time          `json:"deliveryEnd"`
	EntryPerArea  map[string]float64 `json:"entryPerArea"`
}

type areaStatus struct {
	State string   `json:"state"`
	Areas []string `json:"areas"`
}
