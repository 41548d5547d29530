package entsoe

import (
	"encoding/xml"
	"strings"
	"time"
)

const intervalLayout = "2006-01-02T15:04Z"

// document covers both Publication_MarketDocument and
// Acknowledgement_MarketDocument, the root name tells them apart.
type document struct {
	XMLName    xml.Name
	TimeSeries []timeSeries `xml:"TimeSeries"`
	Reasons    []reason     `xml:"Reason"`
}

type timeSeries struct {
	Currency  string   `xml:"currency_Unit.name"`
	Measure   string   `xml:"price_Measure_Unit.name"`
	CurveType string   `xml:"curveType"`
	Periods   []period `xml:"Period"`
}

type period struct {
	Interval   timeInterval `xml:"timeInterval"`
	Resolution string       `xml:"resolution"`
	Points     []point      `xml:"Point"`
}

type timeInterval struct {
	Start string `xml:"start"`
	End   string `xml:"end"`
}

type point struct {
	Position int     `xml:"position"`
	Price    float64 `xml:"price.amount"`
}

type reason struct {
	Code string `xml:"code"`
	Text string `xml:"text"`
}

func (d document) isAcknowledgement() bool {
	return d.XMLName.Local == "Acknowledgement_MarketDocument"
}

func (d document) reasonText() string {
	texts := make([]string, 0, len(d.Reasons))
	for _, r := range d.Reasons {
		texts = append(texts, strings.TrimSpace(r.Code+" "+r.Text))
	}
	return strings.Join(texts, "; ")
}

// noData is what ENTSO-E answers when the period has no published prices.
// Code 999 alone is not enough, it is shared with real request errors.
func (d document) noData() bool {
	for _, r := range d.Reasons {
		if strings.Contains(strings.ToLower(r.Text), "no matching data") {
			return true
		}
	}
	return false
}

func parseIntervalTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(intervalLayout, s)
	if err != nil {
		t, err = time.Parse(time.RFC3339, s)
	}
	return t.UTC(), err
}
