package chartjs

import (
	"github.com/icodeforyou/spotwindow-go/convert"
)

const ColorYellow = "#ffc107d4"
const ColorRed = "#f44336d4"
const ColorGreen = "#4caf5066"

const (
	DatasetPrice  = 0
	DatasetWindow = 1
	PriceAxis     = "YAxis1"
)

// NewPriceChart is an hourly price line with a second, stepped dataset that
// only has values inside the highlighted window.
func NewPriceChart(title string, labels []string) Chart {
	n := len(labels)
	chart := Chart{
		Type: "line",
		Data: ChartData{
			Labels: labels,
			Datasets: []ChartDataset{
				{
					Label:       "Price",
					Data:        make([]*float64, n),
					BorderWidth: 1,
					Stepped:     true,
					BorderColor: ColorYellow,
					YAxisID:     PriceAxis,
				},
				{
					Label:           "Cheapest window",
					Data:            make([]*float64, n),
					BorderWidth:     2,
					Stepped:         true,
					Fill:            true,
					BorderColor:     ColorRed,
					BackgroundColor: ColorGreen,
					YAxisID:         PriceAxis,
				},
			},
		},
		Options: ChartOptions{
			Responsive: true,
			Plugins: ChartPlugins{
				Legend: ChartLegend{Display: true},
				Title:  ChartTitle{Display: false},
			},
			Scales: map[string]ChartScale{
				PriceAxis: {
					Type:     "linear",
					Display:  true,
					Position: "left",
					Title:    ChartScaleTitle{Display: true, Text: "", Color: ColorYellow}},
			},
		},
	}

	if title != "" {
		chart.Options.Plugins.Title = ChartTitle{Display: true, Text: title}
	}

	return chart
}

func (cs ChartScale) WithTitle(title string) ChartScale {
	cs.Title.Text = title
	return cs
}

func (cs ChartScale) WithMinAndMax(min, max float64) ChartScale {
	cs.Min = &min
	cs.Max = &max
	return cs
}

func FixedFloat64(num float64, precision int) *float64 {
	result := convert.RoundFloat64(num, precision)
	return &result
}
