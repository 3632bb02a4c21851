// Package report renders a stage test as an HTML page of charts
package report

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/cli/browser"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"lactest/internal/service"
	"lactest/internal/store"
)

// ErrNoSeries is returned for a test without chartable stages
var ErrNoSeries = errors.New("test has no stages to chart")

// Data is everything a report shows
type Data struct {
	Title      string
	Unit       string
	PaceUnit   string
	Labels     []string // formatted intensity per stage
	Lactates   []float64
	HeartRates []float64
	LT1        *store.Threshold
	LT2        *store.Threshold
	Zones      *store.ZoneResult
}

// FromDetail builds report data from a stored test
func FromDetail(d *service.TestDetail, paceUnit string) Data {
	title := d.Test.Athlete
	if title == "" {
		title = "Lactate test"
	}
	data := Data{
		Title:      fmt.Sprintf("%s, %s", title, d.Test.TestedAt.Format("2 Jan 2006")),
		Unit:       d.Unit,
		PaceUnit:   paceUnit,
		Lactates:   d.Lactates,
		HeartRates: d.HeartRates,
		LT1:        d.LT1,
		LT2:        d.LT2,
		Zones:      d.Zones,
	}
	for _, v := range d.Intensities {
		data.Labels = append(data.Labels, service.FormatIntensity(v, d.Unit, paceUnit))
	}
	return data
}

// Render writes the report page to w
func Render(w io.Writer, data Data) error {
	if len(data.Labels) == 0 {
		return ErrNoSeries
	}

	page := components.NewPage()
	page.PageTitle = data.Title
	page.AddCharts(curveChart(data))
	if data.Zones != nil && len(data.Zones.Zones) > 0 {
		page.AddCharts(zoneChart(data))
	}
	return page.Render(w)
}

// WriteFile renders the report to path
func WriteFile(path string, data Data) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report: %w", err)
	}
	if err := Render(f, data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Open shows a written report in the default browser
func Open(path string) error {
	if err := browser.OpenFile(path); err != nil {
		return fmt.Errorf("opening browser: %w", err)
	}
	return nil
}

// curveChart plots lactate on the left axis and heart rate on the right
func curveChart(data Data) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: "macarons"}),
		charts.WithTitleOpts(opts.Title{
			Title:    data.Title,
			Subtitle: thresholdSubtitle(data),
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name: data.Unit,
			AxisLabel: &opts.AxisLabel{
				Rotate: 45,
			},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: "Lactate (mmol/L)",
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(true),
			Top:  "bottom",
		}),
	)
	line.ExtendYAxis(opts.YAxis{
		Name: "Heart rate (bpm)",
	})

	line.SetXAxis(data.Labels)
	line.AddSeries("Lactate", lineItems(data.Lactates))
	line.AddSeries("Heart rate", lineItems(data.HeartRates),
		charts.WithLineChartOpts(opts.LineChart{YAxisIndex: 1}))
	line.SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))

	return line
}

// zoneChart shows each zone's heart-rate band as a stacked bar
func zoneChart(data Data) *charts.Bar {
	bar := charts.NewBar()
	z := data.Zones
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: "macarons"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Training zones",
			Subtitle: fmt.Sprintf("%s, confidence %s, max HR %d bpm", z.Method, z.Confidence, z.MaxHR),
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: "Heart rate (bpm)",
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Trigger: "axis",
			AxisPointer: &opts.AxisPointer{
				Type: "shadow",
			},
		}),
	)

	names := make([]string, len(z.Zones))
	base := make([]opts.BarData, len(z.Zones))
	band := make([]opts.BarData, len(z.Zones))
	for i, zone := range z.Zones {
		names[i] = fmt.Sprintf("Z%d %s", zone.Zone, zone.Name)
		base[i] = opts.BarData{Value: zone.HRMin}
		band[i] = opts.BarData{Value: zone.HRMax - zone.HRMin}
	}

	bar.SetXAxis(names)
	bar.AddSeries("floor", base,
		charts.WithBarChartOpts(opts.BarChart{Stack: "hr"}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: "transparent"}))
	bar.AddSeries("range", band,
		charts.WithBarChartOpts(opts.BarChart{Stack: "hr"}))
	return bar
}

func thresholdSubtitle(data Data) string {
	format := func(label string, t *store.Threshold) string {
		if t == nil {
			return label + " not analyzed"
		}
		return fmt.Sprintf("%s %s @ %d bpm, %.1f mmol/L (%s)",
			label, service.FormatIntensity(t.Value, t.Unit, data.PaceUnit), t.HeartRate, t.Lactate, t.Method)
	}
	return format("LT1", data.LT1) + " | " + format("LT2", data.LT2)
}

func lineItems(values []float64) []opts.LineData {
	items := make([]opts.LineData, 0, len(values))
	for _, v := range values {
		items = append(items, opts.LineData{Value: v})
	}
	return items
}
