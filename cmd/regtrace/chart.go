package main

import (
	"fmt"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// writeChart renders the cumulative load/store counts per step to an HTML
// file.
func writeChart(path string, sc *Scenario, res *Result) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "regtrace memory traffic",
			Subtitle: sc.Name,
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "step"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "cumulative ops"}),
	)

	labels := make([]string, 0, len(res.Progress))
	loads := make([]opts.LineData, 0, len(res.Progress))
	stores := make([]opts.LineData, 0, len(res.Progress))
	for _, p := range res.Progress {
		labels = append(labels, p.Label)
		loads = append(loads, opts.LineData{Value: p.Loads})
		stores = append(stores, opts.LineData{Value: p.Stores})
	}
	line.SetXAxis(labels).
		AddSeries("loads", loads).
		AddSeries("stores", stores).
		SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(true)}))

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart: %w", err)
	}
	defer f.Close()
	return line.Render(f)
}
