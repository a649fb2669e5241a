// Package report renders the episode returns of training runs as an
// HTML line chart
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// Series is a named sequence of episode returns
type Series struct {
	Name    string
	Returns []float64
}

// MovingAverage returns the trailing moving average of values over
// window elements. The first window-1 averages are over the elements
// seen so far.
func MovingAverage(values []float64, window int) []float64 {
	if window < 1 {
		window = 1
	}
	avg := make([]float64, len(values))
	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		avg[i] = sum / float64(min(i+1, window))
	}
	return avg
}

// Render writes a page holding a line chart of each series to w
func Render(w io.Writer, title string, series ...Series) error {
	if len(series) == 0 {
		return fmt.Errorf("render: no series to plot")
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title: title,
		}),
		charts.WithInitializationOpts(opts.Initialization{
			Theme: "shine",
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "episode"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "return"}),
	)

	longest := 0
	for _, s := range series {
		longest = max(longest, len(s.Returns))
	}
	episodes := make([]string, longest)
	for i := range episodes {
		episodes[i] = fmt.Sprintf("%d", i+1)
	}
	line = line.SetXAxis(episodes)

	for _, s := range series {
		items := make([]opts.LineData, 0, len(s.Returns))
		for _, r := range s.Returns {
			items = append(items, opts.LineData{Value: r})
		}
		line.AddSeries(s.Name, items)
	}

	page := components.NewPage()
	page.AddCharts(line)
	return page.Render(w)
}

// WriteFile renders the chart into the HTML file at path, creating its
// directory if needed
func WriteFile(path, title string, series ...Series) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("writeFile: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("writeFile: %w", err)
	}
	if err := Render(f, title, series...); err != nil {
		f.Close()
		return fmt.Errorf("writeFile: %w", err)
	}
	return f.Close()
}
