// Package report turns per-tick stats into convergence charts and tables.
package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/nvandessel/pheromones/internal/universe"
)

// ErrTooShort is returned when a series has fewer than two samples.
var ErrTooShort = errors.New("series needs at least two samples")

// Series accumulates one sample per tick.
type Series struct {
	Tick     []float64
	Total    []float64
	Max      []float64
	Arrivals []float64
	BestPath []float64
}

// Add appends one tick's stats.
func (s *Series) Add(st universe.Stats) {
	s.Tick = append(s.Tick, float64(st.Tick))
	s.Total = append(s.Total, st.TotalStrength)
	s.Max = append(s.Max, st.MaxStrength)
	s.Arrivals = append(s.Arrivals, float64(st.TickArrivals))
	s.BestPath = append(s.BestPath, float64(st.BestPath))
}

// Len returns the number of samples.
func (s *Series) Len() int { return len(s.Tick) }

// Options controls chart size and title.
type Options struct {
	Title  string
	Width  int
	Height int
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = 1024
	}
	if o.Height <= 0 {
		o.Height = 400
	}
	return o
}

// RenderChart writes a PNG line chart of total trail strength (left axis)
// and arrivals per tick (right axis).
func RenderChart(w io.Writer, s *Series, opts Options) error {
	if s == nil || s.Len() < 2 {
		return ErrTooShort
	}
	opts = opts.withDefaults()

	graph := chart.Chart{
		Title:  opts.Title,
		Width:  opts.Width,
		Height: opts.Height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 10, Bottom: 10},
		},
		XAxis: chart.XAxis{
			Name: "tick",
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%d", int(v.(float64)))
			},
		},
		YAxis: chart.YAxis{
			Name:  "total strength",
			Range: flatRange(s.Total),
		},
		YAxisSecondary: chart.YAxis{
			Name:  "arrivals",
			Range: flatRange(s.Arrivals),
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "total strength",
				XValues: s.Tick,
				YValues: s.Total,
				Style:   chart.Style{StrokeColor: drawing.Color{R: 255, G: 165, B: 0, A: 255}, StrokeWidth: 2.0},
			},
			chart.ContinuousSeries{
				Name:    "arrivals per tick",
				XValues: s.Tick,
				YValues: s.Arrivals,
				YAxis:   chart.YAxisSecondary,
				Style:   chart.Style{StrokeColor: chart.ColorBlue, StrokeWidth: 1.0},
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("rendering chart: %w", err)
	}
	return nil
}

// flatRange pins the axis when every value is equal, which the renderer
// otherwise rejects as a zero-height range. Returns nil for normal data.
func flatRange(values []float64) chart.Range {
	if len(values) == 0 {
		return nil
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	if hi > lo {
		return nil
	}
	return &chart.ContinuousRange{Min: lo, Max: lo + 1}
}

// WriteCSV writes one row per tick with a header.
func WriteCSV(w io.Writer, s *Series) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"tick", "total_strength", "max_strength", "arrivals", "best_path"}); err != nil {
		return err
	}
	if s != nil {
		for i := range s.Tick {
			if err := cw.Write([]string{
				strconv.FormatFloat(s.Tick[i], 'f', 0, 64),
				strconv.FormatFloat(s.Total[i], 'g', -1, 64),
				strconv.FormatFloat(s.Max[i], 'g', -1, 64),
				strconv.FormatFloat(s.Arrivals[i], 'f', 0, 64),
				strconv.FormatFloat(s.BestPath[i], 'f', 0, 64),
			}); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
