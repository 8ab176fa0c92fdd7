package report

import (
	"errors"
	"fmt"
	"image/color"
	"io"

	"github.com/banshee-data/arbor/internal/skeleton"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// ErrNoSamples is returned when there is nothing to chart.
var ErrNoSamples = errors.New("no iteration samples")

var (
	branchColor    = color.RGBA{R: 46, G: 125, B: 50, A: 255}
	remainingColor = color.RGBA{R: 198, G: 40, B: 40, A: 255}
	grownColor     = color.RGBA{R: 21, G: 101, B: 192, A: 255}
)

// WriteProgressPlot renders branch count, remaining attractors and branches
// grown per iteration as a PNG.
func WriteProgressPlot(w io.Writer, title string, samples []skeleton.IterationSample) error {
	if len(samples) == 0 {
		return ErrNoSamples
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Iteration"
	p.Y.Label.Text = "Count"

	branches := make(plotter.XYs, len(samples))
	remaining := make(plotter.XYs, len(samples))
	grown := make(plotter.XYs, len(samples))
	for i, s := range samples {
		x := float64(s.Iteration + 1)
		branches[i] = plotter.XY{X: x, Y: float64(s.Branches)}
		remaining[i] = plotter.XY{X: x, Y: float64(s.Remaining)}
		grown[i] = plotter.XY{X: x, Y: float64(s.Grown)}
	}

	series := []struct {
		label string
		xys   plotter.XYs
		color color.Color
	}{
		{"branches", branches, branchColor},
		{"remaining points", remaining, remainingColor},
		{"grown", grown, grownColor},
	}
	for _, s := range series {
		line, err := plotter.NewLine(s.xys)
		if err != nil {
			return fmt.Errorf("%s line: %w", s.label, err)
		}
		line.Color = s.color
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(s.label, line)
	}
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	wt, err := p.WriterTo(10*vg.Inch, 5*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("progress plot: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write progress plot: %w", err)
	}
	return nil
}

// WriteRadiusHistogram renders the distribution of branch radii as a PNG.
func WriteRadiusHistogram(w io.Writer, title string, g *skeleton.Graph, bins int) error {
	if !g.HasRadii() {
		return errors.New("graph has no radii")
	}
	values := make(plotter.Values, g.Len())
	for i := range g.Branches {
		values[i] = g.Branches[i].Radius
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Radius"
	p.Y.Label.Text = "Branches"

	h, err := plotter.NewHist(values, bins)
	if err != nil {
		return fmt.Errorf("radius histogram: %w", err)
	}
	h.FillColor = branchColor
	p.Add(h)

	wt, err := p.WriterTo(8*vg.Inch, 4*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("radius histogram: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write radius histogram: %w", err)
	}
	return nil
}
