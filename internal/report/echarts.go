package report

import (
	"fmt"
	"io"
	"math"

	"github.com/banshee-data/arbor/internal/skeleton"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/spatial/r3"
)

// maxChartPoints bounds the attractor scatter so large clouds stay usable
// in a browser.
const maxChartPoints = 20000

// ChartOptions controls HTML chart rendering.
type ChartOptions struct {
	Title      string
	Subtitle   string
	AssetsHost string // empty uses the go-echarts CDN
}

func (o ChartOptions) init(height string) opts.Initialization {
	return opts.Initialization{
		PageTitle:  o.Title,
		Theme:      "dark",
		Width:      "100%",
		Height:     height,
		AssetsHost: o.AssetsHost,
	}
}

// RenderProgressChart writes an HTML line chart of a run's iterations.
func RenderProgressChart(w io.Writer, o ChartOptions, samples []skeleton.IterationSample) error {
	if len(samples) == 0 {
		return ErrNoSamples
	}

	x := make([]int, len(samples))
	branches := make([]opts.LineData, len(samples))
	remaining := make([]opts.LineData, len(samples))
	grown := make([]opts.LineData, len(samples))
	for i, s := range samples {
		x[i] = s.Iteration + 1
		branches[i] = opts.LineData{Value: s.Branches}
		remaining[i] = opts.LineData{Value: s.Remaining}
		grown[i] = opts.LineData{Value: s.Grown, Name: string(s.Mode)}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(o.init("600px")),
		charts.WithTitleOpts(opts.Title{Title: o.Title, Subtitle: o.Subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Iteration", NameLocation: "middle", NameGap: 25}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
	)
	line.SetXAxis(x).
		AddSeries("branches", branches).
		AddSeries("remaining points", remaining).
		AddSeries("grown", grown)

	if err := line.Render(w); err != nil {
		return fmt.Errorf("render progress chart: %w", err)
	}
	return nil
}

// RenderSkeletonChart writes an HTML page with the branch skeleton as a 3-D
// polyline and the attractor cloud as a 3-D scatter. The polyline walks the
// tree depth first and retraces each branch on the way back, so the whole
// skeleton is one continuous series.
func RenderSkeletonChart(w io.Writer, o ChartOptions, g *skeleton.Graph, attractors []r3.Vec) error {
	if g == nil || g.Len() == 0 {
		return fmt.Errorf("render skeleton chart: %w", skeleton.ErrInvalidGraph)
	}

	tour := skeletonTour(g)
	lineData := make([]opts.Chart3DData, len(tour))
	for i, p := range tour {
		lineData[i] = opts.Chart3DData{Value: vecValue(p)}
	}

	grid := opts.Grid3D{
		BoxWidth:    100,
		BoxHeight:   100,
		BoxDepth:    100,
		ViewControl: &opts.ViewControl{AutoRotate: opts.Bool(false)},
	}

	tree := charts.NewLine3D()
	tree.SetGlobalOptions(
		charts.WithInitializationOpts(o.init("720px")),
		charts.WithTitleOpts(opts.Title{Title: o.Title, Subtitle: o.Subtitle}),
		charts.WithXAxis3DOpts(opts.XAxis3D{Name: "X"}),
		charts.WithYAxis3DOpts(opts.YAxis3D{Name: "Z"}),
		charts.WithZAxis3DOpts(opts.ZAxis3D{Name: "Y"}),
		charts.WithGrid3DOpts(grid),
	)
	tree.AddSeries("branches", lineData,
		charts.WithLineStyleOpts(opts.LineStyle{Color: "#8bc34a", Width: 2}))

	page := components.NewPage()
	page.SetPageTitle(o.Title)
	if o.AssetsHost != "" {
		page.SetAssetsHost(o.AssetsHost)
	}
	page.AddCharts(tree)

	if len(attractors) > 0 {
		stride := 1
		if len(attractors) > maxChartPoints {
			stride = int(math.Ceil(float64(len(attractors)) / maxChartPoints))
		}
		points := make([]opts.Chart3DData, 0, len(attractors)/stride+1)
		for i := 0; i < len(attractors); i += stride {
			points = append(points, opts.Chart3DData{Value: vecValue(attractors[i])})
		}

		cloud := charts.NewScatter3D()
		cloud.SetGlobalOptions(
			charts.WithInitializationOpts(o.init("720px")),
			charts.WithTitleOpts(opts.Title{
				Title:    "Attractors",
				Subtitle: fmt.Sprintf("points=%d stride=%d", len(points), stride),
			}),
			charts.WithXAxis3DOpts(opts.XAxis3D{Name: "X"}),
			charts.WithYAxis3DOpts(opts.YAxis3D{Name: "Z"}),
			charts.WithZAxis3DOpts(opts.ZAxis3D{Name: "Y"}),
			charts.WithGrid3DOpts(grid),
		)
		cloud.AddSeries("attractors", points,
			charts.WithItemStyleOpts(opts.ItemStyle{Color: "#ff7043"}))
		page.AddCharts(cloud)
	}

	if err := page.Render(w); err != nil {
		return fmt.Errorf("render skeleton chart: %w", err)
	}
	return nil
}

// vecValue maps a Y-up point onto echarts' Z-up axes.
func vecValue(v r3.Vec) []interface{} {
	return []interface{}{v.X, v.Z, v.Y}
}

// skeletonTour returns the root start followed by an Euler tour of branch
// ends: every branch end is emitted on descent and its parent's end again
// after its subtree is done.
func skeletonTour(g *skeleton.Graph) []r3.Vec {
	tour := make([]r3.Vec, 0, 2*g.Len()+1)
	tour = append(tour, g.Branches[0].Start)

	type frame struct {
		node int
		next int
	}
	stack := []frame{{node: 0}}
	tour = append(tour, g.Branches[0].End)
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		children := g.Branches[top.node].Children
		if top.next < len(children) {
			child := children[top.next]
			top.next++
			tour = append(tour, g.Branches[child].End)
			stack = append(stack, frame{node: child})
			continue
		}
		stack = stack[:len(stack)-1]
		if len(stack) > 0 {
			tour = append(tour, g.Branches[stack[len(stack)-1].node].End)
		}
	}
	return tour
}
