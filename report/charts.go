package report

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"math"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"yashubustudio/bullyscan/screening"
)

// Slice is one wedge of a pie chart.
type Slice struct {
	Label string
	Value float64
	Color color.Color
}

// Bar is one bar of a bar chart.
type Bar struct {
	Label string
	Value float64
	Color color.Color
}

// Renderer produces the report's images as PNG bytes.
type Renderer interface {
	PieChart(title string, slices []Slice) ([]byte, error)
	BarChart(title, yLabel string, bars []Bar) ([]byte, error)
	WordCloud(terms []screening.TermCount) ([]byte, error)
}

var (
	colorNormal        = color.RGBA{R: 46, G: 139, B: 87, A: 255}
	colorCyberbullying = color.RGBA{R: 200, G: 35, B: 51, A: 255}
	colorError         = color.RGBA{R: 134, G: 142, B: 150, A: 255}
	colorPositive      = color.RGBA{R: 40, G: 167, B: 69, A: 255}
	colorNeutral       = color.RGBA{R: 108, G: 117, B: 125, A: 255}
	colorNegative      = color.RGBA{R: 220, G: 53, B: 69, A: 255}
	colorBar           = color.RGBA{R: 13, G: 110, B: 253, A: 255}
)

const (
	chartWidth  = 6 * vg.Inch
	chartHeight = 3.6 * vg.Inch
)

// PlotRenderer draws charts with gonum/plot and word clouds with x/image.
type PlotRenderer struct {
	cloud *WordCloud
}

// NewPlotRenderer returns the default renderer. maxWords caps each word cloud.
func NewPlotRenderer(maxWords int) (*PlotRenderer, error) {
	cloud, err := NewWordCloud(maxWords)
	if err != nil {
		return nil, err
	}
	return &PlotRenderer{cloud: cloud}, nil
}

// PieChart draws slices as wedges with a legend. An all-zero input draws an
// empty disc.
func (r *PlotRenderer) PieChart(title string, slices []Slice) ([]byte, error) {
	if len(slices) == 0 {
		return nil, errors.New("pie chart needs at least one slice")
	}
	p := plot.New()
	p.Title.Text = title
	p.HideAxes()
	pie := &pieChart{slices: slices}
	p.Add(pie)
	p.Legend.Top = true
	for _, s := range slices {
		p.Legend.Add(fmt.Sprintf("%s (%s)", s.Label, formatValue(s.Value)), swatch{color: s.Color})
	}
	return encodePlot(p)
}

// BarChart draws bars with their values printed above them.
func (r *PlotRenderer) BarChart(title, yLabel string, bars []Bar) ([]byte, error) {
	if len(bars) == 0 {
		return nil, errors.New("bar chart needs at least one bar")
	}
	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = yLabel

	names := make([]string, len(bars))
	top := 1.0
	xys := make(plotter.XYs, len(bars))
	labels := make([]string, len(bars))
	for i, b := range bars {
		names[i] = b.Label
		top = math.Max(top, b.Value)
		xys[i] = plotter.XY{X: float64(i), Y: b.Value}
		labels[i] = formatValue(b.Value)
	}
	for i, b := range bars {
		values := make(plotter.Values, len(bars))
		values[i] = b.Value
		chart, err := plotter.NewBarChart(values, vg.Points(36))
		if err != nil {
			return nil, fmt.Errorf("bar chart: %w", err)
		}
		chart.LineStyle.Width = 0
		chart.Color = b.Color
		if chart.Color == nil {
			chart.Color = colorBar
		}
		p.Add(chart)
	}
	valueLabels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: labels})
	if err != nil {
		return nil, fmt.Errorf("bar labels: %w", err)
	}
	for i := range valueLabels.TextStyle {
		valueLabels.TextStyle[i].XAlign = text.XCenter
	}
	valueLabels.Offset = vg.Point{Y: vg.Points(3)}
	p.Add(valueLabels)

	p.NominalX(names...)
	p.Y.Min = 0
	p.Y.Max = top * 1.15
	return encodePlot(p)
}

// WordCloud draws terms sized by frequency.
func (r *PlotRenderer) WordCloud(terms []screening.TermCount) ([]byte, error) {
	return r.cloud.Render(terms)
}

func encodePlot(p *plot.Plot) ([]byte, error) {
	w, err := p.WriterTo(chartWidth, chartHeight, "png")
	if err != nil {
		return nil, fmt.Errorf("encode chart: %w", err)
	}
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encode chart: %w", err)
	}
	return buf.Bytes(), nil
}

func formatValue(v float64) string {
	if v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// pieChart is a plot.Plotter drawing proportional wedges around the canvas centre.
type pieChart struct {
	slices []Slice
}

func (pc *pieChart) Plot(c draw.Canvas, plt *plot.Plot) {
	size := c.Max.Sub(c.Min)
	radius := 0.42 * min(size.X, size.Y)
	center := c.Center()

	var total float64
	for _, s := range pc.slices {
		if s.Value > 0 {
			total += s.Value
		}
	}
	if total == 0 {
		var disc vg.Path
		disc.Move(vg.Point{X: center.X + radius, Y: center.Y})
		disc.Arc(center, radius, 0, 2*math.Pi)
		disc.Close()
		c.SetColor(color.Gray{Y: 225})
		c.Fill(disc)
		sty := plt.Legend.TextStyle
		sty.XAlign = text.XCenter
		sty.YAlign = text.YCenter
		c.FillText(sty, center, "No data")
		return
	}

	start := math.Pi / 2
	for _, s := range pc.slices {
		if s.Value <= 0 {
			continue
		}
		sweep := 2 * math.Pi * s.Value / total
		var wedge vg.Path
		wedge.Move(center)
		wedge.Arc(center, radius, start, sweep)
		wedge.Close()
		c.SetColor(s.Color)
		c.Fill(wedge)

		mid := start + sweep/2
		at := vg.Point{
			X: center.X + vg.Length(math.Cos(mid))*radius*0.62,
			Y: center.Y + vg.Length(math.Sin(mid))*radius*0.62,
		}
		sty := plt.Legend.TextStyle
		sty.Color = color.White
		sty.XAlign = text.XCenter
		sty.YAlign = text.YCenter
		c.FillText(sty, at, fmt.Sprintf("%.1f%%", 100*s.Value/total))
		start += sweep
	}
}

// swatch is the legend thumbnail for a pie wedge.
type swatch struct {
	color color.Color
}

func (s swatch) Thumbnail(c *draw.Canvas) {
	c.FillPolygon(s.color, []vg.Point{
		{X: c.Min.X, Y: c.Min.Y},
		{X: c.Min.X, Y: c.Max.Y},
		{X: c.Max.X, Y: c.Max.Y},
		{X: c.Max.X, Y: c.Min.Y},
	})
}
