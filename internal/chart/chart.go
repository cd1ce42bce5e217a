package chart

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"price-alert-bot/internal/types"
	"price-alert-bot/lib/helpers"
	"time"

	"github.com/golang/freetype/truetype"
	"github.com/pkg/errors"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ErrRender is wrapped by every rendering failure
var ErrRender = errors.New("chart render failed")

// Options configure a Renderer
type Options struct {
	Width  int
	Height int
	// FontPath points to an optional TTF file, the go-chart default font is used otherwise
	FontPath string
	Theme    *Theme
}

// Renderer draws price series as PNG images
type Renderer struct {
	width  int
	height int
	font   *truetype.Font
	theme  Theme
}

// NewRenderer creates a renderer, loading the custom font if one is configured
func NewRenderer(opts Options) (*Renderer, error) {
	r := &Renderer{
		width:  opts.Width,
		height: opts.Height,
		theme:  DarkNavy,
	}
	if r.width <= 0 {
		r.width = 1200
	}
	if r.height <= 0 {
		r.height = 750
	}
	if opts.Theme != nil {
		r.theme = *opts.Theme
	}

	if opts.FontPath != "" {
		raw, err := os.ReadFile(opts.FontPath)
		if err != nil {
			return nil, errors.Wrap(err, "read chart font")
		}
		font, err := truetype.Parse(raw)
		if err != nil {
			return nil, errors.Wrap(err, "parse chart font")
		}
		r.font = font
	}

	return r, nil
}

// Render draws one panel per series. Single mode takes exactly one series; startup
// mode stacks every given series top to bottom in one image.
func (r *Renderer) Render(req types.ChartRequest, series ...[]types.PriceReading) ([]byte, error) {
	switch req.Mode {
	case types.ChartSingle:
		if len(series) != 1 {
			return nil, errors.Wrapf(ErrRender, "single chart needs one series, got %d", len(series))
		}
		return r.panel(series[0], r.width, r.height)
	case types.ChartStartup:
		if len(series) == 0 {
			return nil, errors.Wrap(ErrRender, "no series to draw")
		}
		panelHeight := r.height / len(series)
		panels := make([][]byte, 0, len(series))
		for _, s := range series {
			p, err := r.panel(s, r.width, panelHeight)
			if err != nil {
				return nil, err
			}
			panels = append(panels, p)
		}
		return stack(panels, r.theme.Background)
	}
	return nil, errors.Wrapf(ErrRender, "unknown chart mode %q", req.Mode)
}

func (r *Renderer) panel(series []types.PriceReading, width, height int) ([]byte, error) {
	if len(series) < 2 {
		return nil, errors.Wrapf(ErrRender, "need at least two points, got %d", len(series))
	}
	asset := series[0].Asset
	accent := drawing.ColorFromHex(asset.Color)
	if asset.Color == "" {
		accent = drawing.ColorFromHex("ff4d4d")
	}

	xs := make([]time.Time, len(series))
	ys := make([]float64, len(series))
	for i, p := range series {
		xs[i] = p.Timestamp
		ys[i] = p.Value
	}
	lo, hi := paddedRange(ys)
	last := series[len(series)-1]

	graph := chart.Chart{
		Title:  asset.Label(),
		Width:  width,
		Height: height,
		Font:   r.font,
		TitleStyle: chart.Style{
			FontColor: r.theme.Title,
			FontSize:  12,
		},
		Background: chart.Style{
			FillColor: r.theme.Background,
			Padding:   chart.Box{Top: 40, Left: 10, Right: 70, Bottom: 10},
		},
		Canvas: chart.Style{
			FillColor: r.theme.Background,
		},
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeHourValueFormatter,
			Style: chart.Style{
				FontColor:   r.theme.Text,
				StrokeColor: r.theme.Background,
				FontSize:    9,
			},
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: lo, Max: hi},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return helpers.FormatAxisPrice(f, hi-lo)
				}
				return ""
			},
			Style: chart.Style{
				FontColor:   r.theme.Text,
				StrokeColor: r.theme.Background,
				FontSize:    9,
			},
			GridMajorStyle: chart.Style{
				StrokeColor:     r.theme.Grid,
				StrokeWidth:     1,
				StrokeDashArray: []float64{4, 4},
			},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    asset.Symbol,
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeColor: accent,
					StrokeWidth: 2,
					FillColor:   accent.WithAlpha(r.theme.FillAlpha),
				},
			},
			chart.AnnotationSeries{
				Annotations: []chart.Value2{{
					XValue: chart.TimeToFloat64(last.Timestamp),
					YValue: last.Value,
					Label:  fmt.Sprintf("%.2f", last.Value),
					Style: chart.Style{
						FillColor:   accent,
						StrokeColor: accent,
						FontColor:   r.theme.Label,
					},
				}},
			},
		},
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, errors.Wrapf(ErrRender, "%s: %v", asset.Symbol, err)
	}
	return buf.Bytes(), nil
}

// paddedRange widens the min/max of values by 10%; a flat series gets 1% of its level
func paddedRange(values []float64) (float64, float64) {
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	pad := (hi - lo) * 0.1
	if pad == 0 {
		pad = math.Max(math.Abs(hi)*0.01, 0.01)
	}
	return lo - pad, hi + pad
}
