package viz

import (
	"fmt"
	"image/color"
	"io"
	"strconv"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"MacroLens/internal/model"
)

// Supported output formats.
const (
	FormatPNG = "png"
	FormatSVG = "svg"
)

// Default canvas size in points.
const (
	DefaultWidth  = 960
	DefaultHeight = 540
)

// ParseFormat validates an output format name.
func ParseFormat(s string) (string, error) {
	switch f := strings.ToLower(strings.TrimPrefix(s, ".")); f {
	case FormatPNG, FormatSVG:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported chart format %q", s)
	}
}

// ContentType returns the MIME type of a chart format.
func ContentType(format string) string {
	if format == FormatSVG {
		return "image/svg+xml"
	}
	return "image/png"
}

// Render draws fig to w. Zero width or height selects the default size.
func Render(fig *Figure, w io.Writer, format string, width, height float64) error {
	if fig.Empty() {
		return model.ErrNoDataToVisualize
	}
	format, err := ParseFormat(format)
	if err != nil {
		return err
	}
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}

	p, err := build(fig)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(vg.Points(width), vg.Points(height), format)
	if err != nil {
		return fmt.Errorf("create %s canvas: %w", format, err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write %s: %w", format, err)
	}
	return nil
}

func build(fig *Figure) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fig.Title
	p.X.Label.Text = fig.XAxis
	p.Y.Label.Text = fig.YAxis
	p.X.Tick.Marker = plot.TimeTicks{Format: model.DateLayout}
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	for i, l := range fig.Lines {
		if len(l.Points) == 0 {
			continue
		}
		xys := make(plotter.XYs, len(l.Points))
		for j, pt := range l.Points {
			xys[j].X = float64(pt.Time.Unix())
			xys[j].Y = pt.Value
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return nil, fmt.Errorf("line %q: %w", l.Name, err)
		}
		line.LineStyle.Width = vg.Points(1.5)
		line.LineStyle.Color = parseColor(l.Color, i)
		if l.Dashed {
			line.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		}
		if l.Fill {
			c := color.NRGBAModel.Convert(line.LineStyle.Color).(color.NRGBA)
			c.A = 96
			line.FillColor = c
		}
		p.Add(line)
		p.Legend.Add(l.Name, line)
	}

	if first, last, ok := fig.Span(); ok {
		for _, g := range fig.Guides {
			xys := plotter.XYs{
				{X: float64(first.Unix()), Y: g.Value},
				{X: float64(last.Unix()), Y: g.Value},
			}
			line, err := plotter.NewLine(xys)
			if err != nil {
				return nil, fmt.Errorf("guide %q: %w", g.Label, err)
			}
			line.LineStyle.Color = color.Gray{Y: 128}
			line.LineStyle.Dashes = []vg.Length{vg.Points(2), vg.Points(2)}
			p.Add(line)
			p.Legend.Add(g.Label, line)
		}
	}
	return p, nil
}

// parseColor decodes "#RRGGBB", falling back to the palette entry for i.
func parseColor(hex string, i int) color.Color {
	s := strings.TrimPrefix(hex, "#")
	if len(s) != 6 {
		s = strings.TrimPrefix(defaultColors[i%len(defaultColors)], "#")
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.Black
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}
}
