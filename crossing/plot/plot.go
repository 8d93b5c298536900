// Package plot renders cost curves and solved trajectories to image files.
// The format follows the file extension (.png, .svg, .pdf).
package plot

import (
	"errors"
	"fmt"

	gonumplot "gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/autocross/autocross/crossing/costcurve"
	"github.com/autocross/autocross/crossing/reference"
	"github.com/autocross/autocross/crossing/trajectory"
)

// Image size of every rendered figure.
const (
	Width  = 8 * vg.Inch
	Height = 5 * vg.Inch
)

// curveResolution is the number of evaluation points per curve.
const curveResolution = 200

// NamedCurve labels a curve in the legend.
type NamedCurve struct {
	Name  string
	Curve *costcurve.Curve
}

// Curves draws each curve over its domain with its knots marked.
func Curves(path, title string, curves []NamedCurve) error {
	if len(curves) == 0 {
		return errors.New("plot: no curves to draw")
	}
	p := gonumplot.New()
	p.Title.Text = title
	p.X.Label.Text = "Crossing time (s)"
	p.Y.Label.Text = "Cost"
	p.Legend.Top = true

	for i, nc := range curves {
		pts := sampleCurve(nc.Curve, curveResolution)
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("plot: curve %q: %w", nc.Name, err)
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(1.5)

		times, values := nc.Curve.Knots()
		knots := make(plotter.XYs, len(times))
		for k := range times {
			knots[k] = plotter.XY{X: times[k], Y: values[k]}
		}
		marks, err := plotter.NewScatter(knots)
		if err != nil {
			return fmt.Errorf("plot: knots of %q: %w", nc.Name, err)
		}
		marks.Color = plotutil.Color(i)
		marks.Shape = draw.CircleGlyph{}

		p.Add(line, marks)
		p.Legend.Add(nc.Name, line)
	}
	return save(p, path)
}

// sampleCurve evaluates c at n evenly spaced times across its domain.
func sampleCurve(c *costcurve.Curve, n int) plotter.XYs {
	lo, hi := c.Min(), c.Max()
	if hi == lo {
		return plotter.XYs{{X: lo, Y: c.Eval(lo)}, {X: lo, Y: c.Eval(lo)}}
	}
	pts := make(plotter.XYs, n)
	for i := range pts {
		t := lo + (hi-lo)*float64(i)/float64(n-1)
		pts[i] = plotter.XY{X: t, Y: c.Eval(t)}
	}
	return pts
}

// Trajectory draws the planar path of tr (first two states) and, when
// given, the reference it tracked.
func Trajectory(path, title string, tr *trajectory.Trajectory, ref *reference.Path) error {
	if tr == nil || len(tr.States) == 0 {
		return errors.New("plot: empty trajectory")
	}
	if len(tr.States[0]) < 2 {
		return fmt.Errorf("plot: trajectory has %d states, need x and y", len(tr.States[0]))
	}
	p := gonumplot.New()
	p.Title.Text = title
	p.X.Label.Text = "x (m)"
	p.Y.Label.Text = "y (m)"
	p.Legend.Top = true

	pts := make(plotter.XYs, len(tr.States))
	for k, s := range tr.States {
		pts[k] = plotter.XY{X: s[0], Y: s[1]}
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("plot: trajectory: %w", err)
	}
	line.Color = plotutil.Color(0)
	line.Width = vg.Points(2)
	p.Add(line)
	p.Legend.Add("vehicle", line)

	if ref != nil && ref.Len() > 0 {
		refPts := make(plotter.XYs, ref.Len())
		for k := range refPts {
			refPts[k] = plotter.XY{X: ref.X[k], Y: ref.Y[k]}
		}
		refLine, err := plotter.NewLine(refPts)
		if err != nil {
			return fmt.Errorf("plot: reference: %w", err)
		}
		refLine.Color = plotutil.Color(1)
		refLine.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
		p.Add(refLine)
		p.Legend.Add("reference", refLine)
	}
	p.Add(plotter.NewGrid())
	return save(p, path)
}

func save(p *gonumplot.Plot, path string) error {
	if err := p.Save(Width, Height, path); err != nil {
		return fmt.Errorf("plot: saving %s: %w", path, err)
	}
	return nil
}
