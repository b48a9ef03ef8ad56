/*
 * traceplot.go, part of goimp.
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 */

//Package traceplot draws the traces of a replica-exchange run: the score at each
//temperature index and the temperature index visited by each replica, both
//against the exchange round. The format of the file is given by its extension
//(png, svg, pdf, eps...).
package traceplot

import (
	"fmt"
	"image/color"
	"math"

	"github.com/rmera/goimp/histo"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

//Size of the plots, in inches.
const (
	Width  = 6
	Height = 4
)

type PlotError struct {
	message string
}

func (P PlotError) Error() string { return "traceplot: " + P.message }

func basicPlot(title, xlabel, ylabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.Title.Padding = 3 * vg.Millimeter
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel
	p.Add(plotter.NewGrid())
	return p
}

//Scores plots one line per temperature index, with the score obtained at that
//index in each round. scores[round][index], as in rex.Summary. Rounds with a
//NaN or infinite score for an index are left out of its line.
func Scores(scores [][]float64, title, filename string) error {
	if len(scores) == 0 || len(scores[0]) == 0 {
		return PlotError{"no scores to plot"}
	}
	n := len(scores[0])
	p := basicPlot(title, "Round", "Score")
	for i := 0; i < n; i++ {
		pts := make(plotter.XYs, 0, len(scores))
		for round, s := range scores {
			if len(s) != n {
				return PlotError{fmt.Sprintf("round %d has %d scores, expected %d", round, len(s), n)}
			}
			if math.IsNaN(s[i]) || math.IsInf(s[i], 0) {
				continue
			}
			pts = append(pts, plotter.XY{X: float64(round), Y: s[i]})
		}
		if len(pts) == 0 {
			continue
		}
		if err := addLine(p, pts, i, n, fmt.Sprintf("T%d", i)); err != nil {
			return err
		}
	}
	return save(p, filename)
}

//Indexes plots, for each replica, the temperature index that it held in each
//round. holders[round][index] is the replica holding index in round.
func Indexes(holders [][]int, title, filename string) error {
	if len(holders) == 0 || len(holders[0]) == 0 {
		return PlotError{"no indexes to plot"}
	}
	n := len(holders[0])
	traces := make([]plotter.XYs, n)
	for round, h := range holders {
		if len(h) != n {
			return PlotError{fmt.Sprintf("round %d has %d holders, expected %d", round, len(h), n)}
		}
		for index, rank := range h {
			if rank < 0 || rank >= n {
				return PlotError{fmt.Sprintf("replica %d out of range in round %d", rank, round)}
			}
			traces[rank] = append(traces[rank], plotter.XY{X: float64(round), Y: float64(index)})
		}
	}
	p := basicPlot(title, "Round", "Temperature index")
	p.Y.Min = -0.5
	p.Y.Max = float64(n) - 0.5
	for rank, t := range traces {
		if err := addLine(p, t, rank, n, fmt.Sprintf("replica %d", rank)); err != nil {
			return err
		}
	}
	return save(p, filename)
}

//Histograms plots the score histogram of each temperature index in h as a line
//over the bin centers.
func Histograms(h *histo.Set, title, filename string) error {
	if h == nil || h.Len() == 0 {
		return PlotError{"no histograms to plot"}
	}
	p := basicPlot(title, "Score", "Count")
	n := h.Len()
	for i := 0; i < n; i++ {
		v := h.View(i)
		d := v.CopyDividers()
		c := v.View()
		pts := make(plotter.XYs, len(c))
		for j := range c {
			pts[j].X = (d[j] + d[j+1]) / 2
			pts[j].Y = c[j]
		}
		if err := addLine(p, pts, i, n, fmt.Sprintf("T%d", i)); err != nil {
			return err
		}
	}
	return save(p, filename)
}

func addLine(p *plot.Plot, pts plotter.XYs, key, steps int, legend string) error {
	l, err := plotter.NewLine(pts)
	if err != nil {
		return PlotError{err.Error()}
	}
	r, g, b := colors(key, steps)
	l.LineStyle.Width = vg.Points(1)
	l.LineStyle.Color = color.RGBA{R: r, G: g, B: b, A: 255}
	p.Add(l)
	p.Legend.Add(legend, l)
	return nil
}

func save(p *plot.Plot, filename string) error {
	if err := p.Save(Width*vg.Inch, Height*vg.Inch, filename); err != nil {
		return PlotError{err.Error()}
	}
	return nil
}

//colors gives a hue for key out of steps, going from red (key=0) to violet.
func colors(key, steps int) (r, g, b uint8) {
	if steps < 2 {
		steps = 2
	}
	h := 270.0 * float64(key) / float64(steps-1)
	return hsv2RGB(h, 1, 0.9)
}

//hsv2RGB takes a hue in degrees and saturation and value in [0,1].
func hsv2RGB(h, s, v float64) (r, g, b uint8) {
	if s == 0 {
		c := uint8(255 * v)
		return c, c, c
	}
	h = math.Mod(h, 360) / 60
	i := math.Floor(h)
	f := h - i
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))
	var R, G, B float64
	switch int(i) {
	case 0:
		R, G, B = v, t, p
	case 1:
		R, G, B = q, v, p
	case 2:
		R, G, B = p, v, t
	case 3:
		R, G, B = p, q, v
	case 4:
		R, G, B = t, p, v
	default:
		R, G, B = v, p, q
	}
	return uint8(255 * R), uint8(255 * G), uint8(255 * B)
}
