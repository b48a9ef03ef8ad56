package traceplot

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/rmera/goimp/histo"
)

func TestPlots(Te *testing.T) {
	dir := Te.TempDir()
	scores := make([][]float64, 20)
	holders := make([][]int, 20)
	h := histo.NewSet(3, histo.Uniform(0, 10, 10))
	for r := range scores {
		scores[r] = []float64{math.Sin(float64(r)) + 1, 2, float64(r) / 4}
		if r == 5 {
			scores[r][1] = math.Inf(1)
		}
		holders[r] = []int{0, 1, 2}
		if r%2 == 1 {
			holders[r] = []int{1, 0, 2}
		}
		for i, s := range scores[r] {
			h.AddData(i, s)
		}
	}
	files := []string{filepath.Join(dir, "scores.png"), filepath.Join(dir, "indexes.svg"), filepath.Join(dir, "histo.png")}
	if err := Scores(scores, "Scores", files[0]); err != nil {
		Te.Fatal(err)
	}
	if err := Indexes(holders, "Indexes", files[1]); err != nil {
		Te.Fatal(err)
	}
	if err := Histograms(h, "Histograms", files[2]); err != nil {
		Te.Fatal(err)
	}
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			Te.Fatal(err)
		}
		if info.Size() == 0 {
			Te.Errorf("%s is empty", f)
		}
		fmt.Println(f, info.Size())
	}
}

func TestBadInput(Te *testing.T) {
	name := filepath.Join(Te.TempDir(), "bad.png")
	if err := Scores(nil, "", name); err == nil {
		Te.Error("plotted no scores")
	}
	if err := Scores([][]float64{{1, 2}, {1}}, "", name); err == nil {
		Te.Error("plotted ragged scores")
	}
	if err := Indexes([][]int{{0, 3}}, "", name); err == nil {
		Te.Error("plotted a replica out of range")
	}
}

func TestColors(Te *testing.T) {
	r, g, b := colors(0, 5)
	if r < g || r < b {
		Te.Errorf("first color is not red: %d %d %d", r, g, b)
	}
	r2, g2, b2 := colors(4, 5)
	if r2 == r && g2 == g && b2 == b {
		Te.Error("first and last colors are the same")
	}
}
