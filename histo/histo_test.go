package histo

import (
	"encoding/json"
	"fmt"
	"math"
	"testing"
)

func TestHistoIO(Te *testing.T) {
	fmt.Println("Histogram JSON output test!")
	S := NewSet(3, []float64{0, 1, 2, 3, 4, 8})
	rawdata := []float64{1, 6, 3, 2, 4, 5, 7, 6, 3.5, 3, 5, 1, 1, 0, 0, 5, 8, 1, 2, 3, 44, 3, 7, 3, 1, 3, 5, 32, 1}
	S.AddData(1, rawdata...)
	v := S.View(1)
	fmt.Println(v.String())
	if v.Total() != 26 || v.Outside() != 3 {
		Te.Errorf("total %d outside %d, expected 26 and 3", v.Total(), v.Outside())
	}
	j, err := json.Marshal(S)
	if err != nil {
		Te.Fatal(err)
	}
	fmt.Println("JSON:", string(j))
	S2 := new(Set)
	if err := json.Unmarshal(j, S2); err != nil {
		Te.Fatal(err)
	}
	if S2.Len() != 3 || S2.View(1).Sum() != v.Sum() || S2.View(2).ID() != 2 {
		Te.Errorf("JSON round trip gave %v", S2)
	}
}

func TestReHistoMatchesAddData(Te *testing.T) {
	div := Uniform(0, 10, 5)
	raw := []float64{-1, 0, 1.5, 2, 9.99, 10, math.NaN(), 4, 4.5}
	a := NewData(div, raw)
	b := NewData(div, nil)
	b.AddData(raw...)
	for i, x := range a.View() {
		if b.View()[i] != x {
			Te.Errorf("bin %d: ReHisto %f, AddData %f", i, x, b.View()[i])
		}
	}
	if a.Total() != b.Total() || a.Outside() != b.Outside() {
		Te.Errorf("totals differ: %d/%d %d/%d", a.Total(), b.Total(), a.Outside(), b.Outside())
	}
	a.Normalize()
	a.Normalize()
	if math.Abs(a.Sum()-1) > 1e-12 {
		Te.Errorf("normalized histogram adds to %f", a.Sum())
	}
}

func TestFlatness(Te *testing.T) {
	d := NewData(Uniform(0, 4, 4), []float64{0.5, 1.5, 2.5, 3.5})
	if f := d.Flatness(); f != 1 {
		Te.Errorf("flatness of a flat histogram %f", f)
	}
	d.AddData(0.5, 0.5)
	if f := d.Flatness(); f >= 1 || f <= 0 {
		Te.Errorf("flatness %f for an uneven histogram", f)
	}
	S := NewSet(2, Uniform(0, 4, 4))
	S.AddData(0, 1)
	S.AddData(1, 1, 3)
	if t := S.Total(); t.Total() != 3 || t.View()[1] != 2 {
		Te.Errorf("wrong set total %v", t)
	}
}
