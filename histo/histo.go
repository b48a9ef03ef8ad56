package histo

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

//Uniform returns the n+1 dividers of n equal bins between min and max.
func Uniform(min, max float64, n int) []float64 {
	if n < 1 || !(max > min) {
		panic(fmt.Sprintf("goimp/histo.Uniform: can't divide [%g,%g] in %d bins", min, max, n))
	}
	d := make([]float64, n+1)
	floats.Span(d, min, max)
	return d
}

//A set of histograms with the same dividers, such as one per temperature index.
type Set struct {
	dividers []float64
	d        []*Data
}

//NewSet returns n empty histograms with the given dividers. Their IDs are their
//positions in the set.
func NewSet(n int, dividers []float64) *Set {
	S := &Set{dividers: append([]float64(nil), dividers...)}
	for i := 0; i < n; i++ {
		S.d = append(S.d, NewData(dividers, nil, i))
	}
	return S
}

func (S *Set) Len() int { return len(S.d) }

//View returns the i-th histogram itself, not a copy.
func (S *Set) View(i int) *Data { return S.d[i] }

//AddData adds the points to the i-th histogram.
func (S *Set) AddData(i int, point ...float64) { S.d[i].AddData(point...) }

//Total returns a histogram with the sum of all the histograms in the set.
func (S *Set) Total() *Data {
	t := NewData(S.dividers, nil, -1)
	for _, v := range S.d {
		t.Add(t, v)
		t.total += v.total
	}
	return t
}

func (S *Set) String() string {
	s := make([]string, 0, len(S.d))
	for _, v := range S.d {
		s = append(s, v.String())
	}
	return strings.Join(s, "\n")
}

func (S *Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Dividers []float64 `json:"dividers"`
		Histos   []*Data   `json:"histos"`
	}{S.dividers, S.d})
}

func (S *Set) UnmarshalJSON(b []byte) error {
	var a struct {
		Dividers []float64 `json:"dividers"`
		Histos   []*Data   `json:"histos"`
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	S.dividers = a.Dividers
	S.d = a.Histos
	return nil
}

//Data is a histogram.
type Data struct {
	id         int
	normalized bool
	total      int
	outside    int
	dividers   []float64
	histo      []float64
}

func (D *Data) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID         int       `json:"id"`
		Normalized bool      `json:"normalized"`
		Total      int       `json:"total"`
		Outside    int       `json:"outside"`
		Dividers   []float64 `json:"dividers"`
		Histo      []float64 `json:"histo"`
	}{
		ID:         D.id,
		Normalized: D.normalized,
		Total:      D.total,
		Outside:    D.outside,
		Dividers:   D.dividers,
		Histo:      D.histo,
	})
}

func (D *Data) UnmarshalJSON(b []byte) error {
	var a struct {
		ID         int       `json:"id"`
		Normalized bool      `json:"normalized"`
		Total      int       `json:"total"`
		Outside    int       `json:"outside"`
		Dividers   []float64 `json:"dividers"`
		Histo      []float64 `json:"histo"`
	}
	err := json.Unmarshal(b, &a)
	if err != nil {
		return err
	}
	D.id = a.ID
	D.normalized = a.Normalized
	D.total = a.Total
	D.outside = a.Outside
	D.dividers = a.Dividers
	D.histo = a.Histo
	return nil
}

//ID returns the ID of the histogram
func (D *Data) ID() int {
	return D.id
}

//String prints a -hopefully- pretty string representation of
//the histogram. The representation uses 3 lines of text.
func (D *Data) String() string {
	ret := fmt.Sprintf("ID: %d, Normalized: %v, TotalData: %d\n", D.id, D.normalized, D.total)
	d := make([]string, 0, len(D.dividers)-1)
	h := make([]string, 0, len(D.dividers)-1)
	for i, v := range D.histo {
		d = append(d, fmt.Sprintf("%4.2f-%4.2f", D.dividers[i], D.dividers[i+1]))
		h = append(h, fmt.Sprintf("%9.3f", v))
	}
	return ret + fmt.Sprintf("%s\n%s", strings.Join(d, " "), strings.Join(h, " "))
}

//NewData returns a new histogram from the dividers and rawdata given.
//rawdata can be nil. In that case, an empty histogram is created.
//if an ID for the histogram is given, it will be set. If not, the ID will
//be set to -1.
func NewData(dividers []float64, rawdata []float64, ID ...int) *Data {
	if len(dividers) < 2 || !sort.Float64sAreSorted(dividers) {
		panic("goimp/histo.NewData: dividers must be at least 2, and sorted")
	}
	d := new(Data)
	//I prefer to copy the slice to avoid somebody changing it from outside
	d.dividers = append([]float64(nil), dividers...)
	d.histo = make([]float64, len(dividers)-1)
	if rawdata != nil {
		d.ReHisto(d.dividers, rawdata)
	}
	d.id = -1
	if len(ID) > 0 {
		d.id = ID[0]
	}
	return d
}

//AddData adds the given data point(s) to the histogram.
//Points outside the dividers, and NaNs, are only counted as outside.
func (D *Data) AddData(point ...float64) {
	var norma bool
	if D.normalized {
		norma = true
		D.UnNormalize()
	}
	last := len(D.dividers) - 1
	for _, v := range point {
		if math.IsNaN(v) || v < D.dividers[0] || v >= D.dividers[last] {
			D.outside++
			continue
		}
		//the first divider larger than v closes v's bin
		j := sort.Search(len(D.dividers), func(i int) bool { return D.dividers[i] > v })
		D.histo[j-1]++
		D.total++
	}
	//if it was normalized, we should return it to that state
	if norma {
		D.Normalize()
	}
}

//Normalized Returns true if the histogram is normalized
func (D *Data) Normalized() bool {
	return D.normalized
}

//Normalize normalizes the histogram
func (D *Data) Normalize() {
	D.normaunnorma(true)
}

//UnNormalize un-normalizes the histogram
func (D *Data) UnNormalize() {
	D.normaunnorma(false)
}

//normalizes or un-normalizes the histogram depending
//on whether normalize is true
func (D *Data) normaunnorma(normalize bool) {
	if D.total <= 0 || D.normalized == normalize {
		return
	}
	n := float64(D.total)
	D.normalized = false
	if normalize {
		n = 1 / float64(D.total)
		D.normalized = true
	}
	floats.Scale(n, D.histo)
}

//Total returns the number of points in the histogram.
func (D *Data) Total() int { return D.total }

//Outside returns the number of points that fell outside the dividers.
func (D *Data) Outside() int { return D.outside }

//CopyDividers copies the dividers of the histogram
func (D *Data) CopyDividers(dest ...[]float64) []float64 {
	d := getCopySlice(len(D.dividers), dest...)
	copy(d, D.dividers)
	return d
}

func (D *Data) Copy(dest ...[]float64) []float64 {
	d := getCopySlice(len(D.histo), dest...)
	copy(d, D.histo)
	return d
}

func (D *Data) View() []float64 {
	return D.histo
}

//Add adds the histograms a and b putting the result in the receiver.
func (D *Data) Add(a, b *Data) {
	if !floats.Equal(a.dividers, b.dividers) {
		panic("goimp/histo.Data.Add: Dividers must match in added histograms")
	}
	D.dividers = a.CopyDividers(D.dividers)
	if len(D.histo) != len(a.histo) {
		D.histo = make([]float64, len(a.histo))
	}
	floats.AddTo(D.histo, a.histo, b.histo)
}

func (D *Data) Sum() float64 {
	return floats.Sum(D.histo)
}

//Flatness returns the ratio between the smallest and the mean count among the
//bins with data between the first and the last non-empty bins. A flat histogram
//gives 1. An empty one gives 0.
func (D *Data) Flatness() float64 {
	first, last := -1, -1
	for i, v := range D.histo {
		if v > 0 {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		return 0
	}
	h := D.histo[first : last+1]
	mean := stat.Mean(h, nil)
	return floats.Min(h) / mean
}

//ReHisto recomputes the histogram from rawdata with the given dividers.
func (D *Data) ReHisto(dividers, rawdata []float64) {
	raw := make([]float64, 0, len(rawdata))
	nan := 0
	for _, v := range rawdata {
		if math.IsNaN(v) {
			nan++
			continue
		}
		raw = append(raw, v)
	}
	sort.Float64s(raw)
	//stat.Histogram panics instead of omitting the values that are off limits
	//so we remove them here before the call.
	maxi := sort.SearchFloat64s(raw, dividers[len(dividers)-1])
	mini := sort.SearchFloat64s(raw, dividers[0])
	D.outside = nan + len(raw) - (maxi - mini)
	raw = raw[mini:maxi]
	D.dividers = append(D.dividers[:0], dividers...)
	D.total = len(raw)
	D.normalized = false
	D.histo = stat.Histogram(nil, dividers, raw, nil)
}

func getCopySlice(N int, dest ...[]float64) []float64 {
	if len(dest) > 0 && len(dest[0]) >= N {
		return dest[0][:N]
	}
	return make([]float64, N)
}
