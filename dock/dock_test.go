package dock

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
)

const file1 = `    # | Score | filt| ZScore | Transformation
 1 | -2.500 | + | 1.200 | 0 0 0 0 0 0
 2 | -1.000 | + | -0.800 | 0 0 0 0 0 0
 3 | -0.500 | - | 0.100 | 1 0 0 0 0 0
`

const file2 = `    # | Score | filt| ZScore | Transformation
 1 | -3.000 | + | 0.400 | 0 0 0 0 0 0
 2 | -1.500 | + | -1.000 | 0 0 0 0 0 0
 3 | -0.200 | + | 0.300 | 1 0 0 0 0 0
`

func read(Te *testing.T, text string) []Entry {
	Te.Helper()
	e, err := ReadScores(strings.NewReader(text), "test")
	if err != nil {
		Te.Fatal(err)
	}
	return e
}

func TestCombine(Te *testing.T) {
	in := []Scores{{read(Te, file1), 1}, {read(Te, file2), 1}}
	if len(in[0].Entries) != 3 || in[0].Entries[2].Pass {
		Te.Fatalf("wrong entries %v", in[0].Entries)
	}
	out, err := Combine(in)
	if err != nil {
		Te.Fatal(err)
	}
	//transform 3 is filtered out in the first file
	if len(out) != 2 {
		Te.Fatalf("kept %d transforms, expected 2", len(out))
	}
	if math.Abs(out[0].Score-1.6) > 1e-12 || math.Abs(out[1].Score+1.8) > 1e-12 {
		Te.Errorf("wrong combined scores %v", out)
	}
	//two values: population z-scores are +1 and -1
	if math.Abs(out[0].ZScore-1) > 1e-12 || math.Abs(out[1].ZScore+1) > 1e-12 {
		Te.Errorf("wrong z-scores %v", out)
	}
	var b bytes.Buffer
	if err := Write(&b, out); err != nil {
		Te.Fatal(err)
	}
	fmt.Print(b.String())
	lines := strings.Split(strings.TrimSpace(b.String()), "\n")
	if lines[0] != strings.TrimSpace(Header) || strings.TrimSpace(lines[1]) != "1 | 1.600 |  +  | 1.000 | 0 0 0 0 0 0" {
		Te.Errorf("wrong output %q", lines)
	}
	//and it reads back
	if again := read(Te, b.String()); len(again) != 2 || again[1].Num != 2 {
		Te.Errorf("output does not read back: %v", again)
	}
}

func TestCombineEdgeCases(Te *testing.T) {
	none := []Scores{{read(Te, " 1 | 0.0 | - | 1.0 | x\n"), 1}}
	if _, err := Combine(none); !errors.Is(err, ErrNoTransforms) {
		Te.Errorf("expected ErrNoTransforms, got %v", err)
	}
	same := []Scores{{read(Te, " 1 | 0.0 | + | 1.0 | x\n 2 | 0.0 | + | 1.0 | y\n"), 2}}
	out, err := Combine(same)
	if err != nil {
		Te.Fatal(err)
	}
	for _, e := range out {
		if e.Score != 2 || e.ZScore != 0 {
			Te.Errorf("zero spread gave %+v", e)
		}
	}
	if _, err := ReadScores(strings.NewReader(" 1 | 0.0 | ? | 1.0 | x\n"), "bad"); err == nil {
		Te.Error("accepted a bad filter")
	}
}
