//Package dock combines the scores of docking runs. Each score file lists
//one transformation per line, as
//
//	num | score | filt | zscore | transformation
//
//where filt is + or -. The combined score of a transformation is the weighted
//sum of its z-scores in all the files, and new z-scores are computed from the
//combined scores.
package dock

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

//Header is the first line of a score file.
const Header = "    # | Score | filt| ZScore | Transformation"

//ErrNoTransforms is returned by Combine when no transformation passes the filters of all the files.
var ErrNoTransforms = errors.New("dock: no transformation passes all the filters")

//Entry is one line of a score file.
type Entry struct {
	Num            int
	Score          float64
	Pass           bool //filt is +
	ZScore         float64
	Transformation string
}

//Scores is the content of one score file and the weight it gets in the combination.
type Scores struct {
	Entries []Entry
	Weight  float64
}

//ReadScores reads a score file. Lines that are empty, start with # or
//don't start with a number (headers) are skipped. name is only used in errors.
func ReadScores(r io.Reader, name string) ([]Entry, error) {
	var ret []Entry
	s := bufio.NewScanner(r)
	for lineno := 1; s.Scan(); lineno++ {
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.SplitN(line, "|", 5)
		num, err := strconv.Atoi(strings.TrimSpace(fields[0]))
		if err != nil {
			continue //a header
		}
		if len(fields) < 5 {
			return nil, fmt.Errorf("dock: %s line %d: %d fields, expected 5", name, lineno, len(fields))
		}
		e := Entry{Num: num, Transformation: strings.TrimSpace(fields[4])}
		if e.Score, err = strconv.ParseFloat(strings.TrimSpace(fields[1]), 64); err != nil {
			return nil, fmt.Errorf("dock: %s line %d: bad score: %w", name, lineno, err)
		}
		switch strings.TrimSpace(fields[2]) {
		case "+":
			e.Pass = true
		case "-":
		default:
			return nil, fmt.Errorf("dock: %s line %d: bad filter %q", name, lineno, fields[2])
		}
		if e.ZScore, err = strconv.ParseFloat(strings.TrimSpace(fields[3]), 64); err != nil {
			return nil, fmt.Errorf("dock: %s line %d: bad z-score: %w", name, lineno, err)
		}
		ret = append(ret, e)
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("dock: reading %s: %w", name, err)
	}
	return ret, nil
}

//ReadScoreFile reads the score file in path.
func ReadScoreFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dock: %w", err)
	}
	defer f.Close()
	return ReadScores(f, path)
}

//Combine returns, for each transformation of the first input that is present
//and passes the filter in every input, an entry with the weighted sum of the
//z-scores as score, and the z-score of that sum over all the kept
//transformations (population mean and standard deviation). If the standard
//deviation is 0, all the z-scores are 0. If nothing is kept, it returns ErrNoTransforms.
func Combine(inputs []Scores) ([]Entry, error) {
	if len(inputs) == 0 {
		return nil, ErrNoTransforms
	}
	byNum := make([]map[int]Entry, len(inputs))
	weights := make([]float64, len(inputs))
	for i, in := range inputs {
		byNum[i] = make(map[int]Entry, len(in.Entries))
		for _, e := range in.Entries {
			byNum[i][e.Num] = e
		}
		weights[i] = in.Weight
	}
	var ret []Entry
	z := make([]float64, len(inputs))
	for _, e := range inputs[0].Entries {
		keep := true
		for i := range inputs {
			o, ok := byNum[i][e.Num]
			if !ok || !o.Pass {
				keep = false
				break
			}
			z[i] = o.ZScore
		}
		if keep {
			ret = append(ret, Entry{Num: e.Num, Score: floats.Dot(weights, z), Pass: true, Transformation: e.Transformation})
		}
	}
	if len(ret) == 0 {
		return nil, ErrNoTransforms
	}
	values := make([]float64, len(ret))
	for i, e := range ret {
		values[i] = e.Score
	}
	mean, std := stat.PopMeanStdDev(values, nil)
	for i := range ret {
		if std > 0 {
			ret[i].ZScore = (ret[i].Score - mean) / std
		}
	}
	return ret, nil
}

//Write writes the header and the entries in the score file format.
func Write(w io.Writer, entries []Entry) error {
	b := bufio.NewWriter(w)
	fmt.Fprintln(b, Header)
	for _, e := range entries {
		filt := "+"
		if !e.Pass {
			filt = "-"
		}
		fmt.Fprintf(b, " %4d | %5.3f |  %s  | %5.3f | %s\n", e.Num, e.Score, filt, e.ZScore, e.Transformation)
	}
	return b.Flush()
}
