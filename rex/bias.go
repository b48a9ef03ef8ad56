package rex

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

//BiasFile returns the name of the bias checkpoint for a temperature index.
func BiasFile(dir string, index int) string {
	return filepath.Join(dir, fmt.Sprintf("bias%d.dat", index))
}

//WriteBias writes buf to path, one value per line.
func WriteBias(path string, buf []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return newError("can't write bias "+path, -1, -1, err)
	}
	w := bufio.NewWriter(f)
	for _, v := range buf {
		fmt.Fprintf(w, "%.12g\n", v)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return newError("can't write bias "+path, -1, -1, err)
	}
	if err := f.Close(); err != nil {
		return newError("can't write bias "+path, -1, -1, err)
	}
	return nil
}

//ReadBias reads a bias written by WriteBias. It fails with a critical error if
//the file doesn't contain exactly nbuf values.
func ReadBias(path string, nbuf int) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, newCritical("can't read bias "+path, -1, -1, err)
	}
	defer f.Close()
	ret := make([]float64, 0, nbuf)
	s := bufio.NewScanner(f)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" {
			continue
		}
		v, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return nil, newCritical("malformed bias "+path, -1, -1, err)
		}
		ret = append(ret, v)
	}
	if err := s.Err(); err != nil {
		return nil, newCritical("can't read bias "+path, -1, -1, err)
	}
	if len(ret) != nbuf {
		return nil, newCritical(fmt.Sprintf("bias %s has %d values, expected %d", path, len(ret), nbuf), -1, -1, nil)
	}
	return ret, nil
}
