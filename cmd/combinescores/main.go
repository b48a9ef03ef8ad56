//combinescores combines the z-scores of several docking score files, with weights,
//and writes the result to the standard output.
//
//	combinescores file1 w1 [file2 w2 ...] > out_file
//
//Only the transformations that pass the filter in all the files are written. If
//none does, only the header is written and the exit status is 1.
package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/rmera/goimp/dock"
)

const usage = "usage: combinescores file1 w1 [file2 w2 ...] > out_file"

func main() {
	logger := log.New(os.Stderr, "combinescores: ", 0)
	if err := run(os.Args[1:], os.Stdout); err != nil {
		logger.Println(err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) < 2 || len(args)%2 != 0 {
		return errors.New(usage)
	}
	inputs, err := readInputs(args)
	if err != nil {
		return err
	}
	combined, cerr := dock.Combine(inputs)
	if cerr != nil && !errors.Is(cerr, dock.ErrNoTransforms) {
		return cerr
	}
	//with nothing kept, the output has only the header, and we still fail.
	if err := dock.Write(out, combined); err != nil {
		return err
	}
	return cerr
}

//readInputs takes file, weight pairs.
func readInputs(args []string) ([]dock.Scores, error) {
	inputs := make([]dock.Scores, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		w, err := strconv.ParseFloat(args[i+1], 64)
		if err != nil {
			return nil, fmt.Errorf("weight for %s: %w", args[i], err)
		}
		entries, err := dock.ReadScoreFile(args[i])
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, dock.Scores{Entries: entries, Weight: w})
	}
	return inputs, nil
}
