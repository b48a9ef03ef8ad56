/*
 * main.go, part of goimp.
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

//spbfast runs a replica-exchange Monte Carlo sampling of a bead chain, with the
//parameters given in a config file.
//
//	spbfast [-in config.ini] [-v verbosity]
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/rmera/goimp/config"
	"github.com/rmera/goimp/rex"
	"github.com/rmera/goimp/scorestat"
	"github.com/rmera/goimp/traceplot"
)

func main() {
	in := flag.String("in", "config.ini", "the configuration file")
	verb := flag.Int("v", 1, "verbosity level")
	flag.Parse()
	logger := log.New(os.Stderr, "spbfast: ", log.LstdFlags)
	if err := run(*in, *verb, logger); err != nil {
		logger.Println(err)
		os.Exit(1)
	}
}

func run(path string, verbosity int, logger *log.Logger) error {
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", cfg.OutDir, err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	E := rex.NewExchange(cfg, chainBuilder(cfg))
	E.Log = logger
	E.Verbosity = verbosity
	s, err := E.Run(ctx)
	if err != nil {
		return err
	}
	logger.Printf("run %s: %d rounds, best score %.4f", s.RunID, s.Rounds, s.Best)
	for i, a := range s.Acceptance() {
		logger.Printf("swap acceptance %d-%d (kT %.3f-%.3f): %.3f", i, i+1, s.Ladder[i], s.Ladder[i+1], a)
	}
	for i, t := range scorestat.Efficiency(s.Scores) {
		logger.Printf("index %d: score autocorrelation time %.2f rounds", i, t)
	}
	for rank, g := range s.Good {
		logger.Printf("replica %d: %d good scores", rank, g)
	}
	if cfg.Plot == "" || s.Rounds == 0 {
		return nil
	}
	return plots(s, cfg.OutDir, cfg.Plot)
}

//plots writes the traces of s to dir, in the format given by ext.
func plots(s *rex.Summary, dir, ext string) error {
	ext = strings.TrimPrefix(ext, ".")
	name := func(n string) string { return filepath.Join(dir, n+"."+ext) }
	if err := traceplot.Scores(s.Scores, "Scores", name("scores")); err != nil {
		return err
	}
	if err := traceplot.Indexes(s.Holders, "Temperature indexes", name("indexes")); err != nil {
		return err
	}
	return traceplot.Histograms(s.Histos, "Score histograms", name("histograms"))
}
