/*
 * stf_test.go
 *
 * Copyright 2012 Raul Mera Adasme <rmera_changeforat_chem-dot-helsinki-dot-fi>
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

package stf

import (
	"fmt"
	"math"
	"path/filepath"
	"testing"

	imp "github.com/rmera/goimp"
	v3 "github.com/rmera/goimp/v3"
)

func chainModel(n int) (*imp.Model, []imp.ParticleIndex) {
	m := imp.NewModel("stf")
	ps := make([]imp.ParticleIndex, n)
	for i := range ps {
		ps[i] = m.AddParticle(fmt.Sprintf("b%d", i))
		imp.SetupXYZ(m, ps[i], [3]float64{1.5 * float64(i), -0.25, 3.14159})
	}
	return m, ps
}

//Tests the writing and reading for all the compression formats.
func TestSTFWriteRead(Te *testing.T) {
	dir := Te.TempDir()
	for _, name := range []string{"t.stf", "t.stz", "t.stl", "t.str"} {
		name = filepath.Join(dir, name)
		m, ps := chainModel(5)
		w, err := NewWriter(name, len(ps), map[string]string{"rank": "0", "prec": "3"})
		if err != nil {
			Te.Fatal(err)
		}
		frames := []int{0, 10, 20, 35}
		for _, f := range frames {
			imp.MustXYZ(m, ps[2]).Translate([3]float64{0, 0, 1})
			if err := w.WriteModel(m, ps, f); err != nil {
				Te.Fatal(err)
			}
		}
		if err := w.WNext(35, v3.Zeros(len(ps))); err == nil {
			Te.Error("repeated frame index accepted")
		}
		if err := w.Close(); err != nil {
			Te.Fatal(err)
		}
		r, header, err := New(name)
		if err != nil {
			Te.Fatal(err)
		}
		if header["rank"] != "0" || r.Len() != 5 {
			Te.Errorf("%s: wrong header %v or length %d", name, header, r.Len())
		}
		got, indexes, err := r.ReadAll()
		if err != nil {
			Te.Fatal(err)
		}
		if len(got) != len(frames) {
			Te.Fatalf("%s: read %d frames, wrote %d", name, len(got), len(frames))
		}
		for i, f := range frames {
			if indexes[i] != f {
				Te.Errorf("%s: frame %d has index %d, expected %d", name, i, indexes[i], f)
			}
		}
		last := got[len(got)-1]
		if c := last.Vec(2); math.Abs(c[2]-7.142) > 1e-9 || math.Abs(c[0]-3) > 1e-9 {
			Te.Errorf("%s: wrong coordinates %v", name, c)
		}
		if c := last.Vec(0); math.Abs(c[1]+0.25) > 1e-9 {
			Te.Errorf("%s: wrong coordinates %v", name, c)
		}
		if r.Readable() {
			Te.Error("reader still readable after the last frame")
		}
		fmt.Println(name, "frames", indexes)
	}
}

func TestWrongParticleNumber(Te *testing.T) {
	name := filepath.Join(Te.TempDir(), "wrong.stf")
	m, ps := chainModel(3)
	w, err := NewWriter(name, 4, nil)
	if err != nil {
		Te.Fatal(err)
	}
	defer w.Close()
	if err := w.WriteModel(m, ps, 0); err == nil {
		Te.Error("wrote a frame with the wrong number of particles")
	}
	if w.Last() != -1 {
		Te.Errorf("failed write changed the last frame to %d", w.Last())
	}
	if _, err := NewWriter(filepath.Join(Te.TempDir(), "bad.stf"), 3, map[string]string{"prec": "x"}); err == nil {
		Te.Error("accepted a bad precision")
	}
}
