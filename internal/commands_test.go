// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package internal

import (
	"bytes"
	"context"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hoxca/sensloss/internal/aperture"
	"github.com/hoxca/sensloss/internal/fits"
)

func TestCmdStdMapMatchesEngine(t *testing.T) {
	dir := t.TempDir()
	in := writeTestFITS(t, filepath.Join(dir, "R0.5-M10-RDI-subtraction.fits"), []int{10, 12, 3}, patternCube)

	for _, p := range []StdMapParams{DefaultStdMapParams(), InfinityStdMapParams()} {
		t.Run(p.Aperture.String(), func(t *testing.T) {
			sciP := DefaultScienceParams()
			p.OutDir = filepath.Join(dir, "std-"+p.Aperture.String())
			outNames, err := CmdStdMap(context.Background(), []string{in}, &sciP, &p)
			if err != nil {
				t.Fatalf("CmdStdMap failed: %v", err)
			}
			want := filepath.Join(p.OutDir, "R0.5-M10-RDI-subtraction-std.fits")
			if len(outNames) != 1 || outNames[0] != want {
				t.Fatalf("outputs: got %v, want [%s]", outNames, want)
			}

			got, err := fits.ReadFile(want)
			if err != nil {
				t.Fatal(err)
			}
			if !fits.EqualIntSlice(got.Naxisn, []int{10, 12}) {
				t.Errorf("Naxisn: got %v, want [10 12]", got.Naxisn)
			}

			src, _ := fits.ReadFile(in)
			st, _ := src.Stack()
			lod, _ := sciP.LambdaOverD()
			ref, err := aperture.BuildDerivedImage(context.Background(), st, p.Selector(lod), aperture.StatStdDev, 1)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(ref.Data, got.Data, nanEqual); diff != "" {
				t.Errorf("noise map differs from engine (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCmdStdMapSkipsBadFiles(t *testing.T) {
	dir := t.TempDir()
	good := writeTestFITS(t, filepath.Join(dir, "good.fits"), []int{10, 12}, patternCube)
	sciP := DefaultScienceParams()
	p := DefaultStdMapParams()
	p.OutDir = filepath.Join(dir, "out")
	p.Preview = "magma"

	outNames, err := CmdStdMap(context.Background(), []string{filepath.Join(dir, "missing.fits"), good}, &sciP, &p)
	if err != nil {
		t.Fatalf("CmdStdMap failed: %v", err)
	}
	if len(outNames) != 1 {
		t.Errorf("got %d outputs, want 1", len(outNames))
	}
	if _, err := os.Stat(filepath.Join(p.OutDir, "good-std.png")); err != nil {
		t.Errorf("preview missing: %v", err)
	}

	if _, err := CmdStdMap(context.Background(), []string{filepath.Join(dir, "missing.fits")}, &sciP, &p); err == nil {
		t.Errorf("all files failing reported no error")
	}

	sciP.PlateScale = 0
	if _, err := CmdStdMap(context.Background(), []string{good}, &sciP, &p); err == nil {
		t.Errorf("zero plate scale accepted")
	}
}

func TestCmdStdMapKeepsMapWhenPreviewFails(t *testing.T) {
	dir := t.TempDir()
	in := writeTestFITS(t, filepath.Join(dir, "good.fits"), []int{10, 12}, patternCube)
	sciP := DefaultScienceParams()
	p := DefaultStdMapParams()
	p.OutDir = filepath.Join(dir, "out")
	p.Preview = "viridis"
	// a folder in place of the PNG makes the preview unwritable
	if err := os.MkdirAll(filepath.Join(p.OutDir, "good-std.png"), 0755); err != nil {
		t.Fatal(err)
	}

	outNames, err := CmdStdMap(context.Background(), []string{in}, &sciP, &p)
	if err != nil {
		t.Fatalf("CmdStdMap failed: %v", err)
	}
	want := []string{filepath.Join(p.OutDir, "good-std.fits")}
	if diff := cmp.Diff(want, outNames); diff != "" {
		t.Errorf("outputs (-want +got):\n%s", diff)
	}

	p.Preview = "rainbow"
	if outNames, err := CmdStdMap(context.Background(), []string{in}, &sciP, &p); err != nil || len(outNames) != 1 {
		t.Errorf("unknown preview colormap: got %v %v, want one map", outNames, err)
	}
}

func TestCmdMagLossAgainstItself(t *testing.T) {
	dir := t.TempDir()
	in := writeTestFITS(t, filepath.Join(dir, "R1.0-M100-RDI-subtraction.fits"), []int{10, 12, 3}, patternCube)
	sciP := DefaultScienceParams()
	stdP := DefaultStdMapParams()
	stdP.OutDir = filepath.Join(dir, "std")
	maps, err := CmdStdMap(context.Background(), []string{in}, &sciP, &stdP)
	if err != nil {
		t.Fatal(err)
	}

	p := DefaultMagLossParams()
	p.Control = maps[0]
	p.CIDir = filepath.Join(dir, "ci")
	p.LossDir = filepath.Join(dir, "loss")
	if err := CmdMagLoss(maps, &sciP, &p); err != nil {
		t.Fatalf("CmdMagLoss failed: %v", err)
	}

	ci, err := fits.ReadFile(filepath.Join(p.CIDir, "R1.0-M100-RDI-subtraction-std-CI.fits"))
	if err != nil {
		t.Fatal(err)
	}
	std, _ := fits.ReadFile(maps[0])
	for i, v := range ci.Data {
		want := -2.5 * math.Log10(std.Data[i]*5/68747.44677595097)
		if math.Abs(v-want) > 1e-12 {
			t.Fatalf("contrast %d: got %g, want %g", i, v, want)
		}
	}

	loss, err := fits.ReadFile(filepath.Join(p.LossDir, "R1.0-M100-RDI-subtraction-std-MSL.fits"))
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range loss.Data {
		if v != 0 {
			t.Fatalf("loss %d: got %g, want 0", i, v)
		}
	}

	p.Control = ""
	if err := CmdMagLoss(maps, &sciP, &p); err == nil {
		t.Errorf("missing control accepted")
	}
}

func TestCmdLossTable(t *testing.T) {
	dir := t.TempDir()
	writeTestFITS(t, filepath.Join(dir, "R0.5-M10-RDI-subtraction-std-MSL.fits"), []int{101, 101}, constant(0.5))
	writeTestFITS(t, filepath.Join(dir, "R1.0-M10-RDI-subtraction-std-MSL.fits"), []int{101, 101}, constant(0.25))
	writeTestFITS(t, filepath.Join(dir, "R0.75-M10-RDI-subtraction-std-MSL.fits"), []int{101, 101}, constant(9)) // no location
	writeTestFITS(t, filepath.Join(dir, "control.fits"), []int{101, 101}, constant(9))

	sciP := DefaultScienceParams()
	p := DefaultLossParams()
	p.Output = filepath.Join(t.TempDir(), "output-mags.txt")
	results, err := CmdLossTable(dir, &sciP, &p)
	if err != nil {
		t.Fatalf("CmdLossTable failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}

	data, err := os.ReadFile(p.Output)
	if err != nil {
		t.Fatal(err)
	}
	want := "local loss\n" +
		"\t0.5\"\t1.0\"\n" +
		"M=10\t[0.5, 0.25],\n" +
		"total loss\n" +
		"\t0.5\"\t1.0\"\n" +
		"M=10\t[0.5, 0.25],\n"
	if diff := cmp.Diff(want, string(data)); diff != "" {
		t.Errorf("report (-want +got):\n%s", diff)
	}

	p.Layout = "spiral"
	if _, err := CmdLossTable(dir, &sciP, &p); err == nil {
		t.Errorf("unknown layout accepted")
	}
}

func TestCmdLocalLoss(t *testing.T) {
	dir := t.TempDir()
	// loss 1 within 6 pixels of the companion at 1" and 90 degrees, 0 elsewhere
	fill := func(i int) float64 {
		x, y := float64(i%101), float64(i/101)
		if math.Hypot(x-34.62, y-50.5) <= 6 {
			return 1
		}
		return 0
	}
	a := writeTestFITS(t, filepath.Join(dir, "a.fits"), []int{101, 101}, fill)
	b := writeTestFITS(t, filepath.Join(dir, "b.fits"), []int{101, 101}, constant(0.5))

	sciP := DefaultScienceParams()
	sciP.LocalRadius = 3 * sciP.PlateScale
	p := DefaultLossParams()
	var logged bytes.Buffer
	LogWriter = &logged
	defer func() { LogWriter = io.Discard }()
	results, err := CmdLocalLoss([]string{a, b}, 1, 90, &sciP, &p)
	if err != nil {
		t.Fatalf("CmdLocalLoss failed: %v", err)
	}
	for _, line := range []string{"0: local loss: 100 percent", "1: max loss: 50 percent", "Local Standard Deviation: ", "Total Standard Deviation: "} {
		if !strings.Contains(logged.String(), line) {
			t.Errorf("log misses %q:\n%s", line, logged.String())
		}
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if math.Abs(results[0].Local-1) > 1e-9 {
		t.Errorf("local loss: got %g, want 1", results[0].Local)
	}
	if results[0].Total <= 0 || results[0].Total >= 0.05 {
		t.Errorf("total loss: got %g, want a small positive value", results[0].Total)
	}
	if results[1].Total != 0.5 || results[1].Local != 0.5 {
		t.Errorf("constant image: got %v", results[1])
	}

	if _, err := CmdLocalLoss([]string{a}, 1, 30, &sciP, &p); err == nil {
		t.Errorf("unknown location accepted")
	}
}

func TestCmdTrimAndFrames(t *testing.T) {
	dir := t.TempDir()
	in := writeTestFITS(t, filepath.Join(dir, "cube.fits"), []int{10, 12, 3}, patternCube)

	out := filepath.Join(dir, "trimmed.fits")
	if err := CmdTrim(in, out, 1, 2, 3, 0); err != nil {
		t.Fatalf("CmdTrim failed: %v", err)
	}
	trimmed, _ := fits.ReadFile(out)
	if !fits.EqualIntSlice(trimmed.Naxisn, []int{7, 9, 3}) {
		t.Errorf("trimmed Naxisn: got %v, want [7 9 3]", trimmed.Naxisn)
	}
	if trimmed.Data[0] != patternCube(1*10+3) {
		t.Errorf("first trimmed sample: got %g, want %g", trimmed.Data[0], patternCube(13))
	}
	if err := CmdTrim(in, out, 6, 6, 0, 0); err == nil {
		t.Errorf("trimming all rows accepted")
	}

	outNames, err := CmdFrames(in, filepath.Join(dir, "frame%d.fits"))
	if err != nil {
		t.Fatalf("CmdFrames failed: %v", err)
	}
	if len(outNames) != 3 {
		t.Fatalf("got %d frames, want 3", len(outNames))
	}
	f2, _ := fits.ReadFile(outNames[2])
	if !fits.EqualIntSlice(f2.Naxisn, []int{10, 12}) || f2.Data[0] != patternCube(240) {
		t.Errorf("frame 2: naxisn %v first %g", f2.Naxisn, f2.Data[0])
	}
	if _, err := CmdFrames(in, "frame.fits"); err == nil {
		t.Errorf("pattern without verb accepted")
	}
}

func TestCmdStackDivide(t *testing.T) {
	dir := t.TempDir()
	writeTestFITS(t, filepath.Join(dir, "a", "1.fits"), []int{4, 3}, constant(2))
	writeTestFITS(t, filepath.Join(dir, "a", "2.fits"), []int{4, 3}, constant(4))
	writeTestFITS(t, filepath.Join(dir, "b", "1.fits"), []int{4, 3}, constant(1))
	writeTestFITS(t, filepath.Join(dir, "b", "2.fits"), []int{4, 3}, constant(2))

	out := filepath.Join(dir, "ratio.fits")
	if err := CmdStackDivide(filepath.Join(dir, "a"), filepath.Join(dir, "b"), out); err != nil {
		t.Fatalf("CmdStackDivide failed: %v", err)
	}
	res, err := fits.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range res.Data {
		if v != 2 {
			t.Fatalf("sample %d: got %g, want 2", i, v)
		}
	}

	if err := CmdStackDivide(filepath.Join(dir, "a"), filepath.Join(dir, "empty"), out); err == nil {
		t.Errorf("empty folder accepted")
	}
}

func TestStackFolderOrder(t *testing.T) {
	dir := t.TempDir()
	writeTestFITS(t, filepath.Join(dir, "0-small.fits"), []int{3, 3}, constant(1))
	writeTestFITS(t, filepath.Join(dir, "1-wide.fits"), []int{4, 3}, constant(2))
	writeTestFITS(t, filepath.Join(dir, "2-small.fits"), []int{3, 3}, constant(0.2))
	writeTestFITS(t, filepath.Join(dir, "3-small.fits"), []int{3, 3}, constant(0.3))

	// the first file by name fixes the shape, and sums run in name order
	first, second, third := 1.0, 0.2, 0.3
	want := (first + second) + third
	for run := 0; run < 5; run++ {
		stack, err := StackFolder(dir)
		if err != nil {
			t.Fatalf("StackFolder failed: %v", err)
		}
		if !fits.EqualIntSlice(stack.Naxisn, []int{3, 3}) {
			t.Fatalf("run %d: shape %v, want [3 3]", run, stack.Naxisn)
		}
		for i, v := range stack.Data {
			if v != want {
				t.Fatalf("run %d sample %d: got %v, want %v", run, i, v, want)
			}
		}
	}
}

func TestCalcBasicStats(t *testing.T) {
	s := CalcBasicStats([]float64{3, 1, math.NaN(), 2})
	if s.Min != 1 || s.Max != 3 || s.Mean != 2 || s.Median != 2 || s.Valid != 3 || s.NaNs != 1 {
		t.Errorf("got %v", s)
	}
	if math.Abs(s.StdDev-math.Sqrt(2.0/3)) > 1e-12 {
		t.Errorf("StdDev: got %g", s.StdDev)
	}
	if e := CalcBasicStats([]float64{math.NaN()}); !math.IsNaN(e.Mean) || e.Valid != 0 {
		t.Errorf("all NaN: got %v", e)
	}

	// large inputs use a sampled median
	big := make([]float64, 3*medianSamples)
	for i := range big {
		big[i] = float64(i % 1000)
	}
	if m := CalcBasicStats(big).Median; m < 450 || m > 550 {
		t.Errorf("sampled median: got %g, want about 500", m)
	}
}

func TestCmdStats(t *testing.T) {
	dir := t.TempDir()
	in := writeTestFITS(t, filepath.Join(dir, "cube.fits"), []int{10, 12, 3}, patternCube)
	if n := CmdStats([]string{in}); n != 0 {
		t.Errorf("got %d errors, want 0", n)
	}
	if n := CmdStats([]string{in, filepath.Join(dir, "missing.fits")}); n != 1 {
		t.Errorf("got %d errors, want 1", n)
	}
	if got := describeDimensions(fits.NewImageFromNaxisn([]int{10, 12, 3}, nil)); got != "3 frames of 12 rows by 10 columns" {
		t.Errorf("describeDimensions: got %q", got)
	}
}

func TestCmdPreview(t *testing.T) {
	dir := t.TempDir()
	in := writeTestFITS(t, filepath.Join(dir, "map.fits"), []int{10, 12}, func(i int) float64 {
		if i == 0 {
			return math.NaN()
		}
		return float64(i)
	})
	out := filepath.Join(dir, "map.png")
	p := DefaultPreviewParams()
	if err := CmdPreview(in, out, &p); err != nil {
		t.Fatalf("CmdPreview failed: %v", err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 10 || b.Dy() != 12 {
		t.Fatalf("bounds: got %v", b)
	}
	// row 0 is at the bottom
	if r, g, b, _ := img.At(0, 11).RGBA(); r != 0 || g != 0 || b != 0 {
		t.Errorf("NaN pixel not black: %d %d %d", r>>8, g>>8, b>>8)
	}
	if r, g, b, _ := img.At(1, 11).RGBA(); r>>8 != 0x44 || g>>8 != 0x01 || b>>8 != 0x54 {
		t.Errorf("minimum not first viridis stop: %d %d %d", r>>8, g>>8, b>>8)
	}
	if r, g, b, _ := img.At(9, 0).RGBA(); r>>8 != 0xfd || g>>8 != 0xe7 || b>>8 != 0x25 {
		t.Errorf("maximum not last viridis stop: %d %d %d", r>>8, g>>8, b>>8)
	}

	p.Colormap = "rainbow"
	if err := CmdPreview(in, out, &p); err == nil || !strings.Contains(err.Error(), "rainbow") {
		t.Errorf("unknown colormap: got %v", err)
	}
}
