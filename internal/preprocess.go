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
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pbnjay/memory"

	"github.com/hoxca/sensloss/internal/aperture"
	"github.com/hoxca/sensloss/internal/fits"
)

// Instrument and detection parameters shared by all commands
type ScienceParams struct {
	Wavelength  float64 `yaml:"wavelength"`   // observing wavelength in meters
	Diameter    float64 `yaml:"diameter"`     // effective telescope aperture in meters
	PlateScale  float64 `yaml:"plate_scale"`  // arcseconds per pixel
	Sigma       float64 `yaml:"sigma"`        // detection threshold in units of the noise
	StellarFlux float64 `yaml:"stellar_flux"` // off-axis peak flux of the host star
	LocalRadius float64 `yaml:"local_radius"` // arcseconds around the companion for local loss
}

// NIRCam F444W long wavelength coronagraphy, as simulated with PanCAKE
func DefaultScienceParams() ScienceParams {
	return ScienceParams{
		Wavelength:  4.5e-6,
		Diameter:    5.2,
		PlateScale:  0.063,
		Sigma:       5,
		StellarFlux: 68747.44677595097,
		LocalRadius: 1,
	}
}

// Print instrument and detection parameters
func (p *ScienceParams) String() string {
	return fmt.Sprintf("wavelength %.4g diameter %.4g plateScale %.4g sigma %.4g stellarFlux %.8g localRadius %.4g",
		p.Wavelength, p.Diameter, p.PlateScale, p.Sigma, p.StellarFlux, p.LocalRadius)
}

// Diffraction scale lambda/D in pixels
func (p *ScienceParams) LambdaOverD() (float64, error) {
	return aperture.DiffractionScalePixels(p.Wavelength, p.Diameter, p.PlateScale)
}

// Parameters for noise map generation. Radii are in units of lambda/D.
type StdMapParams struct {
	Aperture  aperture.Kind      `yaml:"aperture"`
	Inner     float64            `yaml:"inner"`
	Outer     float64            `yaml:"outer"`
	Bounds    aperture.Bounds    `yaml:"bounds"`
	Statistic aperture.Statistic `yaml:"statistic"`
	OutDir    string             `yaml:"out_dir"`
	Suffix    string             `yaml:"suffix"`
	Memory    int64              `yaml:"memory"`  // MB available for images in flight, 0 for 70% of physical memory
	Preview   string             `yaml:"preview"` // colormap for a PNG preview next to each map, empty for none
}

// Annulus (L, 2L] around each pixel
func DefaultStdMapParams() StdMapParams {
	return StdMapParams{
		Aperture:  aperture.KindAnnulus,
		Inner:     1,
		Outer:     2,
		Bounds:    aperture.BoundsClosed,
		Statistic: aperture.StatStdDev,
		Suffix:    "-std",
	}
}

// Disk d<L around each pixel
func InfinityStdMapParams() StdMapParams {
	p := DefaultStdMapParams()
	p.Aperture, p.Inner, p.Outer, p.Bounds = aperture.KindDisk, 0, 1, aperture.BoundsOpen
	return p
}

// Print parameters for noise map generation
func (p *StdMapParams) String() string {
	return fmt.Sprintf("aperture %v inner %.4g outer %.4g bounds %v statistic %v outDir %s suffix %s memory %d preview %s",
		p.Aperture, p.Inner, p.Outer, p.Bounds, p.Statistic, p.OutDir, p.Suffix, p.Memory, p.Preview)
}

// Selector in pixels for the given lambda/D in pixels
func (p *StdMapParams) Selector(lambdaOverD float64) aperture.Selector {
	if p.Aperture == aperture.KindDisk {
		return aperture.NewDisk(p.Outer*lambdaOverD, p.Bounds)
	}
	return aperture.NewAnnulus(p.Inner*lambdaOverD, p.Outer*lambdaOverD, p.Bounds)
}

// Load a 2-D image or 3-D cube from a FITS file and log its dimensions
func LoadStack(id int, fileName string) (*fits.Image, *aperture.Image, error) {
	f, err := fits.ReadFile(fileName)
	if err != nil {
		return nil, nil, err
	}
	f.ID = id
	st, err := f.Stack()
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", fileName, err)
	}
	LogPrintf("%d: Loaded %s %s\n", id, fileName, f.DimensionsToString())
	return f, st, nil
}

// Compute noise maps for all given files, limiting the number of images in
// flight by CPU count and memory. Cores not used at image level go to the
// row workers of each map. Returns the names of the files written.
func ComputeStdMaps(ctx context.Context, fileNames []string, sciP *ScienceParams, p *StdMapParams) (outNames []string, numErrors int) {
	lod, err := sciP.LambdaOverD()
	if err != nil {
		LogPrintf("Error: %s\n", err)
		return nil, len(fileNames)
	}
	sel := p.Selector(lod)
	if err := sel.Validate(); err != nil {
		LogPrintf("Error: %s\n", err)
		return nil, len(fileNames)
	}
	LogPrintf("Lambda/D is %.4g pixels, using %v\n", lod, sel)

	imageLevelParallelism := ImageLevelParallelism(fileNames, p.Memory)
	rowWorkers := runtime.NumCPU() / imageLevelParallelism
	if rowWorkers < 1 {
		rowWorkers = 1
	}
	LogPrintf("Processing %d images at a time with %d row workers each\n", imageLevelParallelism, rowWorkers)

	outNames = make([]string, len(fileNames))
	errs := make([]bool, len(fileNames))
	sem := make(chan bool, imageLevelParallelism)
	for id, fileName := range fileNames {
		sem <- true
		go func(id int, fileName string) {
			defer func() { <-sem }()
			outName, err := computeStdMap(ctx, id, fileName, sel, p, rowWorkers)
			if err != nil {
				LogPrintf("%d: Error: %s\n", id, err.Error())
				errs[id] = true
				return
			}
			outNames[id] = outName
		}(id, fileName)
	}
	for i := 0; i < cap(sem); i++ { // wait for goroutines to finish
		sem <- true
	}

	o := 0
	for i, n := range outNames {
		if errs[i] {
			numErrors++
			continue
		}
		outNames[o] = n
		o++
	}
	return outNames[:o], numErrors
}

// Compute and write the noise map of a single file
func computeStdMap(ctx context.Context, id int, fileName string, sel aperture.Selector, p *StdMapParams, rowWorkers int) (string, error) {
	f, st, err := LoadStack(id, fileName)
	if err != nil {
		return "", err
	}
	derived, err := aperture.BuildDerivedImage(ctx, st, sel, p.Statistic, rowWorkers)
	if err != nil {
		return "", err
	}
	mean, _ := aperture.Aggregate(derived, aperture.NewFullMask(derived.Height, derived.Width), aperture.StatMean)
	LogPrintf("%d: %s map mean %.4g\n", id, p.Statistic, mean)

	outName := OutputName(p.OutDir, fileName, p.Suffix)
	out := fits.NewImageFromStack(f, derived)
	if err := out.WriteFile(outName); err != nil {
		return "", err
	}
	LogPrintf("%d: Wrote %s\n", id, outName)

	if p.Preview != "" {
		writeStdMapPreview(id, out, outName, p.Preview)
	}
	return outName, nil
}

// Render the PNG preview of a written noise map. Failures are logged only,
// since the map itself is already on disk.
func writeStdMapPreview(id int, out *fits.Image, outName, colormap string) {
	cm, err := ColormapByName(colormap)
	if err != nil {
		LogPrintf("%d: Error: preview: %s\n", id, err)
		return
	}
	pngName := strings.TrimSuffix(outName, ".fits") + ".png"
	if err := WritePreview(out, pngName, cm); err != nil {
		LogPrintf("%d: Error: preview: %s\n", id, err)
		return
	}
	LogPrintf("%d: Wrote preview %s\n", id, pngName)
}

// Number of images to process concurrently, bounded by CPU count and by
// the memory needed to hold input and output of each image
func ImageLevelParallelism(fileNames []string, memoryMB int64) int {
	par := runtime.NumCPU()
	if par > len(fileNames) {
		par = len(fileNames)
	}
	if par < 1 {
		return 1
	}

	available := memoryMB * 1024 * 1024
	if available <= 0 {
		available = int64(float64(memory.TotalMemory()) * 0.7)
	}
	fi, err := os.Stat(fileNames[0])
	if err != nil || fi.Size() == 0 || available <= 0 {
		return par
	}
	// float64 samples of the cube plus one derived frame; the file size is a lower bound
	perImage := 3 * fi.Size()
	if strings.HasSuffix(strings.ToLower(fileNames[0]), ".gz") {
		perImage *= 4
	}
	if maxPar := available / perImage; maxPar < int64(par) {
		par = int(maxPar)
	}
	if par < 1 {
		par = 1
	}
	return par
}

// Name of an output file in outDir, derived from the input base name and a suffix.
// An empty outDir places the output next to the input.
func OutputName(outDir, inName, suffix string) string {
	base := filepath.Base(inName)
	for _, ext := range []string{".gz", ".gzip", ".fits", ".fit", ".fts"} {
		if strings.HasSuffix(strings.ToLower(base), ext) {
			base = base[:len(base)-len(ext)]
		}
	}
	if outDir == "" {
		outDir = filepath.Dir(inName)
	}
	return filepath.Join(outDir, base+suffix+".fits")
}
