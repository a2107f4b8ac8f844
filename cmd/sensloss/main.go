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

// Command sensloss reduces coronagraphic RDI simulation output into noise
// maps, magnitude loss images and sensitivity loss tables.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"

	"github.com/klauspost/cpuid"
	"github.com/pbnjay/memory"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/hoxca/sensloss/internal"
)

const version = "0.3.0"

var (
	cfg        = internal.DefaultConfig()
	configFile string
	logFile    string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		internal.LogFatal(err)
	}
	internal.LogSync()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "sensloss",
		Short:         "Sensitivity loss of coronagraphic RDI simulations",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if logFile != "" {
				if err := internal.LogAlsoToFile(logFile); err != nil {
					return err
				}
			}
			if err := loadConfig(cmd.Flags()); err != nil {
				return err
			}
			banner()
			return nil
		},
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "YAML configuration `file`; flags take precedence")
	root.PersistentFlags().StringVar(&logFile, "log", "", "also write log output to `file`")

	sci := &cfg.Science
	root.PersistentFlags().Float64Var(&sci.Wavelength, "wavelength", sci.Wavelength, "observing wavelength in meters")
	root.PersistentFlags().Float64Var(&sci.Diameter, "diameter", sci.Diameter, "effective telescope aperture in meters")
	root.PersistentFlags().Float64Var(&sci.PlateScale, "plate-scale", sci.PlateScale, "arcseconds per pixel")
	root.PersistentFlags().Float64Var(&sci.Sigma, "sigma", sci.Sigma, "detection threshold in units of the noise")
	root.PersistentFlags().Float64Var(&sci.StellarFlux, "flux", sci.StellarFlux, "off-axis peak flux of the host star")
	root.PersistentFlags().Float64Var(&sci.LocalRadius, "local-radius", sci.LocalRadius, "radius in arcseconds around the companion for local loss")

	root.AddCommand(
		newStdMapCmd(),
		newMagLossCmd(),
		newLossTableCmd(),
		newLocalLossCmd(),
		newStackDivCmd(),
		newTrimCmd(),
		newStatsCmd(),
		newFramesCmd(),
		newPreviewCmd(),
		newServeCmd(),
		newConfigCmd(),
	)
	return root
}

// Reads the configuration file, then reapplies flags given on the command
// line so they take precedence over the file
func loadConfig(flags *pflag.FlagSet) error {
	if configFile == "" {
		return nil
	}
	changed := map[*pflag.Flag]string{}
	flags.Visit(func(f *pflag.Flag) { changed[f] = f.Value.String() })

	fileCfg, err := internal.LoadConfig(configFile)
	if err != nil {
		return err
	}
	*cfg = *fileCfg
	for f, v := range changed {
		if err := f.Value.Set(v); err != nil {
			return fmt.Errorf("--%s: %w", f.Name, err)
		}
	}
	return nil
}

func banner() {
	internal.LogPrintf("sensloss %s on %s with %d physical and %d logical cores, GOMAXPROCS %d, %d MB memory\n",
		version, cpuid.CPU.BrandName, cpuid.CPU.PhysicalCores, cpuid.CPU.LogicalCores,
		runtime.GOMAXPROCS(0), memory.TotalMemory()/1024/1024)
	if configFile != "" {
		internal.LogPrintf("Configuration from %s\n", configFile)
	}
}

// Context cancelled on interrupt
func interruptContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func globArgs(args []string) ([]string, error) {
	fileNames, err := internal.GlobFilenameWildcards(args)
	if err != nil {
		return nil, err
	}
	if len(fileNames) == 0 {
		return nil, fmt.Errorf("no input files match %v", args)
	}
	return fileNames, nil
}

// Flag for the enum types of the aperture package, parsed like their YAML form
type textValue struct {
	name string
	v    interface {
		String() string
		UnmarshalText([]byte) error
	}
}

func (t *textValue) String() string     { return t.v.String() }
func (t *textValue) Set(s string) error { return t.v.UnmarshalText([]byte(s)) }
func (t *textValue) Type() string       { return t.name }
