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

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hoxca/sensloss/internal"
)

func newStdMapCmd() *cobra.Command {
	p := &cfg.StdMap
	var infinity bool
	cmd := &cobra.Command{
		Use:   "stdmap [files...]",
		Short: "Compute a noise map per RDI subtraction file",
		Long: "Replaces every pixel by the standard deviation over an annulus (L, 2L] around it,\n" +
			"where L is lambda/D in pixels, or over the disk d<L with --infinity.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if infinity {
				inf := internal.InfinityStdMapParams()
				p.Aperture, p.Inner, p.Outer = inf.Aperture, inf.Inner, inf.Outer
				if !cmd.Flags().Changed("bounds") {
					p.Bounds = inf.Bounds
				}
			}
			fileNames, err := globArgs(args)
			if err != nil {
				return err
			}
			ctx, cancel := interruptContext()
			defer cancel()
			_, err = internal.CmdStdMap(ctx, fileNames, &cfg.Science, p)
			return err
		},
	}
	f := cmd.Flags()
	f.StringVar(&p.OutDir, "out", p.OutDir, "output `folder`, default next to the input")
	f.StringVar(&p.Suffix, "suffix", p.Suffix, "appended to the input base name")
	f.BoolVar(&infinity, "infinity", false, "use the disk d<L instead of the annulus")
	f.Var(&textValue{"kind", &p.Aperture}, "aperture", "aperture shape: annulus or disk")
	f.Float64Var(&p.Inner, "inner", p.Inner, "inner radius in units of lambda/D")
	f.Float64Var(&p.Outer, "outer", p.Outer, "outer radius in units of lambda/D")
	f.Var(&textValue{"bounds", &p.Bounds}, "bounds", "radius convention: closed (d<=r) or open (d<r)")
	f.Var(&textValue{"statistic", &p.Statistic}, "statistic", "std or mean")
	f.Int64Var(&p.Memory, "memory", p.Memory, "`MB` for images in flight, 0 for 70% of physical memory")
	f.StringVar(&p.Preview, "preview", p.Preview, "write a PNG preview with this colormap")
	return cmd
}

func newMagLossCmd() *cobra.Command {
	p := &cfg.MagLoss
	cmd := &cobra.Command{
		Use:   "magloss [noise maps...]",
		Short: "Convert noise maps into contrast images and magnitude loss against a control",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fileNames, err := globArgs(args)
			if err != nil {
				return err
			}
			return internal.CmdMagLoss(fileNames, &cfg.Science, p)
		},
	}
	f := cmd.Flags()
	f.StringVar(&p.Control, "control", p.Control, "noise map of the control scenario")
	f.StringVar(&p.CIDir, "ci-dir", p.CIDir, "`folder` for contrast images, empty to skip them")
	f.StringVar(&p.LossDir, "loss-dir", p.LossDir, "`folder` for magnitude loss images, default next to the input")
	f.StringVar(&p.CISuffix, "ci-suffix", p.CISuffix, "contrast image name suffix")
	f.StringVar(&p.LossSuffix, "loss-suffix", p.LossSuffix, "magnitude loss image name suffix")
	return cmd
}

func newLossTableCmd() *cobra.Command {
	p := &cfg.Loss
	cmd := &cobra.Command{
		Use:   "losstable folder",
		Short: "Tabulate total and local loss of all scenario files in a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := internal.CmdLossTable(args[0], &cfg.Science, p)
			return err
		},
	}
	addLossFlags(cmd, p)
	cmd.Flags().StringVar(&p.Output, "output", p.Output, "report `file`")
	cmd.Flags().StringVar(&p.Layout, "layout", p.Layout, "table layout: magnitude, angle or auto")
	return cmd
}

func newLocalLossCmd() *cobra.Command {
	p := &cfg.Loss
	var sep, angle float64
	cmd := &cobra.Command{
		Use:   "localloss [files...]",
		Short: "Print total and local loss of files for one companion location",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fileNames, err := globArgs(args)
			if err != nil {
				return err
			}
			_, err = internal.CmdLocalLoss(fileNames, sep, angle, &cfg.Science, p)
			return err
		},
	}
	addLossFlags(cmd, p)
	cmd.Flags().Float64Var(&sep, "sep", 0, "companion separation in arcseconds")
	cmd.Flags().Float64Var(&angle, "angle", 0, "companion position angle in degrees")
	return cmd
}

func addLossFlags(cmd *cobra.Command, p *internal.LossParams) {
	cmd.Flags().StringVar(&p.Table, "table", p.Table, "YAML companion location `file`, default built in")
}

func newStackDivCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stackdiv folderA folderB out.fits",
		Short: "Sum the FITS files of each folder and divide the first sum by the second",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return internal.CmdStackDivide(args[0], args[1], args[2])
		},
	}
}

func newTrimCmd() *cobra.Command {
	var top, bottom, left, right int
	cmd := &cobra.Command{
		Use:   "trim in.fits out.fits",
		Short: "Remove border rows and columns",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return internal.CmdTrim(args[0], args[1], top, bottom, left, right)
		},
	}
	cmd.Flags().IntVar(&top, "top", 0, "rows to remove at the start")
	cmd.Flags().IntVar(&bottom, "bottom", 0, "rows to remove at the end")
	cmd.Flags().IntVar(&left, "left", 0, "columns to remove at the start")
	cmd.Flags().IntVar(&right, "right", 0, "columns to remove at the end")
	return cmd
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats [files...]",
		Short: "Print dimensions and basic statistics of FITS files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fileNames, err := globArgs(args)
			if err != nil {
				return err
			}
			if n := internal.CmdStats(fileNames); n > 0 {
				return fmt.Errorf("%d of %d files could not be read", n, len(fileNames))
			}
			return nil
		},
	}
}

func newFramesCmd() *cobra.Command {
	var pattern string
	cmd := &cobra.Command{
		Use:   "frames cube.fits",
		Short: "Write each frame of a cube into its own file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := internal.CmdFrames(args[0], pattern)
			return err
		},
	}
	cmd.Flags().StringVar(&pattern, "pattern", "frame%03d.fits", "output file name pattern for the frame index")
	return cmd
}

func newPreviewCmd() *cobra.Command {
	p := internal.DefaultPreviewParams()
	cmd := &cobra.Command{
		Use:   "preview in.fits out.png",
		Short: "Render a FITS frame to PNG with a colormap",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return internal.CmdPreview(args[0], args[1], &p)
		},
	}
	cmd.Flags().StringVar(&p.Colormap, "colormap", p.Colormap, "viridis, magma or gray")
	cmd.Flags().IntVar(&p.Frame, "frame", p.Frame, "frame index")
	cmd.Flags().Float64Var(&p.Low, "low", p.Low, "value for the first color, default the smallest finite value")
	cmd.Flags().Float64Var(&p.High, "high", p.High, "value for the last color, default the largest finite value")
	return cmd
}

func newServeCmd() *cobra.Command {
	p := &cfg.Serve
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the aperture and loss API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return internal.CmdServe(&cfg.Science, &cfg.Loss, p)
		},
	}
	cmd.Flags().IntVar(&p.Port, "port", p.Port, "HTTP port")
	cmd.Flags().StringVar(&p.Dir, "dir", p.Dir, "data `folder`")
	addLossFlags(cmd, &cfg.Loss)
	return cmd
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config out.yaml",
		Short: "Write the effective configuration as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cfg.WriteFile(args[0])
		},
	}
}
