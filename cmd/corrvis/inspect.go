package main

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/corrvis/internal/visout"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect DIR",
	Short: "Summarise a converted run",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	inspectCmd.Flags().Bool("frames", false, "also list every scan frame")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	dir := args[0]
	m, err := visout.ReadManifest(dir)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "field:      %s (%s/%s)\n", m.Field, m.Telescope, m.Instrument)
	fmt.Fprintf(out, "run:        %s\n", m.RunID)
	fmt.Fprintf(out, "pointing:   RA %.6fh Dec %.4f°\n", m.Pointing.RAHours, m.Pointing.DecDegrees)
	fmt.Fprintf(out, "spectral:   %d chans, centre %.3f MHz, width %.3f kHz\n",
		m.Spectral.Channels, m.Spectral.CentFreqHz/1e6, m.Spectral.FreqDeltaHz/1e3)
	fmt.Fprintf(out, "pols:       %s (type %d)\n", m.Pol.Products, m.Pol.Type)
	fmt.Fprintf(out, "baselines:  %d over %d antennas\n", len(m.Slots), len(m.Antennas))
	fmt.Fprintf(out, "scans:      %d written, %d expected\n", m.ScansWritten, m.ScansExpected)

	if frames, _ := cmd.Flags().GetBool("frames"); !frames {
		return nil
	}

	r, err := visout.OpenFrames(dir)
	if err != nil {
		return err
	}
	defer r.Close()
	for {
		f, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "scan %4d  jd %.6f  offset %.8f  peak |vis| %.4g\n", f.Scan, f.JD, f.OffsetDays, peakAmplitude(f.Vis))
	}
}

func peakAmplitude(vis []float32) float64 {
	peak := 0.0
	for i := 0; i+1 < len(vis); i += 2 {
		peak = math.Max(peak, math.Hypot(float64(vis[i]), float64(vis[i+1])))
	}
	return peak
}
