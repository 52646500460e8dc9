package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/signalsfoundry/corrvis/internal/config"
	"github.com/signalsfoundry/corrvis/internal/logging"
	"github.com/signalsfoundry/corrvis/internal/observability"
	"github.com/signalsfoundry/corrvis/internal/runner"
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert correlator streams into visibility scans",
	Example: `  corrvis convert -c cc.dat -a ac.dat -o out/
  corrvis convert -c cc.dat -o out/ -H header.txt -I instr_config.txt -S antenna_locations.txt -A 116.67,-26.70`,
	RunE: runConvert,
}

func init() {
	f := convertCmd.Flags()
	f.StringP("auto", "a", "", "auto-correlation data file")
	f.StringP("cross", "c", "", "cross-correlation data file")
	f.StringP("output", "o", "", "output directory")
	f.StringP("antennas", "S", "", "antenna locations file (default antenna_locations.txt)")
	f.StringP("instrument", "I", "", "instrument config file (default instr_config.txt)")
	f.StringP("header", "H", "", "observation header file (default header.txt)")
	f.StringP("array", "A", "", "array centre as lon,lat in degrees (default MWA)")
	f.BoolP("lock-pointing", "l", false, "lock phase centre to the starting hour angle")
	f.String("metrics-addr", "", "serve Prometheus /metrics on this address while converting")
	f.Bool("trace", false, "export run and scan spans")
	f.String("trace-exporter", "stdout", "span exporter: stdout or otlp")
	f.String("trace-endpoint", "", "OTLP gRPC collector host:port")

	bind := map[string]string{
		"auto_file":        "auto",
		"cross_file":       "cross",
		"output":           "output",
		"antenna_file":     "antennas",
		"instrument_file":  "instrument",
		"header_file":      "header",
		"lock_pointing":    "lock-pointing",
		"metrics_addr":     "metrics-addr",
		"tracing.enabled":  "trace",
		"tracing.exporter": "trace-exporter",
		"tracing.endpoint": "trace-endpoint",
	}
	for key, flag := range bind {
		_ = viper.BindPFlag(key, f.Lookup(flag))
	}

	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(nil)
	if err != nil {
		return err
	}
	if pos, _ := cmd.Flags().GetString("array"); pos != "" {
		lon, lat, err := config.ParseLonLat(pos)
		if err != nil {
			return err
		}
		cfg.Array.LongitudeDeg, cfg.Array.LatitudeDeg = lon, lat
	}

	log := logging.New(cfg.Logging())
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	if err := cfg.Validate(); err != nil {
		return err
	}
	shutdown, err := observability.InitTracing(ctx, cfg.TracingOptions(), log)
	if err != nil {
		return err
	}
	defer shutdown.Close(context.Background(), log)

	res, err := runner.New(cfg, runner.WithLogger(log)).Run(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "converted %d scans into %s (run %s)\n", res.ScansRead, res.OutputDir, res.RunID)
	return nil
}
