// Package config holds the runtime configuration of a conversion run.
// Values come from an optional YAML file, CORRVIS_* environment variables
// and command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/signalsfoundry/corrvis/internal/logging"
	"github.com/signalsfoundry/corrvis/internal/observability"
	"github.com/signalsfoundry/corrvis/model"
)

// EnvPrefix is the prefix of environment overrides, e.g. CORRVIS_OUTPUT.
const EnvPrefix = "CORRVIS"

// Murchison Widefield Array site.
const (
	DefaultLongitudeDeg = 116.67081
	DefaultLatitudeDeg  = -26.703319
	DefaultHeightM      = 377.0
)

// ArrayConfig locates the array centre.
type ArrayConfig struct {
	LongitudeDeg float64 `mapstructure:"longitude_deg"`
	LatitudeDeg  float64 `mapstructure:"latitude_deg"`
	HeightM      float64 `mapstructure:"height_m"`
}

// TracingConfig is the tracing section, e.g. CORRVIS_TRACING_EXPORTER.
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	ServiceName string  `mapstructure:"service_name"`
	Exporter    string  `mapstructure:"exporter"`
	Endpoint    string  `mapstructure:"endpoint"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

// Config holds all runtime configuration for a run.
type Config struct {
	AutoFile       string      `mapstructure:"auto_file"`
	CrossFile      string      `mapstructure:"cross_file"`
	AntennaFile    string      `mapstructure:"antenna_file"`
	InstrumentFile string      `mapstructure:"instrument_file"`
	HeaderFile     string      `mapstructure:"header_file"`
	OutputDir      string      `mapstructure:"output"`
	Array          ArrayConfig `mapstructure:"array"`
	LockPointing   bool        `mapstructure:"lock_pointing"`
	Debug          bool        `mapstructure:"debug"`
	MetricsAddr    string      `mapstructure:"metrics_addr"`
	LogLevel       string      `mapstructure:"log_level"`
	LogFormat      string      `mapstructure:"log_format"`

	Tracing TracingConfig `mapstructure:"tracing"`
}

// SetDefaults registers the built-in defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("antenna_file", "antenna_locations.txt")
	v.SetDefault("instrument_file", "instr_config.txt")
	v.SetDefault("header_file", "header.txt")
	v.SetDefault("array.longitude_deg", DefaultLongitudeDeg)
	v.SetDefault("array.latitude_deg", DefaultLatitudeDeg)
	v.SetDefault("array.height_m", DefaultHeightM)
	v.SetDefault("lock_pointing", false)
	v.SetDefault("debug", false)
	v.SetDefault("metrics_addr", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", observability.DefaultServiceName)
	v.SetDefault("tracing.exporter", observability.ExporterStdout)
	v.SetDefault("tracing.endpoint", observability.DefaultOTLPEndpoint)
	v.SetDefault("tracing.sample_ratio", 1.0)
}

// Load reads configuration from v, applying defaults for any values not
// set by config file, environment or flags. A nil v uses the global viper.
func Load(v *viper.Viper) (Config, error) {
	if v == nil {
		v = viper.GetViper()
	}
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// Validate checks that a run can start.
func (c Config) Validate() error {
	var errs []error
	if c.OutputDir == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if c.AutoFile == "" && c.CrossFile == "" {
		errs = append(errs, errors.New("at least one of the auto or cross correlation files is required"))
	}
	if c.Array.LatitudeDeg < -90 || c.Array.LatitudeDeg > 90 {
		errs = append(errs, fmt.Errorf("array latitude %v out of range", c.Array.LatitudeDeg))
	}
	if c.Tracing.Enabled {
		switch name := c.TracingOptions().ExporterName(); name {
		case observability.ExporterStdout, observability.ExporterOTLP:
		default:
			errs = append(errs, fmt.Errorf("tracing exporter %q is not stdout or otlp", name))
		}
	}
	if r := c.Tracing.SampleRatio; r < 0 || r > 1 {
		errs = append(errs, fmt.Errorf("tracing sample ratio %v outside [0, 1]", r))
	}
	return errors.Join(errs...)
}

// Site returns the array centre in radians.
func (c Config) Site() model.Site {
	return model.Site{
		LongitudeRad: c.Array.LongitudeDeg * math.Pi / 180,
		LatitudeRad:  c.Array.LatitudeDeg * math.Pi / 180,
		HeightM:      c.Array.HeightM,
	}
}

// Logging returns the logger configuration. Debug forces debug level.
func (c Config) Logging() logging.Config {
	level := c.LogLevel
	if c.Debug {
		level = "debug"
	}
	return logging.Config{Level: level, Format: c.LogFormat}
}

// TracingOptions converts the tracing section for observability.InitTracing.
func (c Config) TracingOptions() observability.TracingConfig {
	return observability.TracingConfig{
		Enabled:     c.Tracing.Enabled,
		ServiceName: c.Tracing.ServiceName,
		Exporter:    c.Tracing.Exporter,
		Endpoint:    c.Tracing.Endpoint,
		SampleRatio: c.Tracing.SampleRatio,
	}
}

// ParseLonLat parses "lon,lat" in degrees.
func ParseLonLat(s string) (lon, lat float64, err error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("array position %q is not lon,lat", s)
	}
	if lon, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64); err != nil {
		return 0, 0, fmt.Errorf("array longitude: %w", err)
	}
	if lat, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64); err != nil {
		return 0, 0, fmt.Errorf("array latitude: %w", err)
	}
	return lon, lat, nil
}
