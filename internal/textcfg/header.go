package textcfg

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/signalsfoundry/corrvis/internal/logging"
	"github.com/signalsfoundry/corrvis/model"
)

// Header defaults applied before the file is read.
const (
	DefaultPolProducts = "XXYYXYYX"
	DefaultTelescope   = "MWA"
	DefaultInstrument  = "128T"
)

// NewHeader returns a header holding the defaults.
func NewHeader() *model.Header {
	return &model.Header{
		Telescope:    DefaultTelescope,
		Instrument:   DefaultInstrument,
		Mode:         model.CorrCross,
		GeomCorrect:  true,
		HAHoursStart: model.UnsetCoordinate,
		RAHours:      model.UnsetCoordinate,
		PolProducts:  DefaultPolProducts,
	}
}

// ParseHeader reads "KEYWORD value" lines. Unknown keywords are logged and
// skipped.
func ParseHeader(ctx context.Context, r io.Reader, file string) (*model.Header, error) {
	log := logging.LoggerFromContext(ctx)
	h := NewHeader()

	err := eachLine(r, file, func(f []string) error {
		key := strings.ToUpper(f[0])
		if len(f) < 2 {
			return fmt.Errorf("keyword %s has no value", key)
		}
		val := f[1]

		var err error
		switch key {
		case "FIELDNAME":
			h.FieldName = strings.Join(f[1:], " ")
		case "TELESCOPE":
			h.Telescope = val
		case "INSTRUMENT":
			h.Instrument = val
		case "N_SCANS":
			h.NScans, err = strconv.Atoi(val)
		case "N_INPUTS":
			h.NInputs, err = strconv.Atoi(val)
		case "N_CHANS":
			h.NChans, err = strconv.Atoi(val)
		case "CORRTYPE":
			h.Mode, err = model.ParseCorrelationMode(val)
		case "INT_TIME":
			h.IntTimeS, err = parseFloat(val)
		case "FREQCENT":
			h.CentFreqMHz, err = parseFloat(val)
		case "BANDWIDTH":
			h.BandwidthMHz, err = parseFloat(val)
		case "HA_HRS":
			h.HAHoursStart, err = parseFloat(val)
		case "RA_HRS":
			h.RAHours, err = parseFloat(val)
		case "DEC_DEGS":
			h.DecDegrees, err = parseFloat(val)
		case "DATE":
			h.Year, h.Month, h.Day, err = parseDate(val)
		case "TIME":
			h.RefHour, h.RefMinute, h.RefSecond, err = parseTime(val)
		case "INVERT_FREQ":
			h.InvertFreq, err = parseFlag(val)
		case "CONJUGATE":
			h.Conjugate, err = parseFlag(val)
		case "GEOM_CORRECT":
			h.GeomCorrect, err = parseFlag(val)
		case "POL_PRODUCTS":
			h.PolProducts = val
		default:
			log.Warn(ctx, "unknown header keyword", logging.String("keyword", key), logging.String("file", file))
		}
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return h, nil
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

func parseFlag(s string) (bool, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return false, err
	}
	return n != 0, nil
}

// parseDate accepts YYYYMMDD.
func parseDate(s string) (year, month, day int, err error) {
	if len(s) != 8 {
		return 0, 0, 0, fmt.Errorf("date %q is not YYYYMMDD", s)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, 0, 0, err
	}
	year, month, day = n/10000, (n/100)%100, n%100
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return 0, 0, 0, fmt.Errorf("date %q out of range", s)
	}
	return year, month, day, nil
}

// parseTime accepts HHMMSS with optional fractional seconds.
func parseTime(s string) (hour, minute int, second float64, err error) {
	if len(s) < 6 {
		return 0, 0, 0, fmt.Errorf("time %q is not HHMMSS", s)
	}
	if hour, err = strconv.Atoi(s[0:2]); err != nil {
		return 0, 0, 0, err
	}
	if minute, err = strconv.Atoi(s[2:4]); err != nil {
		return 0, 0, 0, err
	}
	if second, err = strconv.ParseFloat(s[4:], 64); err != nil {
		return 0, 0, 0, err
	}
	if hour > 23 || minute > 59 || second >= 61 {
		return 0, 0, 0, fmt.Errorf("time %q out of range", s)
	}
	return hour, minute, second, nil
}
