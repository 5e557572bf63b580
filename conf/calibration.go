// Package conf holds the calibration of the accumulators: per measured quantity,
// the histogram bucket boundaries and the number of decimals summaries are truncated to.
// Calibrations come from a nominal profile (230V/110V, 50Hz/60Hz) and can be
// overridden per quantity by an ini style calibration file.
package conf

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/grafana/configparser"
)

// NumBuckets is the fixed number of histogram buckets per quantity
const NumBuckets = 12

var (
	errNotAscending = errors.New("boundaries must be non-decreasing")
	errNoCatchAll   = errors.New("last boundary must be +Inf")
)

// Channel is the immutable calibration of one measured quantity.
// Bucket i counts values in [Boundaries[i-1], Boundaries[i]).
// The last boundary is always +Inf, so every finite value has a bucket.
type Channel struct {
	Name          string
	Boundaries    [NumBuckets]float64
	DecimalPlaces int
}

// NewChannel returns a validated channel for the given 11 finite upper bounds.
// +Inf is appended as the last boundary.
func NewChannel(name string, decimals int, bounds ...float64) (Channel, error) {
	c := Channel{
		Name:          name,
		DecimalPlaces: decimals,
	}
	if len(bounds) != NumBuckets-1 {
		return c, fmt.Errorf("%s: need %d boundaries, got %d", name, NumBuckets-1, len(bounds))
	}
	copy(c.Boundaries[:], bounds)
	c.Boundaries[NumBuckets-1] = math.Inf(1)
	return c, c.Validate()
}

func mustChannel(name string, decimals int, bounds ...float64) Channel {
	c, err := NewChannel(name, decimals, bounds...)
	if err != nil {
		panic(err)
	}
	return c
}

// Validate checks the boundary table
func (c Channel) Validate() error {
	for i, b := range c.Boundaries {
		if math.IsNaN(b) {
			return fmt.Errorf("%s: boundary %d is NaN", c.Name, i)
		}
		if i > 0 && b < c.Boundaries[i-1] {
			return fmt.Errorf("%s: %w", c.Name, errNotAscending)
		}
	}
	if !math.IsInf(c.Boundaries[NumBuckets-1], 1) {
		return fmt.Errorf("%s: %w", c.Name, errNoCatchAll)
	}
	if c.DecimalPlaces < 0 || c.DecimalPlaces > 9 {
		return fmt.Errorf("%s: decimals must be between 0 and 9, got %d", c.Name, c.DecimalPlaces)
	}
	return nil
}

// Calibration is the set of channels that make up a sample
type Calibration struct {
	Voltage       Channel
	Current       Channel
	ActivePower   Channel
	ReactivePower Channel
	PowerFactor   Channel
	Frequency     Channel
}

var (
	voltage230 = mustChannel("voltage", 1, 205, 210, 215, 220, 225, 230, 235, 240, 245, 250, 255)
	voltage110 = mustChannel("voltage", 1, 85, 90, 95, 100, 105, 110, 115, 120, 125, 130, 135)
	current    = mustChannel("current", 2, 0.05, 0.1, 0.2, 0.5, 1, 2, 5, 10, 20, 50, 100)
	power      = []float64{-10000, -3000, -1000, -300, -100, 0, 100, 300, 1000, 3000, 10000}
	powerFact  = mustChannel("power-factor", 2, -1, -0.8, -0.6, -0.4, -0.2, 0, 0.2, 0.4, 0.6, 0.8, 1.0)
	freq50     = mustChannel("frequency", 1, 49.75, 49.80, 49.85, 49.90, 49.95, 50.00, 50.05, 50.10, 50.15, 50.20, 50.25)
	freq60     = mustChannel("frequency", 1, 59.75, 59.80, 59.85, 59.90, 59.95, 60.00, 60.05, 60.10, 60.15, 60.20, 60.25)
)

// NewCalibration returns the built-in calibration for a nominal supply.
// voltage is 230 or 110, frequency is 50 or 60.
func NewCalibration(voltage, frequency int) (Calibration, error) {
	c := Calibration{
		Current:       current,
		ActivePower:   mustChannel("active-power", 1, power...),
		ReactivePower: mustChannel("reactive-power", 1, power...),
		PowerFactor:   powerFact,
	}
	switch voltage {
	case 230:
		c.Voltage = voltage230
	case 110:
		c.Voltage = voltage110
	default:
		return c, fmt.Errorf("unsupported nominal voltage %d. must be 230 or 110", voltage)
	}
	switch frequency {
	case 50:
		c.Frequency = freq50
	case 60:
		c.Frequency = freq60
	default:
		return c, fmt.Errorf("unsupported nominal frequency %d. must be 50 or 60", frequency)
	}
	return c, nil
}

// DefaultCalibration is the 230V 50Hz calibration
func DefaultCalibration() Calibration {
	c, _ := NewCalibration(230, 50)
	return c
}

func (c *Calibration) channels() []*Channel {
	return []*Channel{&c.Voltage, &c.Current, &c.ActivePower, &c.ReactivePower, &c.PowerFactor, &c.Frequency}
}

// Validate validates all channels
func (c Calibration) Validate() error {
	for _, ch := range c.channels() {
		if err := ch.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ReadCalibration overrides channels of base with the sections found in the
// given calibration file. e.g.
//
//	[voltage]
//	boundaries = 205,210,215,220,225,230,235,240,245,250,255
//	decimals = 1
//
// sections are named after the channels: voltage, current, active-power,
// reactive-power, power-factor, frequency. Both keys are optional.
func ReadCalibration(file string, base Calibration) (Calibration, error) {
	config, err := configparser.ReadFile(file)
	if err != nil {
		return base, err
	}
	_, sections, err := config.AllSections()
	if err != nil {
		return base, err
	}

	result := base
	byName := make(map[string]*Channel)
	for _, ch := range result.channels() {
		byName[ch.Name] = ch
	}

	for _, s := range sections {
		name := strings.TrimSpace(s.Name())
		ch, ok := byName[name]
		if !ok {
			return base, fmt.Errorf("[%s]: unknown channel", name)
		}
		next := *ch

		if s.Exists("boundaries") {
			str := valueOf(s, "boundaries")
			parts := strings.Split(str, ",")
			if len(parts) != NumBuckets-1 {
				return base, fmt.Errorf("[%s]: expected %d boundaries, got %d in %q", name, NumBuckets-1, len(parts), str)
			}
			for i, p := range parts {
				next.Boundaries[i], err = strconv.ParseFloat(strings.TrimSpace(p), 64)
				if err != nil {
					return base, fmt.Errorf("[%s]: failed to parse boundary %q: %s", name, p, err.Error())
				}
			}
		}
		if s.Exists("decimals") {
			str := valueOf(s, "decimals")
			next.DecimalPlaces, err = strconv.Atoi(str)
			if err != nil {
				return base, fmt.Errorf("[%s]: failed to parse decimals %q: %s", name, str, err.Error())
			}
		}
		if err := next.Validate(); err != nil {
			return base, fmt.Errorf("[%s]: %s", name, err.Error())
		}
		*ch = next
	}

	return result, nil
}

// valueOf returns the value of key with both '#' and ';' inline comments removed
func valueOf(s *configparser.Section, key string) string {
	v := s.ValueOfWithoutComments(key)
	if i := strings.IndexByte(v, ';'); i >= 0 {
		v = v[:i]
	}
	return strings.TrimSpace(v)
}
