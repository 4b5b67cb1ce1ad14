// Package settings provides the flat key->string settings map the core
// consumes (spec §6), with typed accessors for the quantities planning
// code actually needs: lengths in micrometres, velocities, accelerations,
// temperatures, durations, ratios and layer indices.
package settings

import (
	"strconv"

	pathplan "github.com/aligator/goslice-pathplan"
	"github.com/aligator/goslice-pathplan/geom"
)

// Settings is a per-extruder flat settings map, as produced by whatever
// configuration/CLI layer sits in front of the core (out of scope here;
// see spec §1, §6).
type Settings map[string]string

// Get returns the raw string value for key, and whether it was present.
func (s Settings) Get(key string) (string, bool) {
	v, ok := s[key]
	return v, ok
}

// Micrometers parses key as an integer micrometre length. Returns 0 if
// the key is absent.
func (s Settings) Micrometers(key string) (geom.Micrometer, error) {
	v, ok := s[key]
	if !ok {
		return 0, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, pathplan.WrapError(pathplan.Unsupported, err, "setting %q is not an integer length", key)
	}
	return geom.Micrometer(n), nil
}

// Velocity parses key as millimetres/second. Returns 0 if absent.
func (s Settings) Velocity(key string) (float64, error) {
	return s.float(key)
}

// Acceleration parses key as mm/s^2. Returns 0 if absent.
func (s Settings) Acceleration(key string) (float64, error) {
	return s.float(key)
}

// Temperature parses key as degrees Celsius. Returns 0 if absent.
func (s Settings) Temperature(key string) (float64, error) {
	return s.float(key)
}

// Ratio parses key as a dimensionless ratio (e.g. a flow percentage
// expressed as a fraction). Returns 0 if absent.
func (s Settings) Ratio(key string) (float64, error) {
	return s.float(key)
}

// Duration parses key as a number of seconds. Returns 0 if absent.
func (s Settings) Duration(key string) (float64, error) {
	return s.float(key)
}

// LayerIndex parses key as a (possibly negative, for raft layers) layer
// index. Returns 0 if absent.
func (s Settings) LayerIndex(key string) (int, error) {
	v, ok := s[key]
	if !ok {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, pathplan.WrapError(pathplan.Unsupported, err, "setting %q is not a layer index", key)
	}
	return n, nil
}

// Bool parses key as a boolean. Returns false if absent.
func (s Settings) Bool(key string) (bool, error) {
	v, ok := s[key]
	if !ok {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, pathplan.WrapError(pathplan.Unsupported, err, "setting %q is not a boolean", key)
	}
	return b, nil
}

// Enum validates that key's value (if present) is one of allowed, and
// returns it, or the zero value if absent.
func (s Settings) Enum(key string, allowed ...string) (string, error) {
	v, ok := s[key]
	if !ok {
		return "", nil
	}
	for _, a := range allowed {
		if v == a {
			return v, nil
		}
	}
	return "", pathplan.NewError(pathplan.Unsupported, "setting %q has value %q, not one of %v", key, v, allowed)
}

func (s Settings) float(key string) (float64, error) {
	v, ok := s[key]
	if !ok {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, pathplan.WrapError(pathplan.Unsupported, err, "setting %q is not a number", key)
	}
	return f, nil
}
