// Package scenario reads problem instances and writes submissions.
package scenario

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"dronefeed/internal/model"
)

const (
	DefaultCruiseAltitude = 50.0
	DefaultMaxTrips       = 1
)

var tuplePattern = regexp.MustCompile(`\(([^()]*)\)`)

// ParseText reads the line format used by the competition files:
//
//	ZOO DIMENSIONS: (x,y,z)
//	DRONE DEPOT: (x,y,z)
//	BATTERY DISTANCE CAPACITY: (n)
//	FOOD STORAGES COORDINATES: [(x,y,z,diet),...]
//	ENCLOSURES: [(x,y,z,diet,importance),...]
//	DEADZONES: [(x,y,r),...]
//
// The drone cruises at the zoo's height (the z of ZOO DIMENSIONS), or at
// DefaultCruiseAltitude when that is missing or zero. CRUISE ALTITUDE and
// MAX TRIPS lines are optional; CRUISE ALTITUDE overrides the zoo height
// wherever it appears. Unknown headers are ignored.
func ParseText(r io.Reader) (model.Scenario, error) {
	sc := model.Scenario{CruiseAltitude: DefaultCruiseAltitude, MaxTrips: DefaultMaxTrips}
	var haveDepot, haveBudget, haveAltitude bool

	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for s.Scan() {
		line++
		text := strings.TrimSpace(s.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		header, body, ok := strings.Cut(text, ":")
		if !ok {
			return model.Scenario{}, fmt.Errorf("line %d: missing ':': %w", line, ErrMalformed)
		}
		tuples, err := parseTuples(body)
		if err != nil {
			return model.Scenario{}, fmt.Errorf("line %d: %v: %w", line, err, ErrMalformed)
		}
		lineErr := func(format string, args ...any) error {
			return fmt.Errorf("line %d: %s: %w", line, fmt.Sprintf(format, args...), ErrMalformed)
		}

		switch strings.ToUpper(strings.TrimSpace(header)) {
		case "ZOO DIMENSIONS":
			p, err := point(tuples, 0)
			if err != nil {
				return model.Scenario{}, lineErr("%v", err)
			}
			sc.Bounds = p
			if p.Z > 0 && !haveAltitude {
				sc.CruiseAltitude = p.Z
			}
		case "DRONE DEPOT":
			p, err := point(tuples, 0)
			if err != nil {
				return model.Scenario{}, lineErr("%v", err)
			}
			sc.Depot, haveDepot = p, true
		case "BATTERY DISTANCE CAPACITY":
			v, err := scalar(tuples)
			if err != nil {
				return model.Scenario{}, lineErr("%v", err)
			}
			sc.RangeBudget, haveBudget = v, true
		case "CRUISE ALTITUDE":
			v, err := scalar(tuples)
			if err != nil {
				return model.Scenario{}, lineErr("%v", err)
			}
			sc.CruiseAltitude, haveAltitude = v, true
		case "MAX TRIPS":
			v, err := scalar(tuples)
			if err != nil {
				return model.Scenario{}, lineErr("%v", err)
			}
			sc.MaxTrips = int(v)
		case "FOOD STORAGES COORDINATES":
			for i, t := range tuples {
				if len(t) != 4 {
					return model.Scenario{}, lineErr("storage %d: want (x,y,z,diet), got %d fields", i, len(t))
				}
				p, err := point(tuples, i)
				if err != nil {
					return model.Scenario{}, lineErr("storage %d: %v", i, err)
				}
				d, err := model.ParseDiet(t[3])
				if err != nil {
					return model.Scenario{}, lineErr("storage %d: %v", i, err)
				}
				sc.Sources = append(sc.Sources, model.SupplySource{Pos: p, Diet: d})
			}
		case "ENCLOSURES":
			for i, t := range tuples {
				if len(t) != 5 {
					return model.Scenario{}, lineErr("enclosure %d: want (x,y,z,diet,importance), got %d fields", i, len(t))
				}
				p, err := point(tuples, i)
				if err != nil {
					return model.Scenario{}, lineErr("enclosure %d: %v", i, err)
				}
				d, err := model.ParseDiet(t[3])
				if err != nil {
					return model.Scenario{}, lineErr("enclosure %d: %v", i, err)
				}
				imp, err := strconv.ParseFloat(t[4], 64)
				if err != nil {
					return model.Scenario{}, lineErr("enclosure %d: importance %q", i, t[4])
				}
				sc.Targets = append(sc.Targets, model.DeliveryTarget{Pos: p, Diet: d, Importance: imp})
			}
		case "DEADZONES":
			for i, t := range tuples {
				v, err := floats(t, 3)
				if err != nil {
					return model.Scenario{}, lineErr("deadzone %d: %v", i, err)
				}
				sc.Zones = append(sc.Zones, model.ExclusionZone{X: v[0], Y: v[1], Radius: v[2]})
			}
		}
	}
	if err := s.Err(); err != nil {
		return model.Scenario{}, err
	}
	if !haveDepot {
		return model.Scenario{}, fmt.Errorf("missing DRONE DEPOT: %w", ErrMalformed)
	}
	if !haveBudget {
		return model.Scenario{}, fmt.Errorf("missing BATTERY DISTANCE CAPACITY: %w", ErrMalformed)
	}
	return sc, nil
}

// parseTuples splits every (a,b,...) group in s into trimmed fields.
func parseTuples(s string) ([][]string, error) {
	if strings.Count(s, "(") != strings.Count(s, ")") {
		return nil, fmt.Errorf("unbalanced parentheses")
	}
	var out [][]string
	for _, m := range tuplePattern.FindAllStringSubmatch(s, -1) {
		fields := strings.Split(m[1], ",")
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}
		out = append(out, fields)
	}
	return out, nil
}

func floats(fields []string, n int) ([]float64, error) {
	if len(fields) < n {
		return nil, fmt.Errorf("want %d numbers, got %d fields", n, len(fields))
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return nil, fmt.Errorf("field %d: %q is not a number", i+1, fields[i])
		}
		out[i] = v
	}
	return out, nil
}

func point(tuples [][]string, i int) (model.Point3, error) {
	if i >= len(tuples) {
		return model.Point3{}, fmt.Errorf("missing (x,y,z)")
	}
	v, err := floats(tuples[i], 3)
	if err != nil {
		return model.Point3{}, err
	}
	return model.Pt(v[0], v[1], v[2]), nil
}

func scalar(tuples [][]string) (float64, error) {
	if len(tuples) == 0 {
		return 0, fmt.Errorf("missing (n)")
	}
	v, err := floats(tuples[0], 1)
	if err != nil {
		return 0, err
	}
	return v[0], nil
}
