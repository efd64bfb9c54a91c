package scenario

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"dronefeed/internal/model"
)

// Loader reads one scenario file format.
type Loader interface {
	Name() string
	Extensions() []string
	Load(r io.Reader) (model.Scenario, error)
}

var (
	regMu    sync.RWMutex
	registry = map[string]Loader{}
)

// Register makes l available for its extensions. Later registrations win.
func Register(l Loader) {
	regMu.Lock()
	defer regMu.Unlock()
	for _, ext := range l.Extensions() {
		registry[strings.ToLower(ext)] = l
	}
}

// LoaderFor returns the loader registered for ext (with or without the dot).
func LoaderFor(ext string) (Loader, error) {
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	regMu.RLock()
	defer regMu.RUnlock()
	l, ok := registry[ext]
	if !ok {
		return nil, fmt.Errorf("%q: %w", ext, ErrUnsupportedFormat)
	}
	return l, nil
}

// Formats lists the registered extensions.
func Formats() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	out := make([]string, 0, len(registry))
	for ext := range registry {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// Load reads path with the loader matching its extension. Files without a
// name default to their base name.
func Load(path string) (model.Scenario, error) {
	l, err := LoaderFor(filepath.Ext(path))
	if err != nil {
		return model.Scenario{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return model.Scenario{}, err
	}
	defer f.Close()
	sc, err := l.Load(f)
	if err != nil {
		return model.Scenario{}, fmt.Errorf("%s: %w", path, err)
	}
	if sc.Name == "" {
		sc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return sc, nil
}

// LoadYAML reads a structured scenario. A missing trip limit means a single
// trip, as in the text format.
func LoadYAML(r io.Reader) (model.Scenario, error) {
	var sc model.Scenario
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		return model.Scenario{}, fmt.Errorf("%v: %w", err, ErrMalformed)
	}
	applyDefaults(&sc)
	return sc, nil
}

// LoadJSON is LoadYAML for JSON input.
func LoadJSON(r io.Reader) (model.Scenario, error) {
	var sc model.Scenario
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&sc); err != nil {
		return model.Scenario{}, fmt.Errorf("%v: %w", err, ErrMalformed)
	}
	applyDefaults(&sc)
	return sc, nil
}

func applyDefaults(sc *model.Scenario) {
	if sc.MaxTrips == 0 {
		sc.MaxTrips = DefaultMaxTrips
	}
}

type funcLoader struct {
	name string
	exts []string
	fn   func(io.Reader) (model.Scenario, error)
}

func (l funcLoader) Name() string                             { return l.name }
func (l funcLoader) Extensions() []string                     { return l.exts }
func (l funcLoader) Load(r io.Reader) (model.Scenario, error) { return l.fn(r) }

func init() {
	Register(funcLoader{name: "text", exts: []string{".txt"}, fn: ParseText})
	Register(funcLoader{name: "yaml", exts: []string{".yaml", ".yml"}, fn: LoadYAML})
	Register(funcLoader{name: "json", exts: []string{".json"}, fn: LoadJSON})
}
