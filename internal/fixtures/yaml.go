package fixtures

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"ohlcKit/internal/frame"
	"ohlcKit/internal/ports"
)

// price accepts both YAML numbers and quoted decimal strings.
type price float64

func (p *price) UnmarshalYAML(value *yaml.Node) error {
	d, err := decimal.NewFromString(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: invalid price %q: %w", value.Line, value.Value, err)
	}
	*p = price(d.InexactFloat64())
	return nil
}

type yamlFixture struct {
	Name  string  `yaml:"name"`
	Start string  `yaml:"start"`
	Open  []price `yaml:"open"`
	High  []price `yaml:"high"`
	Low   []price `yaml:"low"`
	Close []price `yaml:"close"`
}

type yamlDocument struct {
	Fixtures []yamlFixture `yaml:"fixtures"`
}

// LoadYAML decodes a fixture document of the form
//
//	fixtures:
//	  - name: flat
//	    start: 2025-01-01
//	    open:  [100, 100]
//	    high:  [101, 101]
//	    low:   [99, 99]
//	    close: ["100.5", "100.5"]
//
// Rows are indexed by consecutive days from start.
func LoadYAML(r io.Reader) (map[string]Provider, error) {
	var doc yamlDocument
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return map[string]Provider{}, nil
		}
		return nil, fmt.Errorf("decode fixture yaml: %w: %w", ports.ErrMalformedData, err)
	}

	out := make(map[string]Provider, len(doc.Fixtures))
	for _, fx := range doc.Fixtures {
		p, err := fx.provider()
		if err != nil {
			return nil, fmt.Errorf("fixture %q: %w: %w", fx.Name, ports.ErrMalformedData, err)
		}
		if _, dup := out[fx.Name]; dup {
			return nil, fmt.Errorf("%w: %q declared twice", ErrDuplicateFixture, fx.Name)
		}
		out[fx.Name] = p
	}
	return out, nil
}

func (fx yamlFixture) provider() (Provider, error) {
	if fx.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	start, err := time.Parse("2006-01-02", fx.Start)
	if err != nil {
		return nil, fmt.Errorf("invalid start date %q: %w", fx.Start, err)
	}

	index := frame.DateRange(start, len(fx.Open))
	tmpl, err := frame.New(index, floats(fx.Open), floats(fx.High), floats(fx.Low), floats(fx.Close))
	if err != nil {
		return nil, err
	}
	return tmpl.Clone, nil
}

func floats(ps []price) []float64 {
	out := make([]float64, len(ps))
	for i, p := range ps {
		out[i] = float64(p)
	}
	return out
}

// LoadDir registers every fixture found in *.yaml and *.yml files under dir.
// It returns the number of fixtures registered.
func (r *Registry) LoadDir(ctx context.Context, dir string, logger ports.Logger) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read fixture directory '%s': %w", dir, err)
	}

	count := 0
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		n, err := r.loadFile(path)
		if err != nil {
			logger.Error(ctx, err, "Failed to load fixture file", map[string]interface{}{"path": path})
			return count, err
		}
		logger.Debug(ctx, "Fixture file loaded", map[string]interface{}{"path": path, "fixtures": n})
		count += n
	}
	logger.Info(ctx, "Fixture directory loaded", map[string]interface{}{"dir": dir, "fixtures": count})
	return count, nil
}

func (r *Registry) loadFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	providers, err := LoadYAML(f)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	if err := r.RegisterAll(providers); err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	return len(providers), nil
}
