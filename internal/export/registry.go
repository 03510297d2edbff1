// Package export publishes named numeric outputs through an explicit registry.
package export

import (
	"fmt"
	"math"

	"github.com/KaramelBytes/vma-cli/internal/utils"
)

// Getter produces one named output, keyed by category.
type Getter func() (map[string]float64, error)

// Exportable is a registered output.
type Exportable struct {
	Key string
	Get Getter
}

// Registry keeps exportables in registration order.
type Registry struct {
	entries []Exportable
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry { return &Registry{} }

// Register adds or replaces the getter for key.
func (r *Registry) Register(key string, get Getter) {
	for i := range r.entries {
		if r.entries[i].Key == key {
			r.entries[i].Get = get
			return
		}
	}
	r.entries = append(r.entries, Exportable{Key: key, Get: get})
}

// Keys returns the registered keys in order.
func (r *Registry) Keys() []string {
	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.Key
	}
	return out
}

// Export evaluates every getter. NaN becomes 0 so consumers always receive numbers.
func (r *Registry) Export() (map[string]map[string]float64, error) {
	out := make(map[string]map[string]float64, len(r.entries))
	for _, e := range r.entries {
		vals, err := e.Get()
		if err != nil {
			return nil, fmt.Errorf("export %s: %w", e.Key, err)
		}
		out[e.Key] = CleanNaN(vals)
	}
	return out, nil
}

// JSON renders Export as indented JSON with infinities written as strings.
func (r *Registry) JSON() ([]byte, error) {
	vals, err := r.Export()
	if err != nil {
		return nil, err
	}
	doc := make(map[string]map[string]any, len(vals))
	for k, m := range vals {
		inner := make(map[string]any, len(m))
		for kk, v := range m {
			switch {
			case math.IsInf(v, 1):
				inner[kk] = "+Inf"
			case math.IsInf(v, -1):
				inner[kk] = "-Inf"
			default:
				inner[kk] = v
			}
		}
		doc[k] = inner
	}
	return utils.PrettyJSON(doc)
}

// CleanNaN returns a copy of m with NaN values replaced by 0.
func CleanNaN(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		if math.IsNaN(v) {
			v = 0
		}
		out[k] = v
	}
	return out
}
