package probe

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"sitegate/internal/report"
)

// Spec declares one check in a matrix definition. Which fields matter
// depends on Kind.
type Spec struct {
	Name     string          `yaml:"name" json:"name"`
	Kind     string          `yaml:"kind" json:"kind"`
	Category string          `yaml:"category,omitempty" json:"category,omitempty"`
	Priority report.Priority `yaml:"priority,omitempty" json:"priority,omitempty"`
	Viewport *Viewport       `yaml:"viewport,omitempty" json:"viewport,omitempty"`

	// Element is the target id for navigate and presence checks.
	Element string `yaml:"element,omitempty" json:"element,omitempty"`
	// Expect is the URL fragment a navigate check waits for.
	Expect string `yaml:"expect,omitempty" json:"expect,omitempty"`
	// Elements lists ids that must all be present (form-structure) or
	// visible (visibility).
	Elements []string `yaml:"elements,omitempty" json:"elements,omitempty"`

	// Form flows.
	Fields  []Field       `yaml:"fields,omitempty" json:"fields,omitempty"`
	Submit  string        `yaml:"submit,omitempty" json:"submit,omitempty"`
	Success string        `yaml:"success,omitempty" json:"success,omitempty"`
	Wait    time.Duration `yaml:"wait,omitempty" json:"wait,omitempty"`

	// Tolerance is the allowed horizontal overflow in pixels.
	Tolerance *int `yaml:"tolerance,omitempty" json:"tolerance,omitempty"`
}

// Field is a form input value. The literal {{timestamp}} in Value is
// replaced with the current unix time when the check runs.
type Field struct {
	ID    string `yaml:"id" json:"id"`
	Value string `yaml:"value" json:"value"`
}

// Factory builds a check from its spec.
type Factory func(spec Spec, t Timing) (Check, error)

type KindInfo struct {
	Name        string
	Description string
	factory     Factory
}

var (
	kinds   = make(map[string]KindInfo)
	kindsMu sync.RWMutex
)

// RegisterKind makes a check kind available to matrix definitions.
func RegisterKind(name, description string, f Factory) {
	kindsMu.Lock()
	defer kindsMu.Unlock()
	if _, exists := kinds[name]; exists {
		panic(fmt.Sprintf("check kind %s already registered", name))
	}
	kinds[name] = KindInfo{Name: name, Description: description, factory: f}
}

// Kinds lists registered check kinds sorted by name.
func Kinds() []KindInfo {
	kindsMu.RLock()
	defer kindsMu.RUnlock()
	out := make([]KindInfo, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}

// LookupKind returns the registered kind with the given name.
func LookupKind(name string) (KindInfo, bool) {
	kindsMu.RLock()
	defer kindsMu.RUnlock()
	k, ok := kinds[name]
	return k, ok
}

// Build constructs the check described by spec.
func Build(spec Spec, t Timing) (Check, error) {
	if spec.Name == "" {
		return nil, fmt.Errorf("check of kind %q has no name", spec.Kind)
	}
	k, ok := LookupKind(spec.Kind)
	if !ok {
		return nil, fmt.Errorf("check %s: unknown kind %q", spec.Name, spec.Kind)
	}
	if spec.Priority != "" && spec.Priority != report.PriorityBlocking && spec.Priority != report.PriorityAdvisory {
		return nil, fmt.Errorf("check %s: unsupported priority %q (must be one of: P0, P1)", spec.Name, spec.Priority)
	}
	c, err := k.factory(spec, t)
	if err != nil {
		return nil, fmt.Errorf("check %s: %w", spec.Name, err)
	}
	return c, nil
}

// BuildAll constructs checks in order and rejects duplicate names.
func BuildAll(specs []Spec, t Timing) ([]Check, error) {
	seen := make(map[string]struct{}, len(specs))
	out := make([]Check, 0, len(specs))
	for _, s := range specs {
		if _, dup := seen[s.Name]; dup {
			return nil, fmt.Errorf("duplicate check name %q", s.Name)
		}
		seen[s.Name] = struct{}{}
		c, err := Build(s, t)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
