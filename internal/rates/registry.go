package rates

import "fmt"

// Builder constructs a rate expression from its parameter description, as
// read from a mechanism file.
type Builder func(params map[string]any) (Rate, error)

// Registry maps rate type names to builders. Registries are plain values
// owned by the caller; construction code receives one explicitly instead of
// consulting process-wide state.
type Registry struct {
	builders map[string]Builder
}

// NewRegistry returns a registry with the built-in rate types registered.
func NewRegistry() *Registry {
	r := &Registry{builders: make(map[string]Builder)}

	r.Register("Arrhenius", func(params map[string]any) (Rate, error) {
		a, err := floatParam(params, "A")
		if err != nil {
			return nil, err
		}
		b, err := floatParam(params, "b")
		if err != nil {
			return nil, err
		}
		ea, err := floatParam(params, "Ea")
		if err != nil {
			return nil, err
		}
		return NewArrhenius(a, b, ea), nil
	})

	r.Register("tabulated", func(params map[string]any) (Rate, error) {
		temps, err := floatSliceParam(params, "temperatures")
		if err != nil {
			return nil, err
		}
		ks, err := floatSliceParam(params, "rate-constants")
		if err != nil {
			return nil, err
		}
		return NewTabulated(temps, ks)
	})

	return r
}

// Register adds or replaces a builder for the given type name.
func (r *Registry) Register(name string, b Builder) {
	r.builders[name] = b
}

// Create builds a rate of the named type.
func (r *Registry) Create(name string, params map[string]any) (Rate, error) {
	b, ok := r.builders[name]
	if !ok {
		return nil, fmt.Errorf("rates: unknown rate type: %s", name)
	}
	return b(params)
}

// Types lists the registered type names.
func (r *Registry) Types() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	return names
}

func floatParam(params map[string]any, key string) (float64, error) {
	v, ok := params[key]
	if !ok {
		return 0, fmt.Errorf("rates: missing param %q", key)
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	}
	return 0, fmt.Errorf("rates: param %q is not a number", key)
}

func floatSliceParam(params map[string]any, key string) ([]float64, error) {
	v, ok := params[key]
	if !ok {
		return nil, fmt.Errorf("rates: missing param %q", key)
	}
	raw, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("rates: param %q is not a list", key)
	}
	out := make([]float64, len(raw))
	for i, e := range raw {
		switch n := e.(type) {
		case float64:
			out[i] = n
		case int:
			out[i] = float64(n)
		default:
			return nil, fmt.Errorf("rates: param %q has a non-numeric entry", key)
		}
	}
	return out, nil
}
