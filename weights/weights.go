package weights

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/jbrewster7/coffea"
)

const (
	suffixUp   = "Up"
	suffixDown = "Down"
)

// Evaluator computes one weight per event from per-event features, e.g. a
// scale-factor lookup table indexed by muon pt and eta. Implementations must
// be pure: equal inputs give equal outputs.
type Evaluator interface {
	Evaluate(features ...[]float64) ([]float64, error)
}

// EvaluatorFunc adapts a function to the Evaluator interface.
type EvaluatorFunc func(features ...[]float64) ([]float64, error)

// Evaluate implements Evaluator.
func (f EvaluatorFunc) Evaluate(features ...[]float64) ([]float64, error) {
	return f(features...)
}

// variation is the vector substituted for one weight's nominal vector.
type variation struct {
	name   string
	vector []float64
}

// Weights accumulates named multiplicative event weights for a fixed number
// of events, with optional up/down systematic variations per weight.
//
// Weights is owned by a single chunk of processing and is not safe for
// concurrent use.
type Weights struct {
	n          int
	names      []string
	nominal    map[string][]float64
	variations map[string]variation
	stats      map[string]Statistics

	// product is the running nominal product in registration order.
	product []float64

	logger *coffea.Logger
}

// New creates an empty Weights for n events.
func New(n int, optFns ...Option) *Weights {
	o := applyOptions(optFns)
	product := make([]float64, n)
	for i := range product {
		product[i] = 1
	}
	return &Weights{
		n:          n,
		nominal:    make(map[string][]float64),
		variations: make(map[string]variation),
		stats:      make(map[string]Statistics),
		product:    product,
		logger:     o.logger,
	}
}

// Len returns the number of events.
func (w *Weights) Len() int { return w.n }

// Names returns the registered weight names in registration order.
func (w *Weights) Names() []string { return slices.Clone(w.names) }

// Add registers the nominal per-event weight under name, with optional up and
// down variations (nil when absent). The variations are addressed as
// name+"Up" and name+"Down".
//
// All vectors must have one entry per event. On error nothing is registered.
func (w *Weights) Add(name string, nominal, up, down []float64) error {
	return w.add(name, nominal, []string{""}, [][]float64{up}, [][]float64{down})
}

// AddMultiVariation registers a nominal weight with several named
// variations, addressed as name+modifier+"Up" and name+modifier+"Down".
//
// ups and downs are either nil or have one entry per modifier; nil entries
// mean that direction is absent for that modifier.
func (w *Weights) AddMultiVariation(name string, nominal []float64, modifiers []string, ups, downs [][]float64) error {
	if ups != nil && len(ups) != len(modifiers) {
		return fmt.Errorf("%w: %d modifiers but %d up variations", coffea.ErrInvalidArgument, len(modifiers), len(ups))
	}
	if downs != nil && len(downs) != len(modifiers) {
		return fmt.Errorf("%w: %d modifiers but %d down variations", coffea.ErrInvalidArgument, len(modifiers), len(downs))
	}
	if ups == nil {
		ups = make([][]float64, len(modifiers))
	}
	if downs == nil {
		downs = make([][]float64, len(modifiers))
	}
	return w.add(name, nominal, modifiers, ups, downs)
}

// AddEvaluated registers a weight computed by nominal from features. up and
// down may be nil.
func (w *Weights) AddEvaluated(name string, nominal, up, down Evaluator, features ...[]float64) error {
	for i, f := range features {
		if len(f) != w.n {
			return &coffea.LengthMismatchError{Name: fmt.Sprintf("%s feature %d", name, i), Expected: w.n, Actual: len(f)}
		}
	}
	eval := func(ev Evaluator) ([]float64, error) {
		if ev == nil {
			return nil, nil
		}
		out, err := ev.Evaluate(features...)
		if err != nil {
			return nil, fmt.Errorf("evaluate weight %q: %w", name, err)
		}
		return out, nil
	}

	nom, err := eval(nominal)
	if err != nil {
		return err
	}
	if nom == nil {
		return fmt.Errorf("%w: weight %q has no nominal evaluator", coffea.ErrInvalidArgument, name)
	}
	u, err := eval(up)
	if err != nil {
		return err
	}
	d, err := eval(down)
	if err != nil {
		return err
	}
	return w.Add(name, nom, u, d)
}

func (w *Weights) add(name string, nominal []float64, modifiers []string, ups, downs [][]float64) error {
	if _, ok := w.nominal[name]; ok {
		return &coffea.DuplicateNameError{Kind: "weight", Name: name}
	}
	if err := w.checkLength(name, nominal); err != nil {
		return err
	}

	pending := make(map[string]variation)
	register := func(key string, vec []float64) error {
		if vec == nil {
			return nil
		}
		if err := w.checkLength(key, vec); err != nil {
			return err
		}
		if _, ok := w.variations[key]; ok {
			return &coffea.DuplicateNameError{Kind: "variation", Name: key}
		}
		if _, ok := pending[key]; ok {
			return &coffea.DuplicateNameError{Kind: "variation", Name: key}
		}
		pending[key] = variation{name: name, vector: slices.Clone(vec)}
		return nil
	}
	for i, mod := range modifiers {
		if err := register(name+mod+suffixUp, ups[i]); err != nil {
			return err
		}
		if err := register(name+mod+suffixDown, downs[i]); err != nil {
			return err
		}
	}

	stats := NewStatistics(nominal)

	w.names = append(w.names, name)
	w.nominal[name] = slices.Clone(nominal)
	maps.Copy(w.variations, pending)
	w.stats[name] = stats
	for i, x := range nominal {
		w.product[i] *= x
	}

	w.logger.Debug("weight added",
		"name", name,
		"variations", len(pending),
		"sumw", stats.SumW,
	)
	return nil
}

func (w *Weights) checkLength(name string, vec []float64) error {
	if len(vec) != w.n {
		return &coffea.LengthMismatchError{Name: name, Expected: w.n, Actual: len(vec)}
	}
	return nil
}

// Weight returns the per-event product of all registered nominal weights.
//
// If v is a registered variation (name+"Up", name+"Down", or a
// multi-variation modifier), that one weight's variation replaces its nominal
// vector in the product. The returned slice is owned by the caller.
func (w *Weights) Weight(v string) ([]float64, error) {
	if v == "" {
		return slices.Clone(w.product), nil
	}
	vr, ok := w.variations[v]
	if !ok {
		return nil, &coffea.UnknownVariationError{Variation: v}
	}

	out := w.ones()
	for _, name := range w.names {
		vec := w.nominal[name]
		if name == vr.name {
			vec = vr.vector
		}
		for i, x := range vec {
			out[i] *= x
		}
	}
	return out, nil
}

// PartialWeight returns the nominal product over a subset of weights: only
// the names in include, or all names except those in exclude. Exactly one of
// include and exclude must be non-empty.
func (w *Weights) PartialWeight(include, exclude []string) ([]float64, error) {
	if (len(include) == 0) == (len(exclude) == 0) {
		return nil, fmt.Errorf("%w: exactly one of include and exclude must be given", coffea.ErrInvalidArgument)
	}
	for _, name := range slices.Concat(include, exclude) {
		if _, ok := w.nominal[name]; !ok {
			return nil, &coffea.UnknownVariationError{Variation: name}
		}
	}

	out := w.ones()
	for _, name := range w.names {
		use := slices.Contains(include, name)
		if len(exclude) > 0 {
			use = !slices.Contains(exclude, name)
		}
		if !use {
			continue
		}
		for i, x := range w.nominal[name] {
			out[i] *= x
		}
	}
	return out, nil
}

// Individual returns the nominal vector registered under name. The slice is
// shared with w and must not be modified.
func (w *Weights) Individual(name string) ([]float64, bool) {
	vec, ok := w.nominal[name]
	return vec, ok
}

// Variations returns the sorted variation names for which both the Up and
// the Down direction were registered.
func (w *Weights) Variations() []string {
	var out []string
	for key, up := range w.variations {
		base, ok := strings.CutSuffix(key, suffixUp)
		if !ok {
			continue
		}
		down, ok := w.variations[base+suffixDown]
		if !ok || down.name != up.name {
			continue
		}
		out = append(out, key, base+suffixDown)
	}
	slices.Sort(out)
	return out
}

// WeightStatistics returns a snapshot of the per-name statistics.
func (w *Weights) WeightStatistics() map[string]Statistics {
	return maps.Clone(w.stats)
}

func (w *Weights) ones() []float64 {
	out := make([]float64, w.n)
	for i := range out {
		out[i] = 1
	}
	return out
}
