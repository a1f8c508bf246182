// Package hlr implements half-life regression (HLR), the trainable
// spaced-repetition model from Settles & Meeder (2016). A feature vector
// describing an item's review history is mapped to a memory half-life via
// a learned log-linear model; recall probability follows the forgetting
// curve p = 2^(-elapsed/halfLife). Weights are adjusted online, one
// observation at a time.
package hlr

import (
	"math"
	"sync"
)

const (
	// MinHalfLife is 15 minutes expressed in days.
	MinHalfLife = 15.0 / (24 * 60)
	// MaxHalfLife is roughly nine months in days.
	MaxHalfLife = 274.0

	minRecall = 0.0001
	maxRecall = 0.9999

	defaultBase = 2.0
)

// Feature is a single (name, value) signal in a feature vector.
// Duplicate names are additive: each occurrence contributes its own
// term to the dot product.
type Feature struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Hyperparameters control the online update. Immutable for the lifetime
// of a Model.
type Hyperparameters struct {
	LearningRate float64 // base step size (lrate)
	HLWeight     float64 // weight of the half-life loss term (hlwt)
	L2Weight     float64 // L2 regularization weight (l2wt)
	Sigma        float64 // L2 regularization scale
	OmitHTerm    bool    // skip the half-life gradient term entirely
}

// DefaultHyperparameters returns the values from Settles & Meeder (2016).
func DefaultHyperparameters() Hyperparameters {
	return Hyperparameters{
		LearningRate: 0.001,
		HLWeight:     0.01,
		L2Weight:     0.1,
		Sigma:        1.0,
	}
}

// Model is a half-life regression model: per-feature weights, per-feature
// update counts, and the hyperparameters that govern training.
//
// A Model is safe for concurrent use. Predict takes a read lock;
// TrainUpdate and ImportWeights serialize through a write lock.
type Model struct {
	mu      sync.RWMutex
	weights map[string]float64
	counts  map[string]int
	hp      Hyperparameters
}

// NewModel creates a Model with the given hyperparameters and optional
// initial weights. Passing nil weights starts from an empty model.
func NewModel(hp Hyperparameters, initialWeights map[string]float64) *Model {
	m := &Model{
		weights: make(map[string]float64, len(initialWeights)),
		counts:  make(map[string]int),
		hp:      hp,
	}
	for k, w := range initialWeights {
		m.weights[k] = w
	}
	return m
}

// pclip bounds a recall probability to [0.0001, 0.9999].
func pclip(p float64) float64 {
	return min(max(p, minRecall), maxRecall)
}

// hclip bounds a half-life to [MinHalfLife, MaxHalfLife].
func hclip(h float64) float64 {
	return min(max(h, MinHalfLife), MaxHalfLife)
}

// weight returns the weight for a feature name, 0.0 if unseen.
func (m *Model) weight(name string) float64 {
	w, ok := m.weights[name]
	if !ok {
		return 0.0
	}
	return w
}

// count returns the update count for a feature name, 0 if unseen.
func (m *Model) count(name string) int {
	c, ok := m.counts[name]
	if !ok {
		return 0
	}
	return c
}

// halflife computes the model's half-life estimate for a feature vector:
// clip(base^dp) where dp is the weight dot product. The exponent is bounds
// checked before exponentiating, so an arbitrarily large dot product yields
// MaxHalfLife rather than an overflow. Callers must hold at least mu.RLock.
func (m *Model) halflife(features []Feature, base float64) float64 {
	dp := 0.0
	for _, f := range features {
		dp += m.weight(f.Name) * f.Value
	}

	// base^dp exceeds MaxHalfLife once dp reaches log_base(MaxHalfLife);
	// short-circuit before Pow can overflow or go infinite.
	if dp >= math.Log(MaxHalfLife)/math.Log(base) {
		return MaxHalfLife
	}
	h := math.Pow(base, dp)
	if math.IsNaN(h) {
		return MaxHalfLife
	}
	return hclip(h)
}

// Predict returns the recall probability and half-life (in days) for a
// feature vector after elapsedDays since the last review. Pure: no state
// is mutated. elapsedDays must be >= 0; callers validate.
func (m *Model) Predict(features []Feature, elapsedDays float64) (recall, halfLife float64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.predict(features, elapsedDays, defaultBase)
}

func (m *Model) predict(features []Feature, elapsedDays, base float64) (float64, float64) {
	h := m.halflife(features, base)
	p := math.Pow(2.0, -elapsedDays/h)
	return pclip(p), h
}

// TrainUpdate performs one step of online gradient descent from a single
// observed review outcome. actualRecall is the observed recall proportion
// in [0, 1]. actualHalfLife may be nil, in which case it is estimated from
// actualRecall and elapsedDays when possible, and otherwise falls back to
// the model's own prediction (making the half-life gradient term vanish).
//
// Per feature, the update order is fixed: recall-loss step, half-life-loss
// step, then L2 shrinkage applied to the already-stepped weight.
func (m *Model) TrainUpdate(features []Feature, elapsedDays, actualRecall float64, actualHalfLife *float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, h := m.predict(features, elapsedDays, defaultBase)

	var ah float64
	switch {
	case actualHalfLife != nil:
		ah = *actualHalfLife
	case actualRecall > minRecall && elapsedDays > 0:
		ah = hclip(-elapsedDays / math.Log2(actualRecall))
	default:
		ah = h
	}

	ln2 := math.Ln2
	dlp := 2.0 * (p - actualRecall) * (ln2 * ln2) * p * (elapsedDays / h)
	dlh := 2.0 * (h - ah) * ln2 * h

	for _, f := range features {
		rate := (1.0 / (1.0 + actualRecall)) * m.hp.LearningRate /
			math.Sqrt(1.0+float64(m.count(f.Name)))

		m.weights[f.Name] = m.weight(f.Name) - rate*dlp*f.Value
		if !m.hp.OmitHTerm {
			m.weights[f.Name] -= rate * m.hp.HLWeight * dlh * f.Value
		}
		// Shrinkage uses the weight value after the two gradient steps.
		m.weights[f.Name] -= rate * m.hp.L2Weight * m.weights[f.Name] / (m.hp.Sigma * m.hp.Sigma)
		m.counts[f.Name] = m.count(f.Name) + 1
	}
}

// ExportWeights returns a snapshot copy of the current weights. Counts are
// not included; they are internal training state.
func (m *Model) ExportWeights() map[string]float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]float64, len(m.weights))
	for k, w := range m.weights {
		out[k] = w
	}
	return out
}

// ImportWeights replaces the weight table wholesale. Feature counts are
// left untouched: a feature present only in the count table keeps its
// count while its weight reverts to 0.0. This asymmetry matches the
// reference behavior.
func (m *Model) ImportWeights(weights map[string]float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.weights = make(map[string]float64, len(weights))
	for k, w := range weights {
		m.weights[k] = w
	}
}

// FeatureCounts returns a snapshot copy of the per-feature update counts.
func (m *Model) FeatureCounts() map[string]int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]int, len(m.counts))
	for k, c := range m.counts {
		out[k] = c
	}
	return out
}
