// Package softmax serves multinomial logistic regression models.
package softmax

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"time"

	"github.com/Abraxas-365/inferq/pkg/asyncx"
	"github.com/Abraxas-365/inferq/pkg/predictor"
)

// Model is a predictor.Predictor backed by a Spec.
type Model struct {
	spec   Spec
	closed atomic.Bool

	// infer scores the whole input; replaced in tests.
	infer func(ctx context.Context, in predictor.Input) ([]predictor.Prediction, error)
}

var _ predictor.Predictor = (*Model)(nil)

func New(spec Spec) (*Model, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	m := &Model{spec: spec}
	m.infer = m.score
	return m, nil
}

// Predict scores every row of in. It gives up after timeout and reports
// predictor.ErrTimeout.
func (m *Model) Predict(ctx context.Context, in predictor.Input, timeout time.Duration) ([]predictor.Prediction, error) {
	if m.closed.Load() {
		return nil, predictor.Errors().New(predictor.ErrClosed).WithDetail("model", m.spec.Name)
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	out, err := asyncx.WithTimeout(ctx, timeout, func(ctx context.Context) ([]predictor.Prediction, error) {
		return m.infer(ctx, in)
	})
	if errors.Is(err, context.DeadlineExceeded) {
		return nil, predictor.Errors().NewWithCause(predictor.ErrTimeout, err).
			WithDetail("model", m.spec.Name).
			WithDetail("timeout", timeout.String())
	}
	return out, err
}

func (m *Model) Metadata() predictor.Metadata {
	return predictor.Metadata{
		Name:         m.spec.Name,
		Type:         "softmax_regression",
		Features:     len(m.spec.Weights[0]),
		FeatureNames: m.spec.Features,
		Classes:      m.spec.Labels,
	}
}

func (m *Model) Close() error {
	m.closed.Store(true)
	return nil
}

func (m *Model) score(ctx context.Context, in predictor.Input) ([]predictor.Prediction, error) {
	width := len(m.spec.Weights[0])
	out := make([]predictor.Prediction, 0, len(in.Data))

	for i, row := range in.Data {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(row) != width {
			return nil, predictor.Errors().New(predictor.ErrFeatureMismatch).
				WithDetail("row", i).
				WithDetail("got", len(row)).
				WithDetail("want", width)
		}

		probs := m.probabilities(row)
		best := 0
		for c := 1; c < len(probs); c++ {
			if probs[c] > probs[best] {
				best = c
			}
		}
		out = append(out, predictor.Normalize(best, probs, m.spec.Labels))
	}
	return out, nil
}

// probabilities applies the linear layer and a numerically stable softmax.
func (m *Model) probabilities(x []float64) map[int]float64 {
	logits := make([]float64, len(m.spec.Weights))
	maxLogit := math.Inf(-1)
	for c, w := range m.spec.Weights {
		z := m.spec.Intercepts[c]
		for j, xj := range x {
			z += w[j] * xj
		}
		logits[c] = z
		maxLogit = math.Max(maxLogit, z)
	}

	var sum float64
	for c := range logits {
		logits[c] = math.Exp(logits[c] - maxLogit)
		sum += logits[c]
	}

	probs := make(map[int]float64, len(logits))
	for c, e := range logits {
		probs[c] = e / sum
	}
	return probs
}
