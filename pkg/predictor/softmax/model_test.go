package softmax

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Abraxas-365/inferq/pkg/errx"
	"github.com/Abraxas-365/inferq/pkg/fsx/fsxlocal"
	"github.com/Abraxas-365/inferq/pkg/predictor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIris(t *testing.T) *Model {
	t.Helper()
	m, err := New(Iris())
	require.NoError(t, err)
	return m
}

func TestModel_PredictIris(t *testing.T) {
	m := newIris(t)

	tests := []struct {
		row   []float64
		class int
		label string
	}{
		{[]float64{5.1, 3.5, 1.4, 0.2}, 0, "setosa"},
		{[]float64{5.5, 2.4, 3.8, 1.1}, 1, "versicolor"},
		{[]float64{6.3, 3.3, 6.0, 2.5}, 2, "virginica"},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			out, err := m.Predict(context.Background(), predictor.Input{Data: [][]float64{tt.row}}, time.Second)
			require.NoError(t, err)
			require.Len(t, out, 1)

			p := out[0]
			assert.Equal(t, tt.class, p.Prediction)
			assert.Equal(t, tt.label, p.Label)
			require.Len(t, p.Probabilities, 3)

			var sum float64
			for _, v := range p.Probabilities {
				sum += v
			}
			assert.InDelta(t, 1.0, sum, 1e-9)
			assert.Greater(t, p.Probabilities[tt.class], 0.5)
		})
	}
}

func TestModel_PredictBatch(t *testing.T) {
	out, err := newIris(t).Predict(context.Background(), predictor.SampleInput(), time.Second)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, []string{"setosa", "versicolor", "virginica"}, []string{out[0].Label, out[1].Label, out[2].Label})
}

func TestModel_FeatureMismatch(t *testing.T) {
	_, err := newIris(t).Predict(context.Background(), predictor.Input{Data: [][]float64{{1, 2}}}, time.Second)
	assert.True(t, errx.HasCode(err, predictor.ErrFeatureMismatch))
}

func TestModel_InvalidInput(t *testing.T) {
	_, err := newIris(t).Predict(context.Background(), predictor.Input{}, time.Second)
	assert.True(t, errx.HasCode(err, predictor.ErrInvalidInput))
}

func TestModel_Timeout(t *testing.T) {
	m := newIris(t)
	m.infer = func(ctx context.Context, in predictor.Input) ([]predictor.Prediction, error) {
		time.Sleep(300 * time.Millisecond)
		return m.score(ctx, in)
	}

	start := time.Now()
	_, err := m.Predict(context.Background(), predictor.SampleInput(), 20*time.Millisecond)
	require.Error(t, err)
	assert.True(t, errx.HasCode(err, predictor.ErrTimeout))
	assert.Less(t, time.Since(start), 250*time.Millisecond)
}

func TestModel_Closed(t *testing.T) {
	m := newIris(t)
	require.NoError(t, m.Close())

	_, err := m.Predict(context.Background(), predictor.SampleInput(), time.Second)
	assert.True(t, errx.HasCode(err, predictor.ErrClosed))
}

func TestModel_Metadata(t *testing.T) {
	md := newIris(t).Metadata()
	assert.Equal(t, "iris_softmax", md.Name)
	assert.Equal(t, 4, md.Features)
	assert.Equal(t, predictor.IrisLabels, md.Classes)
}

func TestSpec_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Spec)
	}{
		{"no classes", func(s *Spec) { s.Weights = nil; s.Intercepts = nil }},
		{"intercept count", func(s *Spec) { s.Intercepts = s.Intercepts[:2] }},
		{"ragged weights", func(s *Spec) { s.Weights[1] = []float64{1} }},
		{"feature names", func(s *Spec) { s.Features = []string{"a"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Iris()
			tt.mutate(&s)
			assert.True(t, errx.HasCode(s.Validate(), predictor.ErrInvalidModel))
		})
	}
}

func TestLoadSpec(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tiny.json"), []byte(`{
		"name": "tiny",
		"labels": ["neg", "pos"],
		"weights": [[-1], [1]],
		"intercepts": [0, 0]
	}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte(`{`), 0o644))

	fs, err := fsxlocal.NewLocalFileSystem(dir)
	require.NoError(t, err)
	ctx := context.Background()

	spec, err := LoadSpec(ctx, fs, "tiny.json")
	require.NoError(t, err)
	m, err := New(spec)
	require.NoError(t, err)

	out, err := m.Predict(ctx, predictor.Input{Data: [][]float64{{3}}}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "pos", out[0].Label)

	_, err = LoadSpec(ctx, fs, "broken.json")
	assert.True(t, errx.HasCode(err, predictor.ErrModelLoad))

	_, err = LoadSpec(ctx, fs, "missing.json")
	assert.True(t, errx.HasCode(err, predictor.ErrModelLoad))
}
