package memory

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"Hello World", []string{"hello", "world"}},
		{"Went to the market, bought apples.", []string{"went", "market", "bought", "apples"}},
		{"a b c", []string{}}, // single chars skipped
		{"", []string{}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tokenize(tt.input), "tokenize(%q)", tt.input)
	}
}

func TestNormalize(t *testing.T) {
	vec := []float64{3, 4}
	normalize(vec)
	assert.InDelta(t, 1.0, math.Hypot(vec[0], vec[1]), 1e-10)

	zero := []float64{0, 0, 0}
	normalize(zero) // should not panic
	assert.Equal(t, []float64{0, 0, 0}, zero)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float64{1, 0, 0}, []float64{1, 0, 0}), 1e-10)
	assert.InDelta(t, 0.0, CosineSimilarity([]float64{1, 0}, []float64{0, 1}), 1e-10)
	assert.InDelta(t, -1.0, CosineSimilarity([]float64{1, 0}, []float64{-1, 0}), 1e-10)
	assert.Equal(t, 0.0, CosineSimilarity([]float64{1}, []float64{1, 2}))
	assert.Equal(t, 0.0, CosineSimilarity(nil, nil))
	assert.Equal(t, 0.0, CosineSimilarity([]float64{0, 0}, []float64{1, 0}))
}

func TestTFIDFEmbedder(t *testing.T) {
	docs := []string{
		"went to the market to buy apples",
		"felt anxious about the doctor appointment",
		"plans to visit grandson on sunday",
	}
	emb := NewTFIDFEmbedder(docs, 512)
	ctx := context.Background()

	market, err := emb.Embed(ctx, docs[0])
	require.NoError(t, err)
	query, err := emb.Embed(ctx, "buy apples at the market")
	require.NoError(t, err)
	doctor, err := emb.Embed(ctx, docs[1])
	require.NoError(t, err)

	assert.Greater(t, CosineSimilarity(query, market), 0.5)
	assert.InDelta(t, 0.0, CosineSimilarity(query, doctor), 1e-10)
	assert.Equal(t, "tfidf", emb.Model())
}

func TestTFIDFEmbedderEmptyCorpus(t *testing.T) {
	emb := NewTFIDFEmbedder(nil, 0)
	vec, err := emb.Embed(context.Background(), "anything")
	require.NoError(t, err)
	assert.Len(t, vec, 1)
}

func TestTFIDFEmbedderMaxTerms(t *testing.T) {
	emb := NewTFIDFEmbedder([]string{"alpha beta gamma delta", "alpha beta"}, 2)
	assert.Equal(t, []string{"alpha", "beta"}, emb.vocab)
}

func TestOllamaEmbedder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)
		w.Write([]byte(`{"embeddings":[[0.1,0.2,0.3]]}`))
	}))
	defer srv.Close()

	emb := NewOllamaEmbedder(srv.URL+"/", "nomic-embed-text")
	vec, err := emb.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, vec)
	assert.Equal(t, "ollama:nomic-embed-text", emb.Model())
	assert.True(t, ProbeOllama(context.Background(), srv.URL, "nomic-embed-text"))
}

func TestOllamaEmbedderErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewOllamaEmbedder(srv.URL, "missing").Embed(context.Background(), "hello")
	assert.Error(t, err)
	assert.False(t, ProbeOllama(context.Background(), srv.URL, "missing"))
}
