package memory

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"
)

// Embedder generates vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
	Model() string
}

// OllamaEmbedder uses Ollama's embedding API.
type OllamaEmbedder struct {
	url    string
	model  string
	client *http.Client
}

// NewOllamaEmbedder creates an embedder using Ollama's API.
func NewOllamaEmbedder(url, model string) *OllamaEmbedder {
	return &OllamaEmbedder{
		url:    strings.TrimRight(url, "/"),
		model:  model,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (o *OllamaEmbedder) Model() string { return "ollama:" + o.model }

type embedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
}

// Embed calls Ollama's /api/embed for a single input.
func (o *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(embedRequest{Model: o.model, Input: text}); err != nil {
		return nil, fmt.Errorf("encode embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.url+"/api/embed", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("ollama embed: status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("ollama embed: decode: %w", err)
	}
	if len(out.Embeddings) == 0 || len(out.Embeddings[0]) == 0 {
		return nil, errors.New("ollama embed: empty embedding")
	}
	return out.Embeddings[0], nil
}

// ProbeOllama checks if Ollama is reachable and the embedding model is available.
func ProbeOllama(ctx context.Context, url, model string) bool {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := NewOllamaEmbedder(url, model).Embed(ctx, "probe")
	return err == nil
}

// TFIDFEmbedder embeds text as TF-IDF weights over a vocabulary fitted on a
// fixed document set. Vectors are only comparable within one fit.
type TFIDFEmbedder struct {
	vocab []string
	index map[string]int
	idf   map[string]float64
}

// NewTFIDFEmbedder fits a vocabulary of at most maxTerms terms, ranked by
// document frequency with ties broken alphabetically.
func NewTFIDFEmbedder(docs []string, maxTerms int) *TFIDFEmbedder {
	if maxTerms <= 0 {
		maxTerms = 512
	}

	df := make(map[string]int)
	for _, doc := range docs {
		for _, term := range lo.Uniq(tokenize(doc)) {
			df[term]++
		}
	}

	terms := lo.Keys(df)
	slices.SortFunc(terms, func(a, b string) int {
		if c := cmp.Compare(df[b], df[a]); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
	if len(terms) > maxTerms {
		terms = terms[:maxTerms]
	}

	n := float64(max(len(docs), 1))
	t := &TFIDFEmbedder{
		vocab: terms,
		index: make(map[string]int, len(terms)),
		idf:   make(map[string]float64, len(terms)),
	}
	for i, term := range terms {
		t.index[term] = i
		t.idf[term] = 1 + math.Log(n/float64(df[term]))
	}
	return t
}

func (t *TFIDFEmbedder) Model() string { return "tfidf" }

// Embed returns the unit-length TF-IDF vector of text.
func (t *TFIDFEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	dims := len(t.vocab)
	if dims == 0 {
		dims = 1
	}
	vec := make([]float64, dims)

	counts := lo.CountValues(tokenize(text))
	peak := lo.Max(lo.Values(counts))
	for term, c := range counts {
		if i, ok := t.index[term]; ok {
			// augmented term frequency keeps long snippets from dominating
			vec[i] = (0.5 + 0.5*float64(c)/float64(peak)) * t.idf[term]
		}
	}

	normalize(vec)
	return vec, nil
}

// stopwords are too common in first-person snippets to carry meaning.
var stopwords = map[string]bool{
	"the": true, "and": true, "to": true, "of": true, "in": true, "is": true,
	"was": true, "for": true, "on": true, "with": true, "at": true, "it": true,
	"that": true, "this": true, "be": true, "are": true, "an": true, "as": true,
	"by": true, "or": true, "from": true, "user": true, "their": true, "they": true,
}

// tokenize lowercases text and splits it on anything that is not an ASCII
// letter, digit, hyphen or underscore. Single characters and stopwords are
// dropped.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-' || r == '_')
	})
	return lo.Filter(fields, func(f string, _ int) bool {
		return len(f) > 1 && !stopwords[f]
	})
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// normalize scales vec to unit length in place. Zero vectors are left alone.
func normalize(vec []float64) {
	norm := math.Sqrt(dot(vec, vec))
	if norm == 0 {
		return
	}
	for i := range vec {
		vec[i] /= norm
	}
}

// CosineSimilarity scores two vectors in [-1, 1]. Vectors of different
// length, empty or zero vectors score 0.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	denom := math.Sqrt(dot(a, a) * dot(b, b))
	if denom == 0 {
		return 0
	}
	return dot(a, b) / denom
}
