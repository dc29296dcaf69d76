// Package bm25 provides a stateless BM25-style sparse encoder. Terms
// are hashed to indices, so no corpus-wide vocabulary has to be built
// or persisted; document-side weights carry BM25 term-frequency
// saturation and length normalisation, query-side weights are uniform.
package bm25

import (
	"context"
	"hash/fnv"
	"regexp"
	"sort"
	"strings"

	"github.com/halcyon-labs/nextfind/internal/core/domain"
	"github.com/halcyon-labs/nextfind/internal/core/ports/driven"
)

// Ensure Encoder implements the interface.
var _ driven.SparseEncoder = (*Encoder)(nil)

// Standard BM25 parameters.
const (
	DefaultK1 = 1.2
	DefaultB  = 0.75

	// DefaultAvgLength approximates the average chunk length in tokens.
	// Chunks are produced at a fixed word budget, so a constant is a
	// reasonable stand-in for a per-collection statistic.
	DefaultAvgLength = 200
)

// Config holds BM25 weighting parameters.
type Config struct {
	// K1 controls term-frequency saturation (default 1.2).
	K1 float64

	// B controls document-length normalisation (default 0.75).
	B float64

	// AvgLength is the assumed average document length in tokens.
	AvgLength float64
}

// Encoder encodes text into hashed BM25 term vectors.
type Encoder struct {
	k1        float64
	b         float64
	avgLength float64

	tokenPattern *regexp.Regexp
	stopwords    map[string]struct{}
}

// NewEncoder creates a BM25 encoder. Zero-valued config fields fall
// back to the standard defaults.
func NewEncoder(cfg Config) *Encoder {
	if cfg.K1 == 0 {
		cfg.K1 = DefaultK1
	}
	if cfg.B == 0 {
		cfg.B = DefaultB
	}
	if cfg.AvgLength == 0 {
		cfg.AvgLength = DefaultAvgLength
	}
	return &Encoder{
		k1:           cfg.K1,
		b:            cfg.B,
		avgLength:    cfg.AvgLength,
		tokenPattern: regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`),
		stopwords:    defaultStopwords(),
	}
}

// EncodeBatch encodes each text with document-side BM25 weighting.
func (e *Encoder) EncodeBatch(_ context.Context, texts []string) ([]domain.SparseVector, error) {
	out := make([]domain.SparseVector, len(texts))
	for i, text := range texts {
		out[i] = e.encodeDocument(text)
	}
	return out, nil
}

// EncodeQuery encodes a query with uniform term weights. Query terms
// are not length-normalised; the document side already carries the
// BM25 weighting.
func (e *Encoder) EncodeQuery(_ context.Context, query string) (domain.SparseVector, error) {
	tokens := e.tokenize(query)

	seen := make(map[uint32]struct{}, len(tokens))
	indices := make([]uint32, 0, len(tokens))
	for _, tok := range tokens {
		idx := termIndex(tok)
		if _, dup := seen[idx]; dup {
			continue
		}
		seen[idx] = struct{}{}
		indices = append(indices, idx)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })

	values := make([]float32, len(indices))
	for i := range values {
		values[i] = 1
	}
	return domain.SparseVector{Indices: indices, Values: values}, nil
}

// encodeDocument applies BM25 term-frequency saturation with length
// normalisation against the assumed average length.
func (e *Encoder) encodeDocument(text string) domain.SparseVector {
	tokens := e.tokenize(text)
	if len(tokens) == 0 {
		return domain.SparseVector{}
	}

	tf := make(map[uint32]int, len(tokens))
	for _, tok := range tokens {
		tf[termIndex(tok)]++
	}

	indices := make([]uint32, 0, len(tf))
	for idx := range tf {
		indices = append(indices, idx)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })

	lenNorm := e.k1 * (1 - e.b + e.b*float64(len(tokens))/e.avgLength)

	values := make([]float32, len(indices))
	for i, idx := range indices {
		f := float64(tf[idx])
		values[i] = float32(f * (e.k1 + 1) / (f + lenNorm))
	}
	return domain.SparseVector{Indices: indices, Values: values}
}

func (e *Encoder) tokenize(text string) []string {
	raw := e.tokenPattern.FindAllString(strings.ToLower(text), -1)
	if len(raw) == 0 {
		return nil
	}
	out := raw[:0]
	for _, t := range raw {
		if _, isStop := e.stopwords[t]; isStop {
			continue
		}
		out = append(out, t)
	}
	return out
}

// termIndex hashes a term into the sparse index space.
func termIndex(term string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(term))
	return h.Sum32()
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
