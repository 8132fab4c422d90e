package embeddings

import (
	"context"
	"math"
)

// Vector is a simple float32 slice wrapper.
type Vector []float32

// Embedder turns texts into vectors. The result has one vector per text, in
// the order of texts.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([]Vector, error)
}

// CosineSimilarity returns the cosine of the angle between a and b, or 0 when
// the vectors are empty, of different length or zero.
func CosineSimilarity(a, b Vector) float32 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
