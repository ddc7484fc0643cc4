package ai

import "math"

// Normalize scales a vector to unit length and returns it as a new
// slice. A zero vector cannot be normalized and comes back as a zero
// vector of the same length.
//
// Stores compute cosine similarity; unit-length vectors make that
// equivalent to a dot product regardless of what scale the embedding
// model emits.
func Normalize(v []float32) []float32 {
	if len(v) == 0 {
		return v
	}

	var magnitude float32
	for _, val := range v {
		magnitude += val * val
	}
	magnitude = float32(math.Sqrt(float64(magnitude)))

	result := make([]float32, len(v))
	if magnitude == 0 {
		return result
	}
	for i, val := range v {
		result[i] = val / magnitude
	}
	return result
}
