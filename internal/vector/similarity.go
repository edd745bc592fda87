// Package vector provides the similarity primitives, the threshold scan, and an
// in-memory candidate index.
package vector

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrDimensionMismatch is returned when two vectors of different length are compared.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrInvalidOrder is returned for a non-positive norm order.
	ErrInvalidOrder = errors.New("invalid norm order")
	// ErrZeroVector is returned when cosine similarity is asked of a zero-magnitude vector.
	ErrZeroVector = errors.New("zero-magnitude vector")
)

// DotProduct returns the sum of elementwise products of a and b.
func DotProduct(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot, nil
}

// VectorNorm returns the Lp norm of v. order must be positive; +Inf gives the max-abs norm.
func VectorNorm(v []float32, order float64) (float64, error) {
	if math.IsNaN(order) || order <= 0 {
		return 0, fmt.Errorf("%w: %v", ErrInvalidOrder, order)
	}
	switch {
	case math.IsInf(order, 1):
		var m float64
		for _, x := range v {
			m = math.Max(m, math.Abs(float64(x)))
		}
		return m, nil
	case order == 1:
		var sum float64
		for _, x := range v {
			sum += math.Abs(float64(x))
		}
		return sum, nil
	case order == 2:
		return Norm2(v), nil
	}
	var sum float64
	for _, x := range v {
		sum += math.Pow(math.Abs(float64(x)), order)
	}
	return math.Pow(sum, 1/order), nil
}

// Norm2 returns the Euclidean norm of v.
func Norm2(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// CosineSimilarity returns dot(a, b) / (|a| * |b|), in [-1, 1].
func CosineSimilarity(a, b []float32) (float64, error) {
	dot, err := DotProduct(a, b)
	if err != nil {
		return 0, err
	}
	na, nb := Norm2(a), Norm2(b)
	if na == 0 || nb == 0 {
		return 0, ErrZeroVector
	}
	return dot / (na * nb), nil
}

// NormalizeL2 scales v in place to unit L2 norm. A zero vector is left unchanged.
func NormalizeL2(v []float32) {
	n := Norm2(v)
	if n == 0 {
		return
	}
	inv := 1 / n
	for i := range v {
		v[i] = float32(float64(v[i]) * inv)
	}
}

// IsUnitNorm reports whether |v| is within tol of 1.
func IsUnitNorm(v []float32, tol float64) bool {
	return math.Abs(Norm2(v)-1) <= tol
}
