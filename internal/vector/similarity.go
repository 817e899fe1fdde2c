package vector

import "github.com/Srikanthmvtsc/screw-savvy-bot/pkg/utils"

// InnerProduct returns the inner product of two vectors.
func InnerProduct(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

// CosineSimilarity returns the cosine of the angle between a and b, or 0 when
// either is a zero vector or the lengths differ.
func CosineSimilarity(a, b []float32) float64 {
	na, nb := utils.L2Norm(a), utils.L2Norm(b)
	if na == 0 || nb == 0 {
		return 0
	}
	return InnerProduct(a, b) / (na * nb)
}
