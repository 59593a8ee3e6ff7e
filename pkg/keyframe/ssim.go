package keyframe

import (
	"errors"
	"math"
)

// Structural-similarity constants for 8-bit luma (L=255, K1=0.01, K2=0.03).
const (
	ssimC1 = (0.01 * 255) * (0.01 * 255)
	ssimC2 = (0.03 * 255) * (0.03 * 255)
)

// Errors returned by SSIM on malformed input.
var (
	ErrEmptyPlane   = errors.New("keyframe: empty luma plane")
	ErrSizeMismatch = errors.New("keyframe: plane dimensions mismatch")
)

// SSIM computes a global structural-similarity index between two
// grayscale planes of identical dimensions. The result is in [-1, 1];
// 1 means identical.
//
// This is the single-window form of the index: mean, variance, and
// covariance over the whole plane. It is cheap enough to run per frame
// at capture rate and discriminates scene changes well at webcam
// resolutions.
func SSIM(a, b []byte, aw, ah, bw, bh int) (float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, ErrEmptyPlane
	}
	if aw != bw || ah != bh || len(a) != len(b) || len(a) != aw*ah {
		return 0, ErrSizeMismatch
	}

	n := float64(len(a))

	var sumA, sumB float64
	for i := range a {
		sumA += float64(a[i])
		sumB += float64(b[i])
	}
	meanA := sumA / n
	meanB := sumB / n

	var varA, varB, cov float64
	for i := range a {
		da := float64(a[i]) - meanA
		db := float64(b[i]) - meanB
		varA += da * da
		varB += db * db
		cov += da * db
	}
	varA /= n
	varB /= n
	cov /= n

	num := (2*meanA*meanB + ssimC1) * (2*cov + ssimC2)
	den := (meanA*meanA + meanB*meanB + ssimC1) * (varA + varB + ssimC2)
	if den == 0 {
		return 0, ErrEmptyPlane
	}

	score := num / den
	if math.IsNaN(score) {
		return 0, ErrEmptyPlane
	}
	return score, nil
}
