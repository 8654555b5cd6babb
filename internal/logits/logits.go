package logits

import "math"

// LogSoftmax writes the log-probabilities of logits into dst and returns it.
// The maximum logit is subtracted before exponentiating so large values do
// not overflow. dst is reused when it has enough capacity.
func LogSoftmax(dst []float64, logits []float32) []float64 {
	if cap(dst) < len(logits) {
		dst = make([]float64, len(logits))
	}
	dst = dst[:len(logits)]
	if len(logits) == 0 {
		return dst
	}

	maxv := math.Inf(-1)
	for _, l := range logits {
		if v := float64(l); v > maxv {
			maxv = v
		}
	}
	if math.IsInf(maxv, -1) {
		for i := range dst {
			dst[i] = math.Inf(-1)
		}
		return dst
	}

	var sum float64
	for i, l := range logits {
		shifted := float64(l) - maxv
		dst[i] = shifted
		sum += math.Exp(shifted)
	}
	logSum := math.Log(sum)
	for i := range dst {
		dst[i] -= logSum
	}
	return dst
}

// TopK returns the indices of the k largest values, largest first. Equal
// values keep their input order. NaN and -Inf entries are never selected,
// so fewer than k indices may be returned.
// This is an O(V*K) insertion selection suited to small k.
func TopK(values []float64, k int) []int {
	if k <= 0 {
		return nil
	}
	topIdx := make([]int, 0, k+1)
	topVal := make([]float64, 0, k+1)

	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, -1) {
			continue
		}
		pos := len(topVal)
		for pos > 0 && topVal[pos-1] < v {
			pos--
		}
		if pos >= k {
			continue
		}

		topIdx = append(topIdx, 0)
		topVal = append(topVal, 0)
		copy(topIdx[pos+1:], topIdx[pos:])
		copy(topVal[pos+1:], topVal[pos:])
		topIdx[pos] = i
		topVal[pos] = v

		if len(topVal) > k {
			topIdx = topIdx[:k]
			topVal = topVal[:k]
		}
	}
	return topIdx
}

// HasNaN reports whether any logit is NaN.
func HasNaN(logits []float32) bool {
	for _, l := range logits {
		if l != l {
			return true
		}
	}
	return false
}
