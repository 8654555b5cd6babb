// Package rescore blends model scores with word frequencies from a dictionary.
package rescore

import (
	"math"
	"slices"
)

// DefaultAlpha weights the model probability against the dictionary one.
const DefaultAlpha = 0.9

// Word is a candidate spelling with its score.
type Word struct {
	Word  string  `json:"word"`
	Score float64 `json:"score"`
}

// Dictionary maps a word to its probability. Missing words have probability 0.
type Dictionary interface {
	Prob(word string) (float64, bool)
}

// Apply interpolates the model probability exp(score) with the dictionary
// probability, each normalized over the candidate set, and returns the words
// ordered by the blended score. Words absent from the dictionary score 0.
// The input slice is not modified.
func Apply(words []Word, dict Dictionary, alpha float64) []Word {
	if len(words) == 0 {
		return words
	}

	model := make([]float64, len(words))
	freq := make([]float64, len(words))
	present := make([]bool, len(words))
	var modelSum, freqSum float64
	for i, w := range words {
		model[i] = math.Exp(w.Score)
		modelSum += model[i]
		if dict != nil {
			freq[i], present[i] = dict.Prob(w.Word)
		}
		freqSum += freq[i]
	}

	out := make([]Word, len(words))
	for i, w := range words {
		out[i] = Word{Word: w.Word}
		if !present[i] {
			continue
		}
		out[i].Score = alpha*ratio(model[i], modelSum) + (1-alpha)*ratio(freq[i], freqSum)
	}
	slices.SortStableFunc(out, func(a, b Word) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})
	return out
}

func ratio(v, sum float64) float64 {
	if sum == 0 {
		return 0
	}
	return v / sum
}
