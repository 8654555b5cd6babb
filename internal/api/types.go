package api

import "github.com/samcharles93/indicxlit/internal/inference"

type TransliterateRequest struct {
	Word  string `json:"word"`
	Lang  string `json:"lang"`
	Count *int   `json:"count,omitempty"`
	// Scores includes per-word scores in the response.
	Scores bool `json:"scores,omitempty"`
}

type TransliterateResponse struct {
	ID        string        `json:"id"`
	Object    string        `json:"object"`
	CreatedAt int64         `json:"created_at"`
	Word      string        `json:"word"`
	Lang      string        `json:"lang"`
	Results   []ResultEntry `json:"results"`
}

type ResultEntry struct {
	Word  string   `json:"word"`
	Score *float64 `json:"score,omitempty"`
}

type LanguagesResponse struct {
	Languages []string `json:"languages"`
}

type StatusResponse struct {
	Ready     bool   `json:"ready"`
	Version   string `json:"version"`
	Rescoring bool   `json:"rescoring"`
}

type DictionaryStatus struct {
	Lang      string `json:"lang"`
	Available bool   `json:"available"`
}

type DeleteResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Deleted bool   `json:"deleted"`
}

type ResponseError struct {
	Message string   `json:"message,omitempty"`
	Type    string   `json:"type,omitempty"`
	Param   string   `json:"param,omitempty"`
	Valid   []string `json:"valid,omitempty"`
}

func toEntries(words []inference.ScoredWord, scores bool) []ResultEntry {
	out := make([]ResultEntry, len(words))
	for i, w := range words {
		out[i] = ResultEntry{Word: w.Word}
		if scores {
			s := w.Score
			out[i].Score = &s
		}
	}
	return out
}
