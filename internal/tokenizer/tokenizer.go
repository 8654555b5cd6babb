package tokenizer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samcharles93/indicxlit/internal/vocab"
)

var (
	// ErrUnsupportedLanguage reports a language code with no tag in the source vocabulary.
	ErrUnsupportedLanguage = errors.New("unsupported language")
	// ErrUnsupportedDirection reports a request to transliterate into English.
	ErrUnsupportedDirection = errors.New("cannot transliterate to English; this model transliterates from English to Indic scripts")
)

// UnsupportedLanguageError carries the language codes the vocabulary accepts.
type UnsupportedLanguageError struct {
	Lang  string
	Valid []string
}

func (e *UnsupportedLanguageError) Error() string {
	return fmt.Sprintf("language code %q not supported. Valid codes: %s", e.Lang, strings.Join(e.Valid, ", "))
}

func (e *UnsupportedLanguageError) Unwrap() error {
	return ErrUnsupportedLanguage
}

// Tokenizer converts romanized words to source ids and target ids back to text.
type Tokenizer struct {
	vocab *vocab.Vocab
}

func New(v *vocab.Vocab) *Tokenizer {
	return &Tokenizer{vocab: v}
}

// Vocab returns the vocabulary backing the tokenizer.
func (t *Tokenizer) Vocab() *vocab.Vocab {
	return t.vocab
}

// Encode maps a word to source ids: the language tag, one id per character
// and a trailing eos. Characters missing from the vocabulary map to unk.
func (t *Tokenizer) Encode(word, lang string) ([]int, error) {
	if lang == "en" {
		return nil, ErrUnsupportedDirection
	}
	tag := vocab.LangTag(lang)
	if _, ok := t.vocab.SrcID(tag); !ok {
		return nil, &UnsupportedLanguageError{Lang: lang, Valid: t.vocab.Languages()}
	}

	chars := strings.Split(strings.ToLower(word), "")
	text := tag + " " + strings.Join(chars, " ")
	tokens := strings.Split(text, " ")

	ids := make([]int, 0, len(tokens)+1)
	for _, tok := range tokens {
		id, ok := t.vocab.SrcID(tok)
		if !ok {
			id = t.vocab.Special.Unk
		}
		ids = append(ids, id)
	}
	return append(ids, t.vocab.Special.EOS), nil
}

// Decode converts a decoder output sequence to target text. The first id is
// the start marker and is skipped; decoding stops at the next eos. Other
// special ids and ids without a target entry are dropped, as are spaces.
func (t *Tokenizer) Decode(ids []int) string {
	sp := t.vocab.Special
	var sb strings.Builder
	for i, id := range ids {
		if i == 0 {
			continue
		}
		if id == sp.EOS {
			break
		}
		if id == sp.BOS || id == sp.Pad || id == sp.Unk {
			continue
		}
		sb.WriteString(t.vocab.TgtToken(id))
	}
	return strings.ReplaceAll(sb.String(), " ", "")
}
