package vocab

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-json"
)

// FileName is the vocabulary file expected inside a model directory.
const FileName = "vocab.json"

// SpecialTokens holds the reserved ids shared by the source and target tables.
type SpecialTokens struct {
	Unk int `json:"unk"`
	Pad int `json:"pad"`
	BOS int `json:"bos"`
	EOS int `json:"eos"`
}

// Vocab maps source and target tokens to dense integer ids.
// The eos id doubles as the decoder start marker.
// A Vocab is immutable once loaded and safe for concurrent reads.
type Vocab struct {
	Src     []string      `json:"src"`
	Tgt     []string      `json:"tgt"`
	Special SpecialTokens `json:"special_tokens"`

	srcIndex map[string]int
}

// Load reads and validates a vocabulary file.
func Load(path string) (*Vocab, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vocab: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Read(f)
}

// Read decodes a vocabulary from r.
func Read(r io.Reader) (*Vocab, error) {
	var v Vocab
	if err := json.NewDecoder(r).Decode(&v); err != nil {
		return nil, fmt.Errorf("parse vocab: %w", err)
	}
	if err := v.init(); err != nil {
		return nil, err
	}
	return &v, nil
}

// New builds a Vocab from in-memory tables.
func New(src, tgt []string, special SpecialTokens) (*Vocab, error) {
	v := &Vocab{
		Src:     append([]string(nil), src...),
		Tgt:     append([]string(nil), tgt...),
		Special: special,
	}
	if err := v.init(); err != nil {
		return nil, err
	}
	return v, nil
}

func (v *Vocab) init() error {
	if len(v.Src) == 0 {
		return errors.New("vocab: empty src table")
	}
	if len(v.Tgt) == 0 {
		return errors.New("vocab: empty tgt table")
	}
	for name, id := range map[string]int{
		"unk": v.Special.Unk,
		"pad": v.Special.Pad,
		"bos": v.Special.BOS,
		"eos": v.Special.EOS,
	} {
		if id < 0 || id >= len(v.Tgt) {
			return fmt.Errorf("vocab: special token %s id %d out of range [0,%d)", name, id, len(v.Tgt))
		}
	}

	// First occurrence wins, matching a linear scan of the table.
	v.srcIndex = make(map[string]int, len(v.Src))
	for i, tok := range v.Src {
		if _, ok := v.srcIndex[tok]; !ok {
			v.srcIndex[tok] = i
		}
	}
	return nil
}

// SrcID returns the id of a source token.
func (v *Vocab) SrcID(tok string) (int, bool) {
	id, ok := v.srcIndex[tok]
	return id, ok
}

// TgtToken returns the target string for id, or "" when id is out of range.
func (v *Vocab) TgtToken(id int) string {
	if id < 0 || id >= len(v.Tgt) {
		return ""
	}
	return v.Tgt[id]
}

// TgtSize is the width of one decoder logits row.
func (v *Vocab) TgtSize() int {
	return len(v.Tgt)
}

// LangTag formats the source tag token for a language code.
func LangTag(lang string) string {
	return "__" + lang + "__"
}

// Languages lists the target language codes present as __xx__ tags in the
// source table, in table order. English is the source script and is excluded.
func (v *Vocab) Languages() []string {
	var out []string
	for _, tok := range v.Src {
		if len(tok) <= 4 || !strings.HasPrefix(tok, "__") || !strings.HasSuffix(tok, "__") {
			continue
		}
		if tok == "__en__" {
			continue
		}
		out = append(out, tok[2:len(tok)-2])
	}
	return out
}
