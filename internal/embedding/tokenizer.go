package embedding

import (
	"strings"
	"unicode"
)

// Tokenizer produces token IDs for BERT-style models (input_ids, attention_mask, token_type_ids).
type Tokenizer interface {
	Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64)
}

// BERT special token IDs shared by the MiniLM family of models.
const (
	tokenCLS = 101
	tokenSEP = 102
	// firstWordID skips the [unusedN] and special entries at the start of the vocabulary.
	firstWordID = 1000
	// defaultVocabSize is the bert-base-uncased vocabulary size.
	defaultVocabSize = 30522
)

// SimpleTokenizer maps each normalized word to a stable ID in the model's word range.
// It has no WordPiece vocabulary, so IDs are not the model's real IDs; it is meant
// for tests and for models fine-tuned on hashed tokens.
type SimpleTokenizer struct {
	// VocabSize bounds generated IDs. Zero means bert-base-uncased's size.
	VocabSize int
}

// Tokenize produces [CLS] w1 ... wn [SEP] followed by zero padding, truncated to maxTokens.
func (t *SimpleTokenizer) Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64) {
	if maxTokens <= 0 {
		maxTokens = 256
	}
	vocab := t.VocabSize
	if vocab <= firstWordID {
		vocab = defaultVocabSize
	}
	inputIDs = make([]int64, maxTokens)
	attentionMask = make([]int64, maxTokens)
	tokenTypeIDs = make([]int64, maxTokens)

	seq := make([]int64, 0, maxTokens)
	seq = append(seq, tokenCLS)
	for _, w := range SplitWords(NormalizeText(text)) {
		if len(seq) >= maxTokens-1 {
			break
		}
		seq = append(seq, int64(firstWordID+HashString(w)%(vocab-firstWordID)))
	}
	if len(seq) < maxTokens {
		seq = append(seq, tokenSEP)
	}
	for i, id := range seq {
		inputIDs[i] = id
		attentionMask[i] = 1
	}
	return inputIDs, attentionMask, tokenTypeIDs
}

// NormalizeText lowercases text and replaces punctuation with spaces.
func NormalizeText(text string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, text)
}

// SplitWords splits text on whitespace and returns non-empty words.
func SplitWords(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	return words
}

// HashString returns a deterministic non-negative hash for use as a simple token ID.
func HashString(s string) int {
	h := 0
	for _, c := range s {
		h = 31*h + int(c)
	}
	if h < 0 {
		h = -h
	}
	if h < 0 {
		// -MinInt overflows back to MinInt.
		h = 0
	}
	return h
}
