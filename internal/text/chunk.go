package text

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// ErrInvalidMaxChars is returned when a chunk bound is not positive.
var ErrInvalidMaxChars = errors.New("max chars must be positive")

// Granularity selects the token unit the chunker never splits.
type Granularity int

const (
	// Words splits on whitespace.
	Words Granularity = iota
	// Sentences splits after '.', '!' or '?' followed by whitespace.
	Sentences
)

func (g Granularity) String() string {
	switch g {
	case Words:
		return "words"
	case Sentences:
		return "sentences"
	default:
		return fmt.Sprintf("granularity(%d)", int(g))
	}
}

// ParseGranularity accepts "words"/"word" and "sentences"/"sentence".
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "words", "word":
		return Words, nil
	case "sentences", "sentence":
		return Sentences, nil
	default:
		return 0, fmt.Errorf("unknown granularity %q (want words|sentences)", s)
	}
}

// Chunk is one bounded unit of normalized text submitted to a single
// synthesis call.
type Chunk struct {
	Index int
	Text  string
}

// ChunkOptions controls Split.
type ChunkOptions struct {
	// MaxChars is the soft bound in characters (runes). Every chunk stays
	// strictly below it unless it consists of one oversized token.
	MaxChars int
	// Granularity is the unit that is never broken across chunks.
	Granularity Granularity
	// MinUnitChars drops sentences shorter than this many characters.
	// Ignored for word granularity.
	MinUnitChars int
}

var sentenceBoundary = regexp.MustCompile(`[.!?]\s+`)

// Split breaks normalized text into ordered chunks by greedy accumulation of
// whole tokens. A token is appended while len(buffer)+len(token)+1 stays
// strictly below MaxChars; otherwise the buffer is flushed and the token starts
// a new one. A token that alone reaches MaxChars is emitted as its own chunk
// rather than truncated.
//
// With sentence granularity, sentences shorter than MinUnitChars are dropped.
func Split(s string, opts ChunkOptions) ([]Chunk, error) {
	if opts.MaxChars <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidMaxChars, opts.MaxChars)
	}

	var tokens []string
	switch opts.Granularity {
	case Words:
		tokens = strings.Fields(s)
	case Sentences:
		tokens = filterShort(splitSentences(s), opts.MinUnitChars)
	default:
		return nil, fmt.Errorf("unsupported granularity %v", opts.Granularity)
	}

	return accumulate(tokens, opts.MaxChars), nil
}

// SplitWords is Split with word granularity.
func SplitWords(s string, maxChars int) ([]Chunk, error) {
	return Split(s, ChunkOptions{MaxChars: maxChars, Granularity: Words})
}

// SplitSentences is Split with sentence granularity.
func SplitSentences(s string, maxChars, minUnitChars int) ([]Chunk, error) {
	return Split(s, ChunkOptions{MaxChars: maxChars, Granularity: Sentences, MinUnitChars: minUnitChars})
}

func accumulate(tokens []string, maxChars int) []Chunk {
	var chunks []Chunk
	var buf strings.Builder
	bufLen := 0

	flush := func() {
		if bufLen == 0 {
			return
		}
		chunks = append(chunks, Chunk{Index: len(chunks), Text: buf.String()})
		buf.Reset()
		bufLen = 0
	}

	for _, tok := range tokens {
		n := utf8.RuneCountInString(tok)
		if bufLen+n+1 < maxChars {
			if bufLen > 0 {
				buf.WriteByte(' ')
				bufLen++
			}
			buf.WriteString(tok)
			bufLen += n
			continue
		}
		flush()
		buf.WriteString(tok)
		bufLen = n
	}
	flush()

	return chunks
}

// splitSentences splits text after sentence-ending punctuation followed by
// whitespace, keeping the terminator attached. Internal whitespace of each
// sentence is collapsed; empty segments are dropped.
func splitSentences(s string) []string {
	var sentences []string
	start := 0

	for _, m := range sentenceBoundary.FindAllStringIndex(s, -1) {
		// m[0] is the terminator; the sentence ends right after it.
		if sent := collapseSpace(s[start : m[0]+1]); sent != "" {
			sentences = append(sentences, sent)
		}
		start = m[1]
	}
	if start < len(s) {
		if sent := collapseSpace(s[start:]); sent != "" {
			sentences = append(sentences, sent)
		}
	}

	return sentences
}

func filterShort(sentences []string, minChars int) []string {
	if minChars <= 0 {
		return sentences
	}
	out := sentences[:0]
	for _, s := range sentences {
		if utf8.RuneCountInString(s) >= minChars {
			out = append(out, s)
		}
	}
	return out
}
