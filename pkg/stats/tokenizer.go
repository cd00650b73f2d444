package stats

import (
	"iter"
	"strings"
	"unicode"

	"github.com/hyp3rd/ewrap"

	"github.com/hyp3rd/hyperhist/internal/constants"
	"github.com/hyp3rd/hyperhist/internal/sentinel"
)

// Tokenizer selects how a line of input is split into integer tokens.
type Tokenizer int

const (
	// TokenizerComma splits lines on commas. Whitespace around a token is trimmed,
	// whitespace inside a token makes it invalid.
	TokenizerComma Tokenizer = iota
	// TokenizerWhitespace splits lines on commas and on any whitespace.
	TokenizerWhitespace
)

// Token is a non-empty piece of input text together with its position.
// Line and Column are 1-based; Column is the byte offset of the token's first
// character within its line.
type Token struct {
	Text   string
	Line   int
	Column int
}

// String returns the configuration name of the tokenizer.
func (t Tokenizer) String() string {
	switch t {
	case TokenizerComma:
		return constants.TokenizerComma
	case TokenizerWhitespace:
		return constants.TokenizerWhitespace
	default:
		return "unknown"
	}
}

// ParseTokenizer returns the tokenizer registered under name.
// An empty name selects TokenizerComma.
func ParseTokenizer(name string) (Tokenizer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", constants.TokenizerComma:
		return TokenizerComma, nil
	case constants.TokenizerWhitespace:
		return TokenizerWhitespace, nil
	default:
		return TokenizerComma, ewrap.Wrap(sentinel.ErrInvalidTokenizer, name)
	}
}

func (t Tokenizer) separator() func(rune) bool {
	if t == TokenizerWhitespace {
		return func(r rune) bool { return r == ',' || unicode.IsSpace(r) }
	}

	return func(r rune) bool { return r == ',' }
}

// Tokens yields the non-empty tokens of content in input order.
// Blank tokens produced by consecutive or trailing separators and blank lines are skipped.
func (t Tokenizer) Tokens(content string) iter.Seq[Token] {
	isSep := t.separator()

	return func(yield func(Token) bool) {
		lineNo := 0

		for line := range strings.Lines(content) {
			lineNo++

			line = strings.TrimRight(line, "\r\n")
			start := 0

			for i, r := range line {
				if !isSep(r) {
					continue
				}

				if tok, ok := trimToken(line[start:i], lineNo, start); ok && !yield(tok) {
					return
				}

				start = i + len(string(r))
			}

			if tok, ok := trimToken(line[start:], lineNo, start); ok && !yield(tok) {
				return
			}
		}
	}
}

// trimToken strips surrounding whitespace from segment, which starts at byte offset in its line.
func trimToken(segment string, line, offset int) (Token, bool) {
	left := strings.TrimLeftFunc(segment, unicode.IsSpace)
	text := strings.TrimRightFunc(left, unicode.IsSpace)

	if text == "" {
		return Token{}, false
	}

	return Token{
		Text:   text,
		Line:   line,
		Column: offset + len(segment) - len(left) + 1,
	}, true
}
