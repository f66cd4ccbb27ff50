// Package lexer implements the Tokenizer of SPEC_FULL.md section 4.1: a
// restartable, byte-offset-tracked scanner over the specification
// language's source text.
//
// The character-level rules (whitespace/comment skipping, string escape
// handling, the number-vs-identifier dispatch on the first character, and
// the run-until-boundary read loop) are grounded directly on
// infact::StreamTokenizer::GetNext (original_source/src/infact/stream-tokenizer.cc).
// The Go surface — a byte cursor with one token of lookahead that returns
// errors as values — follows the idiom of source/lexer/lexer.go, cut down from that
// lexer's much larger indentation-sensitive grammar to the handful of
// reserved characters and words this language actually has.
package lexer

import (
	"strings"

	"github.com/alex-quiterio/infact/errs"
	"github.com/alex-quiterio/infact/token"
)

// reservedChars are the single-character punctuators of the language.
var reservedChars = map[byte]token.Type{
	'(': token.LPAREN,
	')': token.RPAREN,
	'{': token.LBRACE,
	'}': token.RBRACE,
	'[': token.LBRACK,
	']': token.RBRACK,
	',': token.COMMA,
	';': token.SEMI,
	'=': token.ASSIGN,
}

func isReservedChar(c byte) bool {
	_, ok := reservedChars[c]
	return ok
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

// Stream is a restartable cursor over a script's source text. It tokenizes
// lazily, one token of lookahead at a time, and retains the full source so
// the registry's specification parser can recover the literal text of a
// construction expression by byte offset (Slice).
type Stream struct {
	src       string
	pos       int
	line      int
	lookahead *token.Token
	laErr     error
}

// New returns a Stream positioned at the start of src.
func New(src string) *Stream {
	return &Stream{src: src, pos: 0, line: 1}
}

// Slice returns the literal source text between two byte offsets
// previously observed via Token.ChStart/ChEnd.
func (s *Stream) Slice(start, end int) string {
	return s.src[start:end]
}

// Peek returns the next token without consuming it.
func (s *Stream) Peek() (token.Token, error) {
	if s.lookahead == nil && s.laErr == nil {
		tok, err := s.scan()
		s.lookahead, s.laErr = &tok, err
	}
	if s.laErr != nil {
		return token.Token{}, s.laErr
	}
	return *s.lookahead, nil
}

// Next consumes and returns the next token.
func (s *Stream) Next() (token.Token, error) {
	tok, err := s.Peek()
	if err != nil {
		return token.Token{}, err
	}
	s.lookahead = nil
	return tok, nil
}

// scan is the GetNext equivalent: skip whitespace/comments, then read
// exactly one token.
func (s *Stream) scan() (token.Token, error) {
	for {
		for s.pos < len(s.src) && isSpace(s.src[s.pos]) {
			if s.src[s.pos] == '\n' {
				s.line++
			}
			s.pos++
		}
		if s.pos+1 < len(s.src) && s.src[s.pos] == '/' && s.src[s.pos+1] == '/' {
			for s.pos < len(s.src) && s.src[s.pos] != '\n' {
				s.pos++
			}
			continue
		}
		break
	}

	start, line := s.pos, s.line
	if s.pos >= len(s.src) {
		return token.Token{Type: token.EOF, Line: line, ChStart: start, ChEnd: start}, nil
	}

	c := s.src[s.pos]

	if kind, ok := reservedChars[c]; ok {
		s.pos++
		return token.Token{Type: kind, Literal: string(c), Line: line, ChStart: start, ChEnd: s.pos}, nil
	}

	if c == '"' {
		return s.scanString(start, line)
	}

	// Anything else is a number or an identifier/reserved word, read as a
	// run of characters up to the next reserved char, quote, or whitespace.
	isNumberStart := c == '-' || c == '+' || (c >= '0' && c <= '9')
	for s.pos < len(s.src) {
		next := s.src[s.pos]
		if isReservedChar(next) || next == '"' || isSpace(next) {
			break
		}
		s.pos++
	}
	lit := s.src[start:s.pos]
	if lit == "" {
		return token.Token{}, errs.NewAt(errs.LexError, start, line, "unexpected character %q", c)
	}

	if isNumberStart {
		kind := token.NUMBER_INT
		if strings.ContainsAny(lit, ".eE") {
			kind = token.NUMBER_FLOAT
		}
		return token.Token{Type: kind, Literal: lit, Line: line, ChStart: start, ChEnd: s.pos}, nil
	}

	// An identifier is [A-Za-z_][A-Za-z0-9_]*; any other character is fatal.
	for j := 0; j < len(lit); j++ {
		ch := lit[j]
		if ch != '_' && !(ch >= 'A' && ch <= 'Z') && !(ch >= 'a' && ch <= 'z') && !(j > 0 && ch >= '0' && ch <= '9') {
			return token.Token{}, errs.NewAt(errs.LexError, start+j, line, "unexpected character %q", ch)
		}
	}

	kind := token.IDENT
	if token.IsReservedWord(lit) {
		kind = token.RESERVED
	}
	return token.Token{Type: kind, Literal: lit, Line: line, ChStart: start, ChEnd: s.pos}, nil
}

// scanString reads a "..." literal, recognizing only \" and \\ as escapes
// (infact::StreamTokenizer::GetNext, string-literal branch).
func (s *Stream) scanString(start, line int) (token.Token, error) {
	s.pos++ // consume opening quote
	var b strings.Builder
	for {
		if s.pos >= len(s.src) {
			return token.Token{}, errs.NewAt(errs.LexError, start, line, "unterminated string literal")
		}
		c := s.src[s.pos]
		if c == '"' {
			s.pos++
			break
		}
		if c == '\\' && s.pos+1 < len(s.src) && (s.src[s.pos+1] == '"' || s.src[s.pos+1] == '\\') {
			b.WriteByte(s.src[s.pos+1])
			s.pos += 2
			continue
		}
		if c == '\n' {
			s.line++
		}
		b.WriteByte(c)
		s.pos++
	}
	return token.Token{Type: token.STRING, Literal: b.String(), Line: line, ChStart: start, ChEnd: s.pos}, nil
}
