package pdf

import (
	"strconv"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokString
	tokName
	tokArrayStart
	tokArrayEnd
	tokDictStart
	tokDictEnd
	tokOperator
)

type token struct {
	kind tokenKind
	num  float64
	str  []byte // raw bytes for strings, name or operator text otherwise
}

// scanner tokenizes a decoded page content stream. It only understands what
// text extraction needs; unknown syntax degrades to operator tokens.
type scanner struct {
	data []byte
	pos  int
}

func newScanner(data []byte) *scanner {
	return &scanner{data: data}
}

func (s *scanner) next() token {
	s.skipWSAndComments()
	if s.pos >= len(s.data) {
		return token{kind: tokEOF}
	}
	c := s.data[s.pos]
	switch {
	case c == '(':
		return token{kind: tokString, str: s.scanLiteralString()}
	case c == '<' && s.peek(1) == '<':
		s.pos += 2
		return token{kind: tokDictStart}
	case c == '>' && s.peek(1) == '>':
		s.pos += 2
		return token{kind: tokDictEnd}
	case c == '<':
		return token{kind: tokString, str: s.scanHexString()}
	case c == '[':
		s.pos++
		return token{kind: tokArrayStart}
	case c == ']':
		s.pos++
		return token{kind: tokArrayEnd}
	case c == '/':
		s.pos++
		return token{kind: tokName, str: s.scanRegular()}
	case c == ')' || c == '>' || c == '{' || c == '}':
		s.pos++
		return s.next()
	}

	word := s.scanRegular()
	if isNumberStart(word[0]) {
		if f, err := strconv.ParseFloat(string(word), 64); err == nil {
			return token{kind: tokNumber, num: f}
		}
	}
	return token{kind: tokOperator, str: word}
}

func (s *scanner) peek(n int) byte {
	if s.pos+n >= len(s.data) {
		return 0
	}
	return s.data[s.pos+n]
}

func (s *scanner) skipWSAndComments() {
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		if isWhitespace(c) {
			s.pos++
			continue
		}
		if c == '%' {
			for s.pos < len(s.data) && !isEOL(s.data[s.pos]) {
				s.pos++
			}
			continue
		}
		return
	}
}

func (s *scanner) scanRegular() []byte {
	start := s.pos
	for s.pos < len(s.data) && !isDelimiter(s.data[s.pos]) {
		s.pos++
	}
	if s.pos == start {
		// lone delimiter we do not handle; consume it to make progress
		s.pos++
	}
	return s.data[start:s.pos]
}

// scanLiteralString follows PDF 7.3.4.2: balanced parentheses, escapes,
// octal codes and backslash line continuations.
func (s *scanner) scanLiteralString() []byte {
	s.pos++ // skip '('
	var buf []byte
	depth := 1
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		if c == '\\' {
			s.pos++
			if s.pos >= len(s.data) {
				break
			}
			esc := s.data[s.pos]
			switch {
			case esc == '\r':
				s.pos++
				if s.pos < len(s.data) && s.data[s.pos] == '\n' {
					s.pos++
				}
			case esc == '\n':
				s.pos++
			case esc >= '0' && esc <= '7':
				val := int(esc - '0')
				s.pos++
				for k := 0; k < 2 && s.pos < len(s.data); k++ {
					d := s.data[s.pos]
					if d < '0' || d > '7' {
						break
					}
					val = val<<3 + int(d-'0')
					s.pos++
				}
				buf = append(buf, byte(val))
			default:
				buf = append(buf, translateEscape(esc))
				s.pos++
			}
			continue
		}
		if c == '(' {
			depth++
		}
		if c == ')' {
			depth--
			if depth == 0 {
				s.pos++
				break
			}
		}
		buf = append(buf, c)
		s.pos++
	}
	return buf
}

func (s *scanner) scanHexString() []byte {
	s.pos++ // skip '<'
	var nibbles []byte
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		s.pos++
		if c == '>' {
			break
		}
		if isWhitespace(c) {
			continue
		}
		nibbles = append(nibbles, fromHex(c))
	}
	if len(nibbles)%2 == 1 {
		nibbles = append(nibbles, 0)
	}
	out := make([]byte, 0, len(nibbles)/2)
	for i := 0; i < len(nibbles); i += 2 {
		out = append(out, nibbles[i]<<4|nibbles[i+1])
	}
	return out
}

// skipInlineImage moves past binary inline image data that follows an ID
// operator, up to and including the closing EI.
func (s *scanner) skipInlineImage() {
	if s.pos < len(s.data) && isWhitespace(s.data[s.pos]) {
		s.pos++
	}
	start := s.pos
	for s.pos+1 < len(s.data) {
		if s.data[s.pos] == 'E' && s.data[s.pos+1] == 'I' &&
			s.pos > start && isWhitespace(s.data[s.pos-1]) &&
			(s.pos+2 >= len(s.data) || isDelimiter(s.data[s.pos+2])) {
			s.pos += 2
			return
		}
		s.pos++
	}
	s.pos = len(s.data)
}

func isNumberStart(c byte) bool {
	return c == '+' || c == '-' || c == '.' || (c >= '0' && c <= '9')
}

func isWhitespace(c byte) bool {
	return c == 0x00 || c == 0x09 || c == 0x0A || c == 0x0C || c == 0x0D || c == 0x20
}

func isEOL(c byte) bool { return c == '\r' || c == '\n' }

func isDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	default:
		return isWhitespace(c)
	}
}

func translateEscape(c byte) byte {
	switch c {
	case 'n':
		return '\n'
	case 'r':
		return '\r'
	case 't':
		return '\t'
	case 'b':
		return '\b'
	case 'f':
		return '\f'
	default:
		return c
	}
}

func fromHex(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	default:
		return 0
	}
}
