package pdf

import (
	"math"
	"strings"
	"unicode"

	"golang.org/x/text/encoding/charmap"
	utf16 "golang.org/x/text/encoding/unicode"
)

// TJ displacements below this (thousandths of text space) read as a word gap.
const tjSpaceThreshold = -200

// same-line tolerance in text space units
const lineTolerance = 1.0

type operand struct {
	tok   token
	array []token
}

// lineCollector rebuilds visual lines from text-showing operators. It tracks
// only the text line matrix; glyph advances are not computed, so a change of
// baseline is what separates lines.
type lineCollector struct {
	tlm     [6]float64
	leading float64

	lines   []string
	cur     strings.Builder
	curY    float64
	hasLine bool
	gap     bool
}

// pageLines returns the non-empty text lines of a content stream in stream order.
func pageLines(content []byte) []string {
	lc := &lineCollector{}
	lc.resetMatrix()

	sc := newScanner(content)
	var operands []operand
	for {
		tok := sc.next()
		switch tok.kind {
		case tokEOF:
			lc.flush()
			return lc.lines
		case tokArrayStart:
			operands = append(operands, operand{tok: tok, array: collectArray(sc)})
		case tokDictStart:
			skipDict(sc)
		case tokOperator:
			op := string(tok.str)
			lc.apply(op, operands)
			if op == "ID" {
				sc.skipInlineImage()
			}
			operands = operands[:0]
		default:
			operands = append(operands, operand{tok: tok})
		}
	}
}

func collectArray(sc *scanner) []token {
	var out []token
	for {
		tok := sc.next()
		switch tok.kind {
		case tokEOF, tokArrayEnd:
			return out
		case tokArrayStart:
			collectArray(sc)
		case tokDictStart:
			skipDict(sc)
		default:
			out = append(out, tok)
		}
	}
}

func skipDict(sc *scanner) {
	depth := 1
	for depth > 0 {
		switch sc.next().kind {
		case tokEOF:
			return
		case tokDictStart:
			depth++
		case tokDictEnd:
			depth--
		}
	}
}

func (lc *lineCollector) resetMatrix() {
	lc.tlm = [6]float64{1, 0, 0, 1, 0, 0}
}

func (lc *lineCollector) apply(op string, ops []operand) {
	switch op {
	case "BT":
		lc.resetMatrix()
		lc.gap = true
	case "Td":
		if tx, ty, ok := twoNumbers(ops); ok {
			lc.moveText(tx, ty)
		}
	case "TD":
		if tx, ty, ok := twoNumbers(ops); ok {
			lc.leading = -ty
			lc.moveText(tx, ty)
		}
	case "T*":
		lc.moveText(0, -lc.leading)
	case "TL":
		if n := len(ops); n >= 1 && ops[n-1].tok.kind == tokNumber {
			lc.leading = ops[n-1].tok.num
		}
	case "Tm":
		if len(ops) >= 6 {
			var m [6]float64
			for i, o := range ops[len(ops)-6:] {
				if o.tok.kind != tokNumber {
					return
				}
				m[i] = o.tok.num
			}
			lc.tlm = m
			lc.gap = true
		}
	case "Tj":
		if s, ok := lastString(ops); ok {
			lc.show(decodeText(s))
		}
	case "'", "\"":
		lc.moveText(0, -lc.leading)
		if s, ok := lastString(ops); ok {
			lc.show(decodeText(s))
		}
	case "TJ":
		if n := len(ops); n >= 1 && ops[n-1].array != nil {
			lc.show(joinTJ(ops[n-1].array))
		}
	}
}

func (lc *lineCollector) moveText(tx, ty float64) {
	m := lc.tlm
	lc.tlm[4] = tx*m[0] + ty*m[2] + m[4]
	lc.tlm[5] = tx*m[1] + ty*m[3] + m[5]
	if tx != 0 {
		lc.gap = true
	}
}

func (lc *lineCollector) show(text string) {
	if text == "" {
		return
	}
	y := lc.tlm[5]
	switch {
	case !lc.hasLine:
		lc.hasLine = true
		lc.curY = y
	case math.Abs(y-lc.curY) > lineTolerance:
		lc.flush()
		lc.hasLine = true
		lc.curY = y
	case lc.gap:
		if s := lc.cur.String(); s != "" && !strings.HasSuffix(s, " ") && !strings.HasPrefix(text, " ") {
			lc.cur.WriteByte(' ')
		}
	}
	lc.gap = false
	lc.cur.WriteString(text)
}

func (lc *lineCollector) flush() {
	if !lc.hasLine {
		return
	}
	for _, part := range strings.FieldsFunc(lc.cur.String(), func(r rune) bool { return r == '\n' || r == '\r' }) {
		if t := strings.TrimSpace(part); t != "" {
			lc.lines = append(lc.lines, t)
		}
	}
	lc.cur.Reset()
	lc.hasLine = false
}

func twoNumbers(ops []operand) (float64, float64, bool) {
	n := len(ops)
	if n < 2 || ops[n-2].tok.kind != tokNumber || ops[n-1].tok.kind != tokNumber {
		return 0, 0, false
	}
	return ops[n-2].tok.num, ops[n-1].tok.num, true
}

func lastString(ops []operand) ([]byte, bool) {
	n := len(ops)
	if n == 0 || ops[n-1].tok.kind != tokString {
		return nil, false
	}
	return ops[n-1].tok.str, true
}

func joinTJ(items []token) string {
	var b strings.Builder
	for _, it := range items {
		switch it.kind {
		case tokString:
			b.WriteString(decodeText(it.str))
		case tokNumber:
			if it.num < tjSpaceThreshold && b.Len() > 0 {
				b.WriteByte(' ')
			}
		}
	}
	return b.String()
}

var utf16BE = utf16.UTF16(utf16.BigEndian, utf16.ExpectBOM)

// decodeText maps string operand bytes to text: UTF-16BE when BOM-prefixed,
// otherwise as a single-byte encoding. Control characters are dropped.
func decodeText(raw []byte) string {
	var (
		out []byte
		err error
	)
	if len(raw) >= 2 && raw[0] == 0xFE && raw[1] == 0xFF {
		out, err = utf16BE.NewDecoder().Bytes(raw)
	} else {
		out, err = charmap.Windows1252.NewDecoder().Bytes(raw)
	}
	if err != nil {
		return ""
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\r':
			return r
		case r == '\t':
			return ' '
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, string(out))
}
