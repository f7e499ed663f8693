package importer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	dmyRe        = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	thousandsRe  = regexp.MustCompile(`^-?\d{1,3}(,\d{3})+(\.\d+)?$`)
	arithmeticRe = regexp.MustCompile(`^[\d.+\-*/()\s]+$`)
)

// NormalizeCell converts the spreadsheet dialects seen in uploaded
// files into store form: DD/MM/YYYY dates, thousand-separated numbers
// and simple arithmetic expressions like "1500+300*2".
func NormalizeCell(table, column, raw string) interface{} {
	v := strings.TrimSpace(raw)
	if v == "" {
		return nil
	}

	if isDateColumn(column) {
		if m := dmyRe.FindStringSubmatch(v); m != nil {
			day, _ := strconv.Atoi(m[1])
			month, _ := strconv.Atoi(m[2])
			return fmt.Sprintf("%s-%02d-%02d", m[3], month, day)
		}
		return v
	}

	if thousandsRe.MatchString(v) {
		if f, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", ""), 64); err == nil {
			return f
		}
	}
	if arithmeticRe.MatchString(v) && strings.ContainsAny(v, "+-*/") {
		if f, ok := EvalArithmetic(v); ok {
			return f
		}
	}
	return v
}

func isDateColumn(column string) bool {
	c := strings.ToLower(column)
	return strings.Contains(c, "date") || strings.Contains(c, "time") ||
		strings.Contains(c, "expiry")
}

// EvalArithmetic evaluates +,-,*,/ with parentheses over decimal
// literals. Returns false on any malformed input or division by zero.
func EvalArithmetic(expr string) (float64, bool) {
	p := &exprParser{src: strings.TrimSpace(expr)}
	v, ok := p.parseExpr()
	p.skipSpace()
	if !ok || p.pos != len(p.src) {
		return 0, false
	}
	return v, true
}

type exprParser struct {
	src string
	pos int
}

func (p *exprParser) skipSpace() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *exprParser) peek() byte {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *exprParser) parseExpr() (float64, bool) {
	left, ok := p.parseTerm()
	if !ok {
		return 0, false
	}
	for {
		switch p.peek() {
		case '+':
			p.pos++
			right, ok := p.parseTerm()
			if !ok {
				return 0, false
			}
			left += right
		case '-':
			p.pos++
			right, ok := p.parseTerm()
			if !ok {
				return 0, false
			}
			left -= right
		default:
			return left, true
		}
	}
}

func (p *exprParser) parseTerm() (float64, bool) {
	left, ok := p.parseFactor()
	if !ok {
		return 0, false
	}
	for {
		switch p.peek() {
		case '*':
			p.pos++
			right, ok := p.parseFactor()
			if !ok {
				return 0, false
			}
			left *= right
		case '/':
			p.pos++
			right, ok := p.parseFactor()
			if !ok || right == 0 {
				return 0, false
			}
			left /= right
		default:
			return left, true
		}
	}
}

func (p *exprParser) parseFactor() (float64, bool) {
	switch c := p.peek(); {
	case c == '(':
		p.pos++
		v, ok := p.parseExpr()
		if !ok || p.peek() != ')' {
			return 0, false
		}
		p.pos++
		return v, true
	case c == '-':
		p.pos++
		v, ok := p.parseFactor()
		return -v, ok
	case c >= '0' && c <= '9' || c == '.':
		start := p.pos
		for p.pos < len(p.src) && (p.src[p.pos] >= '0' && p.src[p.pos] <= '9' || p.src[p.pos] == '.') {
			p.pos++
		}
		v, err := strconv.ParseFloat(p.src[start:p.pos], 64)
		return v, err == nil
	}
	return 0, false
}
