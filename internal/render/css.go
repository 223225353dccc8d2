package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

type argKind int

const (
	argNumber argKind = iota
	argPercent
	argDimension
	argColor
)

// cssArg is a single argument of a CSS function such as blur(4px).
type cssArg struct {
	kind argKind
	num  float64
	unit string
	text string
}

// cssFunc is one parsed function call from a CSS value list.
type cssFunc struct {
	name string
	args []cssArg
}

// parseFuncs tokenises a space separated list of CSS function calls.
// Nested function calls (rgb(...) inside drop-shadow) are kept as colour
// arguments holding their raw text.
func parseFuncs(s string) ([]cssFunc, error) {
	l := css.NewLexer(parse.NewInputString(s))
	var (
		out    []cssFunc
		cur    *cssFunc
		nested strings.Builder
		depth  int
	)
	for {
		tt, data := l.Next()
		if tt == css.ErrorToken {
			break
		}
		text := string(data)
		if depth > 1 {
			nested.WriteString(text)
			switch tt {
			case css.FunctionToken:
				depth++
			case css.RightParenthesisToken:
				depth--
				if depth == 1 {
					cur.args = append(cur.args, cssArg{kind: argColor, text: nested.String()})
					nested.Reset()
				}
			}
			continue
		}
		switch tt {
		case css.WhitespaceToken, css.CommaToken:
		case css.FunctionToken:
			if cur == nil {
				out = append(out, cssFunc{name: strings.ToLower(strings.TrimSuffix(text, "("))})
				cur = &out[len(out)-1]
				depth = 1
				continue
			}
			depth = 2
			nested.WriteString(text)
		case css.RightParenthesisToken:
			if cur == nil {
				return nil, fmt.Errorf("unexpected %q", text)
			}
			cur = nil
			depth = 0
		case css.NumberToken, css.PercentageToken, css.DimensionToken:
			if cur == nil {
				return nil, fmt.Errorf("value %q outside a function", text)
			}
			arg, err := numericArg(tt, text)
			if err != nil {
				return nil, err
			}
			cur.args = append(cur.args, arg)
		case css.HashToken, css.IdentToken:
			if cur == nil {
				if tt == css.IdentToken && strings.EqualFold(text, "none") {
					continue
				}
				return nil, fmt.Errorf("unexpected %q", text)
			}
			cur.args = append(cur.args, cssArg{kind: argColor, text: text})
		default:
			return nil, fmt.Errorf("unexpected token %q", text)
		}
	}
	if cur != nil {
		return nil, fmt.Errorf("unterminated %s(", cur.name)
	}
	return out, nil
}

func numericArg(tt css.TokenType, text string) (cssArg, error) {
	switch tt {
	case css.PercentageToken:
		v, err := strconv.ParseFloat(strings.TrimSuffix(text, "%"), 64)
		if err != nil {
			return cssArg{}, fmt.Errorf("percentage %q: %w", text, err)
		}
		return cssArg{kind: argPercent, num: v / 100}, nil
	case css.DimensionToken:
		i := len(text)
		for i > 0 && isUnitLetter(text[i-1]) {
			i--
		}
		v, err := strconv.ParseFloat(text[:i], 64)
		if err != nil {
			return cssArg{}, fmt.Errorf("dimension %q: %w", text, err)
		}
		return cssArg{kind: argDimension, num: v, unit: strings.ToLower(text[i:])}, nil
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return cssArg{}, fmt.Errorf("number %q: %w", text, err)
	}
	return cssArg{kind: argNumber, num: v}, nil
}

func isUnitLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
