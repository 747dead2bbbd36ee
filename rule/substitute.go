package rule

import (
	"strconv"
	"strings"

	"github.com/taylorza/zopt/intern"
	"github.com/taylorza/zopt/langexpr"
	"github.com/taylorza/zopt/zerr"
)

// SubstituteLine expands a replacement template against bindings. A
// "$d" reference is replaced with the bound text for slot d, or the
// empty string if d was never bound. A "$eval(...)" span is replaced
// with the decimal rendering of evaluating the balanced-paren
// expression inside it. Any other "$" is copied through literally and
// the scan advances a single byte, so "$$" reproduces unchanged. The
// result is truncated to MaxLineLength, matching the fixed output
// buffers of the original line-rewriting tool.
func SubstituteLine(tmpl string, b *langexpr.Bindings, table *intern.Table, line int) (string, error) {
	var out strings.Builder
	i := 0
	for i < len(tmpl) {
		if tmpl[i] != '$' {
			out.WriteByte(tmpl[i])
			i++
			continue
		}

		if i+1 < len(tmpl) && isDigitByte(tmpl[i+1]) {
			idx := int(tmpl[i+1] - '0')
			val, _ := b.Get(idx)
			out.WriteString(val)
			i += 2
			continue
		}

		if strings.HasPrefix(tmpl[i:], "$eval(") {
			start := i + len("$eval(")
			depth := 1
			j := start
			for j < len(tmpl) && depth > 0 {
				switch tmpl[j] {
				case '(':
					depth++
				case ')':
					depth--
				}
				j++
			}
			if depth != 0 {
				return "", zerr.At(zerr.InvalidExpression, line, "unbalanced $eval(...) in replacement")
			}
			inner := tmpl[start : j-1]
			ce, err := langexpr.Compile(inner, line, table)
			if err != nil {
				return "", err
			}
			val, err := langexpr.Evaluate(ce, b, line)
			if err != nil {
				return "", err
			}
			out.WriteString(strconv.Itoa(int(val)))
			i = j
			continue
		}

		out.WriteByte('$')
		i++
	}

	result := out.String()
	if len(result) > MaxLineLength {
		result = result[:MaxLineLength]
	}
	return result, nil
}
