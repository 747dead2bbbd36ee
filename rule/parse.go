package rule

import (
	"strings"

	"github.com/taylorza/zopt/intern"
	"github.com/taylorza/zopt/langexpr"
	"github.com/taylorza/zopt/zerr"
)

type parserState int

const (
	stateStart parserState = iota
	stateInPattern
	stateInConstraint
	stateInReplacement
)

const (
	headerPattern     = "pattern:"
	headerConstraints = "constraints:"
	headerReplacement = "replacement:"
)

// Parse reads rule-file content and returns the compiled rules in
// declaration order. It implements the pattern:/constraints:/
// replacement: section state machine: a do-while-style re-dispatch on
// the same line happens implicitly because a header line both closes
// the previous section and opens the next without consuming an input
// line of its own.
func Parse(content []byte, table *intern.Table) ([]*Rule, error) {
	p := &parser{table: table, state: stateStart}
	lines := SplitLines(content)

	for i, raw := range lines {
		lineNo := i + 1
		line := strings.TrimRight(raw, " ")
		trimmed := strings.TrimSpace(line)

		if trimmed == "" {
			continue
		}
		if trimmed[0] == '#' {
			continue
		}

		switch {
		case strings.HasPrefix(trimmed, headerPattern):
			if err := p.onPatternHeader(lineNo); err != nil {
				return nil, err
			}
		case strings.HasPrefix(trimmed, headerConstraints):
			if err := p.onConstraintsHeader(lineNo); err != nil {
				return nil, err
			}
		case strings.HasPrefix(trimmed, headerReplacement):
			if err := p.onReplacementHeader(lineNo); err != nil {
				return nil, err
			}
		default:
			if err := p.onBody(line, lineNo); err != nil {
				return nil, err
			}
		}
	}

	if err := p.finish(); err != nil {
		return nil, err
	}
	return p.rules, nil
}

type parser struct {
	table *intern.Table
	rules []*Rule
	state parserState

	sourceLine              int
	pendingPattern          []intern.String
	pendingReplacement      []intern.String
	pendingReplacementBlank []bool
	constraintText          string
	constraintLine          int
	constraintSeen          bool
	sawReplacement          bool
}

func (p *parser) inProgress() bool {
	return p.state != stateStart
}

func (p *parser) reset() {
	p.state = stateStart
	p.sourceLine = 0
	p.pendingPattern = nil
	p.pendingReplacement = nil
	p.pendingReplacementBlank = nil
	p.constraintText = ""
	p.constraintLine = 0
	p.constraintSeen = false
	p.sawReplacement = false
}

func (p *parser) onPatternHeader(lineNo int) error {
	if p.state == stateInReplacement || (p.state == stateInConstraint && p.sawReplacement) {
		if err := p.emit(); err != nil {
			return err
		}
	} else if p.inProgress() {
		return zerr.At(zerr.ExpectedPattern, lineNo, "new pattern: section started before the previous rule reached replacement:")
	}
	p.reset()
	p.state = stateInPattern
	p.sourceLine = lineNo
	return nil
}

func (p *parser) onConstraintsHeader(lineNo int) error {
	if p.state != stateInPattern && p.state != stateInReplacement {
		return zerr.At(zerr.InvalidRule, lineNo, "constraints: section outside of an open pattern")
	}
	if len(p.pendingPattern) == 0 {
		return zerr.At(zerr.ExpectedPattern, lineNo, "constraints: with no preceding pattern lines")
	}
	p.state = stateInConstraint
	return nil
}

func (p *parser) onReplacementHeader(lineNo int) error {
	if p.state != stateInPattern && p.state != stateInConstraint {
		return zerr.At(zerr.InvalidRule, lineNo, "replacement: section outside of an open pattern")
	}
	if len(p.pendingPattern) == 0 {
		return zerr.At(zerr.ExpectedPattern, lineNo, "replacement: with no preceding pattern lines")
	}
	p.state = stateInReplacement
	p.sawReplacement = true
	return nil
}

func (p *parser) onBody(line string, lineNo int) error {
	switch p.state {
	case stateStart:
		return zerr.At(zerr.ExpectedPattern, lineNo, "body line outside of any pattern: section")
	case stateInPattern:
		if len(p.pendingPattern) >= MaxWindowSize {
			return zerr.At(zerr.TooManyLines, lineNo, "pattern exceeds MAX_WINDOW_SIZE lines")
		}
		p.pendingPattern = append(p.pendingPattern, p.table.Intern(line))
		return nil
	case stateInConstraint:
		if p.constraintSeen {
			return zerr.At(zerr.MultilineConstraint, lineNo, "constraints: section must be a single expression line")
		}
		p.constraintText = line
		p.constraintLine = lineNo
		p.constraintSeen = true
		return nil
	case stateInReplacement:
		if len(p.pendingReplacement) >= MaxWindowSize {
			return zerr.At(zerr.TooManyLines, lineNo, "replacement exceeds MAX_WINDOW_SIZE lines")
		}
		if strings.TrimSpace(line) == "-" {
			p.pendingReplacement = append(p.pendingReplacement, p.table.Intern(""))
			p.pendingReplacementBlank = append(p.pendingReplacementBlank, true)
		} else {
			p.pendingReplacement = append(p.pendingReplacement, p.table.Intern(line))
			p.pendingReplacementBlank = append(p.pendingReplacementBlank, false)
		}
		return nil
	}
	return nil
}

func (p *parser) emit() error {
	if len(p.pendingPattern) == 0 {
		return zerr.At(zerr.ExpectedPattern, p.sourceLine, "rule has no pattern lines")
	}
	if !p.sawReplacement {
		return zerr.At(zerr.ExpectedReplacementOrConstraint, p.sourceLine, "rule never reached a replacement: section")
	}

	var constraint *langexpr.CompiledExpr
	if p.constraintSeen {
		ce, err := langexpr.Compile(p.constraintText, p.constraintLine, p.table)
		if err != nil {
			return err
		}
		constraint = ce
	}
	if len(p.pendingReplacement) > MaxWindowSize {
		return zerr.At(zerr.InvalidRule, p.sourceLine, "replacement exceeds MAX_WINDOW_SIZE lines")
	}

	p.rules = append(p.rules, &Rule{
		SourceLine:       p.sourceLine,
		Pattern:          append([]intern.String(nil), p.pendingPattern...),
		Replacement:      append([]intern.String(nil), p.pendingReplacement...),
		ReplacementBlank: append([]bool(nil), p.pendingReplacementBlank...),
		Constraint:       constraint,
	})
	return nil
}

func (p *parser) finish() error {
	if !p.inProgress() {
		return nil
	}
	if len(p.pendingPattern) == 0 {
		return zerr.At(zerr.ExpectedPattern, p.sourceLine, "rule file ended before any pattern lines")
	}
	if !p.sawReplacement {
		return zerr.At(zerr.ExpectedReplacementOrConstraint, p.sourceLine, "rule file ended before a replacement: section")
	}
	return p.emit()
}
