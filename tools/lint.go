package tools

import (
	"fmt"

	"github.com/taylorza/zopt/intern"
	"github.com/taylorza/zopt/rule"
)

// LintLevel represents the severity of a lint finding.
type LintLevel int

const (
	LintError   LintLevel = iota // the rule can never have its intended effect
	LintWarning                  // likely a mistake, but structurally legal
	LintInfo                     // style observation
)

func (l LintLevel) String() string {
	switch l {
	case LintError:
		return "error"
	case LintWarning:
		return "warning"
	case LintInfo:
		return "info"
	default:
		return "unknown"
	}
}

// LintIssue is a single finding, tagged with the rule's source line.
type LintIssue struct {
	Level   LintLevel
	Line    int
	RuleIdx int
	Message string
	Code    string
}

func (i *LintIssue) String() string {
	return fmt.Sprintf("line %d: %s: %s [%s]", i.Line, i.Level, i.Message, i.Code)
}

// LintOptions controls which checks the linter runs.
type LintOptions struct {
	CheckShadowed    bool // rule shadowed by an earlier unconditional identical pattern
	CheckUnboundRefs bool // constraint/replacement references a slot never bound by the pattern
	CheckUnusedBinds bool // pattern binds a slot no constraint or replacement reads
}

// DefaultLintOptions returns the linter's default check set.
func DefaultLintOptions() *LintOptions {
	return &LintOptions{
		CheckShadowed:    true,
		CheckUnboundRefs: true,
		CheckUnusedBinds: true,
	}
}

// Linter analyzes a compiled rule set for issues that parse successfully
// but are almost certainly not what the rule-file author intended:
// unreachable rules, constraints or replacements that reference a slot
// the pattern never binds, and bindings that are captured but never
// used anywhere.
type Linter struct {
	options *LintOptions
	rules   []*rule.Rule
	issues  []*LintIssue
}

// NewLinter creates a Linter over rules using opts (DefaultLintOptions
// if nil).
func NewLinter(rules []*rule.Rule, opts *LintOptions) *Linter {
	if opts == nil {
		opts = DefaultLintOptions()
	}
	return &Linter{options: opts, rules: rules}
}

// Run executes every enabled check and returns the accumulated issues in
// rule order.
func (l *Linter) Run() []*LintIssue {
	l.issues = nil

	if l.options.CheckShadowed {
		l.checkShadowed()
	}
	if l.options.CheckUnboundRefs {
		l.checkUnboundRefs()
	}
	if l.options.CheckUnusedBinds {
		l.checkUnusedBinds()
	}

	return l.issues
}

func (l *Linter) add(level LintLevel, ruleIdx, line int, code, msg string) {
	l.issues = append(l.issues, &LintIssue{Level: level, Line: line, RuleIdx: ruleIdx, Code: code, Message: msg})
}

// checkShadowed flags a rule whose pattern is byte-for-byte identical to
// a strictly earlier rule that has no constraint: the earlier rule, being
// tried first in declaration order (spec.md §4.7/§5), always wins, so the
// later rule can never fire. (The one exception, not detected here, is
// an earlier rule whose rendered replacement equals the matched lines:
// the engine passes over such a no-op rewrite.)
func (l *Linter) checkShadowed() {
	for i, r := range l.rules {
		for j := 0; j < i; j++ {
			earlier := l.rules[j]
			if earlier.Constraint != nil {
				continue
			}
			if samePattern(earlier.Pattern, r.Pattern) {
				l.add(LintError, i, r.SourceLine, "UNREACHABLE_RULE",
					fmt.Sprintf("shadowed by unconditional rule at line %d with an identical pattern", earlier.SourceLine))
				break
			}
		}
	}
}

func samePattern(a, b []intern.String) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// checkUnboundRefs flags a constraint or replacement that references
// $d for a slot the rule's own pattern never binds: in a constraint (or
// an $eval(...) body) such a reference is an InvalidBinding error the
// moment the rule structurally matches (langexpr.Evaluate), while a plain
// $d in a replacement expands to the empty string (rule.SubstituteLine).
// Either way it signals the rule was probably meant to bind that slot
// and didn't.
func (l *Linter) checkUnboundRefs() {
	for i, r := range l.rules {
		bound := make(map[int]bool)
		for _, s := range patternSlots(r) {
			bound[s] = true
		}
		if r.Constraint != nil {
			for _, s := range constraintSlots(r.Constraint) {
				if !bound[s] {
					l.add(LintError, i, r.SourceLine, "UNBOUND_CONSTRAINT_REF",
						fmt.Sprintf("constraint references $%d, which this rule's pattern never binds", s))
				}
			}
		}
		for _, s := range replacementSlots(r) {
			if !bound[s] {
				l.add(LintWarning, i, r.SourceLine, "UNBOUND_REPLACEMENT_REF",
					fmt.Sprintf("replacement references $%d, which this rule's pattern never binds (expands to empty)", s))
			}
		}
	}
}

// checkUnusedBinds flags a pattern placeholder that is captured but
// never read by the constraint or replacement: usually a sign the
// pattern was copied from another rule and the author forgot to use the
// slot, or could have used a literal `$d` instead of leaving it
// unconstrained.
func (l *Linter) checkUnusedBinds() {
	for i, r := range l.rules {
		used := make(map[int]bool)
		if r.Constraint != nil {
			for _, s := range constraintSlots(r.Constraint) {
				used[s] = true
			}
		}
		for _, s := range replacementSlots(r) {
			used[s] = true
		}
		seen := make(map[int]bool)
		for _, s := range patternSlots(r) {
			if seen[s] {
				continue
			}
			seen[s] = true
			if !used[s] {
				l.add(LintInfo, i, r.SourceLine, "UNUSED_BINDING",
					fmt.Sprintf("$%d is captured by the pattern but never read", s))
			}
		}
	}
}

// HasErrors reports whether Run found any LintError-level issue.
func HasErrors(issues []*LintIssue) bool {
	for _, iss := range issues {
		if iss.Level == LintError {
			return true
		}
	}
	return false
}
