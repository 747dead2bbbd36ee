// Package rule defines the compiled Rule record, the pattern matcher
// that binds $n placeholders against window lines, the replacement
// template substitution, and the line-oriented rule-file parser that
// produces a list of Rules.
package rule

import (
	"github.com/taylorza/zopt/intern"
	"github.com/taylorza/zopt/langexpr"
)

// MaxLineLength is the maximum byte length of a rule-file or
// input-program line.
const MaxLineLength = 80

// MaxWindowSize is the largest number of lines a pattern or replacement
// may span, and the ceiling on the window engine's sliding window.
const MaxWindowSize = 15

// Rule is one pattern/replacement pair with an optional guarding
// constraint, as produced by Parse.
type Rule struct {
	// SourceLine is the rule-file line number of the "pattern:" header
	// that introduced this rule, used in diagnostics.
	SourceLine int

	// Pattern holds 1..MaxWindowSize interned pattern lines.
	Pattern []intern.String

	// Replacement holds 0..MaxWindowSize interned replacement line
	// templates.
	Replacement []intern.String

	// ReplacementBlank marks, index for index with Replacement, which
	// lines were written as a bare "-" in the rule file rather than an
	// actual (possibly empty) template. A "-" line renders to the empty
	// string like any other, but the window engine omits it from the
	// window entirely instead of splicing in a blank line, matching the
	// worked "two empty replacement lines collapse" example.
	ReplacementBlank []bool

	// Constraint is the compiled guard expression, or nil if the rule
	// applies unconditionally whenever it structurally matches.
	Constraint *langexpr.CompiledExpr
}
