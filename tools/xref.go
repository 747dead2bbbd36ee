// Package tools provides rule-file analysis utilities that are not part
// of the rewrite engine itself: a binding cross-reference report and a
// lint pass over a compiled rule set. Retargeted from the teacher's
// symbol cross-referencer (tools/xref.go) and linter (tools/lint.go),
// which analyze ARM assembly symbols, to analyze $0..$9 bindings across
// rule patterns, constraints, and replacements.
package tools

import (
	"fmt"
	"sort"
	"strings"

	"github.com/taylorza/zopt/langexpr"
	"github.com/taylorza/zopt/rule"
)

// BindingUse records one place a binding slot was referenced.
type BindingUse struct {
	RuleIndex int    // index into the rule set
	RuleLine  int    // Rule.SourceLine, for diagnostics
	Section   string // "pattern", "constraint", or "replacement"
}

// BindingXRef collects every pattern-side bind and constraint/
// replacement-side use of one binding slot (0..9) across a rule set.
type BindingXRef struct {
	Slot  int
	Binds []BindingUse // rules whose pattern binds this slot
	Uses  []BindingUse // rules whose constraint or replacement reads it
}

// Unused reports whether this slot is bound somewhere but never read.
func (x *BindingXRef) Unused() bool {
	return len(x.Binds) > 0 && len(x.Uses) == 0
}

// CrossReference walks rules and returns one BindingXRef per slot
// 0..9 that is bound or used anywhere, sorted by slot index.
func CrossReference(rules []*rule.Rule) []*BindingXRef {
	bySlot := make(map[int]*BindingXRef)
	get := func(slot int) *BindingXRef {
		x, ok := bySlot[slot]
		if !ok {
			x = &BindingXRef{Slot: slot}
			bySlot[slot] = x
		}
		return x
	}

	for ri, r := range rules {
		for _, slot := range patternSlots(r) {
			x := get(slot)
			x.Binds = append(x.Binds, BindingUse{RuleIndex: ri, RuleLine: r.SourceLine, Section: "pattern"})
		}
		if r.Constraint != nil {
			for _, slot := range constraintSlots(r.Constraint) {
				x := get(slot)
				x.Uses = append(x.Uses, BindingUse{RuleIndex: ri, RuleLine: r.SourceLine, Section: "constraint"})
			}
		}
		for _, slot := range replacementSlots(r) {
			x := get(slot)
			x.Uses = append(x.Uses, BindingUse{RuleIndex: ri, RuleLine: r.SourceLine, Section: "replacement"})
		}
	}

	out := make([]*BindingXRef, 0, len(bySlot))
	for _, x := range bySlot {
		out = append(out, x)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slot < out[j].Slot })
	return out
}

// patternSlots returns the distinct $d indices a rule's pattern lines
// reference, in first-seen order.
func patternSlots(r *rule.Rule) []int {
	var slots []int
	seen := make(map[int]bool)
	for _, p := range r.Pattern {
		s := p.String()
		for i := 0; i < len(s); i++ {
			if s[i] == '$' && i+1 < len(s) && s[i+1] >= '0' && s[i+1] <= '9' {
				idx := int(s[i+1] - '0')
				if !seen[idx] {
					seen[idx] = true
					slots = append(slots, idx)
				}
				i++
			}
		}
	}
	return slots
}

// replacementSlots returns the distinct $d indices a rule's replacement
// templates reference, scanning each template as plain text, so a $d
// inside an $eval(...) body is counted too.
func replacementSlots(r *rule.Rule) []int {
	var slots []int
	seen := make(map[int]bool)
	for _, tmpl := range r.Replacement {
		s := tmpl.String()
		for i := 0; i < len(s); i++ {
			if s[i] == '$' && i+1 < len(s) && s[i+1] >= '0' && s[i+1] <= '9' {
				idx := int(s[i+1] - '0')
				if !seen[idx] {
					seen[idx] = true
					slots = append(slots, idx)
				}
				i++
			}
		}
	}
	return slots
}

// constraintSlots returns the distinct $d indices a compiled constraint
// references, read directly off the compiled token stream rather than
// re-lexing the source text.
func constraintSlots(ce *langexpr.CompiledExpr) []int {
	var slots []int
	seen := make(map[int]bool)
	for _, e := range ce.Entries() {
		if e.Type == langexpr.TokVariable {
			idx := int(e.IVal)
			if !seen[idx] {
				seen[idx] = true
				slots = append(slots, idx)
			}
		}
	}
	return slots
}

// FormatXRef renders a human-readable cross-reference report, teacher style
// (a plain fixed-width listing rather than a table library).
func FormatXRef(xrefs []*BindingXRef) string {
	var sb strings.Builder
	sb.WriteString("Binding cross-reference\n")
	sb.WriteString("========================\n\n")
	for _, x := range xrefs {
		fmt.Fprintf(&sb, "$%d\n", x.Slot)
		for _, b := range x.Binds {
			fmt.Fprintf(&sb, "  bound   rule@line%d (pattern)\n", b.RuleLine)
		}
		for _, u := range x.Uses {
			fmt.Fprintf(&sb, "  used    rule@line%d (%s)\n", u.RuleLine, u.Section)
		}
		if x.Unused() {
			fmt.Fprintf(&sb, "  warning: $%d is bound but never used\n", x.Slot)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
