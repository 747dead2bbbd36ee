package tools

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func findIssue(issues []*LintIssue, code string) *LintIssue {
	for _, iss := range issues {
		if iss.Code == code {
			return iss
		}
	}
	return nil
}

func TestLintShadowedRule(t *testing.T) {
	rules := parseRules(t, ""+
		"pattern:\nld a, 0\nreplacement:\nxor a\n"+
		"pattern:\nld a, 0\nreplacement:\nnop\n")

	issues := NewLinter(rules, nil).Run()
	iss := findIssue(issues, "UNREACHABLE_RULE")
	require.NotNil(t, iss)
	require.Equal(t, LintError, iss.Level)
	require.Equal(t, 1, iss.RuleIdx)
}

func TestLintShadowedRuleNotFlaggedWhenEarlierHasConstraint(t *testing.T) {
	rules := parseRules(t, ""+
		"pattern:\nld a, $0\nconstraints:\nisnumeric $0\nreplacement:\nxor a\n"+
		"pattern:\nld a, $0\nreplacement:\nnop\n")

	issues := NewLinter(rules, nil).Run()
	require.Nil(t, findIssue(issues, "UNREACHABLE_RULE"))
}

func TestLintUnboundConstraintRef(t *testing.T) {
	rules := parseRules(t, "pattern:\nld a, 0\nconstraints:\nisnumeric $1\nreplacement:\nnop\n")

	issues := NewLinter(rules, nil).Run()
	iss := findIssue(issues, "UNBOUND_CONSTRAINT_REF")
	require.NotNil(t, iss)
	require.Equal(t, LintError, iss.Level)
}

func TestLintUnboundReplacementRef(t *testing.T) {
	rules := parseRules(t, "pattern:\nld a, 0\nreplacement:\nld a, $1\n")

	issues := NewLinter(rules, nil).Run()
	iss := findIssue(issues, "UNBOUND_REPLACEMENT_REF")
	require.NotNil(t, iss)
	require.Equal(t, LintWarning, iss.Level)
}

func TestLintUnusedBinding(t *testing.T) {
	rules := parseRules(t, "pattern:\nld a, $0\nreplacement:\nnop\n")

	issues := NewLinter(rules, nil).Run()
	iss := findIssue(issues, "UNUSED_BINDING")
	require.NotNil(t, iss)
	require.Equal(t, LintInfo, iss.Level)
}

func TestLintCleanRuleProducesNoIssues(t *testing.T) {
	rules := parseRules(t, "pattern:\nld a, $0\nreplacement:\nxor $0\n")

	issues := NewLinter(rules, nil).Run()
	require.Empty(t, issues)
}

func TestHasErrors(t *testing.T) {
	require.False(t, HasErrors(nil))
	require.True(t, HasErrors([]*LintIssue{{Level: LintError}}))
	require.False(t, HasErrors([]*LintIssue{{Level: LintWarning}, {Level: LintInfo}}))
}

func TestDefaultLintOptionsAllEnabled(t *testing.T) {
	opts := DefaultLintOptions()
	require.True(t, opts.CheckShadowed)
	require.True(t, opts.CheckUnboundRefs)
	require.True(t, opts.CheckUnusedBinds)
}
