package tools

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/taylorza/zopt/intern"
	"github.com/taylorza/zopt/rule"
)

func parseRules(t *testing.T, src string) []*rule.Rule {
	t.Helper()
	rules, err := rule.Parse([]byte(src), intern.NewTable())
	require.NoError(t, err)
	return rules
}

func TestCrossReferenceBindAndUse(t *testing.T) {
	rules := parseRules(t, "pattern:\nld a, $0\nreplacement:\nxor $0\n")

	xrefs := CrossReference(rules)
	require.Len(t, xrefs, 1)
	require.Equal(t, 0, xrefs[0].Slot)
	require.Len(t, xrefs[0].Binds, 1)
	require.Equal(t, "pattern", xrefs[0].Binds[0].Section)
	require.Len(t, xrefs[0].Uses, 1)
	require.Equal(t, "replacement", xrefs[0].Uses[0].Section)
	require.False(t, xrefs[0].Unused())
}

func TestCrossReferenceUnusedBinding(t *testing.T) {
	rules := parseRules(t, "pattern:\nld a, $0\nreplacement:\nnop\n")

	xrefs := CrossReference(rules)
	require.Len(t, xrefs, 1)
	require.True(t, xrefs[0].Unused())
}

func TestCrossReferenceConstraintUse(t *testing.T) {
	rules := parseRules(t, "pattern:\nld a, $0\nconstraints:\nisnumeric $0\nreplacement:\nxor $0\n")

	xrefs := CrossReference(rules)
	require.Len(t, xrefs, 1)
	require.Len(t, xrefs[0].Uses, 2)
	sections := map[string]bool{}
	for _, u := range xrefs[0].Uses {
		sections[u.Section] = true
	}
	require.True(t, sections["constraint"])
	require.True(t, sections["replacement"])
}

func TestCrossReferenceMultipleSlotsSortedBySlot(t *testing.T) {
	rules := parseRules(t, "pattern:\nld $1, $0\nreplacement:\nld $0, $1\n")

	xrefs := CrossReference(rules)
	require.Len(t, xrefs, 2)
	require.Equal(t, 0, xrefs[0].Slot)
	require.Equal(t, 1, xrefs[1].Slot)
}

func TestFormatXRefIncludesUnusedWarning(t *testing.T) {
	rules := parseRules(t, "pattern:\nld a, $0\nreplacement:\nnop\n")
	xrefs := CrossReference(rules)

	report := FormatXRef(xrefs)
	require.Contains(t, report, "$0")
	require.Contains(t, report, "bound but never used")
}
