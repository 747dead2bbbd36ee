package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/taylorza/zopt/intern"
	"github.com/taylorza/zopt/rule"
)

// sliceSource/sliceSink adapt plain string slices to LineSource/LineSink
// so tests can drive the engine without touching the filesystem.
type sliceSource struct {
	lines []string
	pos   int
}

func (s *sliceSource) ReadLine() (string, bool, error) {
	if s.pos >= len(s.lines) {
		return "", false, nil
	}
	line := s.lines[s.pos]
	s.pos++
	return line, true, nil
}

type sliceSink struct {
	lines []string
}

func (s *sliceSink) WriteLine(line string) error {
	s.lines = append(s.lines, line)
	return nil
}

func run(t *testing.T, rulesText, inputText string) []string {
	t.Helper()
	tbl := intern.NewTable()
	rules, err := rule.Parse([]byte(rulesText), tbl)
	require.NoError(t, err)
	eng, err := New(tbl, rules)
	require.NoError(t, err)

	src := &sliceSource{lines: strings.Split(strings.TrimRight(inputText, "\n"), "\n")}
	dst := &sliceSink{}
	require.NoError(t, eng.Run(src, dst))
	return dst.lines
}

// S1 — simple single-line rewrite.
func TestScenarioSimpleRewrite(t *testing.T) {
	out := run(t, `pattern:
ld a, 0
replacement:
xor a
`, "ld a, 0\nret\n")
	require.Equal(t, []string{"xor a", "ret"}, out)
}

// S2 — variable binding with constraint.
func TestScenarioConstraintGate(t *testing.T) {
	rules := `pattern:
ld $0, $1
replacement:
ld $0, $1
constraints:
isnumeric $1 and $1 = 0
`
	require.Equal(t, []string{"ld a, 0"}, run(t, rules, "ld a, 0\n"))
	require.Equal(t, []string{"ld a, 5"}, run(t, rules, "ld a, 5\n"))
}

// S3 — two-line pattern collapses to nothing.
func TestScenarioTwoLinePatternCollapse(t *testing.T) {
	rules := `pattern:
push $0
pop $0
replacement:
-
-
`
	out := run(t, rules, "push bc\npop bc\nret\n")
	require.Equal(t, []string{"ret"}, out)
}

// S4 — $eval in the replacement.
func TestScenarioEval(t *testing.T) {
	rules := `pattern:
add $0, $1
constraints:
isnumeric $1
replacement:
add $0, $eval($1+1)
`
	out := run(t, rules, "add hl, 3\n")
	require.Equal(t, []string{"add hl, 4"}, out)
}

// S5 — repeated variable acts as an equality constraint.
func TestScenarioRepeatedVariable(t *testing.T) {
	rules := `pattern:
mov $0, $0
replacement:
-
`
	out := run(t, rules, "mov r1, r1\nmov r1, r2\n")
	require.Equal(t, []string{"mov r1, r2"}, out)
}

// S6 — cascaded rewrite: rule 1's output triggers rule 2 before either
// line is ever emitted.
func TestScenarioCascade(t *testing.T) {
	rules := `pattern:
ld a, 0
replacement:
xor a

pattern:
xor a
xor a
replacement:
xor a
`
	out := run(t, rules, "ld a, 0\nxor a\n")
	require.Equal(t, []string{"xor a"}, out)
}

func TestEmptyRuleFileIsIdentity(t *testing.T) {
	out := run(t, "", "push bc\npop bc\nret\n")
	require.Equal(t, []string{"push bc", "pop bc", "ret"}, out)
}

func TestNoOpReplacementEqualToPattern(t *testing.T) {
	rules := `pattern:
nop
replacement:
nop
`
	out := run(t, rules, "nop\nret\n")
	require.Equal(t, []string{"nop", "ret"}, out)
}

func TestNonMatchingInputPassesThroughUnchanged(t *testing.T) {
	rules := `pattern:
ld a, 0
replacement:
xor a
`
	out := run(t, rules, "ld b, 1\nld c, 2\n")
	require.Equal(t, []string{"ld b, 1", "ld c, 2"}, out)
}

func TestStatsRecordsPerRuleApplyCount(t *testing.T) {
	tbl := intern.NewTable()
	rules, err := rule.Parse([]byte(`pattern:
ld a, 0
replacement:
xor a
`), tbl)
	require.NoError(t, err)
	eng, err := New(tbl, rules)
	require.NoError(t, err)

	src := &sliceSource{lines: []string{"ld a, 0", "ld a, 0", "ret"}}
	dst := &sliceSink{}
	require.NoError(t, eng.Run(src, dst))

	require.Equal(t, []string{"xor a", "xor a", "ret"}, dst.lines)
	require.Equal(t, uint64(2), eng.Stats.TotalRewrites)
	require.Equal(t, uint64(2), eng.Stats.Applied[0])
}

func TestRewriteCapDetectsSelfRegeneratingRule(t *testing.T) {
	tbl := intern.NewTable()
	rules, err := rule.Parse([]byte(`pattern:
loop
replacement:
jump

pattern:
jump
replacement:
loop
`), tbl)
	require.NoError(t, err)
	eng, err := New(tbl, rules)
	require.NoError(t, err)
	eng.RewriteCap = 5

	src := &sliceSource{lines: []string{"loop"}}
	dst := &sliceSink{}
	err = eng.Run(src, dst)
	require.Error(t, err)
}

func TestNewWithLimitsHonorsConfiguredRewriteCap(t *testing.T) {
	tbl := intern.NewTable()
	rules, err := rule.Parse([]byte(`pattern:
loop
replacement:
jump

pattern:
jump
replacement:
loop
`), tbl)
	require.NoError(t, err)
	eng, err := NewWithLimits(tbl, rules, 5, 0)
	require.NoError(t, err)
	require.Equal(t, 5, eng.rewriteCap())

	src := &sliceSource{lines: []string{"loop"}}
	dst := &sliceSink{}
	err = eng.Run(src, dst)
	require.Error(t, err)
}

func TestNewWithLimitsClampsMaxWindowSizeCeiling(t *testing.T) {
	tbl := intern.NewTable()
	rules, err := rule.Parse([]byte(`pattern:
a
b
c
replacement:
x
`), tbl)
	require.NoError(t, err)
	eng, err := NewWithLimits(tbl, rules, 0, 2)
	require.NoError(t, err)
	require.Equal(t, 2, eng.MaxWindowSize)
}

func TestReplacementOverflowRejectedAtCompile(t *testing.T) {
	tbl := intern.NewTable()
	rules, err := rule.Parse([]byte(`pattern:
a
replacement:
b
c
`), tbl)
	require.NoError(t, err)
	_, err = New(tbl, rules)
	require.Error(t, err)
}

func TestStepAppliedThenEmitted(t *testing.T) {
	tbl := intern.NewTable()
	rules, err := rule.Parse([]byte(`pattern:
ld a, 0
replacement:
xor a
`), tbl)
	require.NoError(t, err)
	eng, err := New(tbl, rules)
	require.NoError(t, err)

	src := &sliceSource{lines: []string{"ld a, 0", "ret"}}
	dst := &sliceSink{}
	require.NoError(t, eng.Prime(src))

	res, err := eng.Step(src, dst)
	require.NoError(t, err)
	require.Equal(t, StepApplied, res.Outcome)
	require.Equal(t, []string{"xor a"}, eng.Window())

	res, err = eng.Step(src, dst)
	require.NoError(t, err)
	require.Equal(t, StepEmitted, res.Outcome)
	require.Equal(t, "xor a", res.EmittedLine)

	res, err = eng.Step(src, dst)
	require.NoError(t, err)
	require.Equal(t, StepEmitted, res.Outcome)
	require.Equal(t, "ret", res.EmittedLine)

	res, err = eng.Step(src, dst)
	require.NoError(t, err)
	require.Equal(t, StepDone, res.Outcome)

	require.Equal(t, []string{"xor a", "ret"}, dst.lines)
}

func TestBindingsReflectLastMatch(t *testing.T) {
	tbl := intern.NewTable()
	rules, err := rule.Parse([]byte(`pattern:
ld a, $0
replacement:
xor $0
`), tbl)
	require.NoError(t, err)
	eng, err := New(tbl, rules)
	require.NoError(t, err)

	src := &sliceSource{lines: []string{"ld a, 7"}}
	dst := &sliceSink{}
	require.NoError(t, eng.Prime(src))

	_, err = eng.Step(src, dst)
	require.NoError(t, err)

	v, ok := eng.Bindings().Get(0)
	require.True(t, ok)
	require.Equal(t, "7", v)
}
