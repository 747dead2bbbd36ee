package intern

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInternIdempotent(t *testing.T) {
	tbl := NewTable()

	a := tbl.Intern("ld a, 0")
	b := tbl.Intern("ld a, 0")

	require.Equal(t, a, b)
	require.Equal(t, a.String(), "ld a, 0")
	require.Equal(t, 1, tbl.Len())
}

func TestInternDistinctValues(t *testing.T) {
	tbl := NewTable()

	tbl.Intern("push bc")
	tbl.Intern("pop bc")
	tbl.Intern("push bc")

	require.Equal(t, 2, tbl.Len())
}

func TestInternEmptyString(t *testing.T) {
	tbl := NewTable()

	a := tbl.Intern("")
	b := tbl.Intern("")

	require.Equal(t, a, b)
	require.Equal(t, "", a.String())
}

func TestInternCollisionChain(t *testing.T) {
	tbl := NewTable()

	// Force many entries through the same fixed bucket count to exercise
	// the chain-walk in Intern.
	values := []string{}
	for i := 0; i < 500; i++ {
		values = append(values, string(rune('a'+i%26))+string(rune('0'+i%10)))
	}

	seen := map[string]String{}
	for _, v := range values {
		s := tbl.Intern(v)
		if prev, ok := seen[v]; ok {
			require.Equal(t, prev, s)
		}
		seen[v] = s
	}
}
