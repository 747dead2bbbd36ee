// Package intern canonicalizes immutable byte strings so that equal
// content shares a single stable backing allocation. Rule patterns,
// replacement templates, expression literals, and pattern-match bindings
// are all interned through a Table so that repeated values never
// duplicate storage for the lifetime of a run.
package intern

// bucketCount is the fixed bucket count for the chaining hash table.
// The source implementation (dataarea.c) used 101; we keep that shape.
const bucketCount = 101

// String is an interned, immutable string. Two Strings produced by the
// same Table for equal byte content compare equal by value; callers must
// not rely on identity comparison being part of the contract even though
// a single Table happens to satisfy it.
type String struct {
	s string
}

// String returns the underlying Go string.
func (i String) String() string {
	return i.s
}

// Len returns the byte length of the interned string.
func (i String) Len() int {
	return len(i.s)
}

type node struct {
	str  string
	next *node
}

// Table is a string interner. A Table is not safe for concurrent use;
// the engine owns exactly one Table per run.
type Table struct {
	buckets [bucketCount]*node
	count   int
}

// NewTable creates an empty interning table.
func NewTable() *Table {
	return &Table{}
}

// hash computes the bucket index for s using the same additive
// multiply-by-31 scheme as the reference implementation's hash().
func hash(s string) int {
	h := 0
	for i := 0; i < len(s); i++ {
		h += int(s[i]) * 31
	}
	h %= bucketCount
	if h < 0 {
		h += bucketCount
	}
	return h
}

// Intern returns the canonical String for s, allocating a new entry only
// if an equal string has not already been interned by this Table.
func (t *Table) Intern(s string) String {
	h := hash(s)
	for n := t.buckets[h]; n != nil; n = n.next {
		if n.str == s {
			return String{s: n.str}
		}
	}
	n := &node{str: s}
	n.next = t.buckets[h]
	t.buckets[h] = n
	t.count++
	return String{s: n.str}
}

// Len reports how many distinct strings have been interned so far.
func (t *Table) Len() int {
	return t.count
}
