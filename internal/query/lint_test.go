package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLint_Clean(t *testing.T) {
	c := AndAll(
		Eq("status", "ACTIVE"),
		In("tags", "a", "b"),
		Like("name", "^A"),
		RawOp("email", "$exists", nil),
	)
	assert.Empty(t, Lint(c))
	assert.Empty(t, Lint(nil))
}

func TestLint_Warnings(t *testing.T) {
	testCases := []struct {
		name  string
		cond  Condition
		code  string
		field string
	}{
		{"eq nil", Eq("email", nil), WarnNullCompare, "email"},
		{"ne nil", Not(Ne("email", nil)), WarnNullCompare, "email"},
		{"empty in", In("tags"), WarnEmptySet, "tags"},
		{"empty nin", Nin("tags"), WarnEmptySet, "tags"},
		{"scalar in", Cmp("tags", OpIN, "a"), WarnNotAList, "tags"},
		{"nil in", Cmp("tags", OpIN, nil), WarnNotAList, "tags"},
		{"regex pattern", Like("name", 42), WarnPatternType, "name"},
		{"nil branch", Logical{Op: LogicOR, Left: Eq("a", 1)}, WarnEmptyBranch, ""},
		{"pointer node", &Comparison{Field: "x", Op: OpEQ}, WarnNullCompare, "x"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Lint(tc.cond)
			require.Len(t, got, 1)
			assert.Equal(t, tc.code, got[0].Code)
			assert.Equal(t, tc.field, got[0].Field)
			assert.NotEmpty(t, got[0].Message)
		})
	}
}

func TestLint_WalksNestedTrees(t *testing.T) {
	c := Or(
		And(Eq("a", nil), In("b")),
		Not(And(Like("c", 1), Eq("d", 2))),
	)

	got := Lint(c)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{got[0].Field, got[1].Field, got[2].Field})
}

func TestWarning_String(t *testing.T) {
	w := Warning{Field: "tags", Code: WarnEmptySet, Message: "in with no values never matches"}
	assert.Equal(t, "empty-set: in with no values never matches (field=tags)", w.String())

	w.Field = ""
	assert.Equal(t, "empty-set: in with no values never matches", w.String())
}
