package executor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lilianammmatos/incremental-graphql/graphql/ast"
)

func testField() *ast.Field {
	return &ast.Field{Name: &ast.Name{Name: "x"}}
}

func TestGroupedFieldSetAppendMergesByKey(t *testing.T) {
	s := NewGroupedFieldSetWithCapacity(1)
	f1 := testField()
	f2 := testField()

	require.Nil(t, s.Append("x", f1, false, "", false, nil))
	require.Nil(t, s.Append("x", f2, false, "", false, nil))

	require.Equal(t, 1, s.Len())
	assert.Equal(t, []*ast.Field{f1, f2}, s.Items()[0].Fields)
}

func TestGroupedFieldSetAppendDemotesDeferredWhenMixed(t *testing.T) {
	s := NewGroupedFieldSetWithCapacity(1)
	require.Nil(t, s.Append("x", testField(), true, "a", true, nil))
	require.True(t, s.Items()[0].Deferred)

	require.Nil(t, s.Append("x", testField(), false, "", false, nil))
	assert.False(t, s.Items()[0].Deferred)
}

func TestGroupedFieldSetAppendRejectsConflictingStreamDirectives(t *testing.T) {
	s := NewGroupedFieldSetWithCapacity(1)
	require.Nil(t, s.Append("x", testField(), false, "", false, &StreamDirectiveInfo{InitialCount: 1}))

	err := s.Append("x", testField(), false, "", false, &StreamDirectiveInfo{InitialCount: 2})
	require.NotNil(t, err)
	assert.Contains(t, err.Message, `Fields "x" conflict because they have differing stream directives`)
}

func TestGroupedFieldSetAppendAllowsIdenticalStreamDirectives(t *testing.T) {
	s := NewGroupedFieldSetWithCapacity(1)
	require.Nil(t, s.Append("x", testField(), false, "", false, &StreamDirectiveInfo{Label: "l", HasLabel: true, InitialCount: 1}))
	err := s.Append("x", testField(), false, "", false, &StreamDirectiveInfo{Label: "l", HasLabel: true, InitialCount: 1})
	assert.Nil(t, err)
}

func TestGroupedFieldSetAppendRejectsStreamVsNoStream(t *testing.T) {
	s := NewGroupedFieldSetWithCapacity(1)
	require.Nil(t, s.Append("x", testField(), false, "", false, nil))
	err := s.Append("x", testField(), false, "", false, &StreamDirectiveInfo{InitialCount: 1})
	require.NotNil(t, err)
}
