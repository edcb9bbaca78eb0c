package executor

import (
	"fmt"

	"github.com/lilianammmatos/incremental-graphql/graphql/ast"
)

// StreamDirectiveInfo carries the coerced arguments of a @stream directive applied to a field.
type StreamDirectiveInfo struct {
	Label        string
	HasLabel     bool
	InitialCount int
}

// GroupedFieldSetItem contains a key and field list pair in a GroupedFieldSet.
type GroupedFieldSetItem struct {
	Key    string
	Fields []*ast.Field

	// Deferred is true if this group was reached through a selection carrying @defer(if: true).
	Deferred      bool
	DeferLabel    string
	HasDeferLabel bool

	// Stream is non-nil if this group's field carries @stream(if: true).
	Stream *StreamDirectiveInfo
}

// GroupedFieldSet holds the results of the GraphQL CollectFields algorithm.
type GroupedFieldSet struct {
	m     map[string]int
	items []GroupedFieldSetItem
}

// NewGroupedFieldSetWithCapacity allocates a GroupedFieldSet with capacity for n elements.
func NewGroupedFieldSetWithCapacity(n int) *GroupedFieldSet {
	return &GroupedFieldSet{
		m:     make(map[string]int, n),
		items: make([]GroupedFieldSetItem, 0, n),
	}
}

// Append appends a field to the list for the given key, along with the incremental-delivery
// directive information collected for this particular selection. If a field with this key was
// already present with incompatible @stream directives, a fatal conflict error is returned.
func (m *GroupedFieldSet) Append(key string, field *ast.Field, deferred bool, deferLabel string, hasDeferLabel bool, stream *StreamDirectiveInfo) *Error {
	idx, ok := m.m[key]
	if !ok {
		idx = len(m.items)
		m.m[key] = idx
		m.items = append(m.items, GroupedFieldSetItem{
			Key:           key,
			Fields:        []*ast.Field{field},
			Deferred:      deferred,
			DeferLabel:    deferLabel,
			HasDeferLabel: hasDeferLabel,
			Stream:        stream,
		})
		return nil
	}

	item := &m.items[idx]
	item.Fields = append(item.Fields, field)

	// A group is only treated as deferred if every selection contributing to it was deferred;
	// mixing a deferred and non-deferred selection for the same key makes the group immediate,
	// since the non-deferred selection guarantees the data is already needed up front.
	if !deferred {
		item.Deferred = false
	}

	if !streamDirectivesCompatible(item.Stream, stream) {
		return newStreamConflictError(key, item.Fields)
	}

	return nil
}

func streamDirectivesCompatible(a, b *StreamDirectiveInfo) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	if a == nil {
		return true
	}
	return a.Label == b.Label && a.HasLabel == b.HasLabel && a.InitialCount == b.InitialCount
}

func newStreamConflictError(responseKey string, fields []*ast.Field) *Error {
	locations := make([]Location, len(fields))
	for i, field := range fields {
		locations[i] = Location{Line: field.Position().Line, Column: field.Position().Column}
	}
	return &Error{
		Message:   fmt.Sprintf(`Fields "%s" conflict because they have differing stream directives. Use different aliases on the fields to fetch both if this was intentional.`, responseKey),
		Locations: locations,
	}
}

// Len returns the length of the GroupedFieldSet
func (m *GroupedFieldSet) Len() int {
	return len(m.items)
}

// Items returns the items in the GroupedFieldSet, in the order they were added.
func (m *GroupedFieldSet) Items() []GroupedFieldSetItem {
	return m.items
}
