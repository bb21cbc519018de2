package search_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfview/search"
)

func completedSession(matchCount int) *search.Session {
	s := &search.Session{Query: "q", State: search.Completed}
	for i := 0; i < matchCount; i++ {
		s.Matches = append(s.Matches, search.Match{Page: i, Start: 0, Length: 1, Text: "q"})
	}
	return s
}

func TestNavigatorAutoSelectsFirstMatch(t *testing.T) {
	nav := search.NewNavigator(completedSession(3))

	assert.True(t, nav.HasMatches())
	assert.Equal(t, 0, nav.CurrentIndex())

	m, ok := nav.Current()
	require.True(t, ok)
	assert.Equal(t, 0, m.Page)
}

func TestNavigatorWraparound(t *testing.T) {
	nav := search.NewNavigator(completedSession(3))

	nav.Next()
	nav.Next()
	require.Equal(t, 2, nav.CurrentIndex())

	m, ok := nav.Next()
	require.True(t, ok)
	assert.Equal(t, 0, nav.CurrentIndex())
	assert.Equal(t, 0, m.Page)

	m, ok = nav.Previous()
	require.True(t, ok)
	assert.Equal(t, 2, nav.CurrentIndex())
	assert.Equal(t, 2, m.Page)
}

func TestNavigatorNoMatches(t *testing.T) {
	nav := search.NewNavigator(completedSession(0))

	assert.False(t, nav.HasMatches())
	assert.Equal(t, -1, nav.CurrentIndex())

	_, ok := nav.Next()
	assert.False(t, ok)
	_, ok = nav.Previous()
	assert.False(t, ok)
	assert.Equal(t, -1, nav.CurrentIndex())
}

func TestNavigatorIgnoresNonCompletedSessions(t *testing.T) {
	failed := completedSession(2)
	failed.State = search.Failed
	failed.Err = errors.New("boom")

	nav := search.NewNavigator(failed)
	assert.False(t, nav.HasMatches())

	nav.Bind(nil)
	assert.False(t, nav.HasMatches())
}

func TestNavigatorRebindResetsSelection(t *testing.T) {
	nav := search.NewNavigator(completedSession(3))
	nav.Next()
	require.Equal(t, 1, nav.CurrentIndex())

	nav.Bind(completedSession(2))
	assert.Equal(t, 0, nav.CurrentIndex())
}
