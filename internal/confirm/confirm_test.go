package confirm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForcedNeverBlocks(t *testing.T) {
	t.Parallel()
	d, err := Forced{}.Confirm(context.Background(), Request{
		Title:          "Delete everything",
		RequireLiteral: "my-project",
	})
	require.NoError(t, err)
	assert.True(t, d.Approved)
	assert.True(t, d.Forced)
}

func TestNewSource(t *testing.T) {
	t.Parallel()
	assert.IsType(t, Forced{}, NewSource(true))
	assert.IsType(t, &Interactive{}, NewSource(false))
}

func TestInteractiveHeadlessRejects(t *testing.T) {
	// Test processes have no controlling terminal on stdin, so the
	// interactive source must reject instead of prompting.
	t.Parallel()
	s := &Interactive{}
	d, err := s.Confirm(context.Background(), Request{Title: "Proceed?"})
	require.NoError(t, err)
	assert.False(t, d.Approved)
}

func TestScriptedAnswers(t *testing.T) {
	t.Parallel()
	s := &Scripted{Answers: []bool{true, false}}

	d, err := s.Confirm(context.Background(), Request{Title: "first"})
	require.NoError(t, err)
	assert.True(t, d.Approved)

	d, err = s.Confirm(context.Background(), Request{Title: "second"})
	require.NoError(t, err)
	assert.False(t, d.Approved)

	// Exhausted list rejects.
	d, err = s.Confirm(context.Background(), Request{Title: "third"})
	require.NoError(t, err)
	assert.False(t, d.Approved)

	assert.Len(t, s.Requests, 3)
}

func TestScriptedLiteral(t *testing.T) {
	t.Parallel()
	s := &Scripted{Literals: []string{"wrong", "my-project"}}
	req := Request{Title: "Destroy", RequireLiteral: "my-project"}

	d, err := s.Confirm(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, d.Approved)

	d, err = s.Confirm(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, d.Approved)
}
