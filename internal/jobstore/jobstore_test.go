package jobstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitAndGetRoundTrips(t *testing.T) {
	assert := assert.New(t)
	s := New()
	id := s.Submit("fn main() -> int { return 0; }")
	assert.NotEmpty(id)

	job, err := s.Get(id)
	require.NoError(t, err)
	assert.Equal(StatusQueued, job.Status)
	assert.Equal("fn main() -> int { return 0; }", job.Source)
}

func TestLifecycleTransitions(t *testing.T) {
	assert := assert.New(t)
	s := New()
	id := s.Submit("src")

	require.NoError(t, s.MarkRunning(id))
	job, err := s.Get(id)
	require.NoError(t, err)
	assert.Equal(StatusRunning, job.Status)

	require.NoError(t, s.Complete(id, "OPENQASM 2.0;\n"))
	job, err = s.Get(id)
	require.NoError(t, err)
	assert.Equal(StatusSucceeded, job.Status)
	assert.Equal("OPENQASM 2.0;\n", job.Qasm)
}

func TestFailRecordsError(t *testing.T) {
	assert := assert.New(t)
	s := New()
	id := s.Submit("src")

	require.NoError(t, s.Fail(id, "boom"))
	job, err := s.Get(id)
	require.NoError(t, err)
	assert.Equal(StatusFailed, job.Status)
	assert.Equal("boom", job.Error)
}

func TestGetUnknownJobErrors(t *testing.T) {
	s := New()
	_, err := s.Get("nonexistent")
	require.Error(t, err)
}

func TestMarkRunningUnknownJobErrors(t *testing.T) {
	s := New()
	require.Error(t, s.MarkRunning("nonexistent"))
}
