package logger

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNewLoggerRespectsDebugOption(t *testing.T) {
	assert := assert.New(t)
	l := NewLogger(LoggerOptions{Debug: true})
	assert.Equal(zerolog.DebugLevel, l.GetLevel())

	l = NewLogger(LoggerOptions{})
	assert.Equal(zerolog.InfoLevel, l.GetLevel())
}

func TestSpawnForContextAttachesFields(t *testing.T) {
	assert := assert.New(t)
	l := NewLogger(LoggerOptions{})
	spawned := l.SpawnForContext("1", "req-abc")
	assert.NotNil(spawned)
}
