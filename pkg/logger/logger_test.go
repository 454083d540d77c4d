package logger_test

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"flowcore/pkg/logger"
)

func TestNew_InvalidLevelFallsBackToInfo(t *testing.T) {
	l := logger.New(logger.LoggingConfig{Level: "not-a-level"})
	assert.Equal(t, logrus.InfoLevel, l.GetLevel())
}

func TestNew_ValidLevelIsApplied(t *testing.T) {
	l := logger.New(logger.LoggingConfig{Level: "debug"})
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())
}

func TestNew_JSONFormatSelectsJSONFormatter(t *testing.T) {
	l := logger.New(logger.LoggingConfig{Format: "json"})
	_, ok := l.Formatter.(*logrus.JSONFormatter)
	assert.True(t, ok)
}

func TestNew_DefaultFormatIsText(t *testing.T) {
	l := logger.New(logger.LoggingConfig{Format: "anything-else"})
	_, ok := l.Formatter.(*logrus.TextFormatter)
	assert.True(t, ok)
}

func TestNewDefault_UsesInfoLevelAndTextFormat(t *testing.T) {
	l := logger.NewDefault("test")
	assert.Equal(t, logrus.InfoLevel, l.GetLevel())
	_, ok := l.Formatter.(*logrus.TextFormatter)
	assert.True(t, ok)
}

func TestWithComponent_TagsComponentAndGroupFields(t *testing.T) {
	l := logger.NewDefault("test")
	entry := l.WithComponent("proc-1", "root")

	assert.Equal(t, "proc-1", entry.Data["component_id"])
	assert.Equal(t, "root", entry.Data["group_id"])
}

func TestWithFields_MergesArbitraryFields(t *testing.T) {
	l := logger.NewDefault("test")
	entry := l.WithFields(logrus.Fields{"a": 1, "b": "two"})

	assert.Equal(t, 1, entry.Data["a"])
	assert.Equal(t, "two", entry.Data["b"])
}
