package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/ivr-backend/internal/config"
)

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := newWithOutput(config.LogConfig{Level: "debug", Format: "json"}, &buf)

	log.WithField("channel", "ivr").Debug("call stored")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "call stored", entry["msg"])
	assert.Equal(t, "ivr", entry["channel"])
	assert.Equal(t, "debug", entry["level"])
}

func TestNew_UnknownLevelFallsBackToInfo(t *testing.T) {
	log := New(config.LogConfig{Level: "loud"})
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
}
