package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("json", "debug", &buf)
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())

	logger.WithField("loan_id", 7).Debug("validated")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "validated", entry["msg"])
	assert.Equal(t, float64(7), entry["loan_id"])
}

func TestNewText(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("TEXT", "warning", &buf)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewRejectsBadSettings(t *testing.T) {
	_, err := New("xml", "info", nil)
	assert.Error(t, err)

	_, err = New("text", "loud", nil)
	assert.Error(t, err)
}
