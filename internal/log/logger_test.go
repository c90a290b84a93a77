package log

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scrapeforge.xyz/orchestrator/internal/config"
)

func TestInit_DefaultsToStdoutOnNoOutputs(t *testing.T) {
	err := Init(config.LogConfig{Level: "info", Format: "text"})
	require.NoError(t, err)
}

func TestInit_RejectsUnknownLevel(t *testing.T) {
	err := Init(config.LogConfig{Level: "verbose", Format: "text"})
	assert.Error(t, err)
}

func TestInit_RejectsUnknownFormat(t *testing.T) {
	err := Init(config.LogConfig{Level: "info", Format: "xml"})
	assert.Error(t, err)
}

func TestCreateWriter_FileRequiresPath(t *testing.T) {
	_, err := createWriter(config.OutputConfig{Type: "file"})
	assert.Error(t, err)
}

func TestCreateWriter_UnknownType(t *testing.T) {
	_, err := createWriter(config.OutputConfig{Type: "syslog"})
	assert.Error(t, err)
}
