package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoadConfigDefaultsDoNotLimitOCROrDocuments(t *testing.T) {
	clearEnv(t, "OCR_TIMEOUT", "MAX_DOCUMENTS", "SHUTDOWN_TIMEOUT", "CONTRACT_ANNOTATION", "OCR_WORKERS")

	cfg := LoadConfig()
	assert.Zero(t, cfg.OCR.Timeout, "a long OCR run must not be cut off by default")
	assert.Zero(t, cfg.Analysis.MaxDocuments, "any number of documents by default")
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigOptInLimits(t *testing.T) {
	t.Setenv("OCR_TIMEOUT", "90s")
	t.Setenv("MAX_DOCUMENTS", "2")

	cfg := LoadConfig()
	assert.Equal(t, 90*time.Second, cfg.OCR.Timeout)
	assert.Equal(t, 2, cfg.Analysis.MaxDocuments)
	require.NoError(t, cfg.Validate())
}

func TestValidateRejectsNegativeLimits(t *testing.T) {
	clearEnv(t, "OCR_TIMEOUT", "MAX_DOCUMENTS", "CONTRACT_ANNOTATION", "OCR_WORKERS")

	cfg := LoadConfig()
	cfg.OCR.Timeout = -time.Second
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidInput)

	cfg = LoadConfig()
	cfg.Analysis.MaxDocuments = -1
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidInput)
}
