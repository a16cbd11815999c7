package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig_Validates(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}

func TestValidate_RejectsOutOfRangePort(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GRPC.Port = 0
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsUnknownLogLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Log.Level = "verbose"
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsNonPositiveMaxLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PagePool.MaxLimit = 0
	assert.Error(t, cfg.Validate())
}
