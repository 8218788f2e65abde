package config

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for configuration validation
var (
	ErrInvalidConfig  = goerr.New("invalid configuration")
	ErrInvalidFixture = goerr.New("invalid fixture")
)

// Context keys for error values
const (
	ConfigPathKey = "config_path"
	BackendKey    = "backend"
	ModelIndexKey = "model_index"
)
