package types

import (
	"github.com/samber/lo"
	ierr "github.com/subtrack/subtrack/internal/errors"
)

// RunMode selects which processes a binary starts
type RunMode string

const (
	// ModeLocal runs the API server and the Temporal worker in one process
	ModeLocal RunMode = "local"
	// ModeAPI runs only the HTTP API
	ModeAPI RunMode = "api"
	// ModeTemporalWorker runs only the Temporal worker
	ModeTemporalWorker RunMode = "temporal_worker"
)

func (m RunMode) Validate() error {
	allowed := []RunMode{ModeLocal, ModeAPI, ModeTemporalWorker}
	if lo.Contains(allowed, m) {
		return nil
	}
	return ierr.NewError("invalid deployment mode").
		WithHintf("Deployment mode must be one of: %s", joinEnum(allowed)).
		Mark(ierr.ErrValidation)
}

type Environment string

const (
	EnvLocal Environment = "local"
	EnvDev   Environment = "dev"
	EnvProd  Environment = "prod"
)

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// CacheType represents the cache backend to use
type CacheType string

const (
	CacheTypeInMemory CacheType = "inmemory"
	CacheTypeRedis    CacheType = "redis"
)

func (c CacheType) Validate() error {
	allowed := []CacheType{CacheTypeInMemory, CacheTypeRedis}
	if lo.Contains(allowed, c) {
		return nil
	}
	return ierr.NewError("invalid cache type").
		WithHintf("Cache type must be one of: %s", joinEnum(allowed)).
		Mark(ierr.ErrValidation)
}
