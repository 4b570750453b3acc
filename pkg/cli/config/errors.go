package config

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for configuration and seed file loading
var (
	ErrSeedNotFound      = goerr.New("seed file not found")
	ErrUnsupportedFormat = goerr.New("unsupported seed file format")
	ErrInvalidSeed       = goerr.New("invalid seed file")
	ErrInvalidConfig     = goerr.New("invalid configuration")
)

// Context keys for error values
const (
	SeedPathKey   = "seed_path"
	EntryIndexKey = "entry_index"
	BackendKey    = "backend"
)
