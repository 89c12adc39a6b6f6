// types.go
package fetch

import (
	"time"

	"github.com/rs/zerolog"
)

// Config configures the fetcher
type Config struct {
	CachePath string // Where archives are kept between runs
	Timeout   time.Duration
	Logger    *zerolog.Logger // Custom logger (optional)
}

// Fetcher downloads, verifies and unpacks source archives
type Fetcher struct {
	client *Client
	config *Config
	logger zerolog.Logger
}

// Result describes a verified archive on disk
type Result struct {
	Path   string // Cached archive path
	Size   int64  // Bytes on disk
	Cached bool   // True when no download was needed
	Hash   string // SRI form of the verified hash
}
