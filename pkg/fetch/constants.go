// constants.go
package fetch

import "time"

const (
	// DefaultTimeout bounds a whole archive download
	DefaultTimeout = 2 * time.Minute

	// UserAgent is sent with every request
	UserAgent = "brewlet/0.1"
)

// ArchiveFormat identifies how a source archive is packed
type ArchiveFormat string

const (
	FormatTarGz ArchiveFormat = "tar.gz"
	FormatTarXz ArchiveFormat = "tar.xz"
	FormatNar   ArchiveFormat = "nar"
	FormatNarXz ArchiveFormat = "nar.xz"
)
