package version

// Version is the current version of the pnl downloader.
// It is set at build time using ldflags:
// -ldflags "-X github.com/rxtech-lab/pnl-downloader/internal/version.Version=1.2.3"
// The value "main" marks a development build.
var Version = "v0.3.0"

// GetVersion returns the current version of the binary.
func GetVersion() string {
	return Version
}
