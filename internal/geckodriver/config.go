package geckodriver

const (
	DefaultAPIBaseURL = "https://api.github.com"
	VersionLatest     = "latest"
)

// Config controls where and which geckodriver release is installed.
type Config struct {
	// CacheDir holds extracted binaries and the manifest database.
	CacheDir string

	// Version is "latest" or a release tag such as "v0.34.0".
	Version string

	// APIBaseURL is the GitHub API root used to resolve releases.
	APIBaseURL string

	// GOOS and GOARCH override the host platform when non-empty.
	GOOS   string
	GOARCH string
}
