package geckodriver

import (
	"fmt"
	"runtime"

	"github.com/raysh454/foxdriver/internal/errs"
)

// Platform identifies a geckodriver release asset.
type Platform struct {
	Suffix  string // e.g. "linux64", "macos-aarch64"
	Archive string // ".tar.gz" or ".zip"
	Binary  string // file name inside the archive
}

var platforms = map[string]Platform{
	"linux/amd64":   {Suffix: "linux64", Archive: ".tar.gz", Binary: "geckodriver"},
	"linux/386":     {Suffix: "linux32", Archive: ".tar.gz", Binary: "geckodriver"},
	"linux/arm64":   {Suffix: "linux-aarch64", Archive: ".tar.gz", Binary: "geckodriver"},
	"darwin/amd64":  {Suffix: "macos", Archive: ".tar.gz", Binary: "geckodriver"},
	"darwin/arm64":  {Suffix: "macos-aarch64", Archive: ".tar.gz", Binary: "geckodriver"},
	"windows/amd64": {Suffix: "win64", Archive: ".zip", Binary: "geckodriver.exe"},
	"windows/386":   {Suffix: "win32", Archive: ".zip", Binary: "geckodriver.exe"},
	"windows/arm64": {Suffix: "win-aarch64", Archive: ".zip", Binary: "geckodriver.exe"},
}

// PlatformFor maps a GOOS/GOARCH pair to its release asset. Empty values fall
// back to the running platform.
func PlatformFor(goos, goarch string) (Platform, error) {
	if goos == "" {
		goos = runtime.GOOS
	}
	if goarch == "" {
		goarch = runtime.GOARCH
	}
	p, ok := platforms[goos+"/"+goarch]
	if !ok {
		return Platform{}, errs.NewNotSupported(fmt.Sprintf("geckodriver has no release for %s/%s", goos, goarch))
	}
	return p, nil
}

// AssetName returns the release asset file name for version.
func (p Platform) AssetName(version string) string {
	return fmt.Sprintf("geckodriver-%s-%s%s", version, p.Suffix, p.Archive)
}
