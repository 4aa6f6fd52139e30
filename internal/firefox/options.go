package firefox

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/raysh454/foxdriver/internal/errs"
	"github.com/tebeka/selenium"
	sfirefox "github.com/tebeka/selenium/firefox"
)

const (
	DefaultDriverPath = "/usr/local/bin/geckodriver"

	headlessArg = "-headless"
)

// Preference keys set by DownloadOptions.
const (
	PrefNotificationsEnabled  = "dom.webnotifications.enabled"
	PrefDownloadDir           = "browser.download.dir"
	PrefDownloadFolderList    = "browser.download.folderList"
	PrefDownloadShowOnStart   = "browser.download.manager.showWhenStarting"
	PrefNeverAskSaveToDisk    = "browser.helperApps.neverAsk.saveToDisk"
	PrefAssumeUntrustedIssuer = "webdriver_assume_untrusted_issuer"
)

// DefaultDownloadDir is $HOME/Downloads/.
var DefaultDownloadDir = defaultDownloadDir()

func defaultDownloadDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return os.TempDir() + string(filepath.Separator)
	}
	return filepath.Join(home, "Downloads") + string(filepath.Separator)
}

// Options is consumed once when a driver is constructed.
type Options struct {
	Headless            bool
	AcceptInsecureCerts bool
	Binary              string
	Args                []string
	Prefs               map[string]interface{}
	// Profile is a base64 zipped profile directory, see Profile.Apply.
	Profile  string
	LogLevel sfirefox.LogLevel
}

func NewOptions() *Options {
	return &Options{Prefs: map[string]interface{}{}}
}

// DefaultOptions returns headless options with notifications off and downloads
// saved to DefaultDownloadDir without prompting.
func DefaultOptions() *Options {
	return DownloadOptions(DefaultDownloadDir)
}

// DownloadOptions is DefaultOptions with a caller-supplied download directory.
func DownloadOptions(dir string) *Options {
	o := NewOptions()
	o.Headless = true

	o.Prefs[PrefNotificationsEnabled] = false

	o.Prefs[PrefDownloadDir] = dir
	o.Prefs[PrefDownloadFolderList] = 2
	o.Prefs[PrefDownloadShowOnStart] = false
	o.Prefs[PrefNeverAskSaveToDisk] = "audio/mp3"
	return o
}

// SetPreference sets a Firefox preference. Only bool, string and integer
// values are accepted.
func (o *Options) SetPreference(key string, value interface{}) error {
	if err := checkPref(key, value); err != nil {
		return err
	}
	if o.Prefs == nil {
		o.Prefs = map[string]interface{}{}
	}
	o.Prefs[key] = value
	return nil
}

func (o *Options) Preference(key string) (interface{}, bool) {
	v, ok := o.Prefs[key]
	return v, ok
}

func (o *Options) AddArgument(arg string) {
	o.Args = append(o.Args, arg)
}

// Capabilities renders the options as W3C capabilities with a
// moz:firefoxOptions entry.
func (o *Options) Capabilities() (selenium.Capabilities, error) {
	caps := selenium.Capabilities{"browserName": "firefox"}
	if o.AcceptInsecureCerts {
		caps["acceptInsecureCerts"] = true
	}

	fc := sfirefox.Capabilities{
		Binary:  o.Binary,
		Profile: o.Profile,
	}

	args := append([]string(nil), o.Args...)
	if o.Headless && !containsArg(args, headlessArg) {
		args = append(args, headlessArg)
	}
	if len(args) > 0 {
		fc.Args = args
	}

	if len(o.Prefs) > 0 {
		fc.Prefs = make(map[string]interface{}, len(o.Prefs))
		for k, v := range o.Prefs {
			if err := checkPref(k, v); err != nil {
				return nil, err
			}
			fc.Prefs[k] = v
		}
	}

	if o.LogLevel != "" {
		fc.Log = &sfirefox.Log{Level: o.LogLevel}
	}

	caps.AddFirefox(fc)
	return caps, nil
}

func containsArg(args []string, arg string) bool {
	for _, a := range args {
		if a == arg || a == "--"+arg[1:] {
			return true
		}
	}
	return false
}

func checkPref(key string, value interface{}) error {
	if key == "" {
		return fmt.Errorf("preference key is empty")
	}
	var n int64
	switch v := value.(type) {
	case bool, string, int8, int16, int32, uint8, uint16:
		return nil
	case int:
		n = int64(v)
	case int64:
		n = v
	case uint:
		if uint64(v) > math.MaxInt32 {
			return prefOutOfRange(key, value)
		}
		return nil
	case uint32:
		if v > math.MaxInt32 {
			return prefOutOfRange(key, value)
		}
		return nil
	case uint64:
		if v > math.MaxInt32 {
			return prefOutOfRange(key, value)
		}
		return nil
	default:
		return errs.NewNotSupported(fmt.Sprintf("preference %s: value type %T not supported", key, value))
	}
	if n < math.MinInt32 || n > math.MaxInt32 {
		return prefOutOfRange(key, value)
	}
	return nil
}

// Firefox stores integer prefs as signed 32-bit values.
func prefOutOfRange(key string, value interface{}) error {
	return errs.NewNotSupported(fmt.Sprintf("preference %s: %d is outside the 32-bit integer range", key, value))
}
