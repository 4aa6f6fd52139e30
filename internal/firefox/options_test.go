package firefox_test

import (
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/raysh454/foxdriver/internal/errs"
	"github.com/raysh454/foxdriver/internal/firefox"
	"github.com/raysh454/foxdriver/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tebeka/selenium"
)

// firefoxOptions decodes the moz:firefoxOptions entry the way geckodriver sees it.
func firefoxOptions(t *testing.T, caps selenium.Capabilities) map[string]interface{} {
	t.Helper()
	raw, err := json.Marshal(caps)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "firefox", decoded["browserName"])

	opts, ok := decoded["moz:firefoxOptions"].(map[string]interface{})
	require.True(t, ok, "missing moz:firefoxOptions in %s", raw)
	return opts
}

func TestDefaultOptions_LiteralPreferences(t *testing.T) {
	t.Parallel()
	o := firefox.DefaultOptions()

	assert.True(t, o.Headless)
	assert.Equal(t, map[string]interface{}{
		"dom.webnotifications.enabled":              false,
		"browser.download.dir":                      firefox.DefaultDownloadDir,
		"browser.download.folderList":               2,
		"browser.download.manager.showWhenStarting": false,
		"browser.helperApps.neverAsk.saveToDisk":    "audio/mp3",
	}, o.Prefs)
}

func TestDefaultOptions_FreshOnEveryCall(t *testing.T) {
	t.Parallel()
	a := firefox.DefaultOptions()
	b := firefox.DefaultOptions()

	a.Prefs[firefox.PrefNeverAskSaveToDisk] = "application/pdf"
	v, _ := b.Preference(firefox.PrefNeverAskSaveToDisk)
	assert.Equal(t, "audio/mp3", v)
}

func TestDefaultDownloadDir_EndsWithSeparator(t *testing.T) {
	t.Parallel()
	assert.True(t, strings.HasSuffix(firefox.DefaultDownloadDir, string(filepath.Separator)))
}

func TestDownloadOptions_UsesSuppliedDir(t *testing.T) {
	t.Parallel()
	o := firefox.DownloadOptions("/srv/downloads/")
	v, ok := o.Preference(firefox.PrefDownloadDir)
	require.True(t, ok)
	assert.Equal(t, "/srv/downloads/", v)
}

func TestOptions_Capabilities_Headless(t *testing.T) {
	t.Parallel()
	caps, err := firefox.DownloadOptions("/tmp/dl/").Capabilities()
	require.NoError(t, err)

	ff := firefoxOptions(t, caps)
	assert.Equal(t, []interface{}{"-headless"}, ff["args"])

	prefs, ok := ff["prefs"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "/tmp/dl/", prefs["browser.download.dir"])
	assert.Equal(t, float64(2), prefs["browser.download.folderList"])
	assert.Equal(t, false, prefs["dom.webnotifications.enabled"])
	assert.Equal(t, "audio/mp3", prefs["browser.helperApps.neverAsk.saveToDisk"])
}

func TestOptions_Capabilities_HeadlessNotDuplicated(t *testing.T) {
	t.Parallel()
	o := firefox.NewOptions()
	o.Headless = true
	o.AddArgument("--headless")
	o.AddArgument("-width=1920")

	caps, err := o.Capabilities()
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"--headless", "-width=1920"}, firefoxOptions(t, caps)["args"])
}

func TestOptions_Capabilities_Minimal(t *testing.T) {
	t.Parallel()
	caps, err := firefox.NewOptions().Capabilities()
	require.NoError(t, err)

	ff := firefoxOptions(t, caps)
	assert.NotContains(t, ff, "args")
	assert.NotContains(t, ff, "prefs")
	assert.NotContains(t, caps, "acceptInsecureCerts")
}

func TestOptions_Capabilities_BinaryAndLog(t *testing.T) {
	t.Parallel()
	o := firefox.NewOptions()
	o.Binary = "/opt/firefox/firefox"
	o.AcceptInsecureCerts = true
	o.LogLevel = "trace"

	caps, err := o.Capabilities()
	require.NoError(t, err)
	assert.Equal(t, true, caps["acceptInsecureCerts"])

	ff := firefoxOptions(t, caps)
	assert.Equal(t, "/opt/firefox/firefox", ff["binary"])
	assert.Equal(t, map[string]interface{}{"level": "trace"}, ff["log"])
}

func TestOptions_SetPreference_RejectsUnsupportedValue(t *testing.T) {
	t.Parallel()
	o := firefox.NewOptions()

	err := o.SetPreference("layout.css.devPixelsPerPx", 1.5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrNotSupported))
	_, ok := o.Preference("layout.css.devPixelsPerPx")
	assert.False(t, ok)

	require.Error(t, o.SetPreference("", true))
	require.NoError(t, o.SetPreference("browser.download.useDownloadDir", true))
}

func TestOptions_SetPreference_IntegerRange(t *testing.T) {
	t.Parallel()
	o := firefox.NewOptions()

	require.NoError(t, o.SetPreference("dom.max_script_run_time", int64(math.MaxInt32)))
	require.NoError(t, o.SetPreference("layout.scroll.delta", math.MinInt32))
	require.NoError(t, o.SetPreference("network.buffer.cache.count", uint32(24)))
	require.NoError(t, o.SetPreference("browser.cache.disk.capacity", uint64(1<<20)))

	for name, v := range map[string]interface{}{
		"int64 above":  int64(math.MaxInt32) + 1,
		"int64 below":  int64(math.MinInt32) - 1,
		"uint32 above": uint32(math.MaxInt32) + 1,
		"uint above":   uint(math.MaxUint32),
		"uint64 above": uint64(math.MaxUint64),
	} {
		err := o.SetPreference("browser.cache.memory.capacity", v)
		assert.True(t, errors.Is(err, errs.ErrNotSupported), "%s: %v", name, err)
	}
	_, ok := o.Preference("browser.cache.memory.capacity")
	assert.False(t, ok)

	p := firefox.NewProfile(nil)
	assert.True(t, errors.Is(p.SetPreference("x", int64(1)<<40), errs.ErrNotSupported))
}

func TestOptions_Capabilities_RejectsPrefsSetDirectly(t *testing.T) {
	t.Parallel()
	o := firefox.NewOptions()
	o.Prefs["bad"] = []string{"x"}

	_, err := o.Capabilities()
	assert.True(t, errors.Is(err, errs.ErrNotSupported))
}

func TestProfile_UpdatePreferences_WritesUserJS(t *testing.T) {
	t.Parallel()
	p := firefox.NewProfile(logging.NewNopLogger())
	defer p.Cleanup()

	require.NoError(t, p.SetPreference(firefox.PrefAssumeUntrustedIssuer, false))
	require.NoError(t, p.SetPreference("browser.startup.homepage", "about:blank"))
	require.NoError(t, p.SetPreference("browser.download.folderList", 2))

	dir, err := p.UpdatePreferences()
	require.NoError(t, err)
	assert.Equal(t, dir, p.Dir())

	data, err := os.ReadFile(filepath.Join(dir, "user.js"))
	require.NoError(t, err)
	assert.Equal(t,
		"user_pref(\"browser.download.folderList\", 2);\n"+
			"user_pref(\"browser.startup.homepage\", \"about:blank\");\n"+
			"user_pref(\"webdriver_assume_untrusted_issuer\", false);\n",
		string(data))
}

func TestProfile_ApplyAndCleanup(t *testing.T) {
	t.Parallel()
	p := firefox.NewProfile(nil)
	require.NoError(t, p.SetPreference(firefox.PrefAssumeUntrustedIssuer, false))

	o := firefox.NewOptions()
	require.NoError(t, p.Apply(o))
	assert.NotEmpty(t, o.Profile)

	caps, err := o.Capabilities()
	require.NoError(t, err)
	assert.Equal(t, o.Profile, firefoxOptions(t, caps)["profile"])

	dir := p.Dir()
	require.DirExists(t, dir)
	require.NoError(t, p.Cleanup())
	assert.NoDirExists(t, dir)
	assert.Empty(t, p.Dir())
	assert.NoError(t, p.Cleanup())
}

func TestProfile_SetPreference_RejectsUnsupportedValue(t *testing.T) {
	t.Parallel()
	p := firefox.NewProfile(nil)
	err := p.SetPreference("x", struct{}{})
	assert.True(t, errors.Is(err, errs.ErrNotSupported))
}
