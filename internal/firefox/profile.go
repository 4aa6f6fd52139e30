package firefox

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/google/uuid"
	"github.com/raysh454/foxdriver/internal/logging"
	sfirefox "github.com/tebeka/selenium/firefox"
)

// Profile is a throwaway Firefox profile whose preferences are written to
// user.js in a temp directory.
type Profile struct {
	prefs  map[string]interface{}
	dir    string
	logger logging.Logger
}

func NewProfile(logger logging.Logger) *Profile {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Profile{
		prefs:  map[string]interface{}{},
		logger: logger,
	}
}

func (p *Profile) SetPreference(key string, value interface{}) error {
	if err := checkPref(key, value); err != nil {
		return err
	}
	p.prefs[key] = value
	return nil
}

// Dir is the profile directory, empty until UpdatePreferences has run.
func (p *Profile) Dir() string {
	return p.dir
}

// UpdatePreferences writes user.js into the profile directory, creating a
// uuid-named temp directory on first use.
func (p *Profile) UpdatePreferences() (string, error) {
	if p.dir == "" {
		dir := filepath.Join(os.TempDir(), "foxdriver-profile-"+uuid.NewString())
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return "", fmt.Errorf("create profile dir: %w", err)
		}
		p.dir = dir
	}

	if err := os.WriteFile(filepath.Join(p.dir, "user.js"), p.userJS(), 0o600); err != nil {
		return "", fmt.Errorf("write user.js: %w", err)
	}
	p.logger.Debug("wrote firefox profile",
		logging.Field{Key: "dir", Value: p.dir},
		logging.Field{Key: "prefs", Value: len(p.prefs)})
	return p.dir, nil
}

func (p *Profile) userJS() []byte {
	keys := make([]string, 0, len(p.prefs))
	for k := range p.prefs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	for _, k := range keys {
		fmt.Fprintf(&buf, "user_pref(%s, %s);\n", strconv.Quote(k), prefLiteral(p.prefs[k]))
	}
	return buf.Bytes()
}

func prefLiteral(v interface{}) string {
	switch x := v.(type) {
	case bool:
		return strconv.FormatBool(x)
	case string:
		return strconv.Quote(x)
	default:
		return fmt.Sprintf("%d", x)
	}
}

// Apply writes the profile and embeds it into o as a zipped, base64 encoded
// profile.
func (p *Profile) Apply(o *Options) error {
	dir, err := p.UpdatePreferences()
	if err != nil {
		return err
	}
	var fc sfirefox.Capabilities
	if err := fc.SetProfile(dir); err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	o.Profile = fc.Profile
	return nil
}

// Cleanup removes the profile directory.
func (p *Profile) Cleanup() error {
	if p.dir == "" {
		return nil
	}
	if err := os.RemoveAll(p.dir); err != nil {
		return fmt.Errorf("remove profile dir: %w", err)
	}
	p.dir = ""
	return nil
}
