package firefox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/raysh454/foxdriver/internal/logging"
)

const geckodriverBinary = "geckodriver"

var (
	ErrNoInstaller = errors.New("no driver installer configured")
	ErrNilOptions  = errors.New("nil firefox options")
)

// Config holds the externally supplied settings for driver setup.
type Config struct {
	// DriverPath is the geckodriver executable. Empty means DefaultDriverPath.
	DriverPath string

	// DownloadDir is used by DriverDefault. Empty means DefaultDownloadDir.
	DownloadDir string

	// Headless applies to Driver and DriverWithInstall.
	Headless bool

	// Verbose forwards geckodriver output to stderr.
	Verbose bool
}

// Installer resolves a driver executable, downloading it if necessary.
type Installer interface {
	Install(ctx context.Context) (string, error)
}

type SetupOption func(*Setup)

func WithLauncher(l Launcher) SetupOption {
	return func(s *Setup) { s.launcher = l }
}

func WithInstaller(i Installer) SetupOption {
	return func(s *Setup) { s.installer = i }
}

// Setup builds Firefox drivers in the supported configurations.
type Setup struct {
	cfg       Config
	logger    logging.Logger
	launcher  Launcher
	installer Installer
	lookPath  func(string) (string, error)
}

func NewSetup(cfg Config, logger logging.Logger, opts ...SetupOption) (*Setup, error) {
	if logger == nil {
		return nil, errors.New("firefox: nil logger provided")
	}
	if cfg.DriverPath == "" {
		cfg.DriverPath = DefaultDriverPath
	}
	if cfg.DownloadDir == "" {
		cfg.DownloadDir = DefaultDownloadDir
	}

	s := &Setup{
		cfg:      cfg,
		logger:   logger.With(logging.Field{Key: "component", Value: "firefox"}),
		lookPath: exec.LookPath,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.launcher == nil {
		var out io.Writer
		if cfg.Verbose {
			out = os.Stderr
		}
		s.launcher = &GeckoLauncher{Output: out}
	}
	return s, nil
}

// Driver starts Firefox with a fresh profile that does not assume untrusted
// certificate issuers. geckodriver is taken from $PATH, falling back to the
// configured path.
func (s *Setup) Driver(ctx context.Context) (*Driver, error) {
	s.logger.Debug("setup firefox driver", logging.Field{Key: "mode", Value: "plain"})

	opts := NewOptions()
	opts.Headless = s.cfg.Headless
	opts.AcceptInsecureCerts = true

	profile := NewProfile(s.logger)
	if err := profile.SetPreference(PrefAssumeUntrustedIssuer, false); err != nil {
		return nil, err
	}
	if err := profile.Apply(opts); err != nil {
		_ = profile.Cleanup()
		return nil, err
	}

	return s.start(ctx, "plain", s.resolvePath(), opts, profile)
}

// DriverWithInstall starts Firefox using a geckodriver obtained from the
// installer.
func (s *Setup) DriverWithInstall(ctx context.Context) (*Driver, error) {
	s.logger.Debug("setup firefox driver", logging.Field{Key: "mode", Value: "install"})

	if s.installer == nil {
		return nil, ErrNoInstaller
	}
	path, err := s.installer.Install(ctx)
	if err != nil {
		return nil, fmt.Errorf("install geckodriver: %w", err)
	}

	opts := NewOptions()
	opts.Headless = s.cfg.Headless
	return s.start(ctx, "install", path, opts, nil)
}

// DriverDefault starts Firefox at the configured driver path with
// DownloadOptions for the configured download directory.
func (s *Setup) DriverDefault(ctx context.Context) (*Driver, error) {
	s.logger.Debug("setup firefox driver", logging.Field{Key: "mode", Value: "default"})
	return s.start(ctx, "default", s.cfg.DriverPath, DownloadOptions(s.cfg.DownloadDir), nil)
}

// DriverWithOptions starts Firefox at the configured driver path with opts.
func (s *Setup) DriverWithOptions(ctx context.Context, opts *Options) (*Driver, error) {
	s.logger.Debug("setup firefox driver", logging.Field{Key: "mode", Value: "options"})
	if opts == nil {
		return nil, ErrNilOptions
	}
	return s.start(ctx, "options", s.cfg.DriverPath, opts, nil)
}

func (s *Setup) resolvePath() string {
	if p, err := s.lookPath(geckodriverBinary); err == nil {
		return p
	}
	return s.cfg.DriverPath
}

func (s *Setup) start(ctx context.Context, mode, driverPath string, opts *Options, profile *Profile) (*Driver, error) {
	cleanup := func() {
		if profile != nil {
			_ = profile.Cleanup()
		}
	}

	caps, err := opts.Capabilities()
	if err != nil {
		cleanup()
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		cleanup()
		return nil, err
	}

	sess, err := s.launcher.Launch(ctx, driverPath, caps)
	if err != nil {
		cleanup()
		s.logger.Warn("firefox driver failed to start",
			logging.Field{Key: "mode", Value: mode},
			logging.Field{Key: "driver_path", Value: driverPath},
			logging.Field{Key: "error", Value: err.Error()})
		return nil, fmt.Errorf("launch firefox (%s): %w", mode, err)
	}

	logger := s.logger.With(logging.Field{Key: "session", Value: sess.WebDriver.SessionID()})
	logger.Info("firefox driver started",
		logging.Field{Key: "mode", Value: mode},
		logging.Field{Key: "driver_path", Value: driverPath},
		logging.Field{Key: "headless", Value: opts.Headless})

	return &Driver{
		WebDriver: sess.WebDriver,
		stop:      sess.Stop,
		profile:   profile,
		logger:    logger,
	}, nil
}
