package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/raysh454/foxdriver/internal/config"
	"github.com/raysh454/foxdriver/internal/firefox"
	"github.com/raysh454/foxdriver/internal/geckodriver"
	"github.com/raysh454/foxdriver/internal/logging"
	"github.com/raysh454/foxdriver/internal/version"
	"github.com/raysh454/foxdriver/internal/webclient"
	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/cobra"
)

// env is shared by every subcommand. It is filled in by the root command's
// PersistentPreRunE.
type env struct {
	lookuper envconfig.Lookuper
	out      io.Writer
	errOut   io.Writer

	cfg    *config.Config
	logger logging.Logger

	// flag overrides
	driverPath  string
	downloadDir string
	headless    bool
}

// NewRootCmd builds the foxdriver command tree. Configuration is read through
// l, and command output goes to out.
func NewRootCmd(l envconfig.Lookuper, out, errOut io.Writer) *cobra.Command {
	e := &env{lookuper: l, out: out, errOut: errOut}

	cmd := &cobra.Command{
		Use:           "foxdriver",
		Short:         "Set up Firefox WebDriver sessions and manage geckodriver",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return e.load(cmd)
		},
	}
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	flags := cmd.PersistentFlags()
	flags.StringVar(&e.driverPath, "driver-path", "", "geckodriver executable (overrides FOXDRIVER_DRIVER_PATH)")
	flags.StringVar(&e.downloadDir, "download-dir", "", "download directory (overrides FOXDRIVER_DRIVER_DOWNLOAD_DIR)")
	flags.BoolVar(&e.headless, "headless", false, "run Firefox headless (overrides FOXDRIVER_DRIVER_HEADLESS)")

	cmd.AddCommand(newVersionCmd(e))
	cmd.AddCommand(newPrefsCmd(e))
	cmd.AddCommand(newInstallCmd(e))
	cmd.AddCommand(newInstalledCmd(e))
	cmd.AddCommand(newLaunchCmd(e))

	return cmd
}

// Execute runs the command tree against args.
func Execute(ctx context.Context, l envconfig.Lookuper, out, errOut io.Writer, args []string) error {
	cmd := NewRootCmd(l, out, errOut)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

func (e *env) load(cmd *cobra.Command) error {
	cfg, err := config.LoadWith(cmd.Context(), e.lookuper)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("driver-path") {
		cfg.Driver.Path = e.driverPath
	}
	if flags.Changed("download-dir") {
		cfg.Driver.DownloadDir = e.downloadDir
	}
	if flags.Changed("headless") {
		cfg.Driver.Headless = e.headless
	}

	logger, err := logging.NewLogger(e.errOut, logging.Level(cfg.Log.Level), logging.Format(cfg.Log.Format))
	if err != nil {
		return err
	}

	e.cfg = cfg
	e.logger = logger.With(logging.Field{Key: "version", Value: version.Version})
	return nil
}

func (e *env) firefoxConfig() firefox.Config {
	return firefox.Config{
		DriverPath:  e.cfg.Driver.Path,
		DownloadDir: e.cfg.Driver.DownloadDir,
		Headless:    e.cfg.Driver.Headless,
		Verbose:     e.cfg.Driver.Verbose,
	}
}

// newManager returns a geckodriver manager and a func releasing it and its
// web client.
func (e *env) newManager() (*geckodriver.Manager, func(), error) {
	client, err := webclient.NewNetHTTPClient(webclient.Config{Timeout: e.cfg.Install.Timeout}, e.logger, nil)
	if err != nil {
		return nil, nil, err
	}
	m, err := geckodriver.NewManager(geckodriver.Config{
		CacheDir:   e.cfg.Install.CacheDir,
		Version:    e.cfg.Install.Version,
		APIBaseURL: e.cfg.Install.APIURL,
	}, e.logger, client)
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	return m, func() {
		if err := m.Close(); err != nil {
			e.logger.Warn("failed to close manifest", logging.Field{Key: "error", Value: err.Error()})
		}
		client.Close()
	}, nil
}

func newVersionCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(e.out, "version: %s\n", version.Version)
			fmt.Fprintf(e.out, "commit: %s\n", version.Commit)
			return nil
		},
	}
}
