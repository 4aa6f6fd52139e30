package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/raysh454/foxdriver/internal/firefox"
	"github.com/raysh454/foxdriver/internal/logging"
	"github.com/spf13/cobra"
)

const (
	modePlain   = "plain"
	modeInstall = "install"
	modeDefault = "default"
)

func newPrefsCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "prefs",
		Short: "Print the default Firefox capabilities as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := e.cfg.Driver.DownloadDir
			if dir == "" {
				dir = firefox.DefaultDownloadDir
			}
			caps, err := firefox.DownloadOptions(dir).Capabilities()
			if err != nil {
				return err
			}
			enc := json.NewEncoder(e.out)
			enc.SetIndent("", "  ")
			return enc.Encode(caps)
		},
	}
}

func newInstallCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Download geckodriver into the local cache and print its path",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, release, err := e.newManager()
			if err != nil {
				return err
			}
			defer release()

			path, err := m.Install(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(e.out, path)
			return nil
		},
	}
}

func newInstalledCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "installed",
		Short: "List cached geckodriver binaries",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, release, err := e.newManager()
			if err != nil {
				return err
			}
			defer release()

			entries, err := m.Installed(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "VERSION\tPLATFORM\tINSTALLED\tPATH")
			for _, en := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", en.Version, en.Platform, en.InstalledAt.Format(time.RFC3339), en.Path)
			}
			return tw.Flush()
		},
	}
}

func newLaunchCmd(e *env) *cobra.Command {
	var (
		mode string
		url  string
	)
	cmd := &cobra.Command{
		Use:   "launch",
		Short: "Start Firefox, open a URL, print the page title and quit",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := []firefox.SetupOption{}
			if mode == modeInstall {
				m, release, err := e.newManager()
				if err != nil {
					return err
				}
				defer release()
				opts = append(opts, firefox.WithInstaller(m))
			}

			setup, err := firefox.NewSetup(e.firefoxConfig(), e.logger, opts...)
			if err != nil {
				return err
			}

			var d *firefox.Driver
			switch mode {
			case modePlain:
				d, err = setup.Driver(cmd.Context())
			case modeInstall:
				d, err = setup.DriverWithInstall(cmd.Context())
			case modeDefault:
				d, err = setup.DriverDefault(cmd.Context())
			default:
				return fmt.Errorf("unknown launch mode %q (want %s, %s or %s)", mode, modePlain, modeInstall, modeDefault)
			}
			if err != nil {
				return err
			}
			defer func() {
				if err := d.Quit(); err != nil {
					e.logger.Warn("quit firefox driver", logging.Field{Key: "error", Value: err.Error()})
				}
			}()

			if err := d.Get(url); err != nil {
				return fmt.Errorf("open %s: %w", url, err)
			}
			title, err := d.Title()
			if err != nil {
				return fmt.Errorf("read title: %w", err)
			}
			fmt.Fprintln(e.out, title)
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "mode", modeDefault, "setup mode: plain, install or default")
	cmd.Flags().StringVar(&url, "url", "about:blank", "page to open")
	return cmd
}
