package geckodriver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/raysh454/foxdriver/internal/logging"
	"github.com/raysh454/foxdriver/internal/webclient"
)

const driverName = "geckodriver"

// Manager downloads geckodriver releases into a local cache and hands back
// the executable path.
type Manager struct {
	cfg      Config
	logger   logging.Logger
	client   webclient.WebClient
	platform Platform

	mu       sync.Mutex
	manifest *Manifest
}

// NewManager validates cfg and resolves the target platform. The manifest is
// opened lazily on the first Install or Installed call.
func NewManager(cfg Config, logger logging.Logger, client webclient.WebClient) (*Manager, error) {
	if logger == nil {
		return nil, errors.New("geckodriver: nil logger provided")
	}
	if client == nil {
		return nil, errors.New("geckodriver: nil webclient provided")
	}
	if cfg.CacheDir == "" {
		return nil, errors.New("geckodriver: cache dir is empty")
	}
	if cfg.Version == "" {
		cfg.Version = VersionLatest
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = DefaultAPIBaseURL
	}

	p, err := PlatformFor(cfg.GOOS, cfg.GOARCH)
	if err != nil {
		return nil, err
	}

	return &Manager{
		cfg:      cfg,
		logger:   logger.With(logging.Field{Key: "component", Value: "geckodriver"}),
		client:   client,
		platform: p,
	}, nil
}

func (m *Manager) openManifest() (*Manifest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.manifest != nil {
		return m.manifest, nil
	}
	mf, err := OpenManifest(m.cfg.CacheDir)
	if err != nil {
		return nil, err
	}
	m.manifest = mf
	return mf, nil
}

// Install returns the path of a geckodriver binary for the configured version,
// downloading it when the cache has no usable copy.
func (m *Manager) Install(ctx context.Context) (string, error) {
	mf, err := m.openManifest()
	if err != nil {
		return "", err
	}

	// Pinned versions can be served from the cache without a network call.
	if m.cfg.Version != VersionLatest {
		if p, ok := m.cached(ctx, mf, m.cfg.Version); ok {
			return p, nil
		}
	}

	rel, err := fetchRelease(ctx, m.client, m.cfg.APIBaseURL, m.cfg.Version)
	if err != nil {
		return "", err
	}
	version := rel.TagName

	if p, ok := m.cached(ctx, mf, version); ok {
		return p, nil
	}

	asset, err := rel.Asset(m.platform.AssetName(version))
	if err != nil {
		return "", err
	}

	m.logger.Info("downloading geckodriver",
		logging.Field{Key: "version", Value: version},
		logging.Field{Key: "asset", Value: asset.Name})

	resp, err := m.client.Get(ctx, asset.DownloadURL)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", asset.Name, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download %s: unexpected status %d", asset.Name, resp.StatusCode)
	}

	dir := filepath.Join(m.cfg.CacheDir, version, m.platform.Suffix)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	dst := filepath.Join(dir, m.platform.Binary)
	if err := extractBinary(resp.Body, m.platform.Archive, m.platform.Binary, dst); err != nil {
		return "", fmt.Errorf("extract %s: %w", asset.Name, err)
	}

	if err := mf.Record(ctx, Entry{
		Name:     driverName,
		Version:  version,
		Platform: m.platform.Suffix,
		Path:     dst,
	}); err != nil {
		return "", err
	}

	m.logger.Info("installed geckodriver",
		logging.Field{Key: "version", Value: version},
		logging.Field{Key: "path", Value: dst})
	return dst, nil
}

func (m *Manager) cached(ctx context.Context, mf *Manifest, version string) (string, bool) {
	e, ok, err := mf.Lookup(ctx, driverName, version, m.platform.Suffix)
	if err != nil {
		m.logger.Warn("manifest lookup failed", logging.Field{Key: "error", Value: err.Error()})
		return "", false
	}
	if !ok {
		return "", false
	}
	if _, err := os.Stat(e.Path); err != nil {
		m.logger.Debug("cached geckodriver missing on disk", logging.Field{Key: "path", Value: e.Path})
		return "", false
	}
	m.logger.Debug("using cached geckodriver",
		logging.Field{Key: "version", Value: version},
		logging.Field{Key: "path", Value: e.Path})
	return e.Path, true
}

// Installed lists the drivers recorded in the manifest.
func (m *Manager) Installed(ctx context.Context) ([]Entry, error) {
	mf, err := m.openManifest()
	if err != nil {
		return nil, err
	}
	return mf.List(ctx)
}

func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.manifest == nil {
		return nil
	}
	err := m.manifest.Close()
	m.manifest = nil
	return err
}
