package geckodriver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/raysh454/foxdriver/internal/webclient"
)

var ErrAssetNotFound = errors.New("release asset not found")

// Release is the subset of the GitHub release payload the installer reads.
type Release struct {
	TagName string  `json:"tag_name"`
	Assets  []Asset `json:"assets"`
}

type Asset struct {
	Name        string `json:"name"`
	DownloadURL string `json:"browser_download_url"`
}

// Asset returns the asset named name.
func (r *Release) Asset(name string) (Asset, error) {
	for _, a := range r.Assets {
		if a.Name == name {
			return a, nil
		}
	}
	return Asset{}, fmt.Errorf("%w: %s in %s", ErrAssetNotFound, name, r.TagName)
}

func releaseURL(base, version string) string {
	base = strings.TrimRight(base, "/")
	if version == "" || version == VersionLatest {
		return base + "/repos/mozilla/geckodriver/releases/latest"
	}
	return base + "/repos/mozilla/geckodriver/releases/tags/" + url.PathEscape(version)
}

func fetchRelease(ctx context.Context, client webclient.WebClient, base, version string) (*Release, error) {
	resp, err := client.Do(ctx, &webclient.Request{
		Method:  http.MethodGet,
		URL:     releaseURL(base, version),
		Headers: http.Header{"Accept": {"application/vnd.github+json"}},
	})
	if err != nil {
		return nil, fmt.Errorf("fetch release %s: %w", version, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch release %s: unexpected status %d", version, resp.StatusCode)
	}

	var rel Release
	if err := json.Unmarshal(resp.Body, &rel); err != nil {
		return nil, fmt.Errorf("decode release %s: %w", version, err)
	}
	if rel.TagName == "" {
		return nil, fmt.Errorf("decode release %s: missing tag_name", version)
	}
	return &rel, nil
}
