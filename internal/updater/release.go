package updater

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"strings"
	"time"
)

const (
	githubAPIURL   = "https://api.github.com"
	userAgent      = "synergy-updater"
	checksumsAsset = "checksums.txt"

	// prereleaseWindow is how many recent releases are searched on the
	// prerelease channel.
	prereleaseWindow = 30
)

type release struct {
	TagName     string    `json:"tag_name"`
	Body        string    `json:"body"`
	Draft       bool      `json:"draft"`
	Prerelease  bool      `json:"prerelease"`
	PublishedAt time.Time `json:"published_at"`
	HTMLURL     string    `json:"html_url"`
	Assets      []asset   `json:"assets"`
}

type asset struct {
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	DownloadURL string `json:"browser_download_url"`
}

func (r *release) asset(name string) (asset, bool) {
	for _, a := range r.Assets {
		if a.Name == name {
			return a, true
		}
	}
	return asset{}, false
}

// newerThan orders releases by semver, or by publish time when either tag
// is not a version.
func (r *release) newerThan(other *release) bool {
	a, errA := ParseVersion(r.TagName)
	b, errB := ParseVersion(other.TagName)
	if errA == nil && errB == nil {
		return a.IsNewerThan(b)
	}
	return r.PublishedAt.After(other.PublishedAt)
}

// releaseFeed reads the releases of one GitHub repository.
type releaseFeed struct {
	client *http.Client
	apiURL string
	owner  string
	repo   string
}

func newReleaseFeed(owner, repo string) *releaseFeed {
	return &releaseFeed{
		client: &http.Client{Timeout: 30 * time.Second},
		apiURL: githubAPIURL,
		owner:  owner,
		repo:   repo,
	}
}

// latest returns the newest published release. The stable channel asks
// GitHub for its latest release; the prerelease channel picks the newest
// non-draft entry of the recent release list.
func (f *releaseFeed) latest(ctx context.Context, prerelease bool) (*release, error) {
	if !prerelease {
		var r release
		if err := f.getJSON(ctx, "/releases/latest", &r); err != nil {
			return nil, err
		}
		return &r, nil
	}

	var list []release
	if err := f.getJSON(ctx, fmt.Sprintf("/releases?per_page=%d", prereleaseWindow), &list); err != nil {
		return nil, err
	}

	var newest *release
	for i := range list {
		if list[i].Draft {
			continue
		}
		if newest == nil || list[i].newerThan(newest) {
			newest = &list[i]
		}
	}
	if newest == nil {
		return nil, fmt.Errorf("%w: no published releases", ErrNoUpdateAvailable)
	}
	return newest, nil
}

// resolve turns r into an UpdateInfo for this platform: the platform
// archive plus its digest from the release's checksums.txt.
func (f *releaseFeed) resolve(ctx context.Context, r *release) (*UpdateInfo, error) {
	name := AssetName(r.TagName)
	archive, ok := r.asset(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAssetNotFound, name)
	}

	sums, ok := r.asset(checksumsAsset)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no %s", ErrAssetNotFound, r.TagName, checksumsAsset)
	}

	body, err := f.open(ctx, sums.DownloadURL, false)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDownloadFailed, checksumsAsset, err)
	}
	defer body.Close()

	digest, err := lookupChecksum(body, name)
	if err != nil {
		return nil, err
	}

	return &UpdateInfo{
		NewVersion:   r.TagName,
		Version:      strings.TrimPrefix(r.TagName, "v"),
		ReleaseURL:   r.HTMLURL,
		ReleaseNotes: r.Body,
		PublishedAt:  r.PublishedAt,
		AssetURL:     archive.DownloadURL,
		AssetName:    name,
		AssetSize:    archive.Size,
		Checksum:     digest,
	}, nil
}

func (f *releaseFeed) getJSON(ctx context.Context, path string, v any) error {
	url := fmt.Sprintf("%s/repos/%s/%s%s", f.apiURL, f.owner, f.repo, path)
	body, err := f.open(ctx, url, true)
	if err != nil {
		return err
	}
	defer body.Close()

	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// open GETs url and returns the body of a 200 response. api selects the
// GitHub JSON media type; asset downloads must not send it.
func (f *releaseFeed) open(ctx context.Context, url string, api bool) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	if api {
		req.Header.Set("Accept", "application/vnd.github+json")
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	if resp.StatusCode == http.StatusOK {
		return resp.Body, nil
	}

	defer resp.Body.Close()
	return nil, statusError(resp)
}

func statusError(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s not found", ErrNoUpdateAvailable, resp.Request.URL.Path)
	case resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0":
		if reset := resp.Header.Get("X-RateLimit-Reset"); reset != "" {
			return fmt.Errorf("%w (resets at %s)", ErrRateLimited, reset)
		}
		return ErrRateLimited
	default:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s: %s", ErrNetworkError, resp.Status, strings.TrimSpace(string(msg)))
	}
}

// AssetName returns the archive published for tag on this platform:
// synergy_<version>_<os>_<arch>.tar.gz, or .zip on Windows.
func AssetName(tag string) string {
	ext := ".tar.gz"
	if runtime.GOOS == "windows" {
		ext = ".zip"
	}
	return fmt.Sprintf("synergy_%s_%s_%s%s", strings.TrimPrefix(tag, "v"), runtime.GOOS, runtime.GOARCH, ext)
}
