package updater

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/synergy-app/synergy/internal/version"
)

// eventRecorder is a Listener that keeps every event it receives.
type eventRecorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *eventRecorder) OnUpdateEvent(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *eventRecorder) all() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// names returns event names with consecutive download-progress events folded
// into one entry.
func (r *eventRecorder) names() []string {
	var out []string
	for _, ev := range r.all() {
		name := ev.Name()
		if name == EventDownloadProgress && len(out) > 0 && out[len(out)-1] == name {
			continue
		}
		out = append(out, name)
	}
	return out
}

func equalNames(a, b []string) bool {
	return strings.Join(a, ",") == strings.Join(b, ",")
}

// releaseServer fakes the GitHub API and the release download host.
type releaseServer struct {
	*httptest.Server

	mu           sync.Mutex
	tag          string
	archive      []byte
	checksum     string
	status       int
	apiRequests  int
	downloadHits int
}

func newReleaseServer(t *testing.T, tag string, archive []byte) *releaseServer {
	t.Helper()

	sum := sha256.Sum256(archive)
	rs := &releaseServer{
		tag:      tag,
		archive:  archive,
		checksum: hex.EncodeToString(sum[:]),
		status:   http.StatusOK,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/owner/repo/releases/latest", rs.handleLatest)
	mux.HandleFunc("/download/", rs.handleDownload)

	rs.Server = httptest.NewServer(mux)
	t.Cleanup(rs.Close)
	return rs
}

func (rs *releaseServer) setStatus(code int) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.status = code
}

func (rs *releaseServer) setChecksum(sum string) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.checksum = sum
}

func (rs *releaseServer) downloads() int {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.downloadHits
}

func (rs *releaseServer) handleLatest(w http.ResponseWriter, r *http.Request) {
	rs.mu.Lock()
	rs.apiRequests++
	status := rs.status
	tag := rs.tag
	rs.mu.Unlock()

	if status != http.StatusOK {
		http.Error(w, "boom", status)
		return
	}

	name := AssetName(tag)
	rel := release{
		TagName:     tag,
		Body:        "Release notes",
		PublishedAt: time.Now(),
		HTMLURL:     rs.URL + "/releases/" + tag,
		Assets: []asset{
			{Name: name, Size: int64(len(rs.archive)), DownloadURL: rs.URL + "/download/" + name},
			{Name: checksumsAsset, DownloadURL: rs.URL + "/download/" + checksumsAsset},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rel)
}

func (rs *releaseServer) handleDownload(w http.ResponseWriter, r *http.Request) {
	rs.mu.Lock()
	tag := rs.tag
	sum := rs.checksum
	rs.mu.Unlock()

	name := strings.TrimPrefix(r.URL.Path, "/download/")
	switch name {
	case "checksums.txt":
		fmt.Fprintf(w, "%s  %s\n", sum, AssetName(tag))
	case AssetName(tag):
		rs.mu.Lock()
		rs.downloadHits++
		rs.mu.Unlock()
		w.Header().Set("Content-Length", strconv.Itoa(len(rs.archive)))
		w.Write(rs.archive)
	default:
		http.NotFound(w, r)
	}
}

// buildArchive returns an archive in this platform's release format holding
// one file named like the desktop binary.
func buildArchive(t *testing.T, content []byte) []byte {
	t.Helper()

	name := BinaryTypeDesktop.BinaryName()
	var buf bytes.Buffer

	if runtime.GOOS == "windows" {
		zw := zip.NewWriter(&buf)
		fw, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create: %v", err)
		}
		fw.Write(content)
		if err := zw.Close(); err != nil {
			t.Fatalf("zip close: %v", err)
		}
		return buf.Bytes()
	}

	gzw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gzw)
	if err := tw.WriteHeader(&tar.Header{
		Name:     name,
		Mode:     0755,
		Size:     int64(len(content)),
		Typeflag: tar.TypeReg,
	}); err != nil {
		t.Fatalf("tar header: %v", err)
	}
	tw.Write(content)
	tw.Close()
	gzw.Close()
	return buf.Bytes()
}

// setVersion swaps the build version for the duration of a test.
func setVersion(t *testing.T, v, buildTime string) {
	t.Helper()
	origVersion, origBuildTime := version.Version, version.BuildTime
	version.Version, version.BuildTime = v, buildTime
	t.Cleanup(func() {
		version.Version, version.BuildTime = origVersion, origBuildTime
	})
}

type testHarness struct {
	updater    *Updater
	events     *eventRecorder
	server     *releaseServer
	target     string
	quitCalls  int
	relaunches int
}

// newTestHarness builds an Updater against a fake release server. The
// installer replaces a scratch file instead of the test binary.
func newTestHarness(t *testing.T, tag string, payload []byte, mutate func(*Config)) *testHarness {
	t.Helper()

	dir := t.TempDir()
	cfg := Config{
		Enabled:              true,
		AutoDownload:         true,
		AutoInstallOnAppQuit: true,
		Channel:              ChannelStable,
		GitHubOwner:          "owner",
		GitHubRepo:           "repo",
		StateFile:            filepath.Join(dir, "state.json"),
	}
	if mutate != nil {
		mutate(&cfg)
	}

	h := &testHarness{
		events: &eventRecorder{},
		server: newReleaseServer(t, tag, buildArchive(t, payload)),
		target: filepath.Join(dir, "bin", BinaryTypeDesktop.BinaryName()),
	}

	if err := os.MkdirAll(filepath.Dir(h.target), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(h.target, []byte("old binary"), 0755); err != nil {
		t.Fatalf("write target: %v", err)
	}

	u, err := New(cfg, BinaryTypeDesktop, h.events)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	u.feed.apiURL = h.server.URL
	u.installer.target = h.target
	u.relaunch = func() error {
		h.relaunches++
		return nil
	}
	u.SetQuitFunc(func() { h.quitCalls++ })

	h.updater = u
	return h
}
