package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	m := New()
	require.NotNil(t, m.Registry())

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}

	for _, want := range []string{"synergy_popups_open", "synergy_popups_total", "synergy_main_windows_created_total", "go_goroutines"} {
		assert.True(t, names[want], "missing %s", want)
	}
}

func TestCollector_RecordUpdateEvent(t *testing.T) {
	m := New()
	c := NewCollector(m, nil)

	c.RecordUpdateEvent("checking-for-update")
	c.RecordUpdateEvent("checking-for-update")
	c.RecordUpdateEvent("error")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.UpdateEvents.WithLabelValues("checking-for-update")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpdateEvents.WithLabelValues("error")))
}

func TestCollector_PopupOpened(t *testing.T) {
	m := New()
	c := NewCollector(m, nil)

	closeA := c.PopupOpened()
	closeB := c.PopupOpened()
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PopupsOpen))

	closeA()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PopupsOpen))
	closeB()
	assert.Equal(t, 0.0, testutil.ToFloat64(m.PopupsOpen))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PopupsTotal))
}

func TestCollector_RecordMainWindowAndProgress(t *testing.T) {
	m := New()
	c := NewCollector(m, nil)

	c.RecordMainWindow()
	c.RecordDownloadProgress(42.5)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.MainWindows))
	assert.Equal(t, 42.5, testutil.ToFloat64(m.UpdateProgress))
}

func TestCollector_Nil(t *testing.T) {
	var c *Collector

	assert.NotPanics(t, func() {
		c.Start()
		c.Stop()
		c.RecordUpdateEvent("error")
		c.RecordDownloadProgress(10)
		c.RecordMainWindow()
		c.PopupOpened()()
	})
	assert.Nil(t, c.Metrics())
}

func TestCollector_StartStop(t *testing.T) {
	m := New()
	c := NewCollector(m, func() int { return 3 })
	c.interval = 10 * time.Millisecond

	c.Start()
	c.Start()

	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(m.WindowsAlive) == 3
	}, time.Second, 5*time.Millisecond)
	assert.Greater(t, testutil.ToFloat64(m.GoRoutines), 0.0)

	c.Stop()
	c.Stop()
}

func TestServer_Handler(t *testing.T) {
	m := New()
	NewCollector(m, nil).RecordUpdateEvent("update-available")

	srv := httptest.NewServer(NewServer("", m).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), `synergy_update_events_total{kind="update-available"} 1`))

	resp, err = http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_StartShutdown(t *testing.T) {
	s := NewServer("127.0.0.1:0", New())
	require.NoError(t, s.Start())

	resp, err := http.Get("http://" + s.Addr() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Shutdown(ctx))
}

func TestServer_ShutdownWithoutStart(t *testing.T) {
	assert.NoError(t, NewServer("127.0.0.1:0", New()).Shutdown(context.Background()))
}
