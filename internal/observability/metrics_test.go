package observability

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecord(t *testing.T) {
	m, err := InitMetrics()
	require.NoError(t, err)

	m.ObserveBackend("insert file", time.Now(), nil)
	m.ObserveBackend("insert file", time.Now(), errors.New("boom"))
	m.ObserveUpload(nil)
	m.SetStorage(3, 42)
	m.ObserveThumbnailCache(true)
	m.ObserveThumbnailCache(false)
	m.ObserveThumbnailCache(false)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.backendRequests.WithLabelValues("insert file", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.backendRequests.WithLabelValues("insert file", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.uploads.WithLabelValues("ok")))
	assert.Equal(t, 42.0, testutil.ToFloat64(m.storageUsed))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.filesTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.thumbnailCache.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.thumbnailCache.WithLabelValues("miss")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveBackend("select files", time.Now(), nil)
		m.ObserveUpload(nil)
		m.SetStorage(1, 1)
		m.ObserveThumbnailCache(true)
	})
}

func TestInitLoggerLevels(t *testing.T) {
	logger, err := InitLogger(LogOptions{Level: "debug", Dev: true})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(-1))

	logger, err = InitLogger(LogOptions{Level: "bogus", File: t.TempDir() + "/logs/filedrop.log"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(-1))
	logger.Info("written to file")
}
