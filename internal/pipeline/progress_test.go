package pipeline

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNoOpProgressCallback(t *testing.T) {
	callback := NoOpProgressCallback{}
	callback.OnStart(10)
	callback.OnProgress(5, 10)
	callback.OnError(3, assert.AnError)
	callback.OnComplete()
}

func TestConsoleProgressCallback(t *testing.T) {
	var buf bytes.Buffer
	callback := NewConsoleProgressCallback(&buf, "Scan: ").WithWidth(10).WithUpdateInterval(0)

	callback.OnStart(4)
	assert.Contains(t, buf.String(), "Scan: 0/4 pages")

	buf.Reset()
	callback.OnProgress(2, 4)
	out := buf.String()
	assert.Contains(t, out, "[#####-----]")
	assert.Contains(t, out, "2/4 (50.0%)")

	buf.Reset()
	callback.OnError(3, assert.AnError)
	assert.Contains(t, buf.String(), "Error at page 3")

	buf.Reset()
	callback.OnProgress(4, 4)
	assert.Contains(t, buf.String(), "1 failed")

	buf.Reset()
	callback.OnComplete()
	assert.Contains(t, buf.String(), "Scan: Completed in")
}

func TestConsoleProgressCallback_Throttles(t *testing.T) {
	var buf bytes.Buffer
	callback := NewConsoleProgressCallback(&buf, "").WithUpdateInterval(time.Hour)
	callback.OnStart(10)
	callback.OnProgress(1, 10)
	buf.Reset()

	callback.OnProgress(2, 10)
	assert.Empty(t, buf.String(), "updates inside the interval are dropped")

	callback.OnProgress(10, 10)
	assert.Contains(t, buf.String(), "10/10", "the final update is always drawn")
}

func TestLogProgressCallback(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	callback := NewLogProgressCallback(logger, slog.LevelInfo).WithInterval(2)

	callback.OnStart(3)
	callback.OnProgress(1, 3)
	callback.OnProgress(2, 3)
	callback.OnProgress(3, 3)
	callback.OnError(1, assert.AnError)
	callback.OnComplete()

	out := buf.String()
	assert.Contains(t, out, "Scan batch started")
	assert.Equal(t, 2, strings.Count(out, "Scan batch progress"))
	assert.Contains(t, out, "Scan failed")
	assert.Contains(t, out, "Scan batch completed")
}
