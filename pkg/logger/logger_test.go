package logger

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(&Config{Level: "loud", Output: "stdout"})
	require.Error(t, err)
}

func TestNewWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	l, err := New(&Config{Level: "info", Format: "json", Output: path})
	require.NoError(t, err)

	l.Debug("hidden")
	l.Info("anomaly.fit ok", String("company", "ACME"), Float64("threshold", 0.25), Duration("took", 1500*time.Millisecond))
	l.Error("anomaly.fit failed", Error(errors.New("boom")))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(b)
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"company":"ACME"`)
	assert.Contains(t, out, `"threshold":0.25`)
	assert.Contains(t, out, `"took":1500`)
	assert.Contains(t, out, `"error":"boom"`)
	assert.Equal(t, 2, strings.Count(out, "\n"))
}

func TestFieldKeyValues(t *testing.T) {
	k, v := Strings("tags", []string{"a", "b"}).GetKeyValue()
	assert.Equal(t, "tags", k)
	assert.Equal(t, "a, b", v)

	k, v = Error(nil).GetKeyValue()
	assert.Equal(t, "error", k)
	assert.Nil(t, v)
}

func TestNopDiscards(t *testing.T) {
	l := Nop().With(String("run", "x"))
	assert.NotPanics(t, func() { l.Warn("ignored", Int("n", 1)) })
}
