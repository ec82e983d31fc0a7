package clickhouse

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDSN(t *testing.T) {
	cfg := defaultConfig()
	for _, opt := range []ClientOption{
		WithHost("ch.local"),
		WithDatabase("finscore"),
		WithCredentials("reader", "p@ss"),
		WithTimeouts(2*time.Second, 0, 0),
		WithMaxExecutionTime(90 * time.Second),
	} {
		opt(&cfg)
	}

	u, err := url.Parse(BuildDSN(cfg))
	require.NoError(t, err)
	assert.Equal(t, "clickhouse", u.Scheme)
	assert.Equal(t, "ch.local:9000", u.Host)
	assert.Equal(t, "/finscore", u.Path)
	assert.Equal(t, "reader", u.User.Username())
	pw, _ := u.User.Password()
	assert.Equal(t, "p@ss", pw)
	assert.Equal(t, "2s", u.Query().Get("dial_timeout"))
	assert.Equal(t, "30s", u.Query().Get("read_timeout"))
	assert.Equal(t, "90", u.Query().Get("max_execution_time"))
}

func TestBuildDSNOverHTTP(t *testing.T) {
	cfg := defaultConfig()
	WithHost("ch.local")(&cfg)
	WithPort(8123)(&cfg)
	WithHTTP(true)(&cfg)

	u, err := url.Parse(BuildDSN(cfg))
	require.NoError(t, err)
	assert.Equal(t, "http", u.Scheme)
	assert.Equal(t, "ch.local:8123", u.Host)
}

func TestNewClientRequiresHost(t *testing.T) {
	_, err := NewClient()
	assert.Error(t, err)
}
