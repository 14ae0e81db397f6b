package discovery

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weprint/agent/internal/model"
)

func portOf(t *testing.T, srv *httptest.Server) int {
	t.Helper()
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)
	return port
}

func TestScanFindsMoonraker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/server/info" {
			w.Write([]byte(`{"result":{}}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	s := NewScanner(4)
	s.moonrakerPort = portOf(t, srv)
	s.octoprintPort = 1 // nothing listens there

	found, err := s.Scan(context.Background(), "127.0.0.1/32")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, model.BackendMoonraker, found[0].Kind)
	assert.Equal(t, "127.0.0.1", found[0].Address)
}

func TestScanFindsOctoPrint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/version" {
			w.Write([]byte(`{"api":"0.1"}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	s := NewScanner(4)
	s.moonrakerPort = 1
	s.octoprintPort = portOf(t, srv)

	found, err := s.Scan(context.Background(), "127.0.0.1/32")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, model.BackendOctoPrint, found[0].Kind)
}

func TestScanNothingListening(t *testing.T) {
	s := NewScanner(4)
	s.moonrakerPort = 1
	s.octoprintPort = 1

	found, err := s.Scan(context.Background(), "127.0.0.1/32")
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestScanInvalidSubnet(t *testing.T) {
	_, err := NewScanner(4).Scan(context.Background(), "not-a-subnet")
	assert.Error(t, err)
}

func TestHostsInSubnet(t *testing.T) {
	hosts, err := hostsInSubnet("192.168.1.0/30")
	require.NoError(t, err)
	// /30 has 4 addresses, minus network and broadcast
	assert.Equal(t, []string{"192.168.1.1", "192.168.1.2"}, hosts)

	hosts, err = hostsInSubnet("10.0.0.5/32")
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.5"}, hosts)
}
