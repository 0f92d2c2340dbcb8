package discovery

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scaleout-labs/fednworker/internal/types"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Connector) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, New(srv.URL, "test-token")
}

func TestAssignReturnsAssignedOnOK(t *testing.T) {
	_, conn := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Token test-token", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(assignResponse{
			Host:       "combiner.example.com",
			Port:       12080,
			HelperType: "numpyhelper",
			Package:    "local",
		})
	})

	result, err := conn.Assign(context.Background(), types.Identity{Name: "worker1"}, "", false, true)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAssigned, result.Outcome)
	assert.Equal(t, "combiner.example.com", result.Assignment.Host)
	assert.Equal(t, 12080, result.Assignment.Port)
}

func TestAssignReturnsUnauthorizedOn401(t *testing.T) {
	_, conn := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	result, err := conn.Assign(context.Background(), types.Identity{Name: "worker1"}, "", false, true)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnauthorized, result.Outcome)
}

func TestAssignReturnsUnmatchedConfigOn409(t *testing.T) {
	_, conn := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})

	result, err := conn.Assign(context.Background(), types.Identity{Name: "worker1"}, "", false, true)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnmatchedConfig, result.Outcome)
}

func TestAssignReturnsTryAgainOnOtherStatus(t *testing.T) {
	_, conn := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	result, err := conn.Assign(context.Background(), types.Identity{Name: "worker1"}, "", false, true)
	require.NoError(t, err)
	assert.Equal(t, OutcomeTryAgain, result.Outcome)
}

func TestFetchPackageReturnsBody(t *testing.T) {
	_, conn := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/package", r.URL.Path)
		w.Write([]byte("package-bytes"))
	})

	data, err := conn.FetchPackage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "package-bytes", string(data))
}

func TestFetchPackageChecksumTrimsWhitespace(t *testing.T) {
	_, conn := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/package_checksum", r.URL.Path)
		w.Write([]byte("  abc123  \n"))
	})

	sum, err := conn.FetchPackageChecksum(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc123", sum)
}
