package yosmart

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"store-monitor-backend/config"
)

// vendorServer bundles a fake token endpoint and API endpoint behind one
// httptest server. apiHandler receives the call ordinal (1-based) and the
// decoded request payload.
func vendorServer(t *testing.T, apiHandler func(n int64, payload map[string]any) string) (*httptest.Server, *int64, *int64) {
	t.Helper()
	var grants, apiCalls int64

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt64(&grants, 1)
		fmt.Fprintf(w, `{"access_token":"tok-%d","expires_in":3600}`, n)
	})
	mux.HandleFunc("/api", func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt64(&apiCalls, 1)
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.NotEmpty(t, r.Header.Get("Authorization"))
		fmt.Fprint(w, apiHandler(n, payload))
	})

	server := httptest.NewServer(mux)
	return server, &grants, &apiCalls
}

func newTestClient(server *httptest.Server) *Client {
	return NewClient(&config.YoSmartConfig{
		UAID:      "test-uaid",
		SecretKey: "test-secret",
		TokenURL:  server.URL + "/token",
		APIURL:    server.URL + "/api",
		Timeout:   5 * time.Second,
	})
}

func TestClient_SuccessfulCall(t *testing.T) {
	server, _, _ := vendorServer(t, func(n int64, payload map[string]any) string {
		assert.Equal(t, "THSensor.getState", payload["method"])
		assert.Equal(t, "d1", payload["targetDevice"])
		assert.NotZero(t, payload["time"])
		return `{"code":"000000","method":"THSensor.getState","data":{"online":true}}`
	})
	defer server.Close()

	client := newTestClient(server)
	resp, err := client.Call(context.Background(), "THSensor.getState", map[string]any{
		"targetDevice": "d1",
		"token":        "devtok",
	})
	require.NoError(t, err)
	assert.Equal(t, CodeSuccess, resp.Code)
}

func TestClient_RetriesOnceAfterTokenError(t *testing.T) {
	server, grants, apiCalls := vendorServer(t, func(n int64, payload map[string]any) string {
		if n == 1 {
			return `{"code":"010104","desc":"token expired"}`
		}
		return `{"code":"000000","data":{}}`
	})
	defer server.Close()

	client := newTestClient(server)
	resp, err := client.Call(context.Background(), "Hub.getState", nil)
	require.NoError(t, err)
	assert.Equal(t, CodeSuccess, resp.Code)

	// One grant for the initial token and exactly one forced refresh.
	assert.EqualValues(t, 2, atomic.LoadInt64(grants))
	assert.EqualValues(t, 2, atomic.LoadInt64(apiCalls))
}

func TestClient_NoThirdAttemptOnPersistentTokenError(t *testing.T) {
	server, _, apiCalls := vendorServer(t, func(n int64, payload map[string]any) string {
		return `{"code":"010104","desc":"token expired"}`
	})
	defer server.Close()

	client := newTestClient(server)
	resp, err := client.Call(context.Background(), "Hub.getState", nil)
	require.NoError(t, err)

	// The second failed response comes back as an ordinary result.
	assert.Equal(t, "010104", resp.Code)
	assert.EqualValues(t, 2, atomic.LoadInt64(apiCalls))
}

func TestClient_VendorErrorIsAResult(t *testing.T) {
	server, _, apiCalls := vendorServer(t, func(n int64, payload map[string]any) string {
		return `{"code":"020101","desc":"device not found"}`
	})
	defer server.Close()

	client := newTestClient(server)
	resp, err := client.Call(context.Background(), "Hub.getState", nil)
	require.NoError(t, err)
	assert.Equal(t, "020101", resp.Code)
	assert.Equal(t, "device not found", resp.Desc)
	assert.EqualValues(t, 1, atomic.LoadInt64(apiCalls))
}

func TestClient_TransportError(t *testing.T) {
	server, _, _ := vendorServer(t, func(n int64, payload map[string]any) string { return "{}" })
	client := newTestClient(server)
	server.Close() // force a connection failure

	_, err := client.Call(context.Background(), "Hub.getState", nil)
	require.Error(t, err)
	var callErr *CallError
	require.ErrorAs(t, err, &callErr)
	assert.Equal(t, ErrKindTransport, callErr.Kind)
}

func TestClient_NoTokenFailsFast(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	mux.HandleFunc("/api", func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("API endpoint must not be called without a token")
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(server)
	_, err := client.Call(context.Background(), "Hub.getState", nil)
	require.Error(t, err)
	var callErr *CallError
	require.ErrorAs(t, err, &callErr)
	assert.Equal(t, ErrKindNoToken, callErr.Kind)

	var authErr *AuthError
	assert.ErrorAs(t, err, &authErr)
}
