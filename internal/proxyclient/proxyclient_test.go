package proxyclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)
	return New(u.Hostname(), port)
}

func TestBreakpointsDecodesList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/breakpoints", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"breakpoints":[{"requestId":1,"classId":10,"methodId":20,"codeIndex":0,"className":"demo.C","methodName":"run","lineNumber":10}]}`))
	}))
	defer srv.Close()

	bps, err := testClient(t, srv).Breakpoints(context.Background())
	require.NoError(t, err)
	require.Len(t, bps, 1)
	assert.Equal(t, "demo.C", bps[0].ClassName)
	assert.Equal(t, 10, bps[0].LineNumber)
}

func TestDeleteBreakpointNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	err := testClient(t, srv).DeleteBreakpoint(context.Background(), 42)
	require.Error(t, err)
}

func TestDeleteBreakpointOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := testClient(t, srv).DeleteBreakpoint(context.Background(), 42)
	require.NoError(t, err)
}

func TestCurrentThreadNilOn404(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	ct, err := testClient(t, srv).CurrentThread(context.Background())
	require.NoError(t, err)
	assert.Nil(t, ct)
}

func TestCurrentThreadDecodesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"threadId":7,"threadName":"main","suspended":true,"frames":3}`))
	}))
	defer srv.Close()

	ct, err := testClient(t, srv).CurrentThread(context.Background())
	require.NoError(t, err)
	require.NotNil(t, ct)
	assert.Equal(t, int64(7), ct.ThreadID)
	assert.True(t, ct.Suspended)
}
