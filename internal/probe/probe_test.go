package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHTTPChecker_StatusOK(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer s.Close()

	out := NewHTTPChecker(2*time.Second).Check(context.Background(), s.URL)
	require.True(t, out.Success)
	require.Equal(t, http.StatusOK, out.StatusCode)
	require.True(t, strings.HasPrefix(out.Message, "200"))
	require.GreaterOrEqual(t, out.LatencyMS, 0.0)
}

func TestHTTPChecker_ClientErrorIsReachable(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "missing latitude", http.StatusBadRequest)
	}))
	defer s.Close()

	out := NewHTTPChecker(2*time.Second).Check(context.Background(), s.URL)
	require.True(t, out.Success)
	require.Equal(t, http.StatusBadRequest, out.StatusCode)
}

func TestHTTPChecker_Status500(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer s.Close()

	out := NewHTTPChecker(2*time.Second).Check(context.Background(), s.URL)
	require.False(t, out.Success)
	require.Equal(t, http.StatusInternalServerError, out.StatusCode)
}

func TestHTTPChecker_HeadNotAllowedFallsBackToGet(t *testing.T) {
	var methods []string
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method)
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer s.Close()

	out := NewHTTPChecker(2*time.Second).Check(context.Background(), s.URL)
	require.True(t, out.Success)
	require.Equal(t, []string{http.MethodHead, http.MethodGet}, methods)
}

func TestHTTPChecker_Unreachable(t *testing.T) {
	s := httptest.NewServer(http.NotFoundHandler())
	url := s.URL
	s.Close()

	out := NewHTTPChecker(time.Second).Check(context.Background(), url)
	require.False(t, out.Success)
	require.Zero(t, out.StatusCode)
	require.True(t, strings.HasPrefix(out.Message, "http_error"))
}

func TestDNSChecker_InvalidName(t *testing.T) {
	out := NewDNSChecker(time.Second).Check(context.Background(), "bad host/name")
	require.False(t, out.Success)
	require.Equal(t, DNSInvalid, out.Message)
}

func TestDNSChecker_IPLiteralResolves(t *testing.T) {
	out := NewDNSChecker(time.Second).Check(context.Background(), "http://127.0.0.1:8080/x")
	require.True(t, out.Success)
	require.Equal(t, DNSResolves, out.Message)
}

type staticChecker struct{ name string }

func (s staticChecker) Check(_ context.Context, target string) CheckResult {
	return CheckResult{Name: s.name, Target: target, Success: true}
}

func TestMultiChecker_RunsEveryCheckerPerTarget(t *testing.T) {
	m := NewMultiChecker(staticChecker{"a"}, staticChecker{"b"})
	out := m.Run(context.Background(), "t1", "t2")

	require.Len(t, out, 4)
	require.Equal(t, "a", out[0].Name)
	require.Equal(t, "t1", out[1].Target)
	require.Equal(t, "t2", out[2].Target)
}
