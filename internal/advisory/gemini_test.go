package advisory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGemini_ReturnsCandidateText(t *testing.T) {
	t.Parallel()

	var gotPrompt, gotPath, gotKey string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		var req generateRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if len(req.Contents) > 0 && len(req.Contents[0].Parts) > 0 {
			gotPrompt = req.Contents[0].Parts[0].Text
		}
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"  Open a window.  "}]}}]}`))
	}))
	defer ts.Close()

	g := NewGemini(ts.URL, "test-model", "k123", time.Second)
	text, err := g.Advise(context.Background(), "hello")
	require.NoError(t, err)
	require.Equal(t, "Open a window.", text)
	require.Equal(t, "hello", gotPrompt)
	require.Equal(t, "/models/test-model:generateContent", gotPath)
	require.Equal(t, "k123", gotKey)
}

func TestGemini_Failures(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		status int
		body   string
	}{
		{"non-200", http.StatusTooManyRequests, `{}`},
		{"malformed", http.StatusOK, `{"candidates":[`},
		{"no candidates", http.StatusOK, `{"candidates":[]}`},
		{"no parts", http.StatusOK, `{"candidates":[{"content":{"parts":[]}}]}`},
		{"empty text", http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":" "}]}}]}`},
	}
	for _, c := range cases {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(c.status)
			_, _ = w.Write([]byte(c.body))
		}))
		_, err := NewGemini(ts.URL, "", "k", time.Second).Advise(context.Background(), "p")
		ts.Close()
		require.ErrorIs(t, err, ErrAdvisoryFailed, c.name)
	}
}

func TestGemini_NoKey(t *testing.T) {
	t.Parallel()

	_, err := NewGemini("", "", "", time.Second).Advise(context.Background(), "p")
	require.ErrorIs(t, err, ErrAdvisoryFailed)
}
