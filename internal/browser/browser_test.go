package browser

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPage = `<!doctype html>
<html><body style="margin:0">
<div id="list" style="height:3000px">list</div>
<input id="login-email">
<button class="artdeco-dismiss" onclick="this.textContent=['overlay','closed'].join('-')">Dismiss</button>
</body></html>`

// chromeAvailable mirrors the binaries chromedp looks for by default.
func chromeAvailable() bool {
	if os.Getenv("CHROME_PATH") != "" {
		return true
	}
	for _, name := range []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "headless-shell", "chrome"} {
		if _, err := exec.LookPath(name); err == nil {
			return true
		}
	}
	return false
}

func newTestSession(t *testing.T, timeout time.Duration) *Session {
	t.Helper()
	if testing.Short() || !chromeAvailable() {
		t.Skip("chrome not available")
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	s, err := New(ctx, Options{
		Headless:       true,
		DisableImages:  true,
		ExecPath:       os.Getenv("CHROME_PATH"),
		CommandTimeout: timeout,
	})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestSessionPageOperations(t *testing.T) {
	s := newTestSession(t, 3*time.Second)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(testPage))
	}))
	defer srv.Close()

	ctx := s.Context()
	require.NoError(t, s.Navigate(ctx, srv.URL))

	loc, err := s.Location(ctx)
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/", loc)

	height, err := s.ScrollHeight(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, height, int64(3000))
	require.NoError(t, s.ScrollToBottom(ctx))

	require.NoError(t, s.WaitVisible(ctx, "#login-email"))
	require.NoError(t, s.SendKeys(ctx, "#login-email", "me@example.com"))
	require.NoError(t, s.Click(ctx, ".artdeco-dismiss"))

	html, err := s.HTML(ctx)
	require.NoError(t, err)
	assert.Contains(t, html, ">overlay-closed<")

	ok, err := s.Exists(ctx, ".missing")
	require.NoError(t, err)
	assert.False(t, ok)

	err = s.Click(ctx, ".missing")
	assert.True(t, errors.Is(err, ErrNotFound))

	// Waiting out the command timeout is reported as a missing element.
	err = s.WaitVisible(ctx, ".missing")
	assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)
	assert.Contains(t, err.Error(), ".missing")
}

func TestSessionCloseIsIdempotent(t *testing.T) {
	s := newTestSession(t, 10*time.Second)
	s.Close()
	s.Close()
	assert.Error(t, s.Context().Err())
}
