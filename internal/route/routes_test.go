package route

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestDynamicHTMLHandler(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "login.html"), []byte("<form></form>"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>live</h1>"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	h := dynamicHTMLHandler(dir)

	tests := []struct {
		path string
		want int
	}{
		{"/login", http.StatusOK},
		{"/", http.StatusOK},
		{"/history", http.StatusNotFound},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
		if rec.Code != tt.want {
			t.Errorf("GET %s: expected %d, got %d", tt.path, tt.want, rec.Code)
		}
	}
}

func TestShippedLoginPage(t *testing.T) {
	// The auth middleware redirects to /login, so the page must exist.
	if _, err := os.Stat(filepath.Join("..", "..", "static", "login.html")); err != nil {
		t.Errorf("static/login.html missing: %v", err)
	}
}
