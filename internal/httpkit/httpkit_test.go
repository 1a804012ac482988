package httpkit

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNewClientSetsUserAgent(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	client := NewClient()
	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	DrainAndClose(resp.Body, 1<<20)

	if !strings.HasPrefix(gotUA, "NutriOffShore/") {
		t.Errorf("User-Agent = %q, want NutriOffShore/ prefix", gotUA)
	}
}

func TestNewClientUserAgentOverride(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	client := NewClient(WithUserAgent("custom-agent/1.0"))
	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	DrainAndClose(resp.Body, 1<<20)

	if gotUA != "custom-agent/1.0" {
		t.Errorf("User-Agent = %q", gotUA)
	}
}

func TestExplicitUserAgentPreserved(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	client := NewClient()
	req, err := http.NewRequest("GET", srv.URL, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("User-Agent", "caller-set/2.0")
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	DrainAndClose(resp.Body, 1<<20)

	if gotUA != "caller-set/2.0" {
		t.Errorf("User-Agent = %q", gotUA)
	}
}

func TestWithTimeout(t *testing.T) {
	client := NewClient(WithTimeout(5 * time.Second))
	if client.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v", client.Timeout)
	}

	streaming := NewClient(WithTimeout(0))
	if streaming.Timeout != 0 {
		t.Errorf("streaming Timeout = %v, want 0", streaming.Timeout)
	}
}

func TestDrainAndCloseNil(t *testing.T) {
	DrainAndClose(nil, 1024) // must not panic
}

func TestDrainAndCloseReadsBody(t *testing.T) {
	body := io.NopCloser(strings.NewReader(strings.Repeat("x", 100)))
	DrainAndClose(body, 10)
}
