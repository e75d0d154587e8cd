package cricsheet

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
)

func newServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		if strings.HasSuffix(r.URL.Path, "missing.zip") {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("body of " + r.URL.Path))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestTargets(t *testing.T) {
	got := Targets("data")
	if len(got) != 5 {
		t.Fatalf("expected 5 targets, got %d", len(got))
	}
	if got[0].URLPath != "/downloads/tests_json.zip" || got[0].Path != filepath.Join("data", "tests_json.zip") {
		t.Errorf("unexpected first target %+v", got[0])
	}
	if got[3].URLPath != "/downloads/ipl_json.zip" {
		t.Errorf("unexpected league target %+v", got[3])
	}
	if got[4].URLPath != "/register/people.csv" || got[4].Path != PeoplePath("data") {
		t.Errorf("unexpected register target %+v", got[4])
	}
}

func TestFetchAllSkipsExisting(t *testing.T) {
	var hits int32
	srv := newServer(t, &hits)
	dir := t.TempDir()
	if err := os.WriteFile(PeoplePath(dir), []byte("existing"), 0644); err != nil {
		t.Fatal(err)
	}

	c := NewClient(srv.URL, 0)
	got, err := c.FetchAll(context.Background(), dir, false)
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(got) != 5 || !got[4].Skipped {
		t.Fatalf("expected the register to be skipped: %+v", got)
	}
	if n := atomic.LoadInt32(&hits); n != 4 {
		t.Errorf("expected 4 requests, got %d", n)
	}
	data, err := os.ReadFile(filepath.Join(dir, "odis_json.zip"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "body of /downloads/odis_json.zip" {
		t.Errorf("unexpected body %q", data)
	}
	if kept, _ := os.ReadFile(PeoplePath(dir)); string(kept) != "existing" {
		t.Error("existing file must not be overwritten")
	}
}

func TestFetchForceOverwrites(t *testing.T) {
	var hits int32
	srv := newServer(t, &hits)
	dir := t.TempDir()
	target := Target{URLPath: "/register/people.csv", Path: PeoplePath(dir)}
	if err := os.WriteFile(target.Path, []byte("stale"), 0644); err != nil {
		t.Fatal(err)
	}
	d, err := NewClient(srv.URL, 0).Fetch(context.Background(), target, true)
	if err != nil {
		t.Fatal(err)
	}
	if d.Skipped || d.Bytes == 0 {
		t.Errorf("unexpected download %+v", d)
	}
	if data, _ := os.ReadFile(target.Path); string(data) != "body of /register/people.csv" {
		t.Errorf("file not replaced: %q", data)
	}
}

func TestFetchHTTPErrorLeavesNoFile(t *testing.T) {
	var hits int32
	srv := newServer(t, &hits)
	dir := t.TempDir()
	target := Target{URLPath: "/downloads/missing.zip", Path: filepath.Join(dir, "missing.zip")}
	if _, err := NewClient(srv.URL, 0).Fetch(context.Background(), target, false); err == nil {
		t.Fatal("expected an error for HTTP 404")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("no files may be left behind, found %d", len(entries))
	}
}

func TestFetchCancelled(t *testing.T) {
	var hits int32
	srv := newServer(t, &hits)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewClient(srv.URL, 0).FetchAll(ctx, t.TempDir(), false)
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	if n := atomic.LoadInt32(&hits); n != 0 {
		t.Errorf("no request may be sent after cancel, got %d", n)
	}
}
