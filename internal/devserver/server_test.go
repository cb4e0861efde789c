package devserver

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/tash-vibe/subway/internal/mimetype"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	types, err := mimetype.Default()
	if err != nil {
		t.Fatalf("mimetype.Default() error = %v", err)
	}
	return New(http.FS(fstest.MapFS{
		"main.js": {Data: []byte("console.log('subway');\n")},
	}), types)
}

func TestServeUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ln, err := Listen(ctx, "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	addr := ln.Addr().String()

	srv := newTestServer(t)
	done := make(chan error, 1)
	go func() {
		done <- srv.Serve(ctx, ln)
	}()

	for _, p := range []string{"/main.js", "/missing.js"} {
		resp, err := http.Get("http://" + addr + p)
		if err != nil {
			t.Fatalf("GET %s error = %v", p, err)
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		assertDevHeaders(t, resp.Header)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve() error = %v, want nil after cancel", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Serve() did not return after cancel")
	}

	// The port must be free again straight away.
	ln2, err := Listen(context.Background(), addr)
	if err != nil {
		t.Fatalf("Listen() after shutdown error = %v", err)
	}
	ln2.Close()
}

func TestListenPortInUse(t *testing.T) {
	ln, err := Listen(context.Background(), "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer ln.Close()

	_, err = Listen(context.Background(), ln.Addr().String())
	if err == nil {
		t.Fatal("Listen() on a bound port should fail")
	}
	if !strings.Contains(err.Error(), "failed to listen") {
		t.Errorf("Listen() error = %v, want it to name the failed listen", err)
	}
}

func TestServeClosedListener(t *testing.T) {
	ln, err := Listen(context.Background(), "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	ln.Close()

	if err := newTestServer(t).Serve(context.Background(), ln); err == nil {
		t.Fatal("Serve() on a closed listener should fail")
	}
}

func TestServeForcesCloseAfterGrace(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ln, err := Listen(ctx, "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	addr := ln.Addr().String()

	release := make(chan struct{})
	defer close(release)
	started := make(chan struct{})

	srv := newTestServer(t)
	srv.grace = 50 * time.Millisecond
	srv.srv.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-release
	})

	done := make(chan error, 1)
	go func() {
		done <- srv.Serve(ctx, ln)
	}()

	go func() {
		resp, err := http.Get("http://" + addr + "/slow")
		if err == nil {
			resp.Body.Close()
		}
	}()

	select {
	case <-started:
	case <-time.After(10 * time.Second):
		t.Fatal("request never reached the handler")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve() error = %v, want nil after forced close", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Serve() did not return after the grace period")
	}
}
