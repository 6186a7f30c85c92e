package main

import (
	"bytes"
	"context"
	"errors"
	"log"
	"net/http"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "HOST", "CORS_ORIGIN", "REDIS_ADDR",
		"MAX_USERS_PER_DOCUMENT", "MAX_DOCUMENT_SIZE",
		"ENABLE_TYPING_INDICATORS", "ENABLE_CURSOR_SHARING",
	} {
		t.Setenv(key, "")
	}
}

func TestRunReturnsListenError(t *testing.T) {
	origListen := listenAndServe
	t.Cleanup(func() { listenAndServe = origListen })

	listenAndServe = func(addr string, handler http.Handler) error {
		if handler == nil {
			t.Fatalf("expected handler")
		}
		if addr != ":9090" {
			t.Fatalf("expected addr :9090, got %s", addr)
		}
		return errors.New("boom")
	}

	clearEnv(t)
	t.Setenv("PORT", "9090")

	if err := run(context.Background()); err == nil || err.Error() != "boom" {
		t.Fatalf("expected boom error, got %v", err)
	}
}

func TestRunReturnsConfigError(t *testing.T) {
	clearEnv(t)
	t.Setenv("MAX_DOCUMENT_SIZE", "not-a-number")
	if err := run(context.Background()); err == nil {
		t.Fatalf("expected config error")
	}
}

func TestRunWithRedisStats(t *testing.T) {
	origListen := listenAndServe
	t.Cleanup(func() { listenAndServe = origListen })

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	listenAndServe = func(string, http.Handler) error { return nil }

	clearEnv(t)
	t.Setenv("PORT", "9091")
	t.Setenv("REDIS_ADDR", mr.Addr())

	if err := run(context.Background()); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestRunToleratesUnreachableRedis(t *testing.T) {
	origListen := listenAndServe
	t.Cleanup(func() { listenAndServe = origListen })
	listenAndServe = func(string, http.Handler) error { return nil }

	clearEnv(t)
	t.Setenv("REDIS_ADDR", "localhost:0")

	if err := run(context.Background()); err != nil {
		t.Fatalf("expected redis failure to be non-fatal, got %v", err)
	}
}

func TestMainHandlesError(t *testing.T) {
	origListen := listenAndServe
	origExit := exitFunc
	t.Cleanup(func() {
		listenAndServe = origListen
		exitFunc = origExit
	})

	listenAndServe = func(string, http.Handler) error { return errors.New("main boom") }
	var got error
	exitFunc = func(err error) { got = err }

	clearEnv(t)
	t.Setenv("PORT", "9092")

	main()

	if got == nil || got.Error() != "main boom" {
		t.Fatalf("expected exitFunc to capture error, got %v", got)
	}
}

func TestMainCompletes(t *testing.T) {
	origListen := listenAndServe
	origExit := exitFunc
	t.Cleanup(func() {
		listenAndServe = origListen
		exitFunc = origExit
	})

	listenAndServe = func(string, http.Handler) error { return nil }
	exitFunc = func(error) { t.Fatal("exitFunc should not be called") }

	clearEnv(t)
	t.Setenv("PORT", "9093")

	main()
}

func TestDefaultExit(t *testing.T) {
	origExit := exit
	origWriter := log.Writer()
	t.Cleanup(func() {
		exit = origExit
		log.SetOutput(origWriter)
	})

	var gotCode int
	exit = func(code int) { gotCode = code }
	var buf bytes.Buffer
	log.SetOutput(&buf)

	defaultExit(errors.New("boom"))
	if gotCode != 1 {
		t.Fatalf("expected exit code 1, got %d", gotCode)
	}
	if !bytes.Contains(buf.Bytes(), []byte("boom")) {
		t.Fatalf("expected log to contain boom, got %q", buf.String())
	}
}
