package github

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// clearTokenEnv empties every token variable and hides any real gh binary.
func clearTokenEnv(t *testing.T) string {
	t.Helper()
	for _, name := range TokenEnvVars {
		t.Setenv(name, "")
	}
	dir := t.TempDir()
	t.Setenv("PATH", dir)
	return dir
}

func writeGHStub(t *testing.T, dir, script string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("test uses a shell script gh stub")
	}
	if err := os.WriteFile(filepath.Join(dir, "gh"), []byte("#!/bin/sh\n"+script+"\n"), 0o755); err != nil {
		t.Fatalf("WriteFile gh stub failed: %v", err)
	}
}

func TestResolveAuthToken(t *testing.T) {
	t.Run("explicit token wins", func(t *testing.T) {
		clearTokenEnv(t)
		t.Setenv("GITHUB_TOKEN", "env-token")

		tok, src, err := ResolveAuthToken(context.Background(), " explicit ")
		if err != nil {
			t.Fatalf("ResolveAuthToken error: %v", err)
		}
		if tok != "explicit" || src != AuthTokenSourceExplicit {
			t.Fatalf("want explicit/%q, got %q/%q", AuthTokenSourceExplicit, tok, src)
		}
	})

	t.Run("sitegate variable preferred over GITHUB_TOKEN", func(t *testing.T) {
		clearTokenEnv(t)
		t.Setenv("GITHUB_TOKEN", "generic")
		t.Setenv("SITEGATE_GITHUB_TOKEN", "specific")

		tok, src, err := ResolveAuthToken(context.Background(), "")
		if err != nil {
			t.Fatalf("ResolveAuthToken error: %v", err)
		}
		if tok != "specific" || src != AuthTokenSourceEnv {
			t.Fatalf("want specific/env, got %q/%q", tok, src)
		}
	})

	t.Run("GH_TOKEN used last", func(t *testing.T) {
		clearTokenEnv(t)
		t.Setenv("GH_TOKEN", "gh-env")

		tok, _, err := ResolveAuthToken(context.Background(), "")
		if err != nil {
			t.Fatalf("ResolveAuthToken error: %v", err)
		}
		if tok != "gh-env" {
			t.Fatalf("want gh-env, got %q", tok)
		}
	})

	t.Run("gh token used when env empty", func(t *testing.T) {
		dir := clearTokenEnv(t)
		writeGHStub(t, dir, "echo gh-token")

		tok, src, err := ResolveAuthToken(context.Background(), "")
		if err != nil {
			t.Fatalf("ResolveAuthToken error: %v", err)
		}
		if tok != "gh-token" || src != AuthTokenSourceGitHubCL {
			t.Fatalf("want gh-token/gh, got %q/%q", tok, src)
		}
	})

	t.Run("gh not logged in yields no token", func(t *testing.T) {
		dir := clearTokenEnv(t)
		writeGHStub(t, dir, "echo 'not logged in' >&2; exit 1")

		tok, src, err := ResolveAuthToken(context.Background(), "")
		if err != nil {
			t.Fatalf("ResolveAuthToken error: %v", err)
		}
		if tok != "" || src != "" {
			t.Fatalf("want empty token and source, got %q/%q", tok, src)
		}
	})

	t.Run("empty when neither env nor gh", func(t *testing.T) {
		clearTokenEnv(t)

		tok, src, err := ResolveAuthToken(context.Background(), "")
		if err != nil {
			t.Fatalf("ResolveAuthToken error: %v", err)
		}
		if tok != "" || src != "" {
			t.Fatalf("want empty token and source, got %q/%q", tok, src)
		}
	})

	t.Run("gh multi-line output is an error", func(t *testing.T) {
		dir := clearTokenEnv(t)
		writeGHStub(t, dir, `printf 'line1\nline2\n'`)

		if _, _, err := ResolveAuthToken(context.Background(), ""); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("canceled context propagates when using gh", func(t *testing.T) {
		dir := clearTokenEnv(t)
		writeGHStub(t, dir, "echo gh-token")

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, _, err := ResolveAuthToken(ctx, "")
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	})
}
