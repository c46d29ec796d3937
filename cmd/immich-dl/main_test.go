package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const missingMessage = "Missing IMMICH_URL, IMMICH_TOKEN, or IMMICH_ALBUMS environment variables.\n"

// fakeImmich serves fixed album and asset responses and records every path
type fakeImmich struct {
	server *httptest.Server

	mu       sync.Mutex
	requests []string
}

func newFakeImmich(t *testing.T, albums map[string]string, failStatus map[string]int) *fakeImmich {
	t.Helper()
	f := &fakeImmich{}

	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, r.URL.Path)
		f.mu.Unlock()

		if r.Header.Get("Authorization") != "Bearer test-token-1234" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if status, ok := failStatus[r.URL.Path]; ok {
			w.WriteHeader(status)
			return
		}

		if strings.HasPrefix(r.URL.Path, "/api/albums/") {
			body, ok := albums[strings.TrimPrefix(r.URL.Path, "/api/albums/")]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(body))
			return
		}

		id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/assets/"), "/original")
		w.Write([]byte("bytes-of-" + id))
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeImmich) Requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

// setEnv isolates the process environment for one test
func setEnv(t *testing.T, url, token, albums, dest string) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("IMMICH_URL", url)
	t.Setenv("IMMICH_TOKEN", token)
	t.Setenv("IMMICH_ALBUMS", albums)
	t.Setenv("DOWNLOAD_DEST", dest)
	for _, name := range []string{
		"IMMICH_DL_CONCURRENCY", "IMMICH_DL_TIMEOUT",
		"IMMICH_DL_LOG_LEVEL", "IMMICH_DL_LOG_FORMAT", "IMMICH_DL_LOG_FILE",
	} {
		t.Setenv(name, "")
	}
}

func execute(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

const tripAlbum = `{"albumName":"Trip","assets":[{"id":"a1","originalFileName":"p1.jpg"},{"id":"a2"}]}`

func TestRunMissingSettings(t *testing.T) {
	fake := newFakeImmich(t, nil, nil)

	tests := []struct {
		name   string
		url    string
		token  string
		albums string
	}{
		{name: "missing url", token: "test-token-1234", albums: "abc"},
		{name: "missing token", url: fake.server.URL, albums: "abc"},
		{name: "missing albums", url: fake.server.URL, token: "test-token-1234"},
		{name: "blank first album", url: fake.server.URL, token: "test-token-1234", albums: " ,abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setEnv(t, tt.url, tt.token, tt.albums, t.TempDir())

			code, _, stderr := execute()
			assert.Equal(t, 1, code)
			assert.Equal(t, missingMessage, stderr)
		})
	}

	assert.Empty(t, fake.Requests())
}

func TestRunDownloadsTrip(t *testing.T) {
	fake := newFakeImmich(t, map[string]string{"abc123": tripAlbum}, nil)
	dest := filepath.Join(t.TempDir(), "out")
	setEnv(t, fake.server.URL, "test-token-1234", "abc123", dest)

	code, stdout, stderr := execute()
	require.Equal(t, 0, code, stderr)
	assert.Empty(t, stderr)

	p1, err := os.ReadFile(filepath.Join(dest, "Trip", "p1.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "bytes-of-a1", string(p1))

	a2, err := os.ReadFile(filepath.Join(dest, "Trip", "a2.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "bytes-of-a2", string(a2))

	for _, line := range []string{
		"Fetching album abc123...",
		"Found 2 assets.",
		"Saved p1.jpg",
		"Saved a2.jpg",
		"All album downloads complete.",
	} {
		assert.Contains(t, stdout, line)
	}
	assert.Less(t, strings.Index(stdout, "Found 2 assets."), strings.Index(stdout, "All album downloads complete."))
}

func TestRunFlagsOverrideEnvironment(t *testing.T) {
	fake := newFakeImmich(t, map[string]string{"abc123": tripAlbum}, nil)
	setEnv(t, fake.server.URL, "test-token-1234", "ignored", filepath.Join(t.TempDir(), "env"))
	dest := filepath.Join(t.TempDir(), "flag")

	code, _, stderr := execute("--albums", "abc123", "-o", dest, "--concurrent", "1")
	require.Equal(t, 0, code, stderr)

	assert.FileExists(t, filepath.Join(dest, "Trip", "p1.jpg"))
	assert.NotContains(t, fake.Requests(), "/api/albums/ignored")
}

func TestRunAssetFailureStillSucceeds(t *testing.T) {
	fake := newFakeImmich(t,
		map[string]string{"abc123": tripAlbum},
		map[string]int{"/api/assets/a1/original": http.StatusInternalServerError},
	)
	dest := t.TempDir()
	setEnv(t, fake.server.URL, "test-token-1234", "abc123", dest)

	code, stdout, stderr := execute()
	assert.Equal(t, 0, code)
	assert.Empty(t, stderr)

	assert.Contains(t, stdout, "Failed to download asset")
	assert.Contains(t, stdout, "a1")
	assert.FileExists(t, filepath.Join(dest, "Trip", "a2.jpg"))
	assert.NoFileExists(t, filepath.Join(dest, "Trip", "p1.jpg"))
	assert.Contains(t, stdout, "All album downloads complete.")
}

func TestRunFatalOnFirstAlbum(t *testing.T) {
	fake := newFakeImmich(t,
		map[string]string{"second": tripAlbum},
		map[string]int{"/api/albums/first": http.StatusInternalServerError},
	)
	setEnv(t, fake.server.URL, "test-token-1234", "first,second", t.TempDir())

	code, stdout, stderr := execute()
	assert.Equal(t, 1, code)
	assert.True(t, strings.HasPrefix(stderr, "Fatal: "), stderr)
	assert.Contains(t, stderr, "first")

	assert.Equal(t, []string{"/api/albums/first"}, fake.Requests())
	assert.NotContains(t, stdout, "All album downloads complete.")
}

func TestRunUnauthorizedIsFatal(t *testing.T) {
	fake := newFakeImmich(t, map[string]string{"abc123": tripAlbum}, nil)
	setEnv(t, fake.server.URL, "wrong-token", "abc123", t.TempDir())

	code, _, stderr := execute()
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Fatal: ")
	assert.Contains(t, stderr, "auth")
}

func TestRunJSONLogs(t *testing.T) {
	fake := newFakeImmich(t, map[string]string{"abc123": tripAlbum}, nil)
	setEnv(t, fake.server.URL, "test-token-1234", "abc123", t.TempDir())

	code, stdout, stderr := execute("--log-format", "json")
	require.Equal(t, 0, code, stderr)

	var messages []string
	for _, line := range strings.Split(strings.TrimSpace(stdout), "\n") {
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry), line)
		if msg, ok := entry["message"].(string); ok {
			messages = append(messages, msg)
		}
	}
	assert.Contains(t, messages, "Fetching album abc123...")
	assert.Contains(t, messages, "All album downloads complete.")
}

func TestRunInvalidSettingIsFatal(t *testing.T) {
	setEnv(t, "http://immich.local", "test-token-1234", "abc", t.TempDir())

	code, _, stderr := execute("--log-level", "loud")
	assert.Equal(t, 1, code)
	assert.True(t, strings.HasPrefix(stderr, "Fatal: "), stderr)
	assert.Contains(t, stderr, "invalid log level")
}

func TestVersionFlag(t *testing.T) {
	code, stdout, _ := execute("--version")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "immich-dl "+version)
}

func TestConfigInitAndShow(t *testing.T) {
	fake := newFakeImmich(t, nil, nil)
	setEnv(t, fake.server.URL, "test-token-1234", "abc,def", t.TempDir())
	path := filepath.Join(t.TempDir(), "immich-dl.yaml")

	code, stdout, stderr := execute("config", "init", "--config", path)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, path)
	assert.FileExists(t, path)

	code, _, stderr = execute("config", "init", "--config", path)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "already exists")

	code, stdout, stderr = execute("config", "show", "--config", path)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "test...1234")
	assert.NotContains(t, stdout, "test-token-1234")
	assert.Contains(t, stdout, fake.server.URL)
	assert.Contains(t, stdout, "- abc")
	assert.Contains(t, stdout, "- def")

	assert.Empty(t, fake.Requests())
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "", maskSecret(""))
	assert.Equal(t, "***", maskSecret("short"))
	assert.Equal(t, "abcd...5678", maskSecret("abcd-secret-5678"))
}

func TestRunWritesLogFile(t *testing.T) {
	fake := newFakeImmich(t, map[string]string{"abc123": tripAlbum}, nil)
	setEnv(t, fake.server.URL, "test-token-1234", "abc123", t.TempDir())
	logPath := filepath.Join(t.TempDir(), "logs", "immich-dl.log")
	t.Setenv("IMMICH_DL_LOG_FILE", logPath)

	code, _, stderr := execute()
	require.Equal(t, 0, code, stderr)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.NotEmpty(t, lines)

	var last map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &last))
	assert.Equal(t, "All album downloads complete.", last["message"])
}

func TestHelpMentionsConcurrencyOverride(t *testing.T) {
	code, stdout, _ := execute("--help")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "up to 10")
	assert.Contains(t, stdout, "--concurrent or IMMICH_DL_CONCURRENCY")
}
