package registry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRegistry serves packuments keyed by escaped package path.
func fakeRegistry(t *testing.T, docs map[string]string) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		doc, ok := docs[r.URL.EscapedPath()]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, doc)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func versionsDoc(versions ...string) string {
	entries := make([]string, len(versions))
	for i, v := range versions {
		entries[i] = fmt.Sprintf("%q: {}", v)
	}
	return fmt.Sprintf(`{"name":"x","dist-tags":{"latest":"2.3.1"},"versions":{%s}}`, strings.Join(entries, ","))
}

func TestResolvePinnedVersionWithoutNetwork(t *testing.T) {
	srv, hits := fakeRegistry(t, nil)
	client := NewClient(Options{URL: srv.URL})

	version, err := client.Resolve(context.Background(), "anything", "1.2.3")
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", version)
	assert.Zero(t, atomic.LoadInt32(hits))
}

func TestResolveSelectsGreatestMatchingVersion(t *testing.T) {
	srv, hits := fakeRegistry(t, map[string]string{
		"/lib": versionsDoc("1.9.9", "2.0.0", "2.3.1", "3.0.0-beta"),
	})
	client := NewClient(Options{URL: srv.URL})

	tests := []struct {
		versionRange string
		want         string
	}{
		{"^2.0.0", "2.3.1"},
		{"~2.0.0", "2.0.0"},
		{"^1.0.0", "1.9.9"},
		{">=1.0.0", "2.3.1"},
		{"^1.0.0 || ^2.0.0", "2.3.1"},
		{"*", "2.3.1"},
		{"latest", "2.3.1"},
		{">=3.0.0-alpha", "3.0.0-beta"},
	}
	for _, tt := range tests {
		t.Run(tt.versionRange, func(t *testing.T) {
			got, err := client.Resolve(context.Background(), "lib", tt.versionRange)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Equal(t, int32(len(tests)), atomic.LoadInt32(hits))
}

func TestResolveEscapesScopedNames(t *testing.T) {
	srv, _ := fakeRegistry(t, map[string]string{
		"/@ty-ras%2Fprotocol": versionsDoc("2.0.0", "2.1.0"),
	})
	client := NewClient(Options{URL: srv.URL + "/"})

	got, err := client.Resolve(context.Background(), "@ty-ras/protocol", "^2.0.0")
	require.NoError(t, err)
	assert.Equal(t, "2.1.0", got)
}

func TestResolveNoMatchingVersion(t *testing.T) {
	srv, _ := fakeRegistry(t, map[string]string{
		"/lib": versionsDoc("1.0.0", "2.0.0"),
	})
	client := NewClient(Options{URL: srv.URL})

	_, err := client.Resolve(context.Background(), "lib", "^9.0.0")
	var resErr *ResolutionError
	require.True(t, errors.As(err, &resErr))
	assert.Equal(t, "lib", resErr.Package)
	assert.Equal(t, "^9.0.0", resErr.Range)
	assert.Contains(t, err.Error(), `"lib"`)
	assert.Contains(t, err.Error(), `"^9.0.0"`)
}

func TestResolveUnknownPackage(t *testing.T) {
	srv, _ := fakeRegistry(t, map[string]string{})
	client := NewClient(Options{URL: srv.URL})

	_, err := client.Resolve(context.Background(), "missing", "^1.0.0")
	var resErr *ResolutionError
	require.True(t, errors.As(err, &resErr))
	assert.Contains(t, err.Error(), "status 404")
}

func TestResolveInvalidRange(t *testing.T) {
	srv, _ := fakeRegistry(t, map[string]string{"/lib": versionsDoc("1.0.0")})
	client := NewClient(Options{URL: srv.URL})

	_, err := client.Resolve(context.Background(), "lib", "not a range")
	var resErr *ResolutionError
	require.True(t, errors.As(err, &resErr))
	assert.Contains(t, err.Error(), "invalid range")
}

func TestResolveConcurrently(t *testing.T) {
	srv, _ := fakeRegistry(t, map[string]string{"/lib": versionsDoc("1.0.0", "1.5.0")})
	client := NewClient(Options{URL: srv.URL})

	const n = 16
	results := make(chan string, n)
	for i := 0; i < n; i++ {
		go func() {
			v, err := client.Resolve(context.Background(), "lib", "^1.0.0")
			if err != nil {
				v = err.Error()
			}
			results <- v
		}()
	}
	for i := 0; i < n; i++ {
		assert.Equal(t, "1.5.0", <-results)
	}
}

func TestIsPinned(t *testing.T) {
	assert.True(t, IsPinned("1.2.3"))
	assert.True(t, IsPinned("0.0.1-beta"))
	assert.False(t, IsPinned("^1.2.3"))
	assert.False(t, IsPinned("latest"))
	assert.False(t, IsPinned(""))
}
