package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(baseURL string) ILookupClient {
	return &lookupClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 2 * time.Second},
	}
}

func TestLookupSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/8.8.8.8/json/", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"country_name":"United States","region":"California","ip":"8.8.8.8"}`))
	}))
	defer srv.Close()

	loc, err := newTestClient(srv.URL).Lookup(context.Background(), "8.8.8.8")
	require.NoError(t, err)
	assert.Equal(t, "United States", loc.Country)
	assert.Equal(t, "California", loc.Region)
}

func TestLookupPartialResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"country_name":"Germany"}`))
	}))
	defer srv.Close()

	loc, err := newTestClient(srv.URL).Lookup(context.Background(), "1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, "Germany", loc.Country)
	assert.Equal(t, "", loc.Region)
}

func TestLookupNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Lookup(context.Background(), "1.2.3.4")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestLookupMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Lookup(context.Background(), "1.2.3.4")
	assert.Error(t, err)
}

func TestLookupEmptyIP(t *testing.T) {
	_, err := newTestClient("http://unused").Lookup(context.Background(), "  ")
	assert.Error(t, err)
}

func TestLookupContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newTestClient(srv.URL).Lookup(ctx, "1.2.3.4")
	assert.Error(t, err)
}
