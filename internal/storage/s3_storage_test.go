package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChengYu2002/juxin-website-backend/internal/config"
)

func testStorage() *objectStorage {
	return &objectStorage{cfg: &config.Config{
		OssBucket:        "juxin-images",
		OssEndpoint:      "https://oss-cn-hangzhou.aliyuncs.com",
		OssPublicBaseURL: "https://cdn.example.com",
		OssAllowedHosts:  []string{"cdn.example.com", "juxin-images.oss-cn-hangzhou.aliyuncs.com"},
	}}
}

func TestPublicURL(t *testing.T) {
	s := testStorage()
	assert.Equal(t, "https://cdn.example.com/products/a.jpg", s.PublicURL("products/a.jpg"))

	// Without a CDN base the URL is composed virtual-hosted style.
	s.cfg.OssPublicBaseURL = ""
	assert.Equal(t,
		"https://juxin-images.oss-cn-hangzhou.aliyuncs.com/products/a.jpg",
		s.PublicURL("products/a.jpg"))
}

func TestKeyFromURL(t *testing.T) {
	s := testStorage()

	key, err := s.KeyFromURL("https://cdn.example.com/products/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "products/a.jpg", key)

	key, err = s.KeyFromURL("https://juxin-images.oss-cn-hangzhou.aliyuncs.com/products/b.png")
	require.NoError(t, err)
	assert.Equal(t, "products/b.png", key)
}

func TestKeyFromURLRejectsForeignHosts(t *testing.T) {
	s := testStorage()

	_, err := s.KeyFromURL("https://evil.example.org/products/a.jpg")
	assert.Error(t, err)

	_, err = s.KeyFromURL("https://cdn.example.com.evil.org/products/a.jpg")
	assert.Error(t, err)
}

func TestKeyFromURLRejectsPathTricks(t *testing.T) {
	s := testStorage()

	cases := []string{
		"https://cdn.example.com/../etc/passwd",
		"https://cdn.example.com/products/%2e%2e/secret",
		"https://cdn.example.com/",
		"not a url",
		"",
	}
	for _, raw := range cases {
		_, err := s.KeyFromURL(raw)
		assert.Error(t, err, "url %q should be rejected", raw)
	}
}
