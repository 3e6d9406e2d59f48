package cache

import (
	"testing"
	"time"

	catalogdomain "github.com/rareminds/skillpassport-billing/internal/catalog/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTLCacheExpiry(t *testing.T) {
	c := NewTTLCache[string, int]()
	c.Set("a", 1, 50*time.Millisecond)

	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, got)

	time.Sleep(60 * time.Millisecond)
	_, ok = c.Get("a")
	assert.False(t, ok)
}

func TestTTLCacheDelete(t *testing.T) {
	c := NewTTLCache[string, int]()
	c.Set("a", 1, time.Minute)
	c.Delete("a")

	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestCatalogCacheKeyNormalization(t *testing.T) {
	c := NewCatalogCache()
	res := &catalogdomain.CatalogResponse{}
	c.Set("Career", "Student", res)

	got, ok := c.Get("career", "student")
	require.True(t, ok)
	assert.Same(t, res, got)

	_, ok = c.Get("career", "recruiter")
	assert.False(t, ok)
}

func TestCatalogCacheSeparatesCategoryAndRole(t *testing.T) {
	c := NewCatalogCache()
	byCategory := &catalogdomain.CatalogResponse{
		AddOns: []catalogdomain.AddOn{{FeatureKey: "resume_builder"}},
	}
	c.Set("student", "", byCategory)

	// A role-only lookup must never see the category-only entry.
	_, ok := c.Get("", "student")
	assert.False(t, ok)

	got, ok := c.Get("student", "")
	require.True(t, ok)
	assert.Same(t, byCategory, got)

	byRole := &catalogdomain.CatalogResponse{}
	c.Set("", "student", byRole)
	got, ok = c.Get("", "student")
	require.True(t, ok)
	assert.Same(t, byRole, got)
}

func TestCatalogCacheNilReceiver(t *testing.T) {
	var c *CatalogCache
	c.Set("career", "student", &catalogdomain.CatalogResponse{})

	_, ok := c.Get("career", "student")
	assert.False(t, ok)
}
