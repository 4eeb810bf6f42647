package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCacheSetGet(t *testing.T) {
	c := NewCache(5*time.Minute, 10*time.Minute)

	c.Set(CacheKeyPost(1), "value")

	got, found := c.Get(CacheKeyPost(1))
	assert.True(t, found)
	assert.Equal(t, "value", got)

	_, found = c.Get(CacheKeyPost(2))
	assert.False(t, found)
}

func TestCacheSetWithExpiration(t *testing.T) {
	c := NewCache(5*time.Minute, 10*time.Minute)

	c.Set("key", "value", 10*time.Millisecond)

	_, found := c.Get("key")
	assert.True(t, found)

	time.Sleep(20 * time.Millisecond)

	_, found = c.Get("key")
	assert.False(t, found)
}

func TestCacheDeletePrefix(t *testing.T) {
	c := NewCache(5*time.Minute, 10*time.Minute)

	owner := 7
	c.Set(CacheKeyPostPage(nil, 1, 2), "page1")
	c.Set(CacheKeyPostPage(&owner, 1, 2), "page2")
	c.Set(CacheKeyPost(1), "post")

	c.DeletePrefix(PostPagePrefix)

	_, found := c.Get(CacheKeyPostPage(nil, 1, 2))
	assert.False(t, found)
	_, found = c.Get(CacheKeyPostPage(&owner, 1, 2))
	assert.False(t, found)
	_, found = c.Get(CacheKeyPost(1))
	assert.True(t, found)
}
