package common

import (
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

type Cache struct {
	*cache.Cache
}

func NewCache(expirationTime, cleanupTime time.Duration) *Cache {
	return &Cache{cache.New(expirationTime, cleanupTime)}
}

func (c *Cache) Set(key string, value interface{}, expiration ...time.Duration) {
	if len(expiration) > 0 {
		c.Cache.Set(key, value, expiration[0])
		return
	}
	c.Cache.Set(key, value, cache.DefaultExpiration)
}

func (c *Cache) Get(key string) (interface{}, bool) {
	return c.Cache.Get(key)
}

// DeletePrefix drops every entry whose key starts with prefix. Used to
// invalidate all cached listing pages after a mutation.
func (c *Cache) DeletePrefix(prefix string) {
	for key := range c.Cache.Items() {
		if strings.HasPrefix(key, prefix) {
			c.Cache.Delete(key)
		}
	}
}

func (c *Cache) Flush() {
	c.Cache.Flush()
}

const PostPagePrefix = "posts:"

func CacheKeyPost(id int) string {
	return "post:" + strconv.Itoa(id)
}

func CacheKeyPostPage(ownerID *int, page, pageSize int) string {
	owner := "all"
	if ownerID != nil {
		owner = strconv.Itoa(*ownerID)
	}
	return PostPagePrefix + owner + ":" + strconv.Itoa(page) + ":" + strconv.Itoa(pageSize)
}

func CacheKeyUserByToken(token string) string {
	return "user_by_token:" + token
}
