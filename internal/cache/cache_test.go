package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func TestInMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache()

	c.Set(ctx, GenerateKey(PrefixUser, "user_1"), &cachedUser{ID: "user_1"}, 0)
	c.Set(ctx, GenerateKey(PrefixUser, "user_2"), &cachedUser{ID: "user_2"}, time.Minute)
	c.Set(ctx, GenerateKey(PrefixSubscription, "subs_1"), "x", 0)

	v, ok := c.Get(ctx, "user:v1:user_1")
	require.True(t, ok)
	u, ok := DecodeValue[cachedUser](v)
	require.True(t, ok)
	assert.Equal(t, "user_1", u.ID)

	c.DeleteByPrefix(ctx, PrefixUser)
	_, ok = c.Get(ctx, "user:v1:user_1")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "user:v1:user_2")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "subscription:v1:subs_1")
	assert.True(t, ok)

	c.Flush(ctx)
	_, ok = c.Get(ctx, "subscription:v1:subs_1")
	assert.False(t, ok)
}

func TestDecodeValue_FromJSONString(t *testing.T) {
	u, ok := DecodeValue[cachedUser](`{"id":"user_9","email":"a@b.c"}`)
	require.True(t, ok)
	assert.Equal(t, "a@b.c", u.Email)

	_, ok = DecodeValue[cachedUser](nil)
	assert.False(t, ok)
	_, ok = DecodeValue[cachedUser](42)
	assert.False(t, ok)
}

func TestExpiryForKey(t *testing.T) {
	assert.Equal(t, ExpiryUser, ExpiryForKey(GenerateKey(PrefixUser, "user_1")))
	assert.Equal(t, ExpiryUser, ExpiryForKey(GenerateKey(PrefixUserByEmail, "a@b.c")))
	assert.Equal(t, ExpirySubscription, ExpiryForKey(GenerateKey(PrefixSubscription, "subs_1")))
	assert.Equal(t, ExpiryDefault, ExpiryForKey("other:key"))
}

func TestGenerateKey(t *testing.T) {
	assert.Equal(t, "user:v1:user_1", GenerateKey(PrefixUser, "user_1"))
	assert.Equal(t, "user:v1:a:b", GenerateKey(PrefixUser, "a", "b"))
}

func TestNoopCache(t *testing.T) {
	ctx := context.Background()
	c := NewNoopCache()
	c.Set(ctx, "k", "v", 0)
	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
}
