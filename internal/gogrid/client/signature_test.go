package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSignature(t *testing.T) {
	at := func(sec int64) time.Time { return time.Unix(sec, 0) }

	t.Run("deterministic for a fixed triple", func(t *testing.T) {
		first := signature("key", "secret", at(1234567890))
		second := signature("key", "secret", at(1234567890))
		assert.Equal(t, first, second)
		assert.Len(t, first, 32, "md5 hex digest is 32 characters")
	})

	t.Run("changes with the timestamp", func(t *testing.T) {
		first := signature("key", "secret", at(1234567890))
		second := signature("key", "secret", at(1234567891))
		assert.NotEqual(t, first, second)
	})

	t.Run("changes with the credentials", func(t *testing.T) {
		ts := at(1234567890)
		assert.NotEqual(t, signature("key-a", "secret", ts), signature("key-b", "secret", ts))
		assert.NotEqual(t, signature("key", "secret-a", ts), signature("key", "secret-b", ts))
	})

	t.Run("matches a known digest", func(t *testing.T) {
		// md5("abc" + "def" + "0")
		assert.Equal(t, "cb793cb133428a12cec6e3e3b787abb9", signature("abc", "def", at(0)))
	})
}
