package client

import (
	"crypto/md5"
	"encoding/hex"
	"strconv"
	"time"
)

// signature computes the request signature the API validates on every call:
// the md5 hex digest of api key + shared secret + unix time in seconds.
// md5 is mandated by the provider for wire compatibility; it plays no
// security role here. The server checks timestamp freshness, so the
// signature is recomputed for every request and never cached.
func signature(apiKey, secret string, now time.Time) string {
	sum := md5.Sum([]byte(apiKey + secret + strconv.FormatInt(now.Unix(), 10)))
	return hex.EncodeToString(sum[:])
}
