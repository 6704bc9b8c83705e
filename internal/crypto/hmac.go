package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strconv"
	"time"
)

// HMACAuth holds the API credentials for an authenticated relay service.
// Relay providers that meter gasless submissions per client require each
// request to carry a keyed signature over the request contents.
type HMACAuth struct {
	Key    string // API key id
	Secret string // API secret, used as the HMAC key
}

// Headers returns the HTTP headers for an authenticated relay request. The
// signature is HMAC-SHA256(secret, timestamp+method+path+body) encoded as
// base64.
//
// Returned header keys:
//   - RELAY-API-KEY
//   - RELAY-TIMESTAMP
//   - RELAY-SIGNATURE
func (h *HMACAuth) Headers(method, path, body string) map[string]string {
	return h.HeadersAt(method, path, body, time.Now().Unix())
}

// HeadersAt is like Headers but lets the caller supply the Unix timestamp
// (useful for deterministic testing).
func (h *HMACAuth) HeadersAt(method, path, body string, unixTS int64) map[string]string {
	ts := strconv.FormatInt(unixTS, 10)

	mac := hmac.New(sha256.New, []byte(h.Secret))
	mac.Write([]byte(ts + method + path + body))
	sig := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return map[string]string{
		"RELAY-API-KEY":   h.Key,
		"RELAY-TIMESTAMP": ts,
		"RELAY-SIGNATURE": sig,
	}
}
