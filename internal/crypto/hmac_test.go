package crypto

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeadersAtDeterministic(t *testing.T) {
	auth := &HMACAuth{Key: "key-id", Secret: "sekrit"}

	h1 := auth.HeadersAt("POST", "/api/v1/relay", `{"a":1}`, 1700000000)
	h2 := auth.HeadersAt("POST", "/api/v1/relay", `{"a":1}`, 1700000000)

	assert.Equal(t, "key-id", h1["RELAY-API-KEY"])
	assert.Equal(t, "1700000000", h1["RELAY-TIMESTAMP"])
	assert.Equal(t, h1, h2)

	_, err := base64.StdEncoding.DecodeString(h1["RELAY-SIGNATURE"])
	require.NoError(t, err)
}

func TestHeadersAtSignatureCoversInputs(t *testing.T) {
	auth := &HMACAuth{Key: "key-id", Secret: "sekrit"}
	base := auth.HeadersAt("POST", "/api/v1/relay", "body", 1700000000)

	otherBody := auth.HeadersAt("POST", "/api/v1/relay", "body2", 1700000000)
	otherTS := auth.HeadersAt("POST", "/api/v1/relay", "body", 1700000001)
	otherSecret := (&HMACAuth{Key: "key-id", Secret: "other"}).
		HeadersAt("POST", "/api/v1/relay", "body", 1700000000)

	assert.NotEqual(t, base["RELAY-SIGNATURE"], otherBody["RELAY-SIGNATURE"])
	assert.NotEqual(t, base["RELAY-SIGNATURE"], otherTS["RELAY-SIGNATURE"])
	assert.NotEqual(t, base["RELAY-SIGNATURE"], otherSecret["RELAY-SIGNATURE"])
}
