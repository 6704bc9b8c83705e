package relay

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bchsol/CryptoDragon/internal/crypto"
	"github.com/bchsol/CryptoDragon/internal/domain"
)

func testEnvelope() domain.SignedEnvelope {
	return domain.SignedEnvelope{
		Request: domain.ForwarderRequest{
			From:  common.HexToAddress("0x1111111111111111111111111111111111111111"),
			To:    common.HexToAddress("0x2222222222222222222222222222222222222222"),
			Value: big.NewInt(0),
			Gas:   100_000,
			Nonce: big.NewInt(3),
			Data:  []byte{0xab, 0xcd},
		},
		Signature: []byte{0x01, 0x02},
	}
}

func TestSubmitAccepted(t *testing.T) {
	var got wireEnvelope
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, submitPath, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		json.NewEncoder(w).Encode(wireResult{
			Accepted: true,
			TxHash:   "0xabc",
			TaskID:   "task-1",
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil)
	res, err := client.Submit(context.Background(), testEnvelope())
	require.NoError(t, err)

	assert.Equal(t, "0xabc", res.TxHash)
	assert.Equal(t, "task-1", res.TaskID)

	assert.Equal(t, "0x1111111111111111111111111111111111111111", got.Request.From)
	assert.Equal(t, "0x2222222222222222222222222222222222222222", got.Request.To)
	assert.Equal(t, "0", got.Request.Value)
	assert.Equal(t, "100000", got.Request.Gas)
	assert.Equal(t, "3", got.Request.Nonce)
	assert.Equal(t, "0xabcd", got.Request.Data)
	assert.Equal(t, "0x0102", got.Signature)
}

func TestSubmitAuthenticatedCarriesHMACHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key-id", r.Header.Get("RELAY-API-KEY"))
		assert.NotEmpty(t, r.Header.Get("RELAY-TIMESTAMP"))
		assert.NotEmpty(t, r.Header.Get("RELAY-SIGNATURE"))
		json.NewEncoder(w).Encode(wireResult{Accepted: true})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, &crypto.HMACAuth{Key: "key-id", Secret: "sekrit"})
	_, err := client.Submit(context.Background(), testEnvelope())
	require.NoError(t, err)
}

func TestSubmitRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(wireResult{Accepted: false, Message: "nonce mismatch"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil)
	_, err := client.Submit(context.Background(), testEnvelope())
	require.ErrorIs(t, err, domain.ErrRelayRejected)
	assert.Contains(t, err.Error(), "nonce mismatch")
}

func TestSubmitHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "relay overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil)
	_, err := client.Submit(context.Background(), testEnvelope())
	require.ErrorIs(t, err, domain.ErrRelayRejected)
}
