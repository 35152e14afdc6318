package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerClientSubmit(t *testing.T) {
	t.Run("accepted with warning", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "/transactions", r.URL.Path)
			require.Equal(t, "application/json", r.Header.Get("Content-Type"))

			var req SubmitTransactionRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "driver-1", req.DriverID)
			assert.InDelta(t, 1105.0, req.TotalAmount, 0.001)

			json.NewEncoder(w).Encode(SubmitTransactionResponse{
				TransactionID: "txn-8841",
				Warning:       "Liters close to tank capacity",
				WarningType:   "tank_capacity",
			})
		}))
		defer server.Close()

		client := NewLedgerClient(server.URL)
		result, err := client.Submit(context.Background(), SubmitTransactionRequest{
			DriverID:    "driver-1",
			Liters:      50,
			TotalAmount: 1105.0,
		})
		require.NoError(t, err)
		assert.Equal(t, "txn-8841", result.TransactionID)
		assert.Equal(t, "Liters close to tank capacity", result.Warning)
		assert.Equal(t, "tank_capacity", result.WarningType)
	})

	t.Run("session expired rejection", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{
				"code":  "SESSION_EXPIRED",
				"error": "Session has expired, please log in again",
			})
		}))
		defer server.Close()

		client := NewLedgerClient(server.URL)
		_, err := client.Submit(context.Background(), SubmitTransactionRequest{})
		require.Error(t, err)
		assert.True(t, IsSessionExpired(err))

		ledgerErr, ok := err.(*LedgerError)
		require.True(t, ok)
		assert.Equal(t, http.StatusUnauthorized, ledgerErr.StatusCode)
		assert.Contains(t, ledgerErr.Error(), "SESSION_EXPIRED")
	})

	t.Run("rejection without a body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		client := NewLedgerClient(server.URL)
		_, err := client.Submit(context.Background(), SubmitTransactionRequest{})
		require.Error(t, err)
		assert.False(t, IsSessionExpired(err))

		ledgerErr, ok := err.(*LedgerError)
		require.True(t, ok)
		assert.Equal(t, http.StatusBadGateway, ledgerErr.StatusCode)
		assert.Contains(t, ledgerErr.Message, "unexpected status 502")
	})

	t.Run("accepted without a transaction id", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(SubmitTransactionResponse{})
		}))
		defer server.Close()

		client := NewLedgerClient(server.URL)
		_, err := client.Submit(context.Background(), SubmitTransactionRequest{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no id")
	})
}
