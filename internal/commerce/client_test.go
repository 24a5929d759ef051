package commerce

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payment-reconciler/internal/config"
	"payment-reconciler/internal/logger"
	"payment-reconciler/internal/models"
)

func newTestClient(serverURL string) *Client {
	return NewClient(config.CommerceConfig{
		BaseURL:    serverURL,
		ProjectKey: "test-project",
		AuthToken:  "test_token",
		Timeout:    5 * time.Second,
		MaxRetries: 2,
	}, logger.NewLogger())
}

func TestGetPaymentByKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/test-project/payments/key=ord_12345", r.URL.Path)
		assert.Equal(t, "Bearer test_token", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "ct-1",
			"key": "ord_12345",
			"version": 25,
			"transactions": [
				{"id": "txn-1", "type": "Authorization", "interactionId": "tr_abc", "state": "Pending"}
			]
		}`))
	}))
	defer server.Close()

	payment, err := newTestClient(server.URL).GetPaymentByKey(context.Background(), "ord_12345")
	require.NoError(t, err)
	assert.Equal(t, 25, payment.Version)
	require.Len(t, payment.Transactions, 1)
	assert.Equal(t, models.StatePending, payment.Transactions[0].State)
}

func TestGetPaymentByKeyNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).GetPaymentByKey(context.Background(), "ord_missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestApplyActions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)

		var req struct {
			Version int                   `json:"version"`
			Actions []models.UpdateAction `json:"actions"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 25, req.Version)
		require.Len(t, req.Actions, 1)
		assert.Equal(t, models.ActionChangeTransactionState, req.Actions[0].Action)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "ct-1", "key": "ord_12345", "version": 26}`))
	}))
	defer server.Close()

	actions := []models.UpdateAction{
		models.ChangeTransactionStateAction("txn-1", models.StateSuccess),
	}
	payment, err := newTestClient(server.URL).ApplyActions(context.Background(), "ord_12345", 25, actions)
	require.NoError(t, err)
	assert.Equal(t, 26, payment.Version)
}

func TestApplyActionsVersionConflict(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusConflict)
	}))
	defer server.Close()

	actions := []models.UpdateAction{
		models.ChangeTransactionStateAction("txn-1", models.StateSuccess),
	}
	_, err := newTestClient(server.URL).ApplyActions(context.Background(), "ord_12345", 24, actions)
	assert.ErrorIs(t, err, ErrVersionConflict)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "version conflicts must not be retried")
}

func TestBusinessOutcomesDoNotOpenBreaker(t *testing.T) {
	// A burst of notifications for unknown keys or a conflict storm must not
	// trip the circuit; only real upstream failures count against it.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusConflict)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	actions := []models.UpdateAction{
		models.ChangeTransactionStateAction("txn-1", models.StateSuccess),
	}

	for i := 0; i < 6; i++ {
		_, err := client.GetPaymentByKey(context.Background(), "ord_unknown")
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = client.ApplyActions(context.Background(), "ord_race", 1, actions)
		assert.ErrorIs(t, err, ErrVersionConflict)
	}
}

func TestGetPaymentByKeyRetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "ct-1", "key": "ord_12345", "version": 3}`))
	}))
	defer server.Close()

	payment, err := newTestClient(server.URL).GetPaymentByKey(context.Background(), "ord_12345")
	require.NoError(t, err)
	assert.Equal(t, 3, payment.Version)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}
