package satu

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "satu-amo-bridge/internal/common/errors"
)

func TestClient_ListPendingOrders(t *testing.T) {
	var gotAuth string
	var gotQuery map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = map[string]string{
			"date_from": r.URL.Query().Get("date_from"),
			"status":    r.URL.Query().Get("status"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"orders": [
				{
					"price": "12 500",
					"delivery_address": "ул. Абая 10",
					"delivery_option": {"name": "Курьер"},
					"payment_option": null,
					"products": [{"name": "Шкаф"}],
					"client_first_name": "Айдар",
					"client_last_name": "Серик",
					"email": "aidar@example.kz",
					"phone": "+77001234567"
				}
			]
		}`))
	}))
	defer srv.Close()

	client := NewClient(5 * time.Second)
	orders, err := client.ListPendingOrders(context.Background(), srv.URL, "satu-token", "2024.11.05T14:30")
	require.NoError(t, err)

	assert.Equal(t, "Bearer satu-token", gotAuth)
	assert.Equal(t, "2024.11.05T14:30", gotQuery["date_from"])
	assert.Equal(t, "pending", gotQuery["status"])

	require.Len(t, orders, 1)
	assert.Equal(t, "12 500", orders[0].Price)
	assert.Equal(t, "Курьер", orders[0].DeliveryOption.Name)
	assert.Nil(t, orders[0].PaymentOption)
}

func TestClient_ListPendingOrdersEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"orders": []}`))
	}))
	defer srv.Close()

	client := NewClient(5 * time.Second)
	orders, err := client.ListPendingOrders(context.Background(), srv.URL, "t", "2024.11.05T14:30")
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestClient_ListPendingOrdersUpstreamStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": "invalid token"}`))
	}))
	defer srv.Close()

	client := NewClient(5 * time.Second)
	_, err := client.ListPendingOrders(context.Background(), srv.URL, "bad", "2024.11.05T14:30")
	require.Error(t, err)

	stdErr := apperrors.AsStandard(err)
	assert.Equal(t, apperrors.ErrCodeUpstreamRequestFailed, stdErr.Code)
	assert.Equal(t, http.StatusUnauthorized, stdErr.HTTPStatus())
	assert.Contains(t, stdErr.Details, "invalid token")
}

func TestClient_ListPendingOrdersSchemaViolation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing orders key", body: `{"items": []}`},
		{name: "orders is not an array", body: `{"orders": "nope"}`},
		{name: "order is not an object", body: `{"orders": [42]}`},
		{name: "not json at all", body: `<html>gateway error</html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewClient(5 * time.Second)
			_, err := client.ListPendingOrders(context.Background(), srv.URL, "t", "2024.11.05T14:30")
			require.Error(t, err)
			assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeUpstreamRequestFailed))
			assert.Equal(t, http.StatusBadGateway, apperrors.AsStandard(err).HTTPStatus())
		})
	}
}

func TestClient_ListPendingOrdersUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := NewClient(time.Second)
	_, err := client.ListPendingOrders(context.Background(), srv.URL, "t", "2024.11.05T14:30")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeUpstreamUnreachable))
	assert.Equal(t, http.StatusServiceUnavailable, apperrors.AsStandard(err).HTTPStatus())
}
