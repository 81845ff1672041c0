package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/siriwatk/bookstore-backend/internal/order"
	"github.com/siriwatk/bookstore-backend/internal/payment"
)

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) CreateIntent(ctx context.Context, amount int64, metadata payment.IntentMetadata) (*payment.Intent, error) {
	args := m.Called(ctx, amount, metadata)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Intent), args.Error(1)
}

func (m *mockGateway) VerifyEvent(payload []byte, signatureHeader string) (*payment.Confirmation, error) {
	args := m.Called(payload, signatureHeader)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Confirmation), args.Error(1)
}

type mockReconciler struct {
	mock.Mock
}

func (m *mockReconciler) CreateIntent(ctx context.Context, userID uuid.UUID, details order.ShippingDetails) (string, error) {
	args := m.Called(ctx, userID, details)
	return args.String(0), args.Error(1)
}

func (m *mockReconciler) HandleConfirmation(ctx context.Context, conf *payment.Confirmation) (*order.ConfirmationResult, error) {
	args := m.Called(ctx, conf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.ConfirmationResult), args.Error(1)
}

func webhookRequest(body string, signature string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/stripe-webhook", bytes.NewBufferString(body))
	req.Header.Set(signatureHeader, signature)
	return req
}

func TestWebhookHandler_ConfirmationCreatesOrder(t *testing.T) {
	gateway := new(mockGateway)
	reconciler := new(mockReconciler)
	handler := NewWebhookHandler(gateway, reconciler)

	conf := &payment.Confirmation{IntentID: "pi_123", Amount: 59800}
	gateway.On("VerifyEvent", []byte(`{"type":"payment_intent.succeeded"}`), "t=1,v1=abc").
		Return(conf, nil).
		Once()
	reconciler.On("HandleConfirmation", mock.Anything, conf).
		Return(&order.ConfirmationResult{OrderID: uuid.Must(uuid.NewV4())}, nil).
		Once()

	rr := httptest.NewRecorder()
	handler.HandleEvent(rr, webhookRequest(`{"type":"payment_intent.succeeded"}`, "t=1,v1=abc"))

	require.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]bool
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.True(t, resp["received"])
	gateway.AssertExpectations(t)
	reconciler.AssertExpectations(t)
}

func TestWebhookHandler_ReplayAcknowledgedWithoutNewOrder(t *testing.T) {
	gateway := new(mockGateway)
	reconciler := new(mockReconciler)
	handler := NewWebhookHandler(gateway, reconciler)

	conf := &payment.Confirmation{IntentID: "pi_123", Amount: 59800}
	gateway.On("VerifyEvent", mock.Anything, mock.Anything).Return(conf, nil).Once()
	reconciler.On("HandleConfirmation", mock.Anything, conf).
		Return(&order.ConfirmationResult{AlreadyProcessed: true}, nil).
		Once()

	rr := httptest.NewRecorder()
	handler.HandleEvent(rr, webhookRequest(`{}`, "t=1,v1=abc"))

	require.Equal(t, http.StatusOK, rr.Code)
	reconciler.AssertExpectations(t)
}

func TestWebhookHandler_ProcessingFailureReturns500(t *testing.T) {
	gateway := new(mockGateway)
	reconciler := new(mockReconciler)
	handler := NewWebhookHandler(gateway, reconciler)

	conf := &payment.Confirmation{IntentID: "pi_456", Amount: 100}
	gateway.On("VerifyEvent", mock.Anything, mock.Anything).Return(conf, nil).Once()
	reconciler.On("HandleConfirmation", mock.Anything, conf).
		Return(nil, errors.New("insert failed")).
		Once()

	rr := httptest.NewRecorder()
	handler.HandleEvent(rr, webhookRequest(`{}`, "t=1,v1=abc"))

	require.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestWebhookHandler_InvalidSignatureSkipsProcessing(t *testing.T) {
	gateway := new(mockGateway)
	reconciler := new(mockReconciler)
	handler := NewWebhookHandler(gateway, reconciler)

	gateway.On("VerifyEvent", mock.Anything, "t=1,v1=bogus").
		Return(nil, payment.ErrSignatureInvalid).
		Once()

	rr := httptest.NewRecorder()
	handler.HandleEvent(rr, webhookRequest(`{}`, "t=1,v1=bogus"))

	require.Equal(t, http.StatusBadRequest, rr.Code)
	reconciler.AssertNotCalled(t, "HandleConfirmation", mock.Anything, mock.Anything)
}

func TestWebhookHandler_IgnoredEventTypeStillAcknowledged(t *testing.T) {
	gateway := new(mockGateway)
	reconciler := new(mockReconciler)
	handler := NewWebhookHandler(gateway, reconciler)

	gateway.On("VerifyEvent", mock.Anything, mock.Anything).
		Return(nil, payment.ErrNotConfirmation).
		Once()

	rr := httptest.NewRecorder()
	handler.HandleEvent(rr, webhookRequest(`{"type":"charge.refunded"}`, "t=1,v1=abc"))

	require.Equal(t, http.StatusOK, rr.Code)
	reconciler.AssertNotCalled(t, "HandleConfirmation", mock.Anything, mock.Anything)
}

func TestWebhookHandler_BadMetadataReturns400(t *testing.T) {
	gateway := new(mockGateway)
	reconciler := new(mockReconciler)
	handler := NewWebhookHandler(gateway, reconciler)

	conf := &payment.Confirmation{IntentID: "pi_789", Amount: 100}
	gateway.On("VerifyEvent", mock.Anything, mock.Anything).Return(conf, nil).Once()
	reconciler.On("HandleConfirmation", mock.Anything, conf).
		Return(nil, order.ErrBadEventMetadata).
		Once()

	rr := httptest.NewRecorder()
	handler.HandleEvent(rr, webhookRequest(`{}`, "t=1,v1=abc"))

	require.Equal(t, http.StatusBadRequest, rr.Code)
}
