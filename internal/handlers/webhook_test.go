package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"payment-reconciler/internal/logger"
	"payment-reconciler/internal/models"
)

type MockReconciler struct {
	mock.Mock
}

func (m *MockReconciler) ProcessNotification(ctx context.Context, resourceID string) (*models.BackendPayment, error) {
	args := m.Called(ctx, resourceID)
	if payment := args.Get(0); payment != nil {
		return payment.(*models.BackendPayment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockReconciler) RecentRecords(resourceID string, limit, offset int) ([]*models.ReconciliationRecord, error) {
	args := m.Called(resourceID, limit, offset)
	if records := args.Get(0); records != nil {
		return records.([]*models.ReconciliationRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

func webhookRouter(reconciler Reconciler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewWebhookHandler(reconciler, logger.NewLogger())
	router.POST("/webhook", handler.HandleNotification)
	return router
}

func postForm(router *gin.Engine, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestHandleNotification(t *testing.T) {
	reconciler := new(MockReconciler)
	reconciler.On("ProcessNotification", mock.Anything, "ord_12345").Return(&models.BackendPayment{Version: 2}, nil)

	recorder := postForm(webhookRouter(reconciler), url.Values{"id": {"ord_12345"}})

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"received":true`)
	reconciler.AssertExpectations(t)
}

func TestHandleNotificationMissingID(t *testing.T) {
	reconciler := new(MockReconciler)

	recorder := postForm(webhookRouter(reconciler), url.Values{})

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	reconciler.AssertNotCalled(t, "ProcessNotification", mock.Anything, mock.Anything)
}

func TestHandleNotificationQueryFallback(t *testing.T) {
	reconciler := new(MockReconciler)
	reconciler.On("ProcessNotification", mock.Anything, "tr_abc").Return(nil, nil)

	router := webhookRouter(reconciler)
	req := httptest.NewRequest(http.MethodPost, "/webhook?id=tr_abc", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusOK, recorder.Code)
	reconciler.AssertExpectations(t)
}

func TestHandleNotificationAcksFailures(t *testing.T) {
	// The PSP treats any non-2xx as an invitation to redeliver; internal
	// failures must still come back as 200.
	reconciler := new(MockReconciler)
	reconciler.On("ProcessNotification", mock.Anything, "ord_broken").Return(nil, errors.New("backend down"))

	recorder := postForm(webhookRouter(reconciler), url.Values{"id": {"ord_broken"}})

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"received":true`)
}

func TestReconcileEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reconciler := new(MockReconciler)
	reconciler.On("ProcessNotification", mock.Anything, "ord_12345").Return(&models.BackendPayment{Key: "ord_12345", Version: 7}, nil)

	router := gin.New()
	router.POST("/reconcile", NewReconciliationHandler(reconciler).Reconcile)

	req := httptest.NewRequest(http.MethodPost, "/reconcile", strings.NewReader(`{"resource_id": "ord_12345"}`))
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"version":7`)
}

func TestReconcileEndpointSurfacesErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reconciler := new(MockReconciler)
	reconciler.On("ProcessNotification", mock.Anything, "ord_down").Return(nil, errors.New("backend down"))

	router := gin.New()
	router.POST("/reconcile", NewReconciliationHandler(reconciler).Reconcile)

	req := httptest.NewRequest(http.MethodPost, "/reconcile", strings.NewReader(`{"resource_id": "ord_down"}`))
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusBadGateway, recorder.Code)
}

func TestListRecords(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reconciler := new(MockReconciler)
	reconciler.On("RecentRecords", "ord_12345", 5, 0).Return([]*models.ReconciliationRecord{
		{RecordID: "rec_1", ResourceID: "ord_12345", Outcome: models.OutcomeCompleted},
	}, nil)

	router := gin.New()
	router.GET("/reconciliations/:resource_id", NewReconciliationHandler(reconciler).ListRecords)

	req := httptest.NewRequest(http.MethodGet, "/reconciliations/ord_12345?limit=5", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "rec_1")
	reconciler.AssertExpectations(t)
}
