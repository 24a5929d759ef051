package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"payment-reconciler/internal/logger"
	"payment-reconciler/internal/models"
	"payment-reconciler/internal/utils"
)

// Reconciler is what the HTTP surface needs from the reconciliation service.
type Reconciler interface {
	ProcessNotification(ctx context.Context, resourceID string) (*models.BackendPayment, error)
	RecentRecords(resourceID string, limit, offset int) ([]*models.ReconciliationRecord, error)
}

type WebhookHandler struct {
	reconciler Reconciler
	log        *logger.Logger
}

func NewWebhookHandler(reconciler Reconciler, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		reconciler: reconciler,
		log:        log,
	}
}

// HandleNotification receives a PSP webhook call. The PSP retries on any
// non-2xx response, so the handler acknowledges everything it managed to read:
// reconciliation failures are recorded and published internally instead of
// being bounced back as retry fuel.
func (h *WebhookHandler) HandleNotification(c *gin.Context) {
	resourceID := c.PostForm("id")
	if resourceID == "" {
		resourceID = c.Query("id")
	}
	if resourceID == "" {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Missing resource id", ""))
		return
	}

	if _, err := h.reconciler.ProcessNotification(c.Request.Context(), resourceID); err != nil {
		h.log.Error("WEBHOOK", "Reconciliation failed for "+resourceID+": "+err.Error())
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
