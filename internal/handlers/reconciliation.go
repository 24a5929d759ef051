package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"payment-reconciler/internal/utils"
)

// ReconciliationHandler is the operator surface: manual triggers and the
// audit trail. The PSP never calls these routes.
type ReconciliationHandler struct {
	reconciler Reconciler
}

func NewReconciliationHandler(reconciler Reconciler) *ReconciliationHandler {
	return &ReconciliationHandler{
		reconciler: reconciler,
	}
}

type reconcileRequest struct {
	ResourceID string `json:"resource_id" binding:"required"`
}

// Reconcile triggers a reconciliation pass outside the webhook path, e.g. to
// repair a payment after an outage. Unlike the webhook, errors are surfaced.
func (h *ReconciliationHandler) Reconcile(c *gin.Context) {
	var req reconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", err.Error()))
		return
	}

	payment, err := h.reconciler.ProcessNotification(c.Request.Context(), req.ResourceID)
	if err != nil {
		c.JSON(http.StatusBadGateway, utils.ErrorResponse("Reconciliation failed", err.Error()))
		return
	}

	if payment == nil {
		c.JSON(http.StatusOK, utils.SuccessResponse("Notification skipped", gin.H{
			"resource_id": req.ResourceID,
		}))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Reconciliation completed", payment))
}

// ListRecords returns the audit records for one resource id, newest first.
func (h *ReconciliationHandler) ListRecords(c *gin.Context) {
	resourceID := c.Param("resource_id")
	if resourceID == "" {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Resource ID is required", ""))
		return
	}

	limit := parseIntParam(c, "limit", 20)
	offset := parseIntParam(c, "offset", 0)

	records, err := h.reconciler.RecentRecords(resourceID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to list records", err.Error()))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Records retrieved", records))
}

func parseIntParam(c *gin.Context, name string, fallback int) int {
	value := c.Query(name)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}
