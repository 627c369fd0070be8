package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/petersenmatthew/MEI/internal/application/notification"
	"github.com/petersenmatthew/MEI/internal/interfaces/http/response"
)

// NotificationHandler 通知处理器
type NotificationHandler struct {
	service *notification.Service
}

// NewNotificationHandler 创建通知处理器
func NewNotificationHandler(service *notification.Service) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// Create 创建并推送通知
// @Summary 创建通知
// @Tags 通知
// @Accept json
// @Produce json
// @Param body body notification.CreateNotificationDTO true "通知信息"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Router /notifications [post]
func (h *NotificationHandler) Create(c *gin.Context) {
	var dto notification.CreateNotificationDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.Error(c, http.StatusBadRequest, 100001, "invalid request: "+err.Error())
		return
	}

	result, err := h.service.CreateAndPush(&dto)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, 100004, "failed to create notification")
		return
	}
	response.Success(c, result)
}

// ListRecent 最近的通知
// @Summary 通知列表
// @Tags 通知
// @Produce json
// @Param limit query int false "条数上限"
// @Success 200 {object} response.Response
// @Router /notifications [get]
func (h *NotificationHandler) ListRecent(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit < 1 || limit > 200 {
		limit = 50
	}

	items, err := h.service.ListRecent(limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, 100004, "failed to list notifications")
		return
	}
	response.Success(c, items)
}
