package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	domainAgent "github.com/petersenmatthew/MEI/internal/domain/agent"
	"github.com/petersenmatthew/MEI/internal/interfaces/http/response"
)

// 处理记录分页默认值
const (
	defaultExchangePageSize = 20
	maxExchangePageSize     = 100
)

// ExchangeHandler 处理记录处理器
type ExchangeHandler struct {
	exchanges domainAgent.ExchangeRepository
}

// NewExchangeHandler 创建处理记录处理器
func NewExchangeHandler(exchanges domainAgent.ExchangeRepository) *ExchangeHandler {
	return &ExchangeHandler{exchanges: exchanges}
}

// List 分页列出处理记录，最新在前
// @Summary 处理记录列表
// @Tags 处理记录
// @Produce json
// @Param page query int false "页码（从 1 开始）"
// @Param pageSize query int false "每页条数"
// @Success 200 {object} response.ResponseWithPage
// @Router /exchanges [get]
func (h *ExchangeHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", strconv.Itoa(defaultExchangePageSize)))
	if pageSize < 1 || pageSize > maxExchangePageSize {
		pageSize = defaultExchangePageSize
	}

	items, total, err := h.exchanges.List((page-1)*pageSize, pageSize)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, 100004, "failed to list exchanges")
		return
	}
	response.SuccessWithPage(c, items, page, pageSize, total)
}

// ListByConversation 某会话最近的处理记录
// @Summary 会话处理记录
// @Tags 处理记录
// @Produce json
// @Param conversation path string true "会话标识"
// @Param limit query int false "条数上限"
// @Success 200 {object} response.Response
// @Router /exchanges/{conversation} [get]
func (h *ExchangeHandler) ListByConversation(c *gin.Context) {
	conversation := c.Param("conversation")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultExchangePageSize)))
	if limit < 1 || limit > maxExchangePageSize {
		limit = defaultExchangePageSize
	}

	items, err := h.exchanges.ListByConversation(conversation, limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, 100004, "failed to list exchanges")
		return
	}
	response.Success(c, items)
}
