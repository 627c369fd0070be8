package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	domainAgent "github.com/petersenmatthew/MEI/internal/domain/agent"
	"github.com/petersenmatthew/MEI/internal/interfaces/http/response"
)

// PolicyHandler 联系人策略处理器
type PolicyHandler struct {
	policies domainAgent.ContactPolicyRepository
}

// NewPolicyHandler 创建联系人策略处理器
func NewPolicyHandler(policies domainAgent.ContactPolicyRepository) *PolicyHandler {
	return &PolicyHandler{policies: policies}
}

// setPolicyRequest 策略设置请求
type setPolicyRequest struct {
	Policy string `json:"policy" binding:"required"`
}

// List 全部联系人策略
// @Summary 列出联系人策略
// @Tags 联系人
// @Produce json
// @Success 200 {object} response.Response
// @Router /agent/policies [get]
func (h *PolicyHandler) List(c *gin.Context) {
	policies, err := h.policies.List()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, 100004, "failed to list policies")
		return
	}
	response.Success(c, policies)
}

// Set 设置联系人策略
// @Summary 设置联系人策略
// @Tags 联系人
// @Accept json
// @Produce json
// @Param contact path string true "联系人标识"
// @Param body body setPolicyRequest true "策略"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Router /agent/policies/{contact} [put]
func (h *PolicyHandler) Set(c *gin.Context) {
	contact := c.Param("contact")
	if contact == "" {
		response.Error(c, http.StatusBadRequest, 100001, "contact is required")
		return
	}

	var req setPolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, 100001, "invalid request: "+err.Error())
		return
	}

	policy := domainAgent.ContactPolicy(req.Policy)
	switch policy {
	case domainAgent.PolicyActive, domainAgent.PolicyShadowOnly, domainAgent.PolicyWhitelist, domainAgent.PolicyBlacklist:
	default:
		response.Error(c, http.StatusBadRequest, 100002, "unknown policy: "+req.Policy)
		return
	}

	if err := h.policies.Set(contact, policy); err != nil {
		response.Error(c, http.StatusInternalServerError, 100003, "failed to persist policy")
		return
	}
	response.Success(c, gin.H{"contact": contact, "policy": policy})
}
