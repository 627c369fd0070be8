package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appAgent "github.com/petersenmatthew/MEI/internal/application/agent"
	domainAgent "github.com/petersenmatthew/MEI/internal/domain/agent"
	"github.com/petersenmatthew/MEI/internal/interfaces/http/response"
)

// AgentHandler 代理状态与设置处理器
type AgentHandler struct {
	state *appAgent.State
	loop  *appAgent.Loop
	kv    domainAgent.KVStore
}

// NewAgentHandler 创建代理处理器
func NewAgentHandler(state *appAgent.State, loop *appAgent.Loop, kv domainAgent.KVStore) *AgentHandler {
	return &AgentHandler{state: state, loop: loop, kv: kv}
}

// setModeRequest 模式切换请求
type setModeRequest struct {
	Mode   string `json:"mode" binding:"required"`
	Reason string `json:"reason"`
}

// Status 代理运行状态
// @Summary 代理状态
// @Tags 代理
// @Produce json
// @Success 200 {object} response.Response
// @Router /agent/status [get]
func (h *AgentHandler) Status(c *gin.Context) {
	settings := h.state.Settings()
	cursor, _, _ := h.kv.Load(domainAgent.KeyReplyCursor)

	response.Success(c, gin.H{
		"mode":     settings.Mode,
		"settings": settings,
		"cursor":   cursor,
	})
}

// SetMode 切换代理模式
// @Summary 切换模式
// @Tags 代理
// @Accept json
// @Produce json
// @Param body body setModeRequest true "目标模式"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Router /agent/mode [put]
func (h *AgentHandler) SetMode(c *gin.Context) {
	var req setModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, 100001, "invalid request: "+err.Error())
		return
	}

	mode := domainAgent.Mode(req.Mode)
	if !mode.Valid() {
		response.Error(c, http.StatusBadRequest, 100002, "unknown mode: "+req.Mode)
		return
	}

	reason := req.Reason
	if reason == "" {
		reason = "operator request"
	}
	if err := h.state.SetMode(mode, reason); err != nil {
		response.Error(c, http.StatusInternalServerError, 100003, "failed to persist mode")
		return
	}

	// 切回工作模式后立即补一次轮询
	if mode.IsPolling() {
		h.loop.TriggerPoll()
	}
	response.Success(c, gin.H{"mode": mode})
}

// GetSettings 当前设置
// @Summary 查询设置
// @Tags 代理
// @Produce json
// @Success 200 {object} response.Response
// @Router /agent/settings [get]
func (h *AgentHandler) GetSettings(c *gin.Context) {
	settings := h.state.Settings()
	response.Success(c, settings)
}

// UpdateSettings 整体更新设置
// @Summary 更新设置
// @Tags 代理
// @Accept json
// @Produce json
// @Param body body agent.Settings true "完整设置"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Router /agent/settings [put]
func (h *AgentHandler) UpdateSettings(c *gin.Context) {
	var settings domainAgent.Settings
	if err := c.ShouldBindJSON(&settings); err != nil {
		response.Error(c, http.StatusBadRequest, 100001, "invalid request: "+err.Error())
		return
	}
	if !settings.Mode.Valid() {
		response.Error(c, http.StatusBadRequest, 100002, "unknown mode: "+string(settings.Mode))
		return
	}
	if settings.ConfidenceThreshold < 0 || settings.ConfidenceThreshold > 1 {
		response.Error(c, http.StatusBadRequest, 100002, "confidence_threshold must be within [0,1]")
		return
	}

	if err := h.state.UpdateSettings(&settings); err != nil {
		response.Error(c, http.StatusInternalServerError, 100003, "failed to persist settings")
		return
	}
	response.Success(c, settings)
}
