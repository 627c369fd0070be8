package agent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	domainAgent "github.com/petersenmatthew/MEI/internal/domain/agent"
	"github.com/petersenmatthew/MEI/internal/domain/message"
)

func gateInput(msg *message.Message) GateInput {
	settings := domainAgent.DefaultSettings()
	settings.Mode = domainAgent.ModeActive
	return GateInput{
		Message:  msg,
		Mode:     settings.Mode,
		Settings: settings,
		Now:      time.Date(2026, 8, 20, 14, 0, 0, 0, time.UTC),
	}
}

func incoming(text string) *message.Message {
	return &message.Message{
		RowID:          42,
		Text:           text,
		ConversationID: "+15551234567",
		SenderID:       "+15551234567",
	}
}

func TestEvaluateIncoming_Proceed(t *testing.T) {
	decision := EvaluateIncoming(gateInput(incoming("hey")))
	assert.Equal(t, domainAgent.VerdictProceed, decision.Verdict)
}

func TestEvaluateIncoming_SelfAuthoredSkips(t *testing.T) {
	msg := incoming("hey")
	msg.IsFromMe = true

	decision := EvaluateIncoming(gateInput(msg))
	assert.Equal(t, domainAgent.VerdictSkip, decision.Verdict)
}

// 自发消息即使包含 kill word 也只是 skip，不触发 kill
func TestEvaluateIncoming_SelfPrecedesKillWord(t *testing.T) {
	msg := incoming("mei stop")
	msg.IsFromMe = true

	decision := EvaluateIncoming(gateInput(msg))
	assert.Equal(t, domainAgent.VerdictSkip, decision.Verdict)
}

func TestEvaluateIncoming_GroupSkips(t *testing.T) {
	msg := incoming("hey")
	msg.IsGroup = true

	decision := EvaluateIncoming(gateInput(msg))
	assert.Equal(t, domainAgent.VerdictSkip, decision.Verdict)
}

func TestEvaluateIncoming_InactiveModesSkip(t *testing.T) {
	for _, mode := range []domainAgent.Mode{domainAgent.ModePaused, domainAgent.ModeKilled} {
		in := gateInput(incoming("hey"))
		in.Mode = mode

		decision := EvaluateIncoming(in)
		assert.Equal(t, domainAgent.VerdictSkip, decision.Verdict, "mode %s", mode)
	}
}

func TestEvaluateIncoming_ShadowModeProceeds(t *testing.T) {
	in := gateInput(incoming("hey"))
	in.Mode = domainAgent.ModeShadow

	decision := EvaluateIncoming(in)
	assert.Equal(t, domainAgent.VerdictProceed, decision.Verdict)
}

func TestEvaluateIncoming_OutsideActiveHoursSkips(t *testing.T) {
	in := gateInput(incoming("hey"))
	in.Settings.ActiveHours = domainAgent.ActiveHours{Enabled: true, StartHour: 9, EndHour: 23}
	in.Now = time.Date(2026, 8, 20, 3, 0, 0, 0, time.UTC)

	decision := EvaluateIncoming(in)
	assert.Equal(t, domainAgent.VerdictSkip, decision.Verdict)
}

func TestEvaluateIncoming_OvernightActiveHours(t *testing.T) {
	in := gateInput(incoming("hey"))
	in.Settings.ActiveHours = domainAgent.ActiveHours{Enabled: true, StartHour: 22, EndHour: 2}
	in.Now = time.Date(2026, 8, 20, 23, 30, 0, 0, time.UTC)

	decision := EvaluateIncoming(in)
	assert.Equal(t, domainAgent.VerdictProceed, decision.Verdict)
}

func TestEvaluateIncoming_ContactPolicies(t *testing.T) {
	cases := []struct {
		policy  domainAgent.ContactPolicy
		verdict domainAgent.Verdict
	}{
		{domainAgent.PolicyBlacklist, domainAgent.VerdictSkip},
		{domainAgent.PolicyWhitelist, domainAgent.VerdictSkip},
		{domainAgent.PolicyActive, domainAgent.VerdictProceed},
		{domainAgent.PolicyShadowOnly, domainAgent.VerdictProceed},
	}
	for _, tc := range cases {
		in := gateInput(incoming("hey"))
		in.ContactPolicy = tc.policy
		in.HasContactPolicy = true

		decision := EvaluateIncoming(in)
		assert.Equal(t, tc.verdict, decision.Verdict, "policy %s", tc.policy)
	}
}

func TestEvaluateIncoming_RecentOutgoingDefers(t *testing.T) {
	in := gateInput(incoming("hey"))
	in.RecentOutgoing = func() bool { return true }

	decision := EvaluateIncoming(in)
	assert.Equal(t, domainAgent.VerdictDefer, decision.Verdict)
}

// 前面的门已经拒绝时不应触发近期回复查询
func TestEvaluateIncoming_RecentOutgoingLazy(t *testing.T) {
	called := false
	msg := incoming("hey")
	msg.IsFromMe = true
	in := gateInput(msg)
	in.RecentOutgoing = func() bool {
		called = true
		return true
	}

	EvaluateIncoming(in)
	assert.False(t, called)
}

func TestEvaluateIncoming_KillWordCaseInsensitive(t *testing.T) {
	decision := EvaluateIncoming(gateInput(incoming("ok MEI STOP right now")))
	assert.Equal(t, domainAgent.VerdictKill, decision.Verdict)
}

// defer 优先于 kill：用户正在回复时不评估 kill word
func TestEvaluateIncoming_DeferPrecedesKill(t *testing.T) {
	in := gateInput(incoming("mei stop"))
	in.RecentOutgoing = func() bool { return true }

	decision := EvaluateIncoming(in)
	assert.Equal(t, domainAgent.VerdictDefer, decision.Verdict)
}

func TestEvaluateResponse_Proceed(t *testing.T) {
	parsed := ParseResponse("CONF:0.95\nsounds good")

	decision := EvaluateResponse(parsed, "CONF:0.95\nsounds good", 0.7)
	assert.Equal(t, domainAgent.VerdictProceed, decision.Verdict)
}

func TestEvaluateResponse_LowConfidenceDefers(t *testing.T) {
	parsed := ParseResponse("CONF:0.3\nmaybe?")

	decision := EvaluateResponse(parsed, "CONF:0.3\nmaybe?", 0.7)
	assert.Equal(t, domainAgent.VerdictDefer, decision.Verdict)
}

func TestEvaluateResponse_FlaggedDefers(t *testing.T) {
	parsed := ParseResponse("CONF:???\nok")

	decision := EvaluateResponse(parsed, "CONF:???\nok", 0.7)
	assert.Equal(t, domainAgent.VerdictDefer, decision.Verdict)
}

func TestEvaluateResponse_EmptySkips(t *testing.T) {
	parsed := ParseResponse("CONF:0.9")

	decision := EvaluateResponse(parsed, "CONF:0.9", 0.7)
	assert.Equal(t, domainAgent.VerdictSkip, decision.Verdict)
}

func TestEvaluateResponse_AIDisclosureDefers(t *testing.T) {
	raw := "CONF:0.9\nAs an AI, I can't make dinner plans"
	parsed := ParseResponse(raw)

	decision := EvaluateResponse(parsed, raw, 0.7)
	assert.Equal(t, domainAgent.VerdictDefer, decision.Verdict)
}
