package agent

// Verdict 安全策略裁决类型
type Verdict int

const (
	// VerdictProceed 继续处理
	VerdictProceed Verdict = iota
	// VerdictSkip 跳过该消息（常规情况，不通知）
	VerdictSkip
	// VerdictDefer 暂缓（值得通知的回避，如用户正在回复、低置信度）
	VerdictDefer
	// VerdictKill 硬停止：切换到 killed 模式并中止循环
	VerdictKill
)

// String 裁决类型名
func (v Verdict) String() string {
	switch v {
	case VerdictProceed:
		return "proceed"
	case VerdictSkip:
		return "skip"
	case VerdictDefer:
		return "defer"
	case VerdictKill:
		return "kill"
	}
	return "unknown"
}

// Decision 安全策略裁决
// skip/defer/kill 是一等控制流结果，不是错误
type Decision struct {
	Verdict Verdict
	Reason  string
}

// Proceed 继续
func Proceed() Decision {
	return Decision{Verdict: VerdictProceed}
}

// Skip 跳过
func Skip(reason string) Decision {
	return Decision{Verdict: VerdictSkip, Reason: reason}
}

// Defer 暂缓
func Defer(reason string) Decision {
	return Decision{Verdict: VerdictDefer, Reason: reason}
}

// Kill 硬停止
func Kill(reason string) Decision {
	return Decision{Verdict: VerdictKill, Reason: reason}
}
