package agent

import (
	"math"
	"math/rand"
	"time"

	domainAgent "github.com/petersenmatthew/MEI/internal/domain/agent"
)

// 回复延迟边界
const (
	// MinReplyDelay 回复延迟下界
	MinReplyDelay = 30 * time.Second
	// MaxReplyDelay 回复延迟上界
	MaxReplyDelay = 1800 * time.Second
	// DefaultBurstProbability 缺少画像时的多段回复概率
	DefaultBurstProbability = 0.3
)

// 段间延迟范围
const (
	minBurstDelay = 1 * time.Second
	maxBurstDelay = 4 * time.Second
)

// BehaviorModel 人类行为拟真模型
// 随机源可注入，测试时用固定种子
type BehaviorModel struct {
	rng *rand.Rand
}

// NewBehaviorModel 创建行为模型
func NewBehaviorModel() *BehaviorModel {
	return &BehaviorModel{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewBehaviorModelWithSource 用指定随机源创建行为模型
func NewBehaviorModelWithSource(src rand.Source) *BehaviorModel {
	return &BehaviorModel{rng: rand.New(src)}
}

// SampleReplyDelay 采样人类化的回复延迟
// 有画像时按其响应时间分布做对数正态矩匹配采样，无画像时在边界内均匀采样
func (b *BehaviorModel) SampleReplyDelay(profile *domainAgent.StyleProfile) time.Duration {
	if profile == nil || profile.Behavior.ResponseTimeMeanMinutes <= 0 {
		span := float64(MaxReplyDelay - MinReplyDelay)
		return MinReplyDelay + time.Duration(b.rng.Float64()*span*0.1)
	}

	mean := profile.Behavior.ResponseTimeMeanMinutes * 60
	std := profile.Behavior.ResponseTimeStdMinutes * 60
	if std <= 0 {
		std = mean / 2
	}

	// 对数正态矩匹配：让对数空间参数复现线性空间的均值/方差
	variance := std * std
	logStd := math.Sqrt(math.Log(1 + variance/(mean*mean)))
	logMean := math.Log(mean) - 0.5*logStd*logStd

	seconds := math.Exp(logMean + b.rng.NormFloat64()*logStd)
	return clampDelay(time.Duration(seconds * float64(time.Second)))
}

// SampleBurstDelay 采样多段回复的段间延迟
func (b *BehaviorModel) SampleBurstDelay() time.Duration {
	span := float64(maxBurstDelay - minBurstDelay)
	return minBurstDelay + time.Duration(b.rng.Float64()*span)
}

// ShouldBurst 按画像的多段倾向做伯努利抽样
func (b *BehaviorModel) ShouldBurst(profile *domainAgent.StyleProfile) bool {
	p := DefaultBurstProbability
	if profile != nil && profile.Behavior.MultiMessageTendency > 0 {
		p = profile.Behavior.MultiMessageTendency
	}
	return b.rng.Float64() < p
}

func clampDelay(d time.Duration) time.Duration {
	if d < MinReplyDelay {
		return MinReplyDelay
	}
	if d > MaxReplyDelay {
		return MaxReplyDelay
	}
	return d
}
