package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// RateLimiter 请求限制器接口
type RateLimiter interface {
	// Wait 阻塞直到允许请求或上下文取消
	Wait(ctx context.Context) error

	// Done 标记一次请求结束，间隔从此刻起计算
	Done()

	// GetMetrics 获取指标
	GetMetrics() map[string]interface{}
}

// IntervalLimiter 最小间隔限制器
// 保证两次请求之间至少间隔minInterval，间隔从上一次请求结束时刻起算
type IntervalLimiter struct {
	minInterval time.Duration
	lastDone    time.Time
	mu          sync.Mutex
	enabled     bool

	requestCount int64 // 请求计数
	waitedCount  int64 // 发生等待的请求计数
}

// NewIntervalLimiter 创建最小间隔限制器
func NewIntervalLimiter(minInterval time.Duration) *IntervalLimiter {
	return &IntervalLimiter{
		minInterval: minInterval,
		enabled:     minInterval > 0,
	}
}

// Wait 阻塞直到距离上次请求结束已满最小间隔
func (l *IntervalLimiter) Wait(ctx context.Context) error {
	atomic.AddInt64(&l.requestCount, 1)

	if !l.enabled {
		return nil
	}

	l.mu.Lock()
	var wait time.Duration
	if !l.lastDone.IsZero() {
		elapsed := time.Since(l.lastDone)
		if elapsed < l.minInterval {
			wait = l.minInterval - elapsed
		}
	}
	l.mu.Unlock()

	if wait <= 0 {
		return nil
	}

	atomic.AddInt64(&l.waitedCount, 1)

	select {
	case <-time.After(wait):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done 标记一次请求结束
func (l *IntervalLimiter) Done() {
	l.mu.Lock()
	l.lastDone = time.Now()
	l.mu.Unlock()
}

// SetInterval 调整最小间隔
func (l *IntervalLimiter) SetInterval(interval time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.minInterval = interval
	l.enabled = interval > 0
}

// GetMetrics 获取指标
func (l *IntervalLimiter) GetMetrics() map[string]interface{} {
	l.mu.Lock()
	interval := l.minInterval
	enabled := l.enabled
	l.mu.Unlock()

	requestCount := atomic.LoadInt64(&l.requestCount)
	waitedCount := atomic.LoadInt64(&l.waitedCount)

	return map[string]interface{}{
		"enabled":       enabled,
		"min_interval":  interval.String(),
		"request_count": requestCount,
		"waited_count":  waitedCount,
		"waited_rate":   calculatePercentage(waitedCount, requestCount),
	}
}

// calculatePercentage 计算百分比
func calculatePercentage(part, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}
