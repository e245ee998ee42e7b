package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestWaitEnforcesMinInterval(t *testing.T) {
	l := NewIntervalLimiter(100 * time.Millisecond)

	// 首次请求不等待
	start := time.Now()
	if err := l.Wait(context.Background()); err != nil {
		t.Fatalf("Wait失败: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Fatalf("首次请求等待了 %v", elapsed)
	}
	l.Done()

	// 第二次请求距上次结束不足间隔，应等待
	start = time.Now()
	if err := l.Wait(context.Background()); err != nil {
		t.Fatalf("Wait失败: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Fatalf("第二次请求只等待了 %v, 期望接近100ms", elapsed)
	}
}

func TestWaitDisabledWhenZero(t *testing.T) {
	l := NewIntervalLimiter(0)
	l.Done()

	start := time.Now()
	if err := l.Wait(context.Background()); err != nil {
		t.Fatalf("Wait失败: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 20*time.Millisecond {
		t.Fatalf("间隔为0时不应等待, 实际等待 %v", elapsed)
	}
}

func TestWaitCancelled(t *testing.T) {
	l := NewIntervalLimiter(time.Second)
	l.Done()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := l.Wait(ctx); err == nil {
		t.Fatal("上下文取消后Wait应返回错误")
	}
}

func TestGetMetrics(t *testing.T) {
	l := NewIntervalLimiter(time.Millisecond)
	l.Wait(context.Background())
	l.Done()

	metrics := l.GetMetrics()
	if metrics["request_count"].(int64) != 1 {
		t.Errorf("request_count = %v, 期望 1", metrics["request_count"])
	}
	if metrics["enabled"].(bool) != true {
		t.Error("限制器应处于启用状态")
	}
}
