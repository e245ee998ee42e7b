package proxy

import (
	"sync"
	"sync/atomic"

	"fofahack/log"
	"fofahack/pkg/constants"
)

// Pool 代理池 - 极速收集，智能切换
// 维护代理的轮询顺序、失败计数和就绪状态
type Pool struct {
	mu      sync.Mutex
	proxies []string       // 插入顺序，按值去重
	failed  map[string]int // 代理 -> 连续失败次数
	idx     int            // 轮询游标

	ready       atomic.Bool
	refreshing  atomic.Bool
	allowDirect bool

	collector *Collector
}

// NewPool 创建代理池
func NewPool(allowDirect bool) *Pool {
	return &Pool{
		failed:      make(map[string]int),
		allowDirect: allowDirect,
		collector:   NewCollector(constants.ProxySources),
	}
}

// NewManualPool 创建带初始代理的代理池
// 手动代理视为可信，池立即就绪
func NewManualPool(proxies []string, allowDirect bool) *Pool {
	p := NewPool(allowDirect)
	for _, proxy := range proxies {
		p.AddProxy(proxy)
	}
	if len(proxies) > 0 {
		p.ready.Store(true)
		log.Info("使用手动代理: %d 个", len(proxies))
	}
	return p
}

// AddProxy 添加单个代理，重复或空值忽略
func (p *Pool) AddProxy(proxy string) {
	if proxy == "" {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for _, existing := range p.proxies {
		if existing == proxy {
			return
		}
	}
	p.proxies = append(p.proxies, proxy)
}

// GetProxy 获取可用代理 - 智能重置
// 所有代理均失败过多时清空失败计数，避免临时封禁导致永久饥饿
func (p *Pool) GetProxy() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.proxies) == 0 {
		return ""
	}

	if p.allFailedLocked() {
		log.Info("代理失败次数过多，重置失败计数")
		p.failed = make(map[string]int)
	}

	for range p.proxies {
		proxy := p.proxies[p.idx]
		p.idx = (p.idx + 1) % len(p.proxies)
		if p.failed[proxy] < constants.ProxyFailThreshold {
			return proxy
		}
	}

	return ""
}

// GetNextProxy 获取下一个与current不同的可用代理
// 单代理池直接返回该代理（若可用）；轮询一圈后兜底返回首个代理（若可用）
func (p *Pool) GetNextProxy(current string) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.proxies) == 0 {
		return ""
	}

	if len(p.proxies) == 1 {
		if p.failed[p.proxies[0]] < constants.ProxyFailThreshold {
			return p.proxies[0]
		}
		return ""
	}

	for range p.proxies {
		proxy := p.proxies[p.idx]
		p.idx = (p.idx + 1) % len(p.proxies)
		if proxy != current && p.failed[proxy] < constants.ProxyFailThreshold {
			return proxy
		}
	}

	if p.failed[p.proxies[0]] >= constants.ProxyFailThreshold {
		return ""
	}
	return p.proxies[0]
}

// MarkFailed 标记代理失败
func (p *Pool) MarkFailed(proxy string) {
	if proxy == "" {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.failed[proxy]++
	log.Warn("代理失败 %s (第%d次)", proxy, p.failed[proxy])
}

// MarkSuccess 标记代理成功，失败计数减一，下限为0
func (p *Pool) MarkSuccess(proxy string) {
	if proxy == "" {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if count, ok := p.failed[proxy]; ok && count > 0 {
		p.failed[proxy] = count - 1
	}
}

// Count 返回代理总数
func (p *Pool) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.proxies)
}

// UsableCount 返回可用代理数量
func (p *Pool) UsableCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	count := 0
	for _, proxy := range p.proxies {
		if p.failed[proxy] < constants.ProxyFailThreshold {
			count++
		}
	}
	return count
}

// IsReady 代理收集周期是否已完成过至少一次
func (p *Pool) IsReady() bool {
	return p.ready.Load()
}

// AllowDirect 无代理时是否允许直连
func (p *Pool) AllowDirect() bool {
	return p.allowDirect
}

// Stats 获取代理池统计
func (p *Pool) Stats() map[string]interface{} {
	p.mu.Lock()
	total := len(p.proxies)
	valid := 0
	for _, proxy := range p.proxies {
		if p.failed[proxy] < constants.ProxyFailThreshold {
			valid++
		}
	}
	failedCount := len(p.failed)
	p.mu.Unlock()

	return map[string]interface{}{
		"total":        total,
		"valid":        valid,
		"failed":       failedCount,
		"is_ready":     p.IsReady(),
		"allow_direct": p.allowDirect,
	}
}

// AutoRefresh 启动一次后台收集周期
// 幂等：已有周期在运行时不会重复启动
func (p *Pool) AutoRefresh() {
	if !p.refreshing.CompareAndSwap(false, true) {
		return
	}

	go func() {
		defer p.refreshing.Store(false)
		p.collector.Run(p)
	}()
}

// adopt 用验证通过的代理集合整体替换池内容
// 收集周期唯一的写入点，一次性换入，调用方不会看到中间状态
func (p *Pool) adopt(proxies []string) {
	p.mu.Lock()
	p.proxies = append([]string(nil), proxies...)
	p.idx = 0
	p.mu.Unlock()
}

// allFailedLocked 判断是否所有代理都已达到失败阈值，需持锁调用
func (p *Pool) allFailedLocked() bool {
	for _, proxy := range p.proxies {
		if p.failed[proxy] < constants.ProxyFailThreshold {
			return false
		}
	}
	return len(p.proxies) > 0
}
