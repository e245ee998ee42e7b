package service

import (
	"context"
	"time"

	"fofahack/config"
	"fofahack/log"
	"fofahack/models"
	"fofahack/pkg/constants"
	apperrors "fofahack/pkg/errors"
	"fofahack/proxy"
)

// Orchestrator 顶层搜索调度器
// 负责分页迭代，结果稀少且代理池未就绪时等待后做第二轮完整搜索
type Orchestrator struct {
	cfg    *config.Config
	pool   *proxy.Pool
	engine *Engine

	// 等待代理池就绪的上限
	readyWait time.Duration
}

// NewOrchestrator 创建调度器
// 配置了手动代理时用手动池，否则按需创建自动收集池
func NewOrchestrator(cfg *config.Config) (*Orchestrator, error) {
	var pool *proxy.Pool
	if len(cfg.Proxy.Manual) > 0 {
		pool = proxy.NewManualPool(cfg.Proxy.Manual, cfg.AllowDirect())
	} else {
		pool = proxy.NewPool(cfg.AllowDirect())
	}

	engine, err := NewEngine(cfg, pool)
	if err != nil {
		return nil, err
	}

	return &Orchestrator{
		cfg:       cfg,
		pool:      pool,
		engine:    engine,
		readyWait: constants.PoolReadyWait,
	}, nil
}

// Engine 返回底层搜索引擎
func (o *Orchestrator) Engine() *Engine {
	return o.engine
}

// SearchAll 分页搜索直到满足目标数量或触发终止条件
//
// 终止条件：达到目标数量、达到页数上限、代理池耗尽且禁止直连、
// 连续失败达到阈值
func (o *Orchestrator) SearchAll(ctx context.Context, query string) ([]models.SearchResult, error) {
	if query == "" {
		return nil, apperrors.ErrEmptyQuery
	}

	target := o.cfg.EndCount()
	maxPages := o.cfg.MaxPages()
	pageSize := target
	if pageSize > constants.MaxPageSize {
		pageSize = constants.MaxPageSize
	}

	var results []models.SearchResult
	consecutiveFailures := 0

	for page := 1; len(results) < target && page <= maxPages; page++ {
		log.Info("搜索第 %d 页... (已获取 %d 条)", page, len(results))

		resp, err := o.engine.SearchPage(ctx, query, page, pageSize)
		if err != nil {
			consecutiveFailures++
			log.Warn("第 %d 页搜索失败，连续失败次数: %d", page, consecutiveFailures)

			// 代理池耗尽且禁止直连，继续翻页没有意义
			if o.pool.GetProxy() == "" && !o.pool.AllowDirect() {
				log.Error("代理池已耗尽且不允许直连，终止搜索")
				break
			}

			if consecutiveFailures >= constants.MaxConsecutiveErrors {
				log.Error("达到最大连续失败次数 (%d)，终止搜索", constants.MaxConsecutiveErrors)
				break
			}

			if ctx.Err() != nil {
				break
			}
			continue
		}

		consecutiveFailures = 0
		assets := resp.GetAssets()
		results = append(results, assets...)
		log.Info("本页获取 %d 条，总计 %d 条", len(assets), len(results))

		if len(results) >= target {
			results = results[:target]
			break
		}

		// 结果总数已取完，后续页必然为空
		if total := resp.GetTotal(); total > 0 && len(results) >= total {
			log.Info("已取完全部 %d 条匹配结果", total)
			break
		}

		if page < maxPages && o.cfg.TimeSleep() > 0 {
			select {
			case <-time.After(o.cfg.TimeSleep()):
			case <-ctx.Done():
				return results, nil
			}
		}
	}

	if len(results) > 0 {
		log.Info("搜索完成，共获取 %d 条结果", len(results))
	} else {
		log.Warn("搜索完成，未获取结果")
	}
	return results, nil
}

// Run 执行完整搜索流程
// 首轮结果不足预期且代理池未就绪时，等待就绪后重置会话再跑一轮，
// 保留结果严格更多的那一轮
func (o *Orchestrator) Run(ctx context.Context, query string) ([]models.SearchResult, error) {
	first, err := o.SearchAll(ctx, query)
	if err != nil {
		return nil, err
	}

	if !o.cfg.UseProxy() {
		return first, nil
	}

	expected := o.cfg.EndCount()
	if expected > 10 {
		expected = 10
	}
	if len(first) >= expected || o.pool.IsReady() {
		return first, nil
	}

	log.Info("结果不足且代理池未就绪，等待代理收集...")
	deadline := time.Now().Add(o.readyWait)
	for !o.pool.IsReady() && time.Now().Before(deadline) {
		select {
		case <-time.After(time.Second):
		case <-ctx.Done():
			return first, nil
		}
	}

	if !o.pool.IsReady() || o.pool.Count() < constants.RetryPassMinProxies {
		log.Warn("代理池不满足重试条件 (就绪=%v 数量=%d)", o.pool.IsReady(), o.pool.Count())
		return first, nil
	}

	log.Info("代理池就绪，重置会话执行第二轮搜索...")
	o.engine.ResetSession()
	second, err := o.SearchAll(ctx, query)
	if err != nil {
		return first, nil
	}

	if len(second) > len(first) {
		return second, nil
	}
	return first, nil
}

// GetCount 查询匹配总数，不拉取结果
func (o *Orchestrator) GetCount(ctx context.Context, query string) (int, error) {
	if query == "" {
		return 0, apperrors.ErrEmptyQuery
	}

	o.engine.syncProxy()
	client, err := o.engine.apiClientFor()
	if err != nil {
		return 0, err
	}

	resp, err := client.Fetch(ctx, query, 1, 1)
	if err != nil {
		return 0, err
	}
	return resp.GetTotal(), nil
}

// Stats 返回运行统计
func (o *Orchestrator) Stats() map[string]interface{} {
	return o.engine.Stats()
}
