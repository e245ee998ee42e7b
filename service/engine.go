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

// AccessMode 访问模式
type AccessMode string

const (
	ModeAPI  AccessMode = "api"  // API方式（RSA签名）
	ModeWEB  AccessMode = "web"  // 网页方式（匿名）
	ModeAUTO AccessMode = "auto" // 自动选择
)

// Session 一次逻辑搜索的计数器，由调用方显式重置
type Session struct {
	Attempts  int
	Successes int
	Failures  int
	BanCount  int
}

// Reset 清零所有计数器
func (s *Session) Reset() {
	s.Attempts = 0
	s.Successes = 0
	s.Failures = 0
	s.BanCount = 0
}

// apiFetcher API访问路径的抽象
type apiFetcher interface {
	Fetch(ctx context.Context, query string, page, size int) (*models.FofaResponse, error)
	Proxy() string
}

// webFetcher 网页访问路径的抽象
type webFetcher interface {
	Fetch(ctx context.Context, query string, page int) (*models.FofaResponse, error)
	Proxy() string
}

// Engine 统一搜索引擎
//
// 单页请求固定走三个阶段：
//  1. API尝试（WEB模式下跳过）
//  2. 切换WEB模式（除纯API模式外必走）
//  3. 换不同代理做最后一次有界重试
//
// 一旦会话降级到WEB模式，后续请求保持WEB不回退
type Engine struct {
	cfg  *config.Config
	pool *proxy.Pool

	mode         AccessMode
	session      Session
	currentProxy string

	// 懒加载客户端，代理变更时按需重建（单槽memo）
	apiClient apiFetcher
	webClient webFetcher

	// 客户端构造函数，测试时可替换
	newAPI func(proxyURL string) (apiFetcher, error)
	newWeb func(proxyURL string) (webFetcher, error)

	// 等待代理收集的轮询间隔
	waitInterval time.Duration
}

// NewEngine 创建搜索引擎，启用代理时自动触发后台收集
func NewEngine(cfg *config.Config, pool *proxy.Pool) (*Engine, error) {
	signer, err := NewSigner()
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:          cfg,
		pool:         pool,
		mode:         ModeAUTO,
		waitInterval: constants.PoolWaitInterval,
	}
	e.newAPI = func(proxyURL string) (apiFetcher, error) {
		return NewAPIClient(signer, proxyURL, cfg.Client.Timeout, cfg.Retry(), cfg.Search.Debug)
	}
	e.newWeb = func(proxyURL string) (webFetcher, error) {
		return NewWebClient(proxyURL, cfg.Client.Timeout, cfg.TimeSleep(), cfg.Search.Debug)
	}

	if cfg.UseProxy() {
		log.Info("启动代理自动收集...")
		pool.AutoRefresh()
	}

	return e, nil
}

// Mode 返回当前访问模式
func (e *Engine) Mode() AccessMode {
	return e.mode
}

// SetMode 强制指定访问模式
func (e *Engine) SetMode(mode AccessMode) {
	e.mode = mode
}

// Session 返回当前会话计数器快照
func (e *Engine) Session() Session {
	return e.session
}

// ResetSession 重置会话计数器
func (e *Engine) ResetSession() {
	e.session.Reset()
}

// Pool 返回引擎使用的代理池
func (e *Engine) Pool() *proxy.Pool {
	return e.pool
}

// apiClientFor 返回绑定当前代理的API客户端，代理不匹配时重建
func (e *Engine) apiClientFor() (apiFetcher, error) {
	if e.apiClient != nil && e.apiClient.Proxy() == e.currentProxy {
		return e.apiClient, nil
	}

	client, err := e.newAPI(e.currentProxy)
	if err != nil {
		return nil, err
	}
	e.apiClient = client
	return client, nil
}

// webClientFor 返回绑定当前代理的WEB客户端，代理不匹配时重建
func (e *Engine) webClientFor() (webFetcher, error) {
	if e.webClient != nil && e.webClient.Proxy() == e.currentProxy {
		return e.webClient, nil
	}

	client, err := e.newWeb(e.currentProxy)
	if err != nil {
		return nil, err
	}
	e.webClient = client
	return client, nil
}

// syncProxy 将当前代理与池中轮换结果对齐
func (e *Engine) syncProxy() {
	if p := e.pool.GetProxy(); p != "" && p != e.currentProxy {
		e.currentProxy = p
	}
}

// proxyFailed 标记当前代理失败并尝试切换到另一个
// 所有代理操作都是尽力而为，绝不向上抛错
func (e *Engine) proxyFailed() {
	if e.currentProxy != "" {
		e.pool.MarkFailed(e.currentProxy)
	}
	e.session.Failures++

	next := e.pool.GetNextProxy(e.currentProxy)
	if next != "" {
		log.Info("切换代理: %s", next)
		e.currentProxy = next
	} else {
		log.Warn("无更多可用代理")
	}
}

// SearchPage 搜索单页，三阶段尝试链，永不无限循环
func (e *Engine) SearchPage(ctx context.Context, query string, page, size int) (*models.FofaResponse, error) {
	// 第一阶段：API
	if e.mode == ModeAPI || e.mode == ModeAUTO {
		log.Info("第一阶段: 尝试API模式...")
		if resp := e.tryAPI(ctx, query, page, size); resp != nil {
			return resp, nil
		}
	}

	// 第二阶段：WEB，进入后模式固定为WEB
	if e.mode == ModeAUTO || e.mode == ModeWEB {
		e.mode = ModeWEB
		log.Info("第二阶段: 切换到WEB模式...")

		if err := e.ensureProxy(ctx); err != nil {
			return nil, err
		}

		if resp := e.tryWeb(ctx, query, page); resp != nil {
			return resp, nil
		}
	}

	// 第三阶段：换不同代理做最后一次尝试
	if e.cfg.Retry() > 1 {
		if next := e.pool.GetProxy(); next != "" && next != e.currentProxy {
			log.Info("最终尝试: 换用代理 %s", next)
			e.currentProxy = next
			e.mode = ModeWEB

			if resp := e.tryWeb(ctx, query, page); resp != nil {
				return resp, nil
			}
		}
	}

	log.Warn("第 %d 页搜索失败 (所有尝试耗尽)", page)
	log.Info("统计: 成功%d 失败%d 封禁%d 总尝试%d",
		e.session.Successes, e.session.Failures, e.session.BanCount, e.session.Attempts)
	return nil, apperrors.ErrEmptyResult
}

// tryAPI 执行一次API阶段尝试，成功返回非nil响应
func (e *Engine) tryAPI(ctx context.Context, query string, page, size int) *models.FofaResponse {
	e.session.Attempts++
	e.syncProxy()

	client, err := e.apiClientFor()
	if err != nil {
		log.Error("创建API客户端失败: %v", err)
		e.proxyFailed()
		return nil
	}

	resp, err := client.Fetch(ctx, query, page, size)
	if err != nil {
		if apperrors.IsBan(err) {
			e.session.BanCount++
			log.Warn("API封禁，切换代理 (%s)", e.currentProxy)
		} else {
			// 裸失败无法与软封禁区分，按封禁处理
			e.session.BanCount++
			log.Warn("API无响应，按封禁处理: %v", err)
		}
		e.proxyFailed()
		return nil
	}

	if assets := resp.GetAssets(); len(assets) > 0 {
		e.session.Successes++
		e.pool.MarkSuccess(e.currentProxy)
		log.Info("API成功，%d条结果", len(assets))
		return resp
	}

	log.Warn("API返回空结果")
	return nil
}

// tryWeb 执行一次WEB阶段尝试，成功返回非nil响应
func (e *Engine) tryWeb(ctx context.Context, query string, page int) *models.FofaResponse {
	e.session.Attempts++

	client, err := e.webClientFor()
	if err != nil {
		log.Error("创建WEB客户端失败: %v", err)
		e.proxyFailed()
		return nil
	}

	resp, err := client.Fetch(ctx, query, page)
	if err != nil {
		if apperrors.IsBan(err) {
			e.session.BanCount++
			log.Warn("WEB被封禁")
		} else {
			log.Warn("WEB请求无响应: %v", err)
		}
		e.proxyFailed()
		return nil
	}

	if assets := resp.GetAssets(); len(assets) > 0 {
		e.session.Successes++
		e.pool.MarkSuccess(e.currentProxy)
		log.Info("WEB成功，%d条结果", len(assets))
		return resp
	}

	log.Warn("WEB解析无结果")
	return nil
}

// ensureProxy 确保有代理可用，最多等待8次收集
// 无代理且禁止直连时直接失败
func (e *Engine) ensureProxy(ctx context.Context) error {
	// 未启用代理收集时等待没有意义
	attempts := constants.PoolWaitAttempts
	if !e.cfg.UseProxy() {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		if p := e.pool.GetProxy(); p != "" {
			e.currentProxy = p
			return nil
		}
		if !e.cfg.UseProxy() {
			break
		}

		log.Info("等待代理收集中... (%d/%d)", attempt+1, attempts)
		select {
		case <-time.After(e.waitInterval):
		case <-ctx.Done():
			return apperrors.NewTransportError("等待代理时取消", ctx.Err())
		}
	}

	if e.currentProxy == "" {
		if !e.pool.AllowDirect() {
			log.Error("无代理可用且禁止直连")
			e.session.Failures++
			return apperrors.NewPoolExhaustedError("代理池耗尽且禁止直连")
		}
		log.Warn("无代理，尝试直连...")
	}
	return nil
}

// Stats 返回引擎运行统计
func (e *Engine) Stats() map[string]interface{} {
	successRate := 0.0
	if e.session.Attempts > 0 {
		successRate = float64(e.session.Successes) / float64(e.session.Attempts) * 100
	}

	stats := map[string]interface{}{
		"total":   e.session.Attempts,
		"success": e.session.Successes,
		"failed":  e.session.Failures,
		"bans":    e.session.BanCount,
		"rate":    successRate,
		"mode":    string(e.mode),
		"proxy":   e.currentProxy,
	}
	for k, v := range e.pool.Stats() {
		stats["pool_"+k] = v
	}
	return stats
}
