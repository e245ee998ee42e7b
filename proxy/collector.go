package proxy

import (
	"context"
	"strings"
	"sync"

	"github.com/go-resty/resty/v2"

	"fofahack/log"
	"fofahack/pkg/cache"
	"fofahack/pkg/constants"
)

// Collector 后台代理收集器
// 并行抓取多个代理源，验证后一次性换入代理池
type Collector struct {
	sources     []string
	client      *resty.Client
	validator   *Validator
	sourceCache *cache.Cache

	// 测试钩子：记录源抓取次数
	fetchCount int64
	fetchMu    sync.Mutex
}

// NewCollector 创建收集器
func NewCollector(sources []string) *Collector {
	client := resty.New().
		SetTimeout(constants.SourceFetchTimeout).
		SetHeader("User-Agent", "Mozilla/5.0")

	return &Collector{
		sources:     sources,
		client:      client,
		validator:   NewValidator(constants.ValidateTimeout),
		sourceCache: cache.NewCache(constants.SourceCacheTTL, 0),
	}
}

// Run 执行一个完整的收集周期：抓取 -> 验证 -> 换入
// 永远以标记池就绪收尾，调用方不会无限等待
func (c *Collector) Run(pool *Pool) {
	defer pool.ready.Store(true)

	ctx, cancel := context.WithTimeout(context.Background(), constants.CollectBudget)
	defer cancel()

	log.Info("开始并行收集代理...")
	collected := c.collect(ctx)

	if len(collected) == 0 {
		log.Warn("未从任何源获取到代理")
		return
	}

	collected = dedupe(collected)
	log.Info("收集到 %d 个原始代理", len(collected))

	// 第一轮验证：前20个
	firstWave := collected
	if len(firstWave) > constants.FirstWaveLimit {
		firstWave = firstWave[:constants.FirstWaveLimit]
	}
	log.Info("开始验证 %d 个代理...", len(firstWave))

	firstCtx, firstCancel := context.WithTimeout(context.Background(), constants.FirstWaveBudget)
	valid := c.validateBatch(firstCtx, firstWave)
	firstCancel()

	log.Info("验证完成: %d/%d 个有效代理", len(valid), len(firstWave))
	if len(valid) < constants.RetryPassMinProxies {
		log.Warn("验证通过率低，Fofa可能启用了新限制")
	}

	switch {
	case len(valid) >= constants.MinAdoptDirect:
		pool.adopt(valid)
		log.Info("代理池就绪: %d 个验证代理", len(valid))

	case len(valid) >= 1:
		// 验证代理不足，继续验证剩余候选
		log.Info("验证代理不足(%d个)，验证剩余代理中...", len(valid))

		remaining := subtract(collected, valid)
		if len(remaining) > constants.SecondWaveLimit {
			remaining = remaining[:constants.SecondWaveLimit]
		}
		log.Info("进入第二阶段验证: %d 个剩余代理...", len(remaining))

		secondCtx, secondCancel := context.WithTimeout(context.Background(), constants.SecondWaveBudget)
		more := c.validateBatch(secondCtx, remaining)
		secondCancel()

		// 绝不把未验证的代理混入池中
		pool.adopt(append(valid, more...))
		log.Info("代理池就绪: %d 个验证代理", pool.Count())

	default:
		log.Error("未收集到有效代理，将尝试直连模式（可能触发验证码）")
		pool.adopt(nil)
	}
}

// collect 并行抓取所有代理源，单个源失败不影响整体
func (c *Collector) collect(ctx context.Context) []string {
	var wg sync.WaitGroup
	results := make(chan []string, len(c.sources))
	semaphore := make(chan struct{}, constants.SourceFetchWorkers)

	for _, source := range c.sources {
		wg.Add(1)
		go func(src string) {
			defer wg.Done()

			select {
			case semaphore <- struct{}{}:
				defer func() { <-semaphore }()
			case <-ctx.Done():
				return
			}

			proxies := c.fetchSource(ctx, src)
			if len(proxies) > 0 {
				results <- proxies
			}
		}(source)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var collected []string
	for {
		select {
		case proxies, ok := <-results:
			if !ok {
				return collected
			}
			collected = append(collected, proxies...)
		case <-ctx.Done():
			// 预算耗尽，带着已有结果继续
			return collected
		}
	}
}

// fetchSource 从单个源获取代理列表
func (c *Collector) fetchSource(ctx context.Context, source string) []string {
	if cached, ok := c.sourceCache.Get(source); ok {
		if proxies, ok := cached.([]string); ok {
			log.Debug("代理源命中缓存: %s (%d个)", source, len(proxies))
			return proxies
		}
	}

	c.fetchMu.Lock()
	c.fetchCount++
	c.fetchMu.Unlock()

	resp, err := c.client.R().SetContext(ctx).Get(source)
	if err != nil || resp.StatusCode() != 200 {
		return nil
	}

	proxies := parseProxyLines(resp.String())
	if len(proxies) > 0 {
		c.sourceCache.Set(source, proxies, 0)
	}
	return proxies
}

// FetchCount 返回累计的源抓取次数
func (c *Collector) FetchCount() int64 {
	c.fetchMu.Lock()
	defer c.fetchMu.Unlock()
	return c.fetchCount
}

// validateBatch 并发验证一批候选代理，返回验证通过的子集
func (c *Collector) validateBatch(ctx context.Context, candidates []string) []string {
	if len(candidates) == 0 {
		return nil
	}

	var wg sync.WaitGroup
	results := make(chan string, len(candidates))
	semaphore := make(chan struct{}, constants.ValidateWorkers)

	for _, candidate := range candidates {
		wg.Add(1)
		go func(proxy string) {
			defer wg.Done()

			select {
			case semaphore <- struct{}{}:
				defer func() { <-semaphore }()
			case <-ctx.Done():
				return
			}

			if c.validator.Validate(proxy) {
				results <- proxy
			}
		}(candidate)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var valid []string
	for {
		select {
		case proxy, ok := <-results:
			if !ok {
				return valid
			}
			valid = append(valid, proxy)
			log.Debug("代理验证通过: %s", proxy)
		case <-ctx.Done():
			return valid
		}
	}
}

// parseProxyLines 解析纯文本代理列表，每行host:port
func parseProxyLines(text string) []string {
	var proxies []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || !strings.Contains(line, ":") {
			continue
		}
		if !strings.HasPrefix(line, "http") && !strings.HasPrefix(line, "socks") {
			line = "http://" + line
		}
		proxies = append(proxies, line)
	}
	return proxies
}

// dedupe 按值去重，保持首次出现顺序
func dedupe(proxies []string) []string {
	seen := make(map[string]struct{}, len(proxies))
	var result []string
	for _, proxy := range proxies {
		if _, ok := seen[proxy]; ok {
			continue
		}
		seen[proxy] = struct{}{}
		result = append(result, proxy)
	}
	return result
}

// subtract 返回a中不在b里的元素
func subtract(a, b []string) []string {
	exclude := make(map[string]struct{}, len(b))
	for _, item := range b {
		exclude[item] = struct{}{}
	}

	var result []string
	for _, item := range a {
		if _, ok := exclude[item]; !ok {
			result = append(result, item)
		}
	}
	return result
}
