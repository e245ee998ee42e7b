package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/imroc/req/v3"

	"fofahack/log"
	"fofahack/models"
	"fofahack/pkg/constants"
	apperrors "fofahack/pkg/errors"
	"fofahack/pkg/ratelimit"
)

// WebClient 匿名网页客户端，模拟浏览器访问公开结果页
type WebClient struct {
	client  *req.Client
	limiter ratelimit.RateLimiter
	proxy   string
	debug   bool
}

// NewWebClient 创建网页客户端，proxyURL为空时直连
func NewWebClient(proxyURL string, timeout, minInterval time.Duration, debug bool) (*WebClient, error) {
	client := req.C().
		ImpersonateChrome().
		SetTimeout(timeout).
		SetRedirectPolicy(req.MaxRedirectPolicy(5))

	if proxyURL != "" {
		client.SetProxyURL(proxyURL)
	}

	return &WebClient{
		client:  client,
		limiter: ratelimit.NewIntervalLimiter(minInterval),
		proxy:   proxyURL,
		debug:   debug,
	}, nil
}

// Proxy 返回客户端绑定的代理地址
func (c *WebClient) Proxy() string {
	return c.proxy
}

// buildURL 构建结果页URL，第1页不带page参数
func buildURL(query string, page int) string {
	qbase64 := base64.StdEncoding.EncodeToString([]byte(query))
	url := fmt.Sprintf("%s%s?qbase64=%s", constants.WebBaseURL, constants.WebSearchEndpoint, qbase64)
	if page > 1 {
		url += fmt.Sprintf("&page=%d", page)
	}
	return url
}

// Fetch 执行一次网页搜索，请求前强制满足最小间隔
func (c *WebClient) Fetch(ctx context.Context, query string, page int) (*models.FofaResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, apperrors.NewTransportError("等待速率限制时取消", err)
	}
	defer c.limiter.Done()

	url := buildURL(query, page)
	if c.debug {
		log.Debug("WEB请求: %s", url)
	}

	resp, err := c.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, apperrors.NewTransportError("网页请求失败", err)
	}
	if resp.StatusCode != 200 {
		return nil, apperrors.NewTransportError(
			fmt.Sprintf("网页返回状态 %d", resp.StatusCode), nil)
	}

	body := resp.String()
	if c.debug {
		log.Debug("WEB响应长度: %d", len(body))
	}

	// 空响应和验证码页面都视为封禁
	if isBanPage(body) {
		log.Warn("WEB封禁信号: 页面含封禁特征")
		return nil, apperrors.NewBanError(0, "网页访问被拦截")
	}

	data := parsePageData(body)
	if data == nil {
		log.Warn("无法从响应中提取JSON数据")
		return nil, apperrors.NewTransportError("响应解析失败", apperrors.ErrParseResponse)
	}

	assets := extractAssets(data)
	results := make([]models.SearchResult, 0, len(assets))
	for _, asset := range assets {
		results = append(results, models.AssetToResult(asset))
	}

	return &models.FofaResponse{
		Code: constants.CodeOK,
		Data: models.ResponseData{
			Assets: results,
			Total:  extractTotal(data),
			Page:   page,
		},
	}, nil
}

// isBanPage 判断页面是否为封禁/验证码页面
func isBanPage(body string) bool {
	if strings.TrimSpace(body) == "" {
		return true
	}
	if strings.Contains(strings.ToLower(body), "captcha") {
		return true
	}
	for _, marker := range constants.BanHTMLMarkers {
		if strings.Contains(body, marker) {
			return true
		}
	}
	return false
}

// parsePageData 从响应中提取数据对象
// 响应可能是纯JSON，也可能是HTML中script标签内嵌的状态数据
func parsePageData(body string) map[string]interface{} {
	// 纯JSON响应
	var direct map[string]interface{}
	if err := json.Unmarshal([]byte(body), &direct); err == nil {
		if _, ok := direct["data"]; ok {
			return direct
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil
	}

	var data map[string]interface{}
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		if text == "" {
			return true
		}

		// 内嵌状态数据
		if strings.Contains(text, "window.__INITIAL_STATE__") {
			start := strings.Index(text, "{")
			end := strings.LastIndex(text, "}")
			if start >= 0 && end > start {
				var parsed map[string]interface{}
				if err := json.Unmarshal([]byte(text[start:end+1]), &parsed); err == nil {
					data = parsed
					return false
				}
			}
		}

		// 其他携带资产数组的脚本
		if strings.Contains(text, `"assets":`) || strings.Contains(text, `"results":`) {
			trimmed := strings.TrimSpace(text)
			if strings.HasPrefix(trimmed, "{") {
				var parsed map[string]interface{}
				if err := json.Unmarshal([]byte(trimmed), &parsed); err == nil {
					data = parsed
					return false
				}
			}
		}
		return true
	})

	return data
}

// extractAssets 从数据对象中提取资产列表，兼容多种结构
func extractAssets(data map[string]interface{}) []map[string]interface{} {
	if inner, ok := data["data"].(map[string]interface{}); ok {
		if assets := asAssetList(inner["assets"]); assets != nil {
			return assets
		}
		if assets := asAssetList(inner["results"]); assets != nil {
			return assets
		}
	}

	if assets := asAssetList(data["assets"]); assets != nil {
		return assets
	}
	if assets := asAssetList(data["results"]); assets != nil {
		return assets
	}

	// 兜底：扫描任意字段里形如资产的数组
	for _, value := range data {
		list, ok := value.([]interface{})
		if !ok || len(list) == 0 {
			continue
		}
		first, ok := list[0].(map[string]interface{})
		if !ok {
			continue
		}
		if _, hasLink := first["link"]; hasLink {
			return asAssetList(value)
		}
		if _, hasHost := first["host"]; hasHost {
			return asAssetList(value)
		}
	}

	return nil
}

// asAssetList 将interface{}转换为资产map列表
func asAssetList(v interface{}) []map[string]interface{} {
	list, ok := v.([]interface{})
	if !ok {
		return nil
	}

	assets := make([]map[string]interface{}, 0, len(list))
	for _, item := range list {
		if asset, ok := item.(map[string]interface{}); ok {
			assets = append(assets, asset)
		}
	}
	if len(assets) == 0 {
		return nil
	}
	return assets
}

// extractTotal 提取总数字段
func extractTotal(data map[string]interface{}) int {
	if inner, ok := data["data"].(map[string]interface{}); ok {
		if total, ok := inner["total"].(float64); ok {
			return int(total)
		}
	}
	if total, ok := data["total"].(float64); ok {
		return int(total)
	}
	return 0
}
