package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"fofahack/log"
	"fofahack/models"
	"fofahack/pkg/constants"
	apperrors "fofahack/pkg/errors"
	"fofahack/proxy"
)

// rawResponse API原始响应，assets字段结构不固定因此用map接收
type rawResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Assets []map[string]interface{} `json:"assets"`
		Total  int                      `json:"total"`
		Page   int                      `json:"page"`
	} `json:"data"`
}

// APIClient 基于RSA签名的API客户端，支持匿名访问
type APIClient struct {
	client *resty.Client
	signer *Signer
	proxy  string
	retry  int
	debug  bool
}

// NewAPIClient 创建API客户端，proxyURL为空时直连
func NewAPIClient(signer *Signer, proxyURL string, timeout time.Duration, retry int, debug bool) (*APIClient, error) {
	transport, err := proxy.NewTransport(proxyURL, timeout)
	if err != nil {
		return nil, err
	}

	client := resty.New().
		SetTransport(transport).
		SetTimeout(timeout).
		SetHeaders(map[string]string{
			"User-Agent":       constants.GetRandomUserAgent(),
			"Accept":           "application/json, text/plain, */*",
			"Accept-Language":  "zh-CN,zh;q=0.9,en;q=0.8",
			"Referer":          constants.WebBaseURL + "/",
			"Origin":           constants.WebBaseURL,
			"X-Requested-With": "XMLHttpRequest",
		})

	return &APIClient{
		client: client,
		signer: signer,
		proxy:  proxyURL,
		retry:  retry,
		debug:  debug,
	}, nil
}

// Proxy 返回客户端绑定的代理地址
func (c *APIClient) Proxy() string {
	return c.proxy
}

// Fetch 执行一次签名API搜索
// 返回值说明：封禁信号和网络错误都以error形式返回，空结果不算错误
func (c *APIClient) Fetch(ctx context.Context, query string, page, size int) (*models.FofaResponse, error) {
	if size > constants.MaxPageSize {
		size = constants.MaxPageSize
	}

	var lastErr error
	for attempt := 0; attempt < c.retry; attempt++ {
		// 每次重试重新签名，时间戳必须新鲜
		signedURL, err := c.signer.BuildSignedURL(query, page, size, false)
		if err != nil {
			return nil, apperrors.NewTransportError("构建签名URL失败", err)
		}

		if c.debug {
			log.Debug("API请求 第%d页 尝试%d/%d", page, attempt+1, c.retry)
		}

		resp, err := c.client.R().SetContext(ctx).Get(signedURL)
		if err != nil {
			lastErr = apperrors.NewTransportError("API请求失败", err)
			log.Warn("API请求异常(%d/%d): %v", attempt+1, c.retry, err)
			c.backoff(ctx, attempt)
			continue
		}

		if resp.StatusCode() != 200 {
			lastErr = apperrors.NewTransportError("API返回非200状态", nil)
			log.Warn("API HTTP错误(%d/%d): %d", attempt+1, c.retry, resp.StatusCode())
			c.backoff(ctx, attempt)
			continue
		}

		var raw rawResponse
		if err := json.Unmarshal(resp.Body(), &raw); err != nil {
			lastErr = apperrors.NewTransportError("API响应解析失败", err)
			log.Warn("JSON解析错误(%d/%d): %v", attempt+1, c.retry, err)
			c.backoff(ctx, attempt)
			continue
		}

		// 封禁信号不重试，直接交给上层切换代理
		if isBanResponse(raw.Code, raw.Message) {
			log.Warn("API封禁信号: code=%d message=%s", raw.Code, raw.Message)
			return nil, apperrors.NewBanError(raw.Code, raw.Message)
		}

		if raw.Code != constants.CodeOK && len(raw.Data.Assets) == 0 {
			log.Warn("API未知响应: code=%d message=%s", raw.Code, raw.Message)
			return nil, apperrors.NewTransportError(raw.Message, apperrors.ErrNoResponse)
		}

		return normalizeResponse(&raw), nil
	}

	if lastErr == nil {
		lastErr = apperrors.NewTransportError("API请求失败", apperrors.ErrNoResponse)
	}
	return nil, lastErr
}

// GetCount 查询匹配总数，只取1条数据
func (c *APIClient) GetCount(ctx context.Context, query string) (int, error) {
	resp, err := c.Fetch(ctx, query, 1, 1)
	if err != nil {
		return 0, err
	}
	return resp.GetTotal(), nil
}

// backoff 重试退避，等待时间随尝试次数线性增长
func (c *APIClient) backoff(ctx context.Context, attempt int) {
	if attempt >= c.retry-1 {
		return
	}
	wait := time.Duration(attempt+1) * constants.RetryBaseDelay
	log.Info("等待 %v 后重试...", wait)
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}

// isBanResponse 判断API响应是否为封禁/验证码信号
func isBanResponse(code int, message string) bool {
	if code == constants.CodeIPBanned || code == constants.CodeCaptchaRequired {
		return true
	}
	lower := strings.ToLower(message)
	for _, marker := range constants.BanMessageMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// normalizeResponse 将原始响应转换为统一的结果模型
func normalizeResponse(raw *rawResponse) *models.FofaResponse {
	assets := make([]models.SearchResult, 0, len(raw.Data.Assets))
	for _, asset := range raw.Data.Assets {
		assets = append(assets, models.AssetToResult(asset))
	}

	return &models.FofaResponse{
		Code:    raw.Code,
		Message: raw.Message,
		Data: models.ResponseData{
			Assets: assets,
			Total:  raw.Data.Total,
			Page:   raw.Data.Page,
		},
	}
}
