package proxy

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fofahack/pkg/constants"
)

const probeQuery = "port=80"

// Validator 代理验证器
// 直接用真实目标端点探测：HTTP 200不代表有效，验证码/封禁页同样判为无效
type Validator struct {
	timeout time.Duration
}

// NewValidator 创建验证器
func NewValidator(timeout time.Duration) *Validator {
	if timeout <= 0 {
		timeout = constants.ValidateTimeout
	}
	return &Validator{timeout: timeout}
}

// Validate 验证单个代理
// 先探测API端点；API完全不通时降级探测WEB端点，以普通非验证码响应作为较弱的有效证据
func (v *Validator) Validate(proxyURL string) bool {
	client, err := v.newClient(proxyURL)
	if err != nil {
		return false
	}
	defer client.CloseIdleConnections()

	ok, reachable := v.probeAPI(client)
	if reachable {
		return ok
	}

	return v.probeWeb(client)
}

// newClient 为单个代理构建探测客户端
func (v *Validator) newClient(proxyURL string) (*http.Client, error) {
	transport, err := NewTransport(proxyURL, v.timeout)
	if err != nil {
		return nil, err
	}
	return &http.Client{
		Transport: transport,
		Timeout:   v.timeout,
	}, nil
}

// probeAPI 探测API搜索端点
// 返回 (是否有效, 端点是否可达)；可达但内容异常视为无效，不再降级
func (v *Validator) probeAPI(client *http.Client) (valid bool, reachable bool) {
	qbase64 := base64.StdEncoding.EncodeToString([]byte(probeQuery))
	ts := time.Now().UnixMilli()

	// 连通性探测无需签名
	probeURL := fmt.Sprintf("%s%s?qbase64=%s&page=1&size=1&full=false&ts=%d",
		constants.APIBaseURL, constants.APISearchEndpoint, url.QueryEscape(qbase64), ts)

	req, err := http.NewRequest(http.MethodGet, probeURL, nil)
	if err != nil {
		return false, false
	}
	req.Header.Set("User-Agent", constants.GetRandomUserAgent())

	resp, err := client.Do(req)
	if err != nil {
		return false, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, true
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return false, true
	}

	var payload struct {
		Code int             `json:"code"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return false, true
	}

	// 有真实数据返回才算有效代理
	if payload.Code == constants.CodeOK && len(payload.Data) > 0 && string(payload.Data) != "null" {
		return true, true
	}

	return false, true
}

// probeWeb 探测WEB结果页，作为API不通时的备选
func (v *Validator) probeWeb(client *http.Client) bool {
	qbase64 := base64.StdEncoding.EncodeToString([]byte(probeQuery))
	webURL := fmt.Sprintf("%s%s?qbase64=%s", constants.WebBaseURL, constants.WebSearchEndpoint, qbase64)

	req, err := http.NewRequest(http.MethodGet, webURL, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", constants.GetRandomUserAgent())

	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusMovedPermanently, http.StatusFound:
	default:
		return false
	}

	// 重定向到验证码页面或页面内含验证码均判无效
	if resp.Request != nil && strings.Contains(resp.Request.URL.Path, "/captcha") {
		return false
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return false
	}

	return !strings.Contains(strings.ToLower(string(body)), "captcha")
}
