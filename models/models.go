package models

import (
	"fmt"
	"strconv"
)

// SearchResult 单条搜索结果
type SearchResult struct {
	Link         string `json:"link"`
	Host         string `json:"host"`
	Port         int    `json:"port"`
	Title        string `json:"title"`
	IP           string `json:"ip"`
	City         string `json:"city"`
	ASN          string `json:"asn"`
	Organization string `json:"organization"`
	Server       string `json:"server"`
	MTime        string `json:"mtime"`
}

// ToTxt 转换为文本格式（link为空时回退host）
func (r *SearchResult) ToTxt() string {
	if r.Link != "" {
		return r.Link
	}
	return r.Host
}

// ToCSVRow 转换为CSV行
func (r *SearchResult) ToCSVRow() []string {
	return []string{
		r.Link, r.Host, strconv.Itoa(r.Port), r.Title,
		r.IP, r.City, r.ASN, r.Organization,
		r.Server, r.MTime,
	}
}

// ResponseData 响应数据段
type ResponseData struct {
	Assets []SearchResult `json:"assets"`
	Total  int            `json:"total"`
	Page   int            `json:"page"`
}

// FofaResponse Fofa响应模型
type FofaResponse struct {
	Code    int          `json:"code"`
	Message string       `json:"message"`
	Data    ResponseData `json:"data"`
}

// GetAssets 获取资产列表
func (r *FofaResponse) GetAssets() []SearchResult {
	if r == nil {
		return nil
	}
	return r.Data.Assets
}

// GetTotal 获取总数
func (r *FofaResponse) GetTotal() int {
	if r == nil {
		return 0
	}
	return r.Data.Total
}

// AssetToResult 将原始资产数据转换为SearchResult
// 字段可能缺失或类型不一，尽量宽容处理
func AssetToResult(asset map[string]interface{}) SearchResult {
	result := SearchResult{
		Link:         asString(asset["link"]),
		Host:         asString(asset["host"]),
		Port:         asInt(asset["port"]),
		Title:        asString(asset["title"]),
		IP:           asString(asset["ip"]),
		City:         asString(asset["city"]),
		ASN:          asString(asset["asn"]),
		Organization: asString(asset["organization"]),
		Server:       asString(asset["server"]),
		MTime:        asString(asset["mtime"]),
	}

	// link为空但host存在时，用host构建link
	if result.Link == "" && result.Host != "" {
		result.Link = result.Host
		if result.Port != 0 && !containsPort(result.Link, result.Port) {
			result.Link = fmt.Sprintf("%s:%d", result.Host, result.Port)
		}
	}

	return result
}

func asString(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		// JSON数字统一解析为float64
		if s == float64(int64(s)) {
			return strconv.FormatInt(int64(s), 10)
		}
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	default:
		return fmt.Sprintf("%v", s)
	}
}

func asInt(v interface{}) int {
	switch n := v.(type) {
	case nil:
		return 0
	case float64:
		return int(n)
	case int:
		return n
	case string:
		parsed, err := strconv.Atoi(n)
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}

func containsPort(link string, port int) bool {
	suffix := ":" + strconv.Itoa(port)
	return len(link) >= len(suffix) && link[len(link)-len(suffix):] == suffix
}
