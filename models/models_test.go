package models

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestSearchResultJSONRoundTrip(t *testing.T) {
	original := SearchResult{
		Link:         "https://example.com:8443",
		Host:         "example.com:8443",
		Port:         8443,
		Title:        "管理后台",
		IP:           "93.184.216.34",
		City:         "Oslo",
		ASN:          "AS15133",
		Organization: "EdgeCast",
		Server:       "nginx",
		MTime:        "2025-01-02 03:04:05",
	}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("序列化失败: %v", err)
	}

	var parsed SearchResult
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("反序列化失败: %v", err)
	}

	if !reflect.DeepEqual(original, parsed) {
		t.Fatalf("往返结果不一致:\n原始: %+v\n解析: %+v", original, parsed)
	}
}

func TestToTxtFallback(t *testing.T) {
	withLink := SearchResult{Link: "https://a.com", Host: "a.com"}
	if got := withLink.ToTxt(); got != "https://a.com" {
		t.Errorf("ToTxt() = %q, 期望优先link", got)
	}

	hostOnly := SearchResult{Host: "b.com"}
	if got := hostOnly.ToTxt(); got != "b.com" {
		t.Errorf("ToTxt() = %q, 期望回退host", got)
	}
}

func TestAssetToResult(t *testing.T) {
	asset := map[string]interface{}{
		"link":         "https://example.com",
		"host":         "example.com",
		"port":         float64(443),
		"title":        "Example",
		"ip":           "1.2.3.4",
		"asn":          float64(15133),
		"organization": "Org",
	}

	result := AssetToResult(asset)
	if result.Port != 443 {
		t.Errorf("Port = %d", result.Port)
	}
	// JSON数字形式的ASN应转成字符串
	if result.ASN != "15133" {
		t.Errorf("ASN = %q, 期望 15133", result.ASN)
	}
}

func TestAssetToResultLinkFromHostPort(t *testing.T) {
	result := AssetToResult(map[string]interface{}{
		"host": "1.2.3.4",
		"port": float64(8080),
	})
	if result.Link != "1.2.3.4:8080" {
		t.Errorf("Link = %q, 期望 1.2.3.4:8080", result.Link)
	}

	// host已带端口时不重复拼接
	result = AssetToResult(map[string]interface{}{
		"host": "1.2.3.4:8080",
		"port": float64(8080),
	})
	if result.Link != "1.2.3.4:8080" {
		t.Errorf("Link = %q, 端口不应重复拼接", result.Link)
	}
}

func TestFofaResponseNilSafe(t *testing.T) {
	var resp *FofaResponse
	if resp.GetAssets() != nil {
		t.Error("nil响应 GetAssets() 应返回nil")
	}
	if resp.GetTotal() != 0 {
		t.Error("nil响应 GetTotal() 应返回0")
	}
}
