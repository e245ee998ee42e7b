package service

import (
	"testing"

	"fofahack/pkg/constants"
)

func TestIsBanResponse(t *testing.T) {
	tests := []struct {
		name    string
		code    int
		message string
		want    bool
	}{
		{"正常响应", constants.CodeOK, "success", false},
		{"IP封禁码", constants.CodeIPBanned, "", true},
		{"验证码要求", constants.CodeCaptchaRequired, "", true},
		{"消息含爬虫", constants.CodeOK, "检测到爬虫行为", true},
		{"消息含访问异常", constants.CodeOK, "IP访问异常，请稍后再试", true},
		{"消息含验证码", constants.CodeOK, "请完成验证码", true},
		{"无关错误消息", 500, "internal error", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isBanResponse(tt.code, tt.message); got != tt.want {
				t.Errorf("isBanResponse(%d, %q) = %v, 期望 %v", tt.code, tt.message, got, tt.want)
			}
		})
	}
}

func TestNormalizeResponse(t *testing.T) {
	raw := &rawResponse{
		Code:    constants.CodeOK,
		Message: "success",
	}
	raw.Data.Total = 42
	raw.Data.Page = 1
	raw.Data.Assets = []map[string]interface{}{
		{
			"link":  "https://example.com",
			"host":  "example.com",
			"port":  float64(443),
			"title": "Example",
			"ip":    "93.184.216.34",
		},
		{
			// link缺失时应由host:port推导
			"host": "1.2.3.4",
			"port": float64(8080),
		},
	}

	resp := normalizeResponse(raw)

	if resp.GetTotal() != 42 {
		t.Errorf("GetTotal() = %d, 期望 42", resp.GetTotal())
	}
	assets := resp.GetAssets()
	if len(assets) != 2 {
		t.Fatalf("资产数 = %d, 期望 2", len(assets))
	}
	if assets[0].Link != "https://example.com" || assets[0].Port != 443 {
		t.Errorf("第一条资产解析错误: %+v", assets[0])
	}
	if assets[1].Link != "1.2.3.4:8080" {
		t.Errorf("link推导错误: %q, 期望 1.2.3.4:8080", assets[1].Link)
	}
}
