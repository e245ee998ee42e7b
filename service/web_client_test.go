package service

import (
	"strings"
	"testing"
)

func TestBuildURL(t *testing.T) {
	// 第1页不带page参数
	first := buildURL("port=80", 1)
	if strings.Contains(first, "page=") {
		t.Errorf("第1页URL不应包含page参数: %s", first)
	}
	if !strings.Contains(first, "qbase64=cG9ydD04MA==") {
		t.Errorf("URL缺少qbase64参数: %s", first)
	}

	second := buildURL("port=80", 2)
	if !strings.Contains(second, "&page=2") {
		t.Errorf("第2页URL应包含page参数: %s", second)
	}
}

func TestIsBanPage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want bool
	}{
		{"空响应", "", true},
		{"纯空白", "   \n  ", true},
		{"验证码页面", "<html>please solve the CAPTCHA</html>", true},
		{"错误码标记", "<html>[-3000] error</html>", true},
		{"IP访问异常", "<html>IP访问异常</html>", true},
		{"爬虫拦截", "<html>检测到爬虫</html>", true},
		{"正常页面", "<html><body>results here</body></html>", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isBanPage(tt.body); got != tt.want {
				t.Errorf("isBanPage() = %v, 期望 %v", got, tt.want)
			}
		})
	}
}

func TestParsePageDataPureJSON(t *testing.T) {
	body := `{"code":0,"data":{"assets":[{"link":"https://a.com","host":"a.com"}],"total":1}}`

	data := parsePageData(body)
	if data == nil {
		t.Fatal("纯JSON响应解析失败")
	}

	assets := extractAssets(data)
	if len(assets) != 1 {
		t.Fatalf("提取到 %d 条资产, 期望 1", len(assets))
	}
	if extractTotal(data) != 1 {
		t.Errorf("total = %d, 期望 1", extractTotal(data))
	}
}

func TestParsePageDataInitialState(t *testing.T) {
	body := `<html><head></head><body>
<script>window.__INITIAL_STATE__ = {"data":{"assets":[{"host":"b.com","port":80},{"host":"c.com","port":443}],"total":2}};</script>
</body></html>`

	data := parsePageData(body)
	if data == nil {
		t.Fatal("内嵌状态数据解析失败")
	}

	assets := extractAssets(data)
	if len(assets) != 2 {
		t.Fatalf("提取到 %d 条资产, 期望 2", len(assets))
	}
	if extractTotal(data) != 2 {
		t.Errorf("total = %d, 期望 2", extractTotal(data))
	}
}

func TestParsePageDataAssetScript(t *testing.T) {
	body := `<html><body>
<script>{"results":[{"link":"https://d.com"}]}</script>
</body></html>`

	data := parsePageData(body)
	if data == nil {
		t.Fatal("资产脚本解析失败")
	}
	if assets := extractAssets(data); len(assets) != 1 {
		t.Fatalf("提取到 %d 条资产, 期望 1", len(assets))
	}
}

func TestParsePageDataNoData(t *testing.T) {
	if data := parsePageData("<html><body>nothing</body></html>"); data != nil {
		t.Fatalf("无数据页面应返回nil, 得到 %v", data)
	}
}

func TestExtractAssetsScanFallback(t *testing.T) {
	// 资产数组藏在未知字段名下，靠link/host特征识别
	data := map[string]interface{}{
		"whatever": []interface{}{
			map[string]interface{}{"host": "e.com", "port": float64(80)},
		},
	}

	assets := extractAssets(data)
	if len(assets) != 1 {
		t.Fatalf("兜底扫描提取到 %d 条资产, 期望 1", len(assets))
	}
}
