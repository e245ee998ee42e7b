package config

import (
	"testing"
	"time"

	"fofahack/pkg/constants"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg, err := NewConfig()
	if err != nil {
		t.Fatalf("加载默认配置失败: %v", err)
	}

	if cfg.EndCount() != constants.DefaultEndCount {
		t.Errorf("EndCount = %d, 期望 %d", cfg.EndCount(), constants.DefaultEndCount)
	}
	if cfg.MaxPages() != constants.DefaultMaxPages {
		t.Errorf("MaxPages = %d, 期望 %d", cfg.MaxPages(), constants.DefaultMaxPages)
	}
	if !cfg.UseProxy() {
		t.Error("默认应启用代理收集")
	}
	if !cfg.AllowDirect() {
		t.Error("默认应允许直连")
	}
	if cfg.Output.Format != constants.FormatJSON {
		t.Errorf("默认输出格式 = %s", cfg.Output.Format)
	}
}

func TestNewConfigEnvOverrides(t *testing.T) {
	t.Setenv("END_COUNT", "50")
	t.Setenv("USE_PROXY", "false")
	t.Setenv("TIME_SLEEP", "2s")
	t.Setenv("OUTPUT_FORMAT", "CSV")
	t.Setenv("PROXIES", "http://a:1, http://b:2 ,")

	cfg, err := NewConfig()
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}

	if cfg.EndCount() != 50 {
		t.Errorf("EndCount = %d, 期望 50", cfg.EndCount())
	}
	if cfg.UseProxy() {
		t.Error("USE_PROXY=false 应禁用代理")
	}
	if cfg.TimeSleep() != 2*time.Second {
		t.Errorf("TimeSleep = %v, 期望 2s", cfg.TimeSleep())
	}
	if cfg.Output.Format != "csv" {
		t.Errorf("格式应转小写, 得到 %s", cfg.Output.Format)
	}
	if len(cfg.Proxy.Manual) != 2 {
		t.Fatalf("手动代理数 = %d, 期望 2", len(cfg.Proxy.Manual))
	}
	if cfg.Proxy.Manual[1] != "http://b:2" {
		t.Errorf("手动代理应去除空白: %q", cfg.Proxy.Manual[1])
	}
}

func TestNewConfigInvalidFormat(t *testing.T) {
	t.Setenv("OUTPUT_FORMAT", "xml")

	if _, err := NewConfig(); err == nil {
		t.Fatal("非法输出格式应返回错误")
	}
}

func TestNewConfigInvalidEndCount(t *testing.T) {
	t.Setenv("END_COUNT", "0")

	if _, err := NewConfig(); err == nil {
		t.Fatal("END_COUNT=0 应验证失败")
	}
}
