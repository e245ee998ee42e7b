package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestSearchErrorUnwrap(t *testing.T) {
	inner := stderrors.New("connection refused")
	err := NewTransportError("请求失败", inner)

	if !stderrors.Is(err, inner) {
		t.Fatal("SearchError应可解包到内部错误")
	}
	if got := err.Error(); got != "请求失败: connection refused" {
		t.Errorf("Error() = %q", got)
	}
}

func TestIsBan(t *testing.T) {
	ban := NewBanError(-3000, "IP被封禁")
	if !IsBan(ban) {
		t.Error("封禁错误应被识别")
	}
	if IsBan(NewTransportError("超时", nil)) {
		t.Error("网络错误不应被识别为封禁")
	}
	if IsBan(stderrors.New("other")) {
		t.Error("普通错误不应被识别为封禁")
	}

	// 包装后仍可识别
	wrapped := fmt.Errorf("第1页: %w", ban)
	if !IsBan(wrapped) {
		t.Error("包装后的封禁错误应被识别")
	}
}

func TestIsTransport(t *testing.T) {
	if !IsTransport(NewTransportError("超时", nil)) {
		t.Error("网络错误应被识别")
	}
	if IsTransport(NewBanError(-3000, "")) {
		t.Error("封禁错误不应被识别为网络错误")
	}
}
