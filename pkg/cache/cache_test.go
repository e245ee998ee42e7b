package cache

import (
	"testing"
	"time"
)

func TestSetGet(t *testing.T) {
	c := NewCache(time.Minute, 0)
	defer c.Stop()

	c.Set("key", []string{"a", "b"}, 0)

	value, ok := c.Get("key")
	if !ok {
		t.Fatal("刚写入的键应命中")
	}
	if got := value.([]string); len(got) != 2 {
		t.Fatalf("缓存值错误: %v", got)
	}
}

func TestGetMissing(t *testing.T) {
	c := NewCache(time.Minute, 0)
	defer c.Stop()

	if _, ok := c.Get("不存在"); ok {
		t.Fatal("不存在的键不应命中")
	}
}

func TestExpiration(t *testing.T) {
	c := NewCache(time.Minute, 0)
	defer c.Stop()

	c.Set("key", "value", 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	if _, ok := c.Get("key"); ok {
		t.Fatal("过期键不应命中")
	}
}

func TestDeleteAndCount(t *testing.T) {
	c := NewCache(time.Minute, 0)
	defer c.Stop()

	c.Set("a", 1, 0)
	c.Set("b", 2, 0)
	if got := c.Count(); got != 2 {
		t.Fatalf("Count() = %d, 期望 2", got)
	}

	c.Delete("a")
	if got := c.Count(); got != 1 {
		t.Fatalf("删除后 Count() = %d, 期望 1", got)
	}

	c.Clear()
	if got := c.Count(); got != 0 {
		t.Fatalf("清空后 Count() = %d, 期望 0", got)
	}
}

func TestMetrics(t *testing.T) {
	c := NewCache(time.Minute, 0)
	defer c.Stop()

	c.Set("a", 1, 0)
	c.Get("a")
	c.Get("miss")

	metrics := c.GetMetrics()
	if metrics["hits"].(int64) != 1 {
		t.Errorf("hits = %v, 期望 1", metrics["hits"])
	}
	if metrics["misses"].(int64) != 1 {
		t.Errorf("misses = %v, 期望 1", metrics["misses"])
	}
}
