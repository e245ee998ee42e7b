package output

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fofahack/models"
)

func sampleResults() []models.SearchResult {
	return []models.SearchResult{
		{Link: "https://a.com", Host: "a.com", Port: 443, Title: "站点A", IP: "1.1.1.1"},
		{Host: "b.com:8080", Port: 8080, IP: "2.2.2.2"},
	}
}

func TestNewWriterInvalidFormat(t *testing.T) {
	if _, err := NewWriter("out", "xml"); err == nil {
		t.Fatal("非法格式应返回错误")
	}
}

func TestWriteJSON(t *testing.T) {
	name := filepath.Join(t.TempDir(), "results")
	w, err := NewWriter(name, "json")
	if err != nil {
		t.Fatalf("创建输出器失败: %v", err)
	}

	if err := w.Write(sampleResults()); err != nil {
		t.Fatalf("写入失败: %v", err)
	}

	data, err := os.ReadFile(name + ".json")
	if err != nil {
		t.Fatalf("读取输出文件失败: %v", err)
	}

	var parsed []models.SearchResult
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("输出不是合法JSON数组: %v", err)
	}
	if len(parsed) != 2 || parsed[0].Link != "https://a.com" {
		t.Fatalf("JSON内容错误: %+v", parsed)
	}
}

func TestWriteCSV(t *testing.T) {
	name := filepath.Join(t.TempDir(), "results")
	w, err := NewWriter(name, "csv")
	if err != nil {
		t.Fatalf("创建输出器失败: %v", err)
	}

	if err := w.Write(sampleResults()); err != nil {
		t.Fatalf("写入失败: %v", err)
	}

	file, err := os.Open(name + ".csv")
	if err != nil {
		t.Fatalf("读取输出文件失败: %v", err)
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("解析CSV失败: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("CSV行数 = %d, 期望表头加2行", len(rows))
	}
	if rows[0][0] != "link" || rows[0][9] != "mtime" {
		t.Fatalf("表头错误: %v", rows[0])
	}
	if rows[1][0] != "https://a.com" || rows[1][2] != "443" {
		t.Fatalf("数据行错误: %v", rows[1])
	}
}

func TestWriteTXT(t *testing.T) {
	name := filepath.Join(t.TempDir(), "results")
	w, err := NewWriter(name, "txt")
	if err != nil {
		t.Fatalf("创建输出器失败: %v", err)
	}

	if err := w.Write(sampleResults()); err != nil {
		t.Fatalf("写入失败: %v", err)
	}

	data, err := os.ReadFile(name + ".txt")
	if err != nil {
		t.Fatalf("读取输出文件失败: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("TXT行数 = %d, 期望 2", len(lines))
	}
	if lines[0] != "https://a.com" {
		t.Errorf("第1行 = %q", lines[0])
	}
	// link为空时回退host
	if lines[1] != "b.com:8080" {
		t.Errorf("第2行 = %q, 期望回退host", lines[1])
	}
}

func TestWriteEmptyResults(t *testing.T) {
	name := filepath.Join(t.TempDir(), "results")
	w, err := NewWriter(name, "json")
	if err != nil {
		t.Fatalf("创建输出器失败: %v", err)
	}

	if err := w.Write(nil); err != nil {
		t.Fatalf("空结果写入不应报错: %v", err)
	}
	if _, err := os.Stat(name + ".json"); !os.IsNotExist(err) {
		t.Error("空结果不应创建文件")
	}
}
