package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"fofahack/log"
	"fofahack/models"
	"fofahack/pkg/constants"
	apperrors "fofahack/pkg/errors"
)

// csvHeader CSV表头，与SearchResult字段顺序一致
var csvHeader = []string{
	"link", "host", "port", "title", "ip",
	"city", "asn", "organization", "server", "mtime",
}

// Writer 搜索结果输出器
type Writer struct {
	name   string
	format string
}

// NewWriter 创建输出器，name不含扩展名
func NewWriter(name, format string) (*Writer, error) {
	format = strings.ToLower(format)
	switch format {
	case constants.FormatJSON, constants.FormatCSV, constants.FormatTXT:
	default:
		return nil, fmt.Errorf("%w: %s", apperrors.ErrInvalidFormat, format)
	}

	if name == "" {
		name = constants.DefaultOutputName
	}

	return &Writer{name: name, format: format}, nil
}

// Path 返回输出文件完整路径
func (w *Writer) Path() string {
	return fmt.Sprintf("%s.%s", w.name, w.format)
}

// Write 将结果写入文件
func (w *Writer) Write(results []models.SearchResult) error {
	if len(results) == 0 {
		log.Warn("没有结果可写入")
		return nil
	}

	var err error
	switch w.format {
	case constants.FormatJSON:
		err = w.writeJSON(results)
	case constants.FormatCSV:
		err = w.writeCSV(results)
	case constants.FormatTXT:
		err = w.writeTXT(results)
	}
	if err != nil {
		return err
	}

	log.Info("结果已保存到: %s", w.Path())
	return nil
}

// writeJSON 写入JSON数组
func (w *Writer) writeJSON(results []models.SearchResult) error {
	file, err := os.Create(w.Path())
	if err != nil {
		return fmt.Errorf("创建输出文件失败: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(results); err != nil {
		return fmt.Errorf("写入JSON失败: %w", err)
	}
	return nil
}

// writeCSV 写入CSV，表头加数据行
func (w *Writer) writeCSV(results []models.SearchResult) error {
	file, err := os.Create(w.Path())
	if err != nil {
		return fmt.Errorf("创建输出文件失败: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("写入CSV表头失败: %w", err)
	}
	for i := range results {
		if err := writer.Write(results[i].ToCSVRow()); err != nil {
			return fmt.Errorf("写入CSV行失败: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// writeTXT 写入换行分隔文本，link为空时回退host
func (w *Writer) writeTXT(results []models.SearchResult) error {
	file, err := os.Create(w.Path())
	if err != nil {
		return fmt.Errorf("创建输出文件失败: %w", err)
	}
	defer file.Close()

	for i := range results {
		if _, err := fmt.Fprintln(file, results[i].ToTxt()); err != nil {
			return fmt.Errorf("写入TXT失败: %w", err)
		}
	}
	return nil
}
