// Package docutil 从上传文件或网页中提取纯文本。
package docutil

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"golang.org/x/net/html/charset"
)

// ErrEmptyText 表示提取结果去除空白后为空。
var ErrEmptyText = errors.New("extracted text is empty")

// Format 文档格式。
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatText Format = "text"
)

// DetectFormat 按扩展名（不区分大小写）判断格式，未知扩展名按文本处理。
func DetectFormat(filename string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return FormatPDF
	case ".docx":
		return FormatDOCX
	default:
		return FormatText
	}
}

// ExtractText 按文件名分派提取文本。
// 解析失败返回解析错误；提取结果为空返回 ErrEmptyText。
func ExtractText(filename string, data []byte) (string, error) {
	var (
		text string
		err  error
	)
	switch DetectFormat(filename) {
	case FormatPDF:
		text, err = extractPDF(data)
	case FormatDOCX:
		text, err = extractDOCX(data)
	default:
		text = decodeText(data)
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}
	return text, nil
}

// extractPDF 逐页提取文本并直接拼接。
func extractPDF(data []byte) (text string, err error) {
	// ledongthuc/pdf 遇到损坏文件会 panic
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("parse pdf: %w", err)
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			// 跳过无法解析的页面
			continue
		}
		b.WriteString(pageText)
	}
	return b.String(), nil
}

// decodeText 探测编码后解码为 UTF-8。探测或解码失败时按 UTF-8 处理。
func decodeText(data []byte) string {
	if utf8.Valid(data) {
		return string(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")))
	}
	enc, _, _ := charset.DetermineEncoding(data, "text/plain")
	if enc != nil {
		if decoded, err := enc.NewDecoder().Bytes(data); err == nil {
			return string(decoded)
		}
	}
	return strings.ToValidUTF8(string(data), "�")
}
