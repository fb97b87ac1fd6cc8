// Package pdftext 从 PDF 中提取纯文本摘录，供检索与提供方提示使用.
//
// 提取失败不是致命错误：扫描件或加密文件没有文本层，调用方拿到空串继续处理.
package pdftext

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// ErrNotPDF 内容不是 PDF.
var ErrNotPDF = errors.New("pdftext: not a PDF")

var magic = []byte("%PDF-")

// IsPDF 检查文件头魔数.
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(data, magic)
}

// Extract 提取全部页面的文本，空白折叠后截断到 limit 字节，limit<=0 不截断.
func Extract(data []byte, limit int) (text string, err error) {
	if !IsPDF(data) {
		return "", ErrNotPDF
	}

	// 解析器遇到损坏的交叉引用表会 panic
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("pdftext: malformed pdf: %v", r)
		}
	}()

	doc, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("pdftext: open: %w", err)
	}

	var b strings.Builder

	for i := 1; i <= doc.NumPage(); i++ {
		page := doc.Page(i)
		if page.V.IsNull() {
			continue
		}

		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("pdftext: page %d: %w", i, err)
		}

		b.WriteString(content)
		b.WriteByte(' ')

		if limit > 0 && b.Len() > limit*2 {
			break
		}
	}

	return Excerpt(b.String(), limit), nil
}

// Excerpt 折叠空白并在不切断 UTF-8 字符的前提下截断到 limit 字节.
func Excerpt(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	if limit <= 0 || len(s) <= limit {
		return s
	}

	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}

	return s[:cut]
}
