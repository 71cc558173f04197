// Package textutil 提供文档切分等文本处理工具。
package textutil

import (
	"strings"
	"unicode/utf8"
)

// DefaultSeparators 默认分隔符，从大到小：段落、行、单词、字符。
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// RecursiveSplitter 递归字符切分器。
//
// 优先按段落切分，块仍超长时依次退化到换行、空格，最后按字符硬切。
// 相邻块保留 overlap 个字符左右的重叠。长度按 Unicode 字符计。
type RecursiveSplitter struct {
	chunkSize  int
	overlap    int
	separators []string
}

// NewRecursiveSplitter 创建切分器。overlap 不小于 chunkSize 时按 chunkSize-1 处理。
func NewRecursiveSplitter(chunkSize, overlap int) *RecursiveSplitter {
	if chunkSize <= 0 {
		chunkSize = 1
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize - 1
	}
	return &RecursiveSplitter{
		chunkSize:  chunkSize,
		overlap:    overlap,
		separators: DefaultSeparators,
	}
}

// Split 切分文本。空白文本返回 nil。
func (s *RecursiveSplitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return s.split(text, s.separators)
}

func (s *RecursiveSplitter) split(text string, separators []string) []string {
	var final []string

	// 选择文本中出现的第一个分隔符
	separator := separators[len(separators)-1]
	var rest []string
	for i, sep := range separators {
		if sep == "" {
			separator = sep
			break
		}
		if strings.Contains(text, sep) {
			separator = sep
			rest = separators[i+1:]
			break
		}
	}

	var good []string
	for _, piece := range splitOn(text, separator) {
		if utf8.RuneCountInString(piece) < s.chunkSize {
			good = append(good, piece)
			continue
		}
		if len(good) > 0 {
			final = append(final, s.merge(good, separator)...)
			good = nil
		}
		if len(rest) == 0 {
			final = append(final, piece)
		} else {
			final = append(final, s.split(piece, rest)...)
		}
	}
	if len(good) > 0 {
		final = append(final, s.merge(good, separator)...)
	}
	return final
}

// merge 将小片段合并为不超过 chunkSize 的块，并保留尾部重叠。
func (s *RecursiveSplitter) merge(pieces []string, separator string) []string {
	sepLen := utf8.RuneCountInString(separator)

	var (
		chunks  []string
		current []string
		total   int
	)
	joinLen := func(n int) int {
		if len(current) > 0 {
			return total + n + sepLen
		}
		return total + n
	}

	for _, p := range pieces {
		n := utf8.RuneCountInString(p)
		if joinLen(n) > s.chunkSize && len(current) > 0 {
			if c := strings.TrimSpace(strings.Join(current, separator)); c != "" {
				chunks = append(chunks, c)
			}
			for total > s.overlap || (joinLen(n) > s.chunkSize && total > 0) {
				drop := utf8.RuneCountInString(current[0])
				if len(current) > 1 {
					drop += sepLen
				}
				total -= drop
				current = current[1:]
			}
		}
		if len(current) > 0 {
			total += sepLen
		}
		current = append(current, p)
		total += n
	}

	if c := strings.TrimSpace(strings.Join(current, separator)); c != "" {
		chunks = append(chunks, c)
	}
	return chunks
}

// splitOn 按分隔符切分并丢弃空片段；空分隔符按字符切分。
func splitOn(text, separator string) []string {
	if separator == "" {
		out := make([]string, 0, utf8.RuneCountInString(text))
		for _, r := range text {
			out = append(out, string(r))
		}
		return out
	}
	parts := strings.Split(text, separator)
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// TruncateString 截断字符串到指定的最大 Unicode 字符数。
func TruncateString(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen])
}
