package notion

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// section.go - 标题模糊匹配与章节提取
// 匹配是尽力而为的启发式：已有文档依赖这种宽松性，不要升级为精确匹配

// normalizeHeading 规范化标题文本用于模糊比较：
// NFKC 归一后仅保留字母/数字（含 CJK），再转小写——emoji 和标点都被剥掉
func normalizeHeading(s string) string {
	s = norm.NFKC.String(s)
	var sb strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(unicode.ToLower(r))
		}
	}
	return sb.String()
}

// headingMatches 双向子串包含的模糊匹配
func headingMatches(heading, target string) bool {
	h := normalizeHeading(heading)
	t := normalizeHeading(target)
	if h == "" || t == "" {
		return false
	}
	return strings.Contains(h, t) || strings.Contains(t, h)
}

// ExtractSectionText 在顶层块列表中查找模糊匹配的标题，
// 收集其后所有块的文本，直到遇到同级或更浅的标题为止
// （更深的标题视为本章节的一部分，其文本一并收入）
// 未找到时返回空串
func ExtractSectionText(blocks []Block, headingName string) string {
	start, level := findSectionHeading(blocks, headingName)
	if start < 0 {
		return ""
	}

	var parts []string
	for _, b := range blocks[start+1:] {
		if lvl := b.HeadingLevel(); lvl > 0 && lvl <= level {
			break
		}
		if text := b.PlainText(); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n")
}

// findSectionHeading 返回命中标题的下标与层级，未命中时 (-1, 0)
func findSectionHeading(blocks []Block, headingName string) (int, int) {
	for i, b := range blocks {
		lvl := b.HeadingLevel()
		if lvl == 0 {
			continue
		}
		if headingMatches(b.PlainText(), headingName) {
			return i, lvl
		}
	}
	return -1, 0
}

// sectionSpan 返回命中章节的 [start, end) 块下标范围（含标题块）
// 供按章节替换使用；未命中时 start = -1
func sectionSpan(blocks []Block, headingName string) (start, end int) {
	start, level := findSectionHeading(blocks, headingName)
	if start < 0 {
		return -1, -1
	}
	end = len(blocks)
	for i := start + 1; i < len(blocks); i++ {
		if lvl := blocks[i].HeadingLevel(); lvl > 0 && lvl <= level {
			end = i
			break
		}
	}
	return start, end
}
