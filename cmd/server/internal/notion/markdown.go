package notion

import (
	"regexp"
	"strings"
)

// markdown.go - Markdown 到块树的转换
// 按行解析，逐种记号映射到一种块构造规则；不保留行内格式（加粗/斜体/链接），
// 统一拍平为纯文本后再写入富文本段

var (
	headingRe    = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)
	bulletRe     = regexp.MustCompile(`^\s*[-*+]\s+(.*)$`)
	numberedRe   = regexp.MustCompile(`^\s*\d+[.)]\s+(.*)$`)
	dividerRe    = regexp.MustCompile(`^\s*(?:(?:-\s*){3,}|(?:\*\s*){3,}|(?:_\s*){3,})$`)
	fenceRe      = regexp.MustCompile("^```\\s*(\\S*)\\s*$")
	tableRowRe   = regexp.MustCompile(`^\s*\|.*\|\s*$`)
	tableSepRe   = regexp.MustCompile(`^\s*\|?(\s*:?-+:?\s*\|)*\s*:?-+:?\s*\|?\s*$`)
	inlineCodeRe = regexp.MustCompile("`([^`]*)`")
	imageRe      = regexp.MustCompile(`!\[([^\]]*)\]\(([^)]*)\)`)
	linkRe       = regexp.MustCompile(`\[([^\]]*)\]\(([^)]*)\)`)
	boldRe       = regexp.MustCompile(`\*\*([^*]+)\*\*|__([^_]+)__`)
	emphasisRe   = regexp.MustCompile(`\*([^*]+)\*|_([^_]+)_`)
)

// MarkdownToBlocks 将 Markdown 文本转换为块树
// 全函数：格式良好的输入不会失败，无法识别的内容降级为段落而不是丢弃
func MarkdownToBlocks(markdown string) []Block {
	var blocks []Block
	lines := strings.Split(markdown, "\n")

	var paragraph []string
	flushParagraph := func() {
		if len(paragraph) == 0 {
			return
		}
		text := stripInline(strings.Join(paragraph, " "))
		paragraph = paragraph[:0]
		if text == "" {
			return
		}
		// [TOC] 段落是生成目录块的约定写法
		if strings.EqualFold(strings.TrimSpace(text), "[TOC]") {
			blocks = append(blocks, NewTableOfContents())
			return
		}
		blocks = append(blocks, NewParagraph(text))
	}

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		trimmed := strings.TrimSpace(line)

		// 代码块边界：收集到闭合围栏为止，原文不做行内处理
		if m := fenceRe.FindStringSubmatch(trimmed); m != nil {
			flushParagraph()
			language := m[1]
			var codeLines []string
			i++
			for ; i < len(lines); i++ {
				if fenceRe.MatchString(strings.TrimSpace(lines[i])) {
					break
				}
				codeLines = append(codeLines, lines[i])
			}
			blocks = append(blocks, NewCode(strings.Join(codeLines, "\n"), language))
			continue
		}

		if trimmed == "" {
			flushParagraph()
			continue
		}

		if m := headingRe.FindStringSubmatch(trimmed); m != nil {
			flushParagraph()
			blocks = append(blocks, NewHeading(len(m[1]), stripInline(m[2])))
			continue
		}

		if dividerRe.MatchString(trimmed) {
			flushParagraph()
			blocks = append(blocks, NewDivider())
			continue
		}

		// 引用：连续的 > 行拍平为一个引用块
		if strings.HasPrefix(trimmed, ">") {
			flushParagraph()
			var quoteLines []string
			for ; i < len(lines); i++ {
				t := strings.TrimSpace(lines[i])
				if !strings.HasPrefix(t, ">") {
					i--
					break
				}
				quoteLines = append(quoteLines, strings.TrimSpace(strings.TrimPrefix(t, ">")))
			}
			blocks = append(blocks, NewQuote(stripInline(strings.Join(quoteLines, " "))))
			continue
		}

		// 表格：表头行 + 分隔行开启表格解析
		if tableRowRe.MatchString(line) && i+1 < len(lines) && tableSepRe.MatchString(lines[i+1]) {
			flushParagraph()
			header := parseTableCells(line)
			var rows [][]string
			i += 2
			for ; i < len(lines); i++ {
				if !tableRowRe.MatchString(lines[i]) {
					i--
					break
				}
				row := parseTableCells(lines[i])
				// 行宽与表头对齐：截断或补空
				for len(row) < len(header) {
					row = append(row, "")
				}
				rows = append(rows, row[:len(header)])
			}
			blocks = append(blocks, NewTable(header, rows))
			continue
		}

		if m := numberedRe.FindStringSubmatch(line); m != nil {
			flushParagraph()
			blocks = append(blocks, NewListItem(stripInline(m[1]), true))
			continue
		}
		if m := bulletRe.FindStringSubmatch(line); m != nil {
			flushParagraph()
			blocks = append(blocks, NewListItem(stripInline(m[1]), false))
			continue
		}

		paragraph = append(paragraph, trimmed)
	}
	flushParagraph()

	return blocks
}

// stripInline 去掉（不翻译）行内强调/代码/链接标记，保留纯文本
func stripInline(text string) string {
	text = imageRe.ReplaceAllString(text, "$1")
	text = linkRe.ReplaceAllString(text, "$1")
	text = inlineCodeRe.ReplaceAllString(text, "$1")
	text = boldRe.ReplaceAllString(text, "$1$2")
	text = emphasisRe.ReplaceAllString(text, "$1$2")
	return strings.TrimSpace(text)
}

func parseTableCells(line string) []string {
	trimmed := strings.TrimSpace(line)
	trimmed = strings.TrimPrefix(trimmed, "|")
	trimmed = strings.TrimSuffix(trimmed, "|")

	parts := strings.Split(trimmed, "|")
	cells := make([]string, 0, len(parts))
	for _, p := range parts {
		cells = append(cells, stripInline(p))
	}
	return cells
}
