package notion

import "strings"

// 远端存储对单个富文本段的长度上限（字符数）
const maxRichTextLength = 2000

// RichText 富文本段，超长文本由 NewRichText 切分为多段
type RichText struct {
	Type      string       `json:"type"`
	Text      *TextContent `json:"text,omitempty"`
	PlainText string       `json:"plain_text,omitempty"`
}

// TextContent 富文本段的纯文本内容
type TextContent struct {
	Content string `json:"content"`
}

// Block 内容树中的一个带类型节点
// 写入时总是整体新建，从不原地修改；ID/HasChildren 仅在读取时出现
type Block struct {
	Object string `json:"object,omitempty"`
	ID     string `json:"id,omitempty"`
	Type   string `json:"type"`

	Heading1         *TextBlock          `json:"heading_1,omitempty"`
	Heading2         *TextBlock          `json:"heading_2,omitempty"`
	Heading3         *TextBlock          `json:"heading_3,omitempty"`
	Paragraph        *TextBlock          `json:"paragraph,omitempty"`
	BulletedListItem *TextBlock          `json:"bulleted_list_item,omitempty"`
	NumberedListItem *TextBlock          `json:"numbered_list_item,omitempty"`
	Quote            *TextBlock          `json:"quote,omitempty"`
	Code             *CodeBlock          `json:"code,omitempty"`
	Table            *TableBlock         `json:"table,omitempty"`
	TableRow         *TableRowBlock      `json:"table_row,omitempty"`
	Divider          *struct{}           `json:"divider,omitempty"`
	TableOfContents  *struct{}           `json:"table_of_contents,omitempty"`
	ChildDatabase    *ChildDatabaseBlock `json:"child_database,omitempty"`

	HasChildren bool `json:"has_children,omitempty"`
}

// TextBlock 携带富文本的通用块载荷
type TextBlock struct {
	RichText []RichText `json:"rich_text"`
}

// CodeBlock 代码块载荷
type CodeBlock struct {
	RichText []RichText `json:"rich_text"`
	Language string     `json:"language"`
}

// TableBlock 表格块载荷，子节点为 table_row
type TableBlock struct {
	TableWidth      int     `json:"table_width"`
	HasColumnHeader bool    `json:"has_column_header"`
	HasRowHeader    bool    `json:"has_row_header"`
	Children        []Block `json:"children,omitempty"`
}

// TableRowBlock 表格行载荷，每个单元格是一组富文本段
type TableRowBlock struct {
	Cells [][]RichText `json:"cells"`
}

// ChildDatabase 子数据库块载荷（仅读取时出现）
type ChildDatabaseBlock struct {
	Title string `json:"title"`
}

// NewRichText 构造富文本段列表
// 超过 2000 字符的文本按字符切分为多个连续段
func NewRichText(text string) []RichText {
	if text == "" {
		return []RichText{}
	}

	runes := []rune(text)
	segments := make([]RichText, 0, len(runes)/maxRichTextLength+1)
	for len(runes) > 0 {
		n := len(runes)
		if n > maxRichTextLength {
			n = maxRichTextLength
		}
		segments = append(segments, RichText{
			Type: "text",
			Text: &TextContent{Content: string(runes[:n])},
		})
		runes = runes[n:]
	}
	return segments
}

// NewHeading 构造标题块，层级收敛到 1–3（远端不支持更深层级）
func NewHeading(level int, text string) Block {
	if level < 1 {
		level = 1
	}
	if level > 3 {
		level = 3
	}
	payload := &TextBlock{RichText: NewRichText(text)}
	b := Block{Object: "block"}
	switch level {
	case 1:
		b.Type = "heading_1"
		b.Heading1 = payload
	case 2:
		b.Type = "heading_2"
		b.Heading2 = payload
	default:
		b.Type = "heading_3"
		b.Heading3 = payload
	}
	return b
}

// NewParagraph 构造段落块
func NewParagraph(text string) Block {
	return Block{Object: "block", Type: "paragraph", Paragraph: &TextBlock{RichText: NewRichText(text)}}
}

// NewListItem 构造列表项块，ordered 控制有序/无序
func NewListItem(text string, ordered bool) Block {
	payload := &TextBlock{RichText: NewRichText(text)}
	if ordered {
		return Block{Object: "block", Type: "numbered_list_item", NumberedListItem: payload}
	}
	return Block{Object: "block", Type: "bulleted_list_item", BulletedListItem: payload}
}

// NewCode 构造代码块，language 为空时用通用标记
func NewCode(text, language string) Block {
	if language == "" {
		language = "plain text"
	}
	return Block{Object: "block", Type: "code", Code: &CodeBlock{RichText: NewRichText(text), Language: language}}
}

// NewQuote 构造引用块
func NewQuote(text string) Block {
	return Block{Object: "block", Type: "quote", Quote: &TextBlock{RichText: NewRichText(text)}}
}

// NewDivider 构造分隔线块
func NewDivider() Block {
	return Block{Object: "block", Type: "divider", Divider: &struct{}{}}
}

// NewTableOfContents 构造目录块
func NewTableOfContents() Block {
	return Block{Object: "block", Type: "table_of_contents", TableOfContents: &struct{}{}}
}

// NewTableRow 构造表格行
func NewTableRow(cells []string) Block {
	row := &TableRowBlock{Cells: make([][]RichText, 0, len(cells))}
	for _, cell := range cells {
		row.Cells = append(row.Cells, NewRichText(cell))
	}
	return Block{Object: "block", Type: "table_row", TableRow: row}
}

// NewTable 构造表格块：表头行 + 数据行
func NewTable(header []string, rows [][]string) Block {
	children := make([]Block, 0, len(rows)+1)
	children = append(children, NewTableRow(header))
	for _, row := range rows {
		children = append(children, NewTableRow(row))
	}
	return Block{
		Object: "block",
		Type:   "table",
		Table: &TableBlock{
			TableWidth:      len(header),
			HasColumnHeader: true,
			Children:        children,
		},
	}
}

// PlainText 提取块的全部纯文本（表格按单元格用空格连接）
func (b Block) PlainText() string {
	switch {
	case b.Heading1 != nil:
		return joinRichText(b.Heading1.RichText)
	case b.Heading2 != nil:
		return joinRichText(b.Heading2.RichText)
	case b.Heading3 != nil:
		return joinRichText(b.Heading3.RichText)
	case b.Paragraph != nil:
		return joinRichText(b.Paragraph.RichText)
	case b.BulletedListItem != nil:
		return joinRichText(b.BulletedListItem.RichText)
	case b.NumberedListItem != nil:
		return joinRichText(b.NumberedListItem.RichText)
	case b.Quote != nil:
		return joinRichText(b.Quote.RichText)
	case b.Code != nil:
		return joinRichText(b.Code.RichText)
	case b.TableRow != nil:
		var parts []string
		for _, cell := range b.TableRow.Cells {
			parts = append(parts, joinRichText(cell))
		}
		return strings.Join(parts, " ")
	default:
		return ""
	}
}

// HeadingLevel 返回标题层级（1–3），非标题块返回 0
func (b Block) HeadingLevel() int {
	switch b.Type {
	case "heading_1":
		return 1
	case "heading_2":
		return 2
	case "heading_3":
		return 3
	default:
		return 0
	}
}

func joinRichText(segments []RichText) string {
	var sb strings.Builder
	for _, seg := range segments {
		if seg.Text != nil {
			sb.WriteString(seg.Text.Content)
		} else {
			sb.WriteString(seg.PlainText)
		}
	}
	return sb.String()
}
