package notion

// PropertyMap 逻辑属性名到远端实际字段名的映射
// 同一套逻辑可以跑在不同语言环境的库上
type PropertyMap struct {
	Title string
	Date  string
	Hours string
}

// DefaultPropertyMap 缺省英文字段名
func DefaultPropertyMap() PropertyMap {
	return PropertyMap{Title: "Name", Date: "date", Hours: "hours"}
}

// Page 远端存储中的一个文档（数据库行或独立页面）
type Page struct {
	ID         string                   `json:"id"`
	URL        string                   `json:"url,omitempty"`
	Properties map[string]PropertyValue `json:"properties,omitempty"`
}

// PropertyValue 页面属性值，按类型取对应字段
type PropertyValue struct {
	Type   string     `json:"type,omitempty"`
	Title  []RichText `json:"title,omitempty"`
	Number *float64   `json:"number,omitempty"`
	Date   *DateValue `json:"date,omitempty"`
}

// DateValue 日期属性载荷
type DateValue struct {
	Start string `json:"start"`
}

// TitleText 提取标题属性的纯文本
func (p *Page) TitleText(prop string) string {
	if p == nil {
		return ""
	}
	if v, ok := p.Properties[prop]; ok {
		return joinRichText(v.Title)
	}
	return ""
}

// NumberOf 提取数值属性，缺失或为空时取零
func (p *Page) NumberOf(prop string) float64 {
	if p == nil {
		return 0
	}
	if v, ok := p.Properties[prop]; ok && v.Number != nil {
		return *v.Number
	}
	return 0
}

// DateOf 提取日期属性的起始日期，缺失时为空串
func (p *Page) DateOf(prop string) string {
	if p == nil {
		return ""
	}
	if v, ok := p.Properties[prop]; ok && v.Date != nil {
		return v.Date.Start
	}
	return ""
}
