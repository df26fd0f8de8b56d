package notion

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// 日报页面内按模糊匹配定位的章节名
const (
	kpiSectionName     = "KPI"
	summarySectionName = "總結"
)

// DailySummary 一个日期的合并摘要
// 同一日期的多个页面（如按项目拆分）合并为一条记录
type DailySummary struct {
	Date    string             `json:"date"`
	KPIs    map[string]float64 `json:"kpis,omitempty"`
	Summary string             `json:"summary,omitempty"`
	Pages   int                `json:"pages"`
}

// kpiAccumulator 跨页面累计 KPI：计数类求和，比率类求平均
type kpiAccumulator struct {
	sum   map[string]float64
	count map[string]int
}

func newKPIAccumulator() *kpiAccumulator {
	return &kpiAccumulator{sum: make(map[string]float64), count: make(map[string]int)}
}

func (a *kpiAccumulator) add(kpis map[string]float64) {
	for k, v := range kpis {
		a.sum[k] += v
		a.count[k]++
	}
}

func (a *kpiAccumulator) merged() map[string]float64 {
	if len(a.sum) == 0 {
		return nil
	}
	out := make(map[string]float64, len(a.sum))
	for k, v := range a.sum {
		if isRateField(k) && a.count[k] > 0 {
			out[k] = v / float64(a.count[k])
		} else {
			out[k] = v
		}
	}
	return out
}

// FetchDailySummaries 查询日期范围（含端点）内的日报页面并按日期合并
// 每个页面提取 KPI 章节与总结章节；同日多页面时 KPI 按字段求和/平均，
// 总结拼接并在能从标题解析出项目名时加上项目标题前缀
func (s *SyncClient) FetchDailySummaries(ctx context.Context, databaseID, startDate, endDate string) ([]DailySummary, error) {
	filter := map[string]interface{}{
		"and": []map[string]interface{}{
			{"property": s.props.Date, "date": map[string]interface{}{"on_or_after": startDate}},
			{"property": s.props.Date, "date": map[string]interface{}{"on_or_before": endDate}},
		},
	}
	sorts := []map[string]interface{}{
		{"property": s.props.Date, "direction": "ascending"},
	}

	pages, err := s.QueryDatabase(ctx, databaseID, filter, sorts)
	if err != nil {
		return nil, err
	}

	var order []string
	accums := make(map[string]*kpiAccumulator)
	summaries := make(map[string][]string)
	pageCount := make(map[string]int)

	for i := range pages {
		page := &pages[i]
		date := page.DateOf(s.props.Date)
		if date == "" {
			continue
		}
		if _, seen := accums[date]; !seen {
			order = append(order, date)
			accums[date] = newKPIAccumulator()
		}
		pageCount[date]++

		children, err := s.GetBlockChildren(ctx, page.ID)
		if err != nil {
			return nil, err
		}

		accums[date].add(parseKPIs(ExtractSectionText(children, kpiSectionName)))

		if text := ExtractSectionText(children, summarySectionName); text != "" {
			if project := projectFromTitle(page.TitleText(s.props.Title), date); project != "" {
				text = fmt.Sprintf("### %s\n%s", project, text)
			}
			summaries[date] = append(summaries[date], text)
		}
	}

	result := make([]DailySummary, 0, len(order))
	for _, date := range order {
		result = append(result, DailySummary{
			Date:    date,
			KPIs:    accums[date].merged(),
			Summary: strings.Join(summaries[date], "\n\n"),
			Pages:   pageCount[date],
		})
	}
	return result, nil
}

// DailySummaryUpdate 总结章节更新请求
// PageID 为空时按标题在 DatabaseID 内查找页面
type DailySummaryUpdate struct {
	PageID     string
	DatabaseID string
	Title      string
	Summary    string // Markdown 正文
}

// UpdateDailySummary 定向替换页面的总结章节：
// 模糊匹配现有总结标题，删除该标题到下一个同级或更浅标题之前的全部块，
// 再追加新渲染的总结标题与正文——整页替换策略收窄到单个章节
func (s *SyncClient) UpdateDailySummary(ctx context.Context, upd DailySummaryUpdate) error {
	pageID := upd.PageID
	if pageID == "" {
		if upd.DatabaseID == "" || upd.Title == "" {
			return fmt.Errorf("either page id or database id + title is required")
		}
		filter := map[string]interface{}{
			"property": s.props.Title,
			"title":    map[string]interface{}{"equals": upd.Title},
		}
		pages, err := s.QueryDatabase(ctx, upd.DatabaseID, filter, nil)
		if err != nil {
			return err
		}
		if len(pages) == 0 {
			return fmt.Errorf("%w: daily page %q", ErrNotFound, upd.Title)
		}
		pageID = pages[0].ID
	}

	children, err := s.GetBlockChildren(ctx, pageID)
	if err != nil {
		return err
	}

	if start, end := sectionSpan(children, summarySectionName); start >= 0 {
		for _, b := range children[start:end] {
			if err := s.DeleteBlock(ctx, b.ID); err != nil {
				return err
			}
		}
	}

	blocks := append([]Block{NewHeading(2, summarySectionName)}, MarkdownToBlocks(upd.Summary)...)
	return s.AppendBlocks(ctx, pageID, blocks)
}

// parseKPIs 从章节文本解析 "名称: 数值" 形式的 KPI 行
// 冒号支持半角/全角，行首的列表符自动剥掉，尾部 % 忽略
func parseKPIs(text string) map[string]float64 {
	if text == "" {
		return nil
	}

	kpis := make(map[string]float64)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*• \t")

		idx := strings.IndexAny(line, ":：")
		if idx <= 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		// 全角冒号占 3 字节
		val := strings.TrimSpace(line[idx:])
		val = strings.TrimLeft(val, ":：")
		val = strings.TrimSpace(strings.TrimSuffix(val, "%"))

		if key == "" || val == "" {
			continue
		}
		if num, err := strconv.ParseFloat(val, 64); err == nil {
			kpis[key] = num
		}
	}
	if len(kpis) == 0 {
		return nil
	}
	return kpis
}

// isRateField 比率类字段求平均而非求和
func isRateField(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(name, "率") || strings.Contains(lower, "rate") || strings.Contains(lower, "ratio")
}

// projectFromTitle 从页面标题中剥离日期后提取项目名，解析不出时返回空串
func projectFromTitle(title, date string) string {
	project := strings.ReplaceAll(title, date, "")
	project = strings.Trim(project, " -–|:：[]()")
	return strings.TrimSpace(project)
}
