package notion

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/houzhh15/devreport/cmd/server/internal/util"
)

// InlineDatabaseTitle 周报页面内联数据库的固定显示标题
const InlineDatabaseTitle = "一周進度"

// appendBatchSize 单次追加子块的远端硬上限
const appendBatchSize = 100

// 远端工具名称
const (
	toolQueryDatabase  = "API-post-database-query"
	toolCreatePage     = "API-post-page"
	toolUpdatePage     = "API-patch-page"
	toolBlockChildren  = "API-get-block-children"
	toolAppendChildren = "API-patch-block-children"
	toolDeleteBlock    = "API-delete-a-block"
	toolCreateDatabase = "API-create-a-database"
)

// SyncClient 报告同步引擎
// 在工具调用传输层之上实现周报页面与日报条目的幂等 upsert
type SyncClient struct {
	tool  ToolClient
	props PropertyMap
}

// NewSyncClient 创建同步引擎
func NewSyncClient(tool ToolClient, props PropertyMap) *SyncClient {
	if props.Title == "" || props.Date == "" || props.Hours == "" {
		def := DefaultPropertyMap()
		if props.Title == "" {
			props.Title = def.Title
		}
		if props.Date == "" {
			props.Date = def.Date
		}
		if props.Hours == "" {
			props.Hours = def.Hours
		}
	}
	return &SyncClient{tool: tool, props: props}
}

// Connect 建立传输会话
func (s *SyncClient) Connect(ctx context.Context) error {
	return s.tool.Connect(ctx)
}

// Close 释放传输会话，所有退出路径都必须调用
func (s *SyncClient) Close() error {
	return s.tool.Close()
}

// Props 返回生效的属性映射
func (s *SyncClient) Props() PropertyMap {
	return s.props
}

// QueryDatabase 按属性过滤查询数据库，透明跟随分页游标取回全部结果
func (s *SyncClient) QueryDatabase(ctx context.Context, databaseID string, filter map[string]interface{}, sorts []map[string]interface{}) ([]Page, error) {
	if databaseID == "" {
		return nil, fmt.Errorf("missing database id")
	}

	var pages []Page
	cursor := ""
	for {
		args := map[string]interface{}{"database_id": databaseID}
		if filter != nil {
			args["filter"] = filter
		}
		if len(sorts) > 0 {
			args["sorts"] = sorts
		}
		if cursor != "" {
			args["start_cursor"] = cursor
		}

		raw, err := s.tool.CallTool(ctx, toolQueryDatabase, args)
		if err != nil {
			return nil, fmt.Errorf("query database %s: %w", databaseID, err)
		}

		var result struct {
			Results    []Page `json:"results"`
			HasMore    bool   `json:"has_more"`
			NextCursor string `json:"next_cursor"`
		}
		if err := json.Unmarshal(raw, &result); err != nil {
			return nil, fmt.Errorf("decode query result: %w", err)
		}

		pages = append(pages, result.Results...)
		if !result.HasMore || result.NextCursor == "" {
			break
		}
		cursor = result.NextCursor
	}
	return pages, nil
}

// FindWeeklyPage 按标题精确匹配查找周报页面，不存在时返回 nil
func (s *SyncClient) FindWeeklyPage(ctx context.Context, databaseID string, week util.WeekRange) (*Page, error) {
	filter := map[string]interface{}{
		"property": s.props.Title,
		"title":    map[string]interface{}{"equals": week.Title()},
	}
	pages, err := s.QueryDatabase(ctx, databaseID, filter, nil)
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, nil
	}
	return &pages[0], nil
}

// CreateWeeklyPage 创建周报页面并配置其内联数据库
func (s *SyncClient) CreateWeeklyPage(ctx context.Context, databaseID string, week util.WeekRange) (*Page, error) {
	args := map[string]interface{}{
		"parent": map[string]interface{}{"database_id": databaseID},
		"properties": map[string]interface{}{
			s.props.Title: map[string]interface{}{
				"title": []map[string]interface{}{
					{"text": map[string]interface{}{"content": week.Title()}},
				},
			},
			s.props.Hours: map[string]interface{}{"number": 0},
		},
	}

	raw, err := s.tool.CallTool(ctx, toolCreatePage, args)
	if err != nil {
		return nil, fmt.Errorf("create weekly page %s: %w", week.Title(), err)
	}

	var page Page
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, fmt.Errorf("decode created page: %w", err)
	}

	if _, err := s.CreateInlineDatabase(ctx, page.ID); err != nil {
		return nil, err
	}
	return &page, nil
}

// UpsertWeeklyPage 按标题查找或创建周报页面
// content 非空时：已有页面整体替换正文，新页面直接追加
func (s *SyncClient) UpsertWeeklyPage(ctx context.Context, databaseID string, week util.WeekRange, content []Block) (page *Page, created bool, err error) {
	page, err = s.FindWeeklyPage(ctx, databaseID, week)
	if err != nil {
		return nil, false, err
	}

	if page != nil {
		if content != nil {
			if err := s.ReplacePageBlocks(ctx, page.ID, content); err != nil {
				return nil, false, err
			}
		}
		return page, false, nil
	}

	page, err = s.CreateWeeklyPage(ctx, databaseID, week)
	if err != nil {
		return nil, false, err
	}
	if len(content) > 0 {
		if err := s.AppendBlocks(ctx, page.ID, content); err != nil {
			return nil, false, err
		}
	}
	return page, true, nil
}

// CreateInlineDatabase 在页面下创建保存日报条目的内联数据库
func (s *SyncClient) CreateInlineDatabase(ctx context.Context, pageID string) (string, error) {
	args := map[string]interface{}{
		"parent": map[string]interface{}{"type": "page_id", "page_id": pageID},
		"title": []map[string]interface{}{
			{"text": map[string]interface{}{"content": InlineDatabaseTitle}},
		},
		"properties": map[string]interface{}{
			s.props.Title: map[string]interface{}{"title": map[string]interface{}{}},
			s.props.Date:  map[string]interface{}{"date": map[string]interface{}{}},
			s.props.Hours: map[string]interface{}{"number": map[string]interface{}{}},
		},
	}

	raw, err := s.tool.CallTool(ctx, toolCreateDatabase, args)
	if err != nil {
		return "", fmt.Errorf("create inline database under %s: %w", pageID, err)
	}

	var db struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &db); err != nil {
		return "", fmt.Errorf("decode created database: %w", err)
	}
	return db.ID, nil
}

// FindInlineDatabase 在页面子块中按标题定位内联数据库，不存在时返回空串
func (s *SyncClient) FindInlineDatabase(ctx context.Context, pageID, title string) (string, error) {
	children, err := s.GetBlockChildren(ctx, pageID)
	if err != nil {
		return "", err
	}
	for _, child := range children {
		if child.Type == "child_database" && child.ChildDatabase != nil && child.ChildDatabase.Title == title {
			return child.ID, nil
		}
	}
	return "", nil
}

// DailyEntryInput 新建日报条目的输入
type DailyEntryInput struct {
	Date    string
	Hours   float64
	Content []Block
}

// DailyEntryPatch 更新日报条目的输入，两个字段都可省略
type DailyEntryPatch struct {
	Hours   *float64
	Content []Block
}

// FindDailyEntry 按日期精确匹配查找日报条目，不存在时返回 nil
// 创建前先查找，保证每个日期至多一行
func (s *SyncClient) FindDailyEntry(ctx context.Context, databaseID, date string) (*Page, error) {
	filter := map[string]interface{}{
		"property": s.props.Date,
		"date":     map[string]interface{}{"equals": date},
	}
	pages, err := s.QueryDatabase(ctx, databaseID, filter, nil)
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, nil
	}
	return &pages[0], nil
}

// CreateDailyEntry 创建日报条目：标题=日期、数值工时、日期属性，外加正文块
func (s *SyncClient) CreateDailyEntry(ctx context.Context, databaseID string, entry DailyEntryInput) (*Page, error) {
	first := entry.Content
	var rest []Block
	if len(first) > appendBatchSize {
		first, rest = first[:appendBatchSize], first[appendBatchSize:]
	}

	args := map[string]interface{}{
		"parent": map[string]interface{}{"database_id": databaseID},
		"properties": map[string]interface{}{
			s.props.Title: map[string]interface{}{
				"title": []map[string]interface{}{
					{"text": map[string]interface{}{"content": entry.Date}},
				},
			},
			s.props.Hours: map[string]interface{}{"number": entry.Hours},
			s.props.Date: map[string]interface{}{
				"date": map[string]interface{}{"start": entry.Date},
			},
		},
	}
	if len(first) > 0 {
		args["children"] = first
	}

	raw, err := s.tool.CallTool(ctx, toolCreatePage, args)
	if err != nil {
		return nil, fmt.Errorf("create daily entry %s: %w", entry.Date, err)
	}

	var page Page
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, fmt.Errorf("decode created entry: %w", err)
	}

	if len(rest) > 0 {
		if err := s.AppendBlocks(ctx, page.ID, rest); err != nil {
			return nil, err
		}
	}
	return &page, nil
}

// UpdateDailyEntry 更新日报条目：独立地修改工时属性和/或整体替换正文
func (s *SyncClient) UpdateDailyEntry(ctx context.Context, pageID string, patch DailyEntryPatch) error {
	if patch.Hours != nil {
		if err := s.SetPageHours(ctx, pageID, *patch.Hours); err != nil {
			return err
		}
	}
	if patch.Content != nil {
		if err := s.ReplacePageBlocks(ctx, pageID, patch.Content); err != nil {
			return err
		}
	}
	return nil
}

// SetPageHours 写入页面的数值工时属性
func (s *SyncClient) SetPageHours(ctx context.Context, pageID string, hours float64) error {
	args := map[string]interface{}{
		"page_id": pageID,
		"properties": map[string]interface{}{
			s.props.Hours: map[string]interface{}{"number": hours},
		},
	}
	if _, err := s.tool.CallTool(ctx, toolUpdatePage, args); err != nil {
		return fmt.Errorf("update hours of page %s: %w", pageID, err)
	}
	return nil
}

// CalculateWeeklyTotalHours 汇总内联数据库全部行的工时
// 总是从头重算而非增量累加，缺失值按零处理；重复运行可自愈
func (s *SyncClient) CalculateWeeklyTotalHours(ctx context.Context, databaseID string) (float64, error) {
	pages, err := s.QueryDatabase(ctx, databaseID, nil, nil)
	if err != nil {
		return 0, err
	}

	var total float64
	for i := range pages {
		total += pages[i].NumberOf(s.props.Hours)
	}
	return roundTo1(total), nil
}

// GetBlockChildren 取回块的全部子块，透明跟随分页游标
func (s *SyncClient) GetBlockChildren(ctx context.Context, blockID string) ([]Block, error) {
	var blocks []Block
	cursor := ""
	for {
		args := map[string]interface{}{"block_id": blockID}
		if cursor != "" {
			args["start_cursor"] = cursor
		}

		raw, err := s.tool.CallTool(ctx, toolBlockChildren, args)
		if err != nil {
			return nil, fmt.Errorf("list children of %s: %w", blockID, err)
		}

		var result struct {
			Results    []Block `json:"results"`
			HasMore    bool    `json:"has_more"`
			NextCursor string  `json:"next_cursor"`
		}
		if err := json.Unmarshal(raw, &result); err != nil {
			return nil, fmt.Errorf("decode children of %s: %w", blockID, err)
		}

		blocks = append(blocks, result.Results...)
		if !result.HasMore || result.NextCursor == "" {
			break
		}
		cursor = result.NextCursor
	}
	return blocks, nil
}

// ReplacePageBlocks 整体替换页面正文：
// 先分页取回全部现有子块，逐个删除，再按批（≤100）追加新块并保持输入顺序。
// 远端没有 diff/patch 接口，删全再写是最简单的正确做法，多付出的往返换来幂等性。
func (s *SyncClient) ReplacePageBlocks(ctx context.Context, pageID string, blocks []Block) error {
	existing, err := s.GetBlockChildren(ctx, pageID)
	if err != nil {
		return err
	}

	for _, child := range existing {
		if err := s.DeleteBlock(ctx, child.ID); err != nil {
			return err
		}
	}

	return s.AppendBlocks(ctx, pageID, blocks)
}

// AppendBlocks 按批追加子块，每批不超过远端上限
func (s *SyncClient) AppendBlocks(ctx context.Context, pageID string, blocks []Block) error {
	for start := 0; start < len(blocks); start += appendBatchSize {
		end := start + appendBatchSize
		if end > len(blocks) {
			end = len(blocks)
		}

		args := map[string]interface{}{
			"block_id": pageID,
			"children": blocks[start:end],
		}
		if _, err := s.tool.CallTool(ctx, toolAppendChildren, args); err != nil {
			return fmt.Errorf("append blocks to %s: %w", pageID, err)
		}
	}
	return nil
}

// DeleteBlock 删除单个块
func (s *SyncClient) DeleteBlock(ctx context.Context, blockID string) error {
	args := map[string]interface{}{"block_id": blockID}
	if _, err := s.tool.CallTool(ctx, toolDeleteBlock, args); err != nil {
		return fmt.Errorf("delete block %s: %w", blockID, err)
	}
	return nil
}

func roundTo1(v float64) float64 {
	return math.Round(v*10) / 10
}
