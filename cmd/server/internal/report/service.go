package report

import (
	"context"
	"errors"
	"fmt"

	"github.com/houzhh15/devreport/cmd/server/internal/estimate"
	"github.com/houzhh15/devreport/cmd/server/internal/gitlog"
	"github.com/houzhh15/devreport/cmd/server/internal/notion"
	"github.com/houzhh15/devreport/cmd/server/internal/util"
	"github.com/houzhh15/devreport/pkg/logger"
	"github.com/houzhh15/devreport/pkg/metrics"
)

// ErrValidation 输入校验失败，在任何远端调用发生之前返回
var ErrValidation = errors.New("validation failed")

// Sync 编排层依赖的同步引擎操作面，由 *notion.SyncClient 实现
type Sync interface {
	Connect(ctx context.Context) error
	Close() error
	UpsertWeeklyPage(ctx context.Context, databaseID string, week util.WeekRange, content []notion.Block) (*notion.Page, bool, error)
	FindInlineDatabase(ctx context.Context, pageID, title string) (string, error)
	CreateInlineDatabase(ctx context.Context, pageID string) (string, error)
	FindDailyEntry(ctx context.Context, databaseID, date string) (*notion.Page, error)
	CreateDailyEntry(ctx context.Context, databaseID string, entry notion.DailyEntryInput) (*notion.Page, error)
	UpdateDailyEntry(ctx context.Context, pageID string, patch notion.DailyEntryPatch) error
	CalculateWeeklyTotalHours(ctx context.Context, databaseID string) (float64, error)
	SetPageHours(ctx context.Context, pageID string, hours float64) error
	FetchDailySummaries(ctx context.Context, databaseID, startDate, endDate string) ([]notion.DailySummary, error)
}

// Analyzer 提交历史来源，由 *gitlog.Analyzer 实现
type Analyzer interface {
	AnalyzeRange(ctx context.Context, revRange, author string) ([]gitlog.ChangeRecord, error)
}

// Config 编排层需要的目标库标识
type Config struct {
	WeeklyDatabaseID string // 周报页面所在数据库
	DailyDatabaseID  string // 独立日报页面所在数据库（摘要查询用）
}

// Service 报告编排
// 每次调用独立建立并释放传输会话，重复调用幂等
type Service struct {
	cfg  Config
	sync Sync
	git  Analyzer
}

func NewService(cfg Config, sync Sync, git Analyzer) *Service {
	return &Service{cfg: cfg, sync: sync, git: git}
}

// WeeklyReportResult createWeeklyReport 的结果
type WeeklyReportResult struct {
	PageID  string `json:"page_id"`
	URL     string `json:"url"`
	Title   string `json:"title"`
	Created bool   `json:"created"`
}

// DailyEntryOptions createDailyEntry 的输入
// CommitRange 省略时条目按零工时创建，正文为显式的无提交记录说明
type DailyEntryOptions struct {
	Date        string
	CommitRange string
	Author      string
}

// DailyEntryResult createDailyEntry 的结果
type DailyEntryResult struct {
	PageID      string  `json:"page_id"`
	URL         string  `json:"url"`
	Date        string  `json:"date"`
	Hours       float64 `json:"hours"`
	CommitCount int     `json:"commit_count"`
	IsUpdate    bool    `json:"is_update"`
	WeeklyTotal float64 `json:"weekly_total"`
}

// CreateWeeklyReport 查找或创建目标周的周报页面
// weekStart 为空时取当前日历周
func (s *Service) CreateWeeklyReport(ctx context.Context, weekStart string) (*WeeklyReportResult, error) {
	week, err := s.resolveWeek(weekStart)
	if err != nil {
		return nil, err
	}
	if s.cfg.WeeklyDatabaseID == "" {
		return nil, fmt.Errorf("%w: weekly database id is not configured", ErrValidation)
	}

	if err := s.sync.Connect(ctx); err != nil {
		return nil, err
	}
	defer s.sync.Close()

	page, created, err := s.sync.UpsertWeeklyPage(ctx, s.cfg.WeeklyDatabaseID, week, nil)
	if err != nil {
		metrics.RecordReportRun("weekly", "failed")
		return nil, err
	}

	metrics.RecordReportRun("weekly", "success")
	logger.L().Info("weekly report ready",
		"week", week.Title(), "page_id", page.ID, "created", created)

	return &WeeklyReportResult{
		PageID:  page.ID,
		URL:     page.URL,
		Title:   week.Title(),
		Created: created,
	}, nil
}

// CreateDailyEntry 创建或更新指定日期的日报条目并回写周总工时
// 步骤顺序固定：周报页面 → 内联数据库 → 日报条目 → 周总工时；
// 任何一步失败即中止并把错误传给调用方，后续运行从头重算可自愈
func (s *Service) CreateDailyEntry(ctx context.Context, opts DailyEntryOptions) (*DailyEntryResult, error) {
	if err := util.ValidateDate(opts.Date); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if opts.CommitRange != "" {
		if err := gitlog.ValidateRange(opts.CommitRange); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
	}
	if s.cfg.WeeklyDatabaseID == "" {
		return nil, fmt.Errorf("%w: weekly database id is not configured", ErrValidation)
	}

	week, err := util.GetWeekRange(opts.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	// 本地分析先于任何远端调用
	var (
		records   []gitlog.ChangeRecord
		estimates []estimate.HourEstimate
		hours     float64
	)
	if opts.CommitRange != "" {
		records, err = s.git.AnalyzeRange(ctx, opts.CommitRange, opts.Author)
		if err != nil {
			return nil, err
		}
		estimates, hours = estimate.EstimateAll(records)
	}
	body := renderDailyMarkdown(estimate.ExtractWorkItems(records), estimates)
	blocks := notion.MarkdownToBlocks(body)

	if err := s.sync.Connect(ctx); err != nil {
		return nil, err
	}
	defer s.sync.Close()

	result, err := s.writeDailyEntry(ctx, week, opts.Date, hours, len(records), blocks)
	if err != nil {
		metrics.RecordReportRun("daily", "failed")
		return nil, err
	}
	metrics.RecordReportRun("daily", "success")
	return result, nil
}

func (s *Service) writeDailyEntry(ctx context.Context, week util.WeekRange, date string, hours float64, commits int, blocks []notion.Block) (*DailyEntryResult, error) {
	weekPage, _, err := s.sync.UpsertWeeklyPage(ctx, s.cfg.WeeklyDatabaseID, week, nil)
	if err != nil {
		return nil, err
	}

	inlineDB, err := s.sync.FindInlineDatabase(ctx, weekPage.ID, notion.InlineDatabaseTitle)
	if err != nil {
		return nil, err
	}
	if inlineDB == "" {
		// 历史页面可能缺内联数据库，补建
		inlineDB, err = s.sync.CreateInlineDatabase(ctx, weekPage.ID)
		if err != nil {
			return nil, err
		}
	}

	existing, err := s.sync.FindDailyEntry(ctx, inlineDB, date)
	if err != nil {
		return nil, err
	}

	var entryPage *notion.Page
	isUpdate := existing != nil
	if isUpdate {
		patch := notion.DailyEntryPatch{Hours: &hours, Content: blocks}
		if err := s.sync.UpdateDailyEntry(ctx, existing.ID, patch); err != nil {
			return nil, err
		}
		entryPage = existing
	} else {
		entryPage, err = s.sync.CreateDailyEntry(ctx, inlineDB, notion.DailyEntryInput{
			Date: date, Hours: hours, Content: blocks,
		})
		if err != nil {
			return nil, err
		}
	}

	// 周总工时总是从内联数据库全量重算后回写
	total, err := s.sync.CalculateWeeklyTotalHours(ctx, inlineDB)
	if err != nil {
		return nil, err
	}
	if err := s.sync.SetPageHours(ctx, weekPage.ID, total); err != nil {
		return nil, err
	}

	logger.L().Info("daily entry written",
		"date", date, "hours", hours, "commits", commits,
		"is_update", isUpdate, "weekly_total", total)

	return &DailyEntryResult{
		PageID:      entryPage.ID,
		URL:         entryPage.URL,
		Date:        date,
		Hours:       hours,
		CommitCount: commits,
		IsUpdate:    isUpdate,
		WeeklyTotal: total,
	}, nil
}

// FetchSummaries 查询日期范围内按日合并的日报摘要
func (s *Service) FetchSummaries(ctx context.Context, startDate, endDate string) ([]notion.DailySummary, error) {
	if err := util.ValidateDate(startDate); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := util.ValidateDate(endDate); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if endDate < startDate {
		return nil, fmt.Errorf("%w: end date %s is before start date %s", ErrValidation, endDate, startDate)
	}
	if s.cfg.DailyDatabaseID == "" {
		return nil, fmt.Errorf("%w: daily database id is not configured", ErrValidation)
	}

	if err := s.sync.Connect(ctx); err != nil {
		return nil, err
	}
	defer s.sync.Close()

	return s.sync.FetchDailySummaries(ctx, s.cfg.DailyDatabaseID, startDate, endDate)
}

func (s *Service) resolveWeek(weekStart string) (util.WeekRange, error) {
	if weekStart == "" {
		return util.CurrentWeekRange(), nil
	}
	week, err := util.GetWeekRange(weekStart)
	if err != nil {
		return util.WeekRange{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return week, nil
}
