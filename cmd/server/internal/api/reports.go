package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/houzhh15/devreport/cmd/server/internal/notion"
	"github.com/houzhh15/devreport/cmd/server/internal/report"
)

// ReportService 报告编排操作面，由 *report.Service 实现
type ReportService interface {
	CreateWeeklyReport(ctx context.Context, weekStart string) (*report.WeeklyReportResult, error)
	CreateDailyEntry(ctx context.Context, opts report.DailyEntryOptions) (*report.DailyEntryResult, error)
	FetchSummaries(ctx context.Context, startDate, endDate string) ([]notion.DailySummary, error)
}

// ReportHandler 报告相关的 HTTP 端点
type ReportHandler struct {
	svc ReportService
}

func NewReportHandler(svc ReportService) *ReportHandler {
	return &ReportHandler{svc: svc}
}

// RegisterRoutes 注册报告路由
func (h *ReportHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/reports/weekly", h.CreateWeekly)
	r.POST("/reports/daily", h.CreateDaily)
	r.GET("/reports/summaries", h.GetSummaries)
}

type createWeeklyRequest struct {
	WeekStart string `json:"week_start"`
}

// CreateWeekly POST /api/v1/reports/weekly
func (h *ReportHandler) CreateWeekly(c *gin.Context) {
	var req createWeeklyRequest
	// 请求体可以完全省略（取当前周）
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequestResponse(c, "invalid request body: "+err.Error())
			return
		}
	}

	result, err := h.svc.CreateWeeklyReport(c.Request.Context(), req.WeekStart)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	successResponse(c, result)
}

type createDailyRequest struct {
	Date        string `json:"date" binding:"required"`
	CommitRange string `json:"commit_range"`
	Author      string `json:"author"`
}

// CreateDaily POST /api/v1/reports/daily
func (h *ReportHandler) CreateDaily(c *gin.Context) {
	var req createDailyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequestResponse(c, "invalid request body: "+err.Error())
		return
	}

	result, err := h.svc.CreateDailyEntry(c.Request.Context(), report.DailyEntryOptions{
		Date:        req.Date,
		CommitRange: req.CommitRange,
		Author:      req.Author,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	successResponse(c, result)
}

// GetSummaries GET /api/v1/reports/summaries?start=YYYY-MM-DD&end=YYYY-MM-DD
func (h *ReportHandler) GetSummaries(c *gin.Context) {
	start := c.Query("start")
	end := c.Query("end")
	if start == "" || end == "" {
		badRequestResponse(c, "start and end query parameters are required")
		return
	}

	summaries, err := h.svc.FetchSummaries(c.Request.Context(), start, end)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	successResponse(c, gin.H{"summaries": summaries, "count": len(summaries)})
}

// respondServiceError 把编排层错误映射到 HTTP 状态码：
// 校验失败 400、目标不存在 404、其余按远端依赖故障 502
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, report.ErrValidation):
		errorResponse(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, notion.ErrNotFound):
		errorResponse(c, http.StatusNotFound, err.Error())
	default:
		errorResponse(c, http.StatusBadGateway, err.Error())
	}
}
