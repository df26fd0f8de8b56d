package estimate

import (
	"math"
	"path"
	"strings"

	"github.com/houzhh15/devreport/cmd/server/internal/gitlog"
)

// HourEstimate 单次提交的工时估算结果
type HourEstimate struct {
	Hash    string  `json:"hash"`
	Message string  `json:"message"`
	Hours   float64 `json:"hours"`  // [0, 4]，0.1 精度
	Reason  string  `json:"reason"` // 分类说明，可能是复合标签，如 "中型功能 + 新功能"
}

// MaxHoursPerCommit 单次提交工时上限
// 防止一次大提交（vendor 代码、生成文件、squash 合并）主导整份报告
const MaxHoursPerCommit = 4.0

// sizeBucket 按规模分档：文件数与行数都不超过阈值时命中
// 从小到大依次匹配，小变更不会落入更大的档位
type sizeBucket struct {
	maxFiles int
	maxLines int
	hours    float64
	label    string
}

var sizeBuckets = []sizeBucket{
	{1, 10, 0.1, "微小修改"},
	{3, 50, 0.3, "小型修改"},
	{5, 150, 0.5, "中型功能"},
	{10, 300, 1.0, "大型功能"},
	{20, 500, 1.5, "重大功能"},
}

const (
	oversizedHours = 2.0
	oversizedLabel = "超大型變更"
)

var (
	refactorKeywords = []string{"refactor", "restructure", "migrate", "migration", "重構", "重构", "遷移", "迁移"}
	featureKeywords  = []string{"feat", "feature", "新增", "新功能", "implement"}
	cleanupKeywords  = []string{"remove", "delete", "clean", "cleanup", "清理", "移除", "刪除", "删除"}

	docExtensions   = []string{".md", ".markdown", ".rst", ".txt", ".adoc"}
	docFilenames    = []string{"readme", "license", "changelog", "contributing", "authors"}
	styleExtensions = []string{".css", ".scss", ".sass", ".less", ".styl"}
)

// Estimate 将一条变更记录映射为工时估算
// 纯函数：先按规模分档，再叠加关键字乘数与文件类型折扣，最后封顶并取一位小数
func Estimate(rec gitlog.ChangeRecord) HourEstimate {
	hours, reason := baseBucket(rec)
	msg := strings.ToLower(rec.Message)

	if containsAny(msg, refactorKeywords) {
		hours *= 1.3
		reason += " + 重構"
	}
	if containsAny(msg, featureKeywords) {
		hours *= 1.2
		reason += " + 新功能"
	}
	if rec.Deletions > 2*rec.Insertions && containsAny(msg, cleanupKeywords) {
		hours *= 0.7
		reason += " + 清理"
	}

	// 文件类型折扣互斥，且仅在提交中所有文件都命中时生效
	if allFilesMatch(rec.FilePaths, isDocFile) {
		hours *= 0.5
		reason += " + 文檔"
	} else if allFilesMatch(rec.FilePaths, isStyleFile) {
		hours *= 0.8
		reason += " + 樣式"
	}

	if hours > MaxHoursPerCommit {
		hours = MaxHoursPerCommit
	}

	return HourEstimate{
		Hash:    rec.Hash,
		Message: rec.Message,
		Hours:   round1(hours),
		Reason:  reason,
	}
}

// EstimateAll 估算一组变更记录并汇总总工时
// 总工时为各条（已取整）估算值之和，再取一位小数
func EstimateAll(records []gitlog.ChangeRecord) ([]HourEstimate, float64) {
	estimates := make([]HourEstimate, 0, len(records))
	var total float64
	for _, rec := range records {
		est := Estimate(rec)
		estimates = append(estimates, est)
		total += est.Hours
	}
	return estimates, round1(total)
}

func baseBucket(rec gitlog.ChangeRecord) (float64, string) {
	lines := rec.Insertions + rec.Deletions
	for _, b := range sizeBuckets {
		if rec.Files <= b.maxFiles && lines <= b.maxLines {
			return b.hours, b.label
		}
	}
	return oversizedHours, oversizedLabel
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// allFilesMatch 所有文件路径都满足断言时为真；无路径信息时为假
func allFilesMatch(paths []string, match func(string) bool) bool {
	if len(paths) == 0 {
		return false
	}
	for _, p := range paths {
		if !match(p) {
			return false
		}
	}
	return true
}

func isDocFile(p string) bool {
	lower := strings.ToLower(p)
	ext := path.Ext(lower)
	for _, e := range docExtensions {
		if ext == e {
			return true
		}
	}
	base := strings.TrimSuffix(path.Base(lower), ext)
	for _, name := range docFilenames {
		if base == name {
			return true
		}
	}
	return strings.HasPrefix(lower, "docs/") || strings.Contains(lower, "/docs/")
}

func isStyleFile(p string) bool {
	ext := path.Ext(strings.ToLower(p))
	for _, e := range styleExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
