package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/houzhh15/devreport/cmd/server/internal/estimate"
)

// renderDailyMarkdown 把工作项与工时明细渲染为日报条目正文
// 没有提交数据时输出显式说明而不是空正文
func renderDailyMarkdown(workItems []string, estimates []estimate.HourEstimate) string {
	if len(estimates) == 0 {
		return "## 工作項目\n\n無提交記錄\n"
	}

	var sb strings.Builder
	sb.WriteString("## 工作項目\n\n")
	for _, item := range workItems {
		sb.WriteString("- ")
		sb.WriteString(item)
		sb.WriteString("\n")
	}

	sb.WriteString("\n## 工時明細\n\n")
	sb.WriteString("| 提交 | 變更 | 工時 | 原因 |\n")
	sb.WriteString("| --- | --- | --- | --- |\n")
	for _, est := range estimates {
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
			shortHash(est.Hash), escapeCell(est.Message), formatHours(est.Hours), est.Reason))
	}
	return sb.String()
}

// escapeCell 提交信息里的竖线会破坏表格行，换成全角形式
func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "｜")
}

func shortHash(hash string) string {
	if len(hash) > 7 {
		return hash[:7]
	}
	return hash
}

func formatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', 1, 64)
}
