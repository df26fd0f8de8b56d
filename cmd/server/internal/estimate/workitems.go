package estimate

import (
	"regexp"
	"strings"

	"github.com/houzhh15/devreport/cmd/server/internal/gitlog"
)

// conventionalPrefix 匹配约定式提交前缀，如 "feat:"、"fix(auth)!:"
var conventionalPrefix = regexp.MustCompile(`(?i)^(feat|fix|docs|style|refactor|perf|test|chore|build|ci|revert)(\([^)]*\))?!?:\s*`)

// ExtractWorkItems 从提交信息中提取去重后的工作项列表
// 取每条信息首行并去掉约定式前缀，按规范化文本（小写、去首尾空白）去重
// 保持首次出现的原始文本与顺序
func ExtractWorkItems(records []gitlog.ChangeRecord) []string {
	var items []string
	seen := make(map[string]bool)

	for _, rec := range records {
		line := strings.TrimSpace(rec.Message)
		if idx := strings.IndexByte(line, '\n'); idx >= 0 {
			line = strings.TrimSpace(line[:idx])
		}
		line = conventionalPrefix.ReplaceAllString(line, "")
		if line == "" {
			continue
		}

		key := strings.ToLower(line)
		if seen[key] {
			continue
		}
		seen[key] = true
		items = append(items, line)
	}
	return items
}
