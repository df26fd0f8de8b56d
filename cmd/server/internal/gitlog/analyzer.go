package gitlog

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

// Analyzer 在指定仓库上运行两次关联的历史遍历，产出每次提交的变更记录
type Analyzer struct {
	RepoDir string
}

// NewAnalyzer 创建提交分析器
// repoDir 为空时使用当前工作目录
func NewAnalyzer(repoDir string) *Analyzer {
	return &Analyzer{RepoDir: repoDir}
}

// 接受的修订范围形式：裸哈希、hash..hash、HEAD~N..HEAD 变体、分支..分支
var rangePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^[0-9a-fA-F]{7,40}$`),
	regexp.MustCompile(`^[0-9a-fA-F]{7,40}\.\.[0-9a-fA-F]{7,40}$`),
	regexp.MustCompile(`^HEAD([~^]\d*)?$`),
	regexp.MustCompile(`^HEAD([~^]\d*)?\.\.HEAD([~^]\d*)?$`),
	regexp.MustCompile(`^[A-Za-z][\w./-]*$`),
	regexp.MustCompile(`^[A-Za-z][\w./-]*\.\.[A-Za-z][\w./-]*$`),
}

// ValidateRange 校验修订范围字符串，非法输入在启动任何进程前报错
func ValidateRange(revRange string) error {
	if strings.TrimSpace(revRange) == "" {
		return fmt.Errorf("empty revision range")
	}
	for _, p := range rangePatterns {
		if p.MatchString(revRange) {
			return nil
		}
	}
	return fmt.Errorf("invalid revision range: %s (expected forms: <hash>, <hash>..<hash>, HEAD~N..HEAD, <branch>..<branch>)", revRange)
}

// AnalyzeRange 分析修订范围内的提交
// author 非空时按作者过滤
func (a *Analyzer) AnalyzeRange(ctx context.Context, revRange, author string) ([]ChangeRecord, error) {
	if err := ValidateRange(revRange); err != nil {
		return nil, err
	}
	return a.analyze(ctx, []string{revRange}, author)
}

// AnalyzeSince 按日历日期而非修订范围分析提交
// until 为空时不限制结束日期
func (a *Analyzer) AnalyzeSince(ctx context.Context, since, until, author string) ([]ChangeRecord, error) {
	if strings.TrimSpace(since) == "" {
		return nil, fmt.Errorf("empty since date")
	}
	args := []string{"--since=" + since}
	if until != "" {
		args = append(args, "--until="+until)
	}
	return a.analyze(ctx, args, author)
}

// analyze 执行两次独立遍历并按提交哈希关联：
// name-status 遍历恢复文件路径，numstat 遍历恢复增删行数
func (a *Analyzer) analyze(ctx context.Context, rangeArgs []string, author string) ([]ChangeRecord, error) {
	if author != "" {
		rangeArgs = append(rangeArgs, "--author="+author)
	}

	statusOut, err := a.runLog(ctx, append([]string{"--name-status"}, rangeArgs...))
	if err != nil {
		return nil, fmt.Errorf("git log --name-status failed: %w", err)
	}
	numstatOut, err := a.runLog(ctx, append([]string{"--numstat"}, rangeArgs...))
	if err != nil {
		return nil, fmt.Errorf("git log --numstat failed: %w", err)
	}

	records := parseNameStatus(statusOut)
	stats := parseNumstat(numstatOut)

	for i := range records {
		if st, ok := stats[records[i].Hash]; ok {
			records[i].Files = st.files
			records[i].Insertions = st.insertions
			records[i].Deletions = st.deletions
		}
	}
	return records, nil
}

// runLog 运行一次 git log 遍历并返回原始输出
func (a *Analyzer) runLog(ctx context.Context, args []string) (string, error) {
	cmdArgs := []string{"log", prettyFormat}
	cmdArgs = append(cmdArgs, args...)

	cmd := exec.CommandContext(ctx, "git", cmdArgs...)
	if a.RepoDir != "" {
		cmd.Dir = a.RepoDir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return "", fmt.Errorf("%s: %w", msg, err)
		}
		return "", err
	}
	return stdout.String(), nil
}

// parseNameStatus 解析 name-status 遍历，恢复提交顺序与文件路径
// 空提交（merge 等）产出零计数记录，由估算阶段处理
func parseNameStatus(out string) []ChangeRecord {
	var records []ChangeRecord

	for _, chunk := range strings.Split(out, commitSep) {
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		lines := strings.Split(chunk, "\n")
		header := strings.Split(lines[0], fieldSep)
		if len(header) < 4 {
			continue
		}

		rec := ChangeRecord{Hash: header[0], Message: header[3]}
		for _, line := range lines[1:] {
			status, paths, ok := parseStatusLine(line)
			if !ok {
				continue
			}
			// 重命名/复制取新路径
			path := paths[0]
			if len(paths) > 1 && (status == 'R' || status == 'C') {
				path = paths[1]
			}
			rec.FilePaths = append(rec.FilePaths, path)
		}
		records = append(records, rec)
	}
	return records
}

// parseStatusLine 解析一行文件状态: 状态码 + 一或两个路径字段
func parseStatusLine(line string) (status byte, paths []string, ok bool) {
	fields := strings.Split(strings.TrimRight(line, "\r"), "\t")
	if len(fields) < 2 || fields[0] == "" {
		return 0, nil, false
	}
	status = fields[0][0]
	switch status {
	case 'A', 'M', 'D', 'T':
		return status, fields[1:2], true
	case 'R', 'C':
		if len(fields) < 3 {
			return 0, nil, false
		}
		return status, fields[1:3], true
	default:
		return 0, nil, false
	}
}

type numstatTotals struct {
	files      int
	insertions int
	deletions  int
}

// parseNumstat 解析 numstat 遍历，按提交哈希累计增删行数
// 二进制文件行 ("-\t-\tpath") 计零行，但文件计数加一
func parseNumstat(out string) map[string]numstatTotals {
	stats := make(map[string]numstatTotals)

	for _, chunk := range strings.Split(out, commitSep) {
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		lines := strings.Split(chunk, "\n")
		header := strings.Split(lines[0], fieldSep)
		if len(header) < 4 {
			continue
		}

		var t numstatTotals
		for _, line := range lines[1:] {
			fields := strings.Split(strings.TrimRight(line, "\r"), "\t")
			if len(fields) < 3 || fields[0] == "" {
				continue
			}
			t.files++
			if ins, err := strconv.Atoi(fields[0]); err == nil {
				t.insertions += ins
			}
			if del, err := strconv.Atoi(fields[1]); err == nil {
				t.deletions += del
			}
		}
		stats[header[0]] = t
	}
	return stats
}
