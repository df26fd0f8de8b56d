package gitlog

import (
	"context"
	"testing"
)

// TestValidateRange 测试修订范围校验
func TestValidateRange(t *testing.T) {
	valid := []string{
		"abc1234",
		"0123456789abcdef0123456789abcdef01234567",
		"abc1234..def5678",
		"HEAD",
		"HEAD~5",
		"HEAD^",
		"HEAD~5..HEAD",
		"HEAD^..HEAD",
		"main",
		"feature/login",
		"main..develop",
		"release-1.2..main",
	}
	for _, r := range valid {
		if err := ValidateRange(r); err != nil {
			t.Errorf("ValidateRange(%q) = %v, want nil", r, err)
		}
	}

	invalid := []string{
		"",
		"   ",
		"HEAD~5..HEAD; rm -rf /",
		"$(whoami)",
		"a b c",
		"..",
		"--all",
	}
	for _, r := range invalid {
		if err := ValidateRange(r); err == nil {
			t.Errorf("ValidateRange(%q) = nil, want error", r)
		}
	}
}

// TestParseNameStatus 测试 name-status 输出解析
func TestParseNameStatus(t *testing.T) {
	out := commitSep + "aaa111" + fieldSep + "alice" + fieldSep + "Mon Jan 1" + fieldSep + "feat: add login\n" +
		"A\tinternal/auth/login.go\n" +
		"M\tinternal/auth/session.go\n" +
		"R100\told/name.go\tnew/name.go\n" +
		commitSep + "bbb222" + fieldSep + "alice" + fieldSep + "Tue Jan 2" + fieldSep + "Merge branch 'main'\n"

	records := parseNameStatus(out)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	first := records[0]
	if first.Hash != "aaa111" || first.Message != "feat: add login" {
		t.Errorf("unexpected header: %+v", first)
	}
	wantPaths := []string{"internal/auth/login.go", "internal/auth/session.go", "new/name.go"}
	if len(first.FilePaths) != len(wantPaths) {
		t.Fatalf("expected %d paths, got %v", len(wantPaths), first.FilePaths)
	}
	for i, p := range wantPaths {
		if first.FilePaths[i] != p {
			t.Errorf("path[%d] = %q, want %q", i, first.FilePaths[i], p)
		}
	}

	// merge 提交不过滤，产出零计数记录
	second := records[1]
	if second.Hash != "bbb222" || len(second.FilePaths) != 0 {
		t.Errorf("unexpected merge record: %+v", second)
	}
}

// TestParseNumstat 测试 numstat 输出解析与累计
func TestParseNumstat(t *testing.T) {
	out := commitSep + "aaa111" + fieldSep + "alice" + fieldSep + "Mon Jan 1" + fieldSep + "feat: add login\n" +
		"40\t5\tinternal/auth/login.go\n" +
		"12\t3\tinternal/auth/session.go\n" +
		"-\t-\tassets/logo.png\n" +
		commitSep + "bbb222" + fieldSep + "alice" + fieldSep + "Tue Jan 2" + fieldSep + "Merge branch 'main'\n"

	stats := parseNumstat(out)

	st, ok := stats["aaa111"]
	if !ok {
		t.Fatalf("missing stats for aaa111")
	}
	if st.files != 3 || st.insertions != 52 || st.deletions != 8 {
		t.Errorf("unexpected totals: %+v", st)
	}

	// 空提交累计为零
	st, ok = stats["bbb222"]
	if !ok {
		t.Fatalf("missing stats for bbb222")
	}
	if st.files != 0 || st.insertions != 0 || st.deletions != 0 {
		t.Errorf("expected zero totals for merge commit, got %+v", st)
	}
}

// TestParseStatusLine 测试单行文件状态解析
func TestParseStatusLine(t *testing.T) {
	status, paths, ok := parseStatusLine("M\tmain.go")
	if !ok || status != 'M' || paths[0] != "main.go" {
		t.Errorf("unexpected result: %c %v %v", status, paths, ok)
	}

	status, paths, ok = parseStatusLine("R087\ta.go\tb.go")
	if !ok || status != 'R' || len(paths) != 2 || paths[1] != "b.go" {
		t.Errorf("unexpected rename result: %c %v %v", status, paths, ok)
	}

	if _, _, ok := parseStatusLine(""); ok {
		t.Error("expected empty line to be skipped")
	}
	if _, _, ok := parseStatusLine("R100\tonly-one-path"); ok {
		t.Error("expected malformed rename line to be skipped")
	}
}

// TestAnalyzeRangeRejectsBadRange 非法范围在执行 git 前报错
func TestAnalyzeRangeRejectsBadRange(t *testing.T) {
	a := NewAnalyzer(t.TempDir()) // 不是 git 仓库；校验必须先于执行
	if _, err := a.AnalyzeRange(context.Background(), "; rm -rf /", ""); err == nil {
		t.Fatal("expected validation error, got nil")
	}
	if _, err := a.AnalyzeSince(context.Background(), "", "", ""); err == nil {
		t.Fatal("expected empty-since error, got nil")
	}
}
