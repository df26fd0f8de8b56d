package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Env: "dev", Port: "8000"},
		Log:    LogConfig{Level: "info"},
		Notion: NotionConfig{
			MCPServerURL: "http://localhost:8081/mcp",
			WeeklyDBID:   "db-1",
			PropTitle:    "Name",
			PropDate:     "date",
			PropHours:    "hours",
		},
		Git: GitConfig{RepoDir: "."},
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("NOTION_WEEKLY_DB_ID", "db-1")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Server.Port != "8000" {
		t.Errorf("default port = %s, want 8000", cfg.Server.Port)
	}
	if cfg.Notion.PropTitle != "Name" || cfg.Notion.PropDate != "date" || cfg.Notion.PropHours != "hours" {
		t.Errorf("unexpected default property mapping: %+v", cfg.Notion)
	}
	if err := ValidateConfig(cfg); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("NOTION_PROP_TITLE", "名稱")
	t.Setenv("GIT_REPO_DIR", "/srv/repo")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Server.Port != "9000" {
		t.Errorf("port = %s, want 9000", cfg.Server.Port)
	}
	if cfg.Notion.PropTitle != "名稱" {
		t.Errorf("title property = %s, want 名稱", cfg.Notion.PropTitle)
	}
	if cfg.Git.RepoDir != "/srv/repo" {
		t.Errorf("repo dir = %s, want /srv/repo", cfg.Git.RepoDir)
	}
}

func TestValidateConfigCollectsAllProblems(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = "99999"
	cfg.Log.Level = "loud"
	cfg.Notion.WeeklyDBID = ""

	err := ValidateConfig(cfg)
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	for _, want := range []string{"PORT", "LOG_LEVEL", "NOTION_WEEKLY_DB_ID"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error should mention %s, got: %s", want, msg)
		}
	}
}

func TestValidateConfigProductionRequiresToken(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Env = "production"
	cfg.Notion.Token = ""

	if err := ValidateConfig(cfg); err == nil {
		t.Fatal("production config without token should fail")
	}

	cfg.Notion.Token = "secret"
	if err := ValidateConfig(cfg); err != nil {
		t.Fatalf("production config with token should pass: %v", err)
	}
}

func TestPrintConfigMasksToken(t *testing.T) {
	cfg := validConfig()
	cfg.Notion.Token = "super-secret-token"

	out := cfg.PrintConfig()
	if strings.Contains(out, "super-secret-token") {
		t.Error("PrintConfig must not leak the token")
	}
	if !strings.Contains(out, "***") {
		t.Error("PrintConfig should mark the token as set")
	}
}
