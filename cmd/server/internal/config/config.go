package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config 统一配置结构
type Config struct {
	Server ServerConfig
	Log    LogConfig
	Notion NotionConfig
	Git    GitConfig
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Env  string // dev, staging, production
	Port string
}

// LogConfig 日志配置
type LogConfig struct {
	Level string // debug, info, warn, error
	File  string // 非空时同时写入滚动日志文件
}

// NotionConfig 远端文档存储配置
type NotionConfig struct {
	MCPServerURL string // MCP 工具服务地址
	Token        string
	WeeklyDBID   string // 周报页面所在数据库
	DailyDBID    string // 独立日报页面所在数据库（摘要查询）

	// 属性名映射，允许同一套逻辑对接不同语言环境的库
	PropTitle string
	PropDate  string
	PropHours string
}

// GitConfig 提交历史来源配置
type GitConfig struct {
	RepoDir string // 分析目标仓库，默认当前目录
}

// LoadConfig 从环境变量加载配置
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Env:  getEnv("ENV", "dev"),
			Port: getEnv("PORT", "8000"),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  getEnv("LOG_FILE", ""),
		},
		Notion: NotionConfig{
			MCPServerURL: getEnv("NOTION_MCP_URL", "http://localhost:8081/mcp"),
			Token:        getEnv("NOTION_TOKEN", ""),
			WeeklyDBID:   getEnv("NOTION_WEEKLY_DB_ID", ""),
			DailyDBID:    getEnv("NOTION_DAILY_DB_ID", ""),
			PropTitle:    getEnv("NOTION_PROP_TITLE", "Name"),
			PropDate:     getEnv("NOTION_PROP_DATE", "date"),
			PropHours:    getEnv("NOTION_PROP_HOURS", "hours"),
		},
		Git: GitConfig{
			RepoDir: getEnv("GIT_REPO_DIR", "."),
		},
	}
	return cfg, nil
}

// ValidateConfig 验证配置的有效性，问题全部收集后一次性返回
func ValidateConfig(cfg *Config) error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Server.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid PORT value: %s (must be 1-65535)", cfg.Server.Port))
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[cfg.Log.Level] {
		errors = append(errors, fmt.Sprintf("invalid LOG_LEVEL: %s (must be: debug, info, warn, error)", cfg.Log.Level))
	}

	validEnvs := map[string]bool{"dev": true, "development": true, "staging": true, "production": true}
	if !validEnvs[cfg.Server.Env] {
		errors = append(errors, fmt.Sprintf("invalid ENV: %s (must be: dev, development, staging, production)", cfg.Server.Env))
	}

	if cfg.Notion.MCPServerURL == "" {
		errors = append(errors, "NOTION_MCP_URL is required")
	}
	if cfg.Notion.WeeklyDBID == "" {
		errors = append(errors, "NOTION_WEEKLY_DB_ID is required")
	}
	if cfg.Server.Env == "production" && cfg.Notion.Token == "" {
		errors = append(errors, "NOTION_TOKEN is required in production environment")
	}
	if cfg.Notion.PropTitle == "" || cfg.Notion.PropDate == "" || cfg.Notion.PropHours == "" {
		errors = append(errors, "NOTION_PROP_TITLE/NOTION_PROP_DATE/NOTION_PROP_HOURS must not be empty")
	}

	if cfg.Git.RepoDir == "" {
		errors = append(errors, "GIT_REPO_DIR must not be empty")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}
	return nil
}

// IsProduction 判断是否为生产环境
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// IsDevelopment 判断是否为开发环境
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "dev" || c.Server.Env == "development"
}

// GetServerAddr 获取服务器监听地址
func (c *Config) GetServerAddr() string {
	return ":" + c.Server.Port
}

// PrintConfig 打印配置（脱敏）
func (c *Config) PrintConfig() string {
	return fmt.Sprintf(`Configuration Loaded:
  Environment: %s
  Server Port: %s
  Logging:
    - Level: %s
    - File: %s
  Notion:
    - MCP URL: %s
    - Token: %s
    - Weekly DB: %s
    - Daily DB: %s
    - Properties: title=%s date=%s hours=%s
  Git:
    - Repo Dir: %s`,
		c.Server.Env,
		c.Server.Port,
		c.Log.Level,
		orDefault(c.Log.File, "(stdout only)"),
		c.Notion.MCPServerURL,
		maskSecret(c.Notion.Token),
		orDefault(c.Notion.WeeklyDBID, "(not set)"),
		orDefault(c.Notion.DailyDBID, "(not set)"),
		c.Notion.PropTitle, c.Notion.PropDate, c.Notion.PropHours,
		c.Git.RepoDir,
	)
}

func maskSecret(s string) string {
	if s == "" {
		return "(not set)"
	}
	return "***"
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
