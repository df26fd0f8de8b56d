package main

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "报告管理 (周报/日报/摘要查询)",
	}
	cmd.AddCommand(newReportWeeklyCmd())
	cmd.AddCommand(newReportDailyCmd())
	cmd.AddCommand(newReportSummariesCmd())
	return cmd
}

func newReportWeeklyCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "weekly",
		Short: "查找或创建周报页面",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := LoadConfig(cmd)
			client := NewAPIClient(cfg)

			body := map[string]interface{}{}
			if v, _ := cmd.Flags().GetString("week-start"); v != "" {
				body["week_start"] = v
			}
			resp, err := client.Request("POST", "/api/v1/reports/weekly", body)
			if err != nil {
				return err
			}
			return printOutput(cfg.Output, resp)
		},
	}
	c.Flags().String("week-start", "", "目标周内任一日期 (YYYY-MM-DD，默认当前周)")
	return c
}

func newReportDailyCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "daily",
		Short: "创建或更新日报条目并回写周总工时",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := LoadConfig(cmd)
			client := NewAPIClient(cfg)

			date, _ := cmd.Flags().GetString("date")
			if date == "" {
				return fmt.Errorf("--date is required (YYYY-MM-DD)")
			}
			body := map[string]interface{}{"date": date}
			if v, _ := cmd.Flags().GetString("commit-range"); v != "" {
				body["commit_range"] = v
			}
			if v, _ := cmd.Flags().GetString("author"); v != "" {
				body["author"] = v
			}

			resp, err := client.Request("POST", "/api/v1/reports/daily", body)
			if err != nil {
				return err
			}
			return printOutput(cfg.Output, resp)
		},
	}
	c.Flags().String("date", "", "日报日期 (必选, YYYY-MM-DD)")
	c.Flags().String("commit-range", "", "git 修订范围 (如: HEAD~5..HEAD，省略时创建零工时条目)")
	c.Flags().String("author", "", "按作者过滤提交 (可选)")
	return c
}

func newReportSummariesCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "summaries",
		Short: "查询日期范围内按日合并的日报摘要",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := LoadConfig(cmd)
			client := NewAPIClient(cfg)

			start, _ := cmd.Flags().GetString("start")
			end, _ := cmd.Flags().GetString("end")
			if start == "" || end == "" {
				return fmt.Errorf("--start and --end are required (YYYY-MM-DD)")
			}

			params := url.Values{}
			params.Set("start", start)
			params.Set("end", end)
			resp, err := client.Get("/api/v1/reports/summaries?" + params.Encode())
			if err != nil {
				return err
			}
			return printOutput(cfg.Output, resp)
		},
	}
	c.Flags().String("start", "", "起始日期 (必选, YYYY-MM-DD)")
	c.Flags().String("end", "", "结束日期 (必选, YYYY-MM-DD)")
	return c
}
