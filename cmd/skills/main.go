package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "devreport",
		Short:   "devreport CLI - 开发活动报告同步工具",
		Long:    "通过命令行调用 devreport 后端 HTTP API，把 git 提交活动同步为远端周报/日报页面。",
		Version: version,
	}

	// 添加全局标志
	addGlobalFlags(rootCmd)

	// 注册子命令
	rootCmd.AddCommand(newReportCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
