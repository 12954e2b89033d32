package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zhanghanyun/ikuuu-checkin/internal/cli"
	"github.com/zhanghanyun/ikuuu-checkin/internal/config"
	"github.com/zhanghanyun/ikuuu-checkin/internal/ledger"
)

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show this month's checkin statistics per account",
		Long:  `Print the current month's success counts and rates from the history ledger. No network requests are made.`,
		RunE:  runStats,
	}
}

func runStats(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if !cfg.EnableHistory {
		return fmt.Errorf("history is disabled; nothing to report")
	}

	led := ledger.New(cfg.HistoryDir, cfg.EnableHistory)

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatTitle("本月签到统计"))
	for _, account := range cfg.Accounts {
		stats := led.GetMonthlyStats(account)
		rate := 0.0
		if stats.Total > 0 {
			rate = float64(stats.Success) / float64(stats.Total) * 100
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", cli.InfoStyle.Render(account.DisplayName()))
		fmt.Fprintf(cmd.OutOrStdout(), "  成功 %d / 总计 %d (%.1f%%)\n", stats.Success, stats.Total, rate)
	}
	return nil
}
