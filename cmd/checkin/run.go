package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zhanghanyun/ikuuu-checkin/internal/cli"
	"github.com/zhanghanyun/ikuuu-checkin/internal/common"
	"github.com/zhanghanyun/ikuuu-checkin/internal/config"
	"github.com/zhanghanyun/ikuuu-checkin/internal/engine"
	"github.com/zhanghanyun/ikuuu-checkin/internal/ikuuu"
	"github.com/zhanghanyun/ikuuu-checkin/internal/ledger"
	"github.com/zhanghanyun/ikuuu-checkin/internal/notify"
)

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Perform the daily checkin for every configured account",
		Long: `Run one checkin pass over the configured account list.

Each account is processed sequentially with bounded retries; results are
recorded in the history ledger and reported through every configured
notification channel. The exit code is 0 only if every account succeeded.`,
		RunE: runCheckin,
	}

	cmd.Flags().Int("max-retry", 3, "maximum checkin attempts per account")
	cmd.Flags().Bool("no-history", false, "disable the stats ledger for this run")

	_ = viper.BindPFlag("max_retry", cmd.Flags().Lookup("max-retry"))
	_ = viper.BindPFlag("no_history", cmd.Flags().Lookup("no-history"))

	return cmd
}

func runCheckin(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		notifyFatal(ctx, cfg, err)
		return err
	}
	if viper.GetBool("no_history") {
		cfg.EnableHistory = false
	}
	if err := cfg.Validate(); err != nil {
		notifyFatal(ctx, cfg, err)
		return err
	}

	slog.Info(cli.FormatTitle("开始 ikuuu 签到任务"))
	common.LogInfo("Configuration loaded", common.Fields{
		"domain":    cfg.Domain,
		"accounts":  len(cfg.Accounts),
		"max_retry": cfg.MaxRetry,
		"history":   cfg.EnableHistory,
	})

	led := ledger.New(cfg.HistoryDir, cfg.EnableHistory)
	client := ikuuu.NewClient(cfg.Domain)
	eng := engine.New(client, led, cfg.MaxRetry)

	outcomes, err := eng.RunAll(ctx, cfg.Accounts)
	if err != nil {
		notifyFatal(ctx, cfg, err)
		return err
	}

	history := led.BuildHistoryReport(cfg.Accounts, outcomes)
	report := notify.BuildReport(outcomes, time.Now(), history)

	channels := notify.AllChannels(cfg)
	slog.Info("Dispatching notifications", "channels", len(channels))
	notify.Dispatch(ctx, channels, report)

	var successCount, failCount int
	for _, o := range outcomes {
		if o.Success {
			successCount++
		} else {
			failCount++
		}
	}

	slog.Info(cli.FormatSuccess("签到任务完成"),
		"success", successCount,
		"failed", failCount)
	if cfg.EnableHistory {
		slog.Info("History recorded", "dir", led.Dir())
	}

	if failCount > 0 {
		return common.NewUserError(
			fmt.Sprintf("%d of %d accounts failed", failCount, len(outcomes)),
			common.ErrCheckinFailed)
	}
	return nil
}

// notifyFatal makes a best-effort attempt to report a fatal error through
// the chat channels before the process exits with a failure code. The
// hosted feed is skipped; it only carries full run reports.
func notifyFatal(ctx context.Context, cfg *config.Config, err error) {
	if cfg == nil {
		return
	}
	channels := notify.ChatChannels(cfg)
	if len(channels) == 0 {
		return
	}
	common.LogError(err, cli.FormatError("任务执行失败"), nil)
	notify.Dispatch(ctx, channels, notify.BuildFailureReport(err))
}
