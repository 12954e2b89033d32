// Package engine orchestrates the checkin pass over the account list.
package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/zhanghanyun/ikuuu-checkin/internal/cli"
	"github.com/zhanghanyun/ikuuu-checkin/internal/common"
	"github.com/zhanghanyun/ikuuu-checkin/internal/model"
)

// CheckinClient performs the protocol sequence for one account.
type CheckinClient interface {
	Checkin(ctx context.Context, account model.Account) (model.CheckinResult, error)
}

// Recorder receives one record per attempted account.
type Recorder interface {
	RecordCheckin(account model.Account, message string, success bool)
}

// Engine runs the checkin pass. Accounts are processed strictly in input
// order; the site's session semantics make concurrent checkins unsafe.
type Engine struct {
	client      CheckinClient
	recorder    Recorder
	sleep       common.Sleeper
	progressOut io.Writer
	maxRetry    int
	retryDelay  time.Duration
}

// New creates an engine. maxRetry is the total number of attempts per
// account; 0 or 1 means a single attempt.
func New(client CheckinClient, recorder Recorder, maxRetry int) *Engine {
	return &Engine{
		client:      client,
		recorder:    recorder,
		maxRetry:    maxRetry,
		retryDelay:  common.DefaultRetryDelay,
		sleep:       common.SleepContext,
		progressOut: os.Stderr,
	}
}

// RunAll processes every account and returns the ordered outcome list. It
// fails only when the account list is empty; individual account failures
// become failure outcomes, not errors.
func (e *Engine) RunAll(ctx context.Context, accounts []model.Account) ([]model.Outcome, error) {
	if len(accounts) == 0 {
		return nil, common.ErrNoAccounts
	}

	slog.Info(cli.FormatTitle(fmt.Sprintf("开始处理 %d 个账户的签到", len(accounts))))

	bar := progressbar.NewOptions(len(accounts),
		progressbar.OptionSetWriter(e.progressOut),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Checking in..."),
	)

	outcomes := make([]model.Outcome, 0, len(accounts))
	for _, account := range accounts {
		slog.Info("Processing account",
			"name", account.Name,
			"email", account.MaskedEmail())

		outcome := e.checkinWithRetry(ctx, account)
		outcomes = append(outcomes, outcome)

		if outcome.Success {
			slog.Info(cli.FormatSuccess(fmt.Sprintf("%s 签到成功: %s", account.Name, outcome.Simplified)))
		} else {
			slog.Error(cli.FormatError(fmt.Sprintf("%s 签到失败: %s", account.Name, outcome.Message)))
		}

		e.recorder.RecordCheckin(account, outcome.Message, outcome.Success)
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	return outcomes, nil
}

// checkinWithRetry wraps one account's checkin in the retry policy and
// classifies the terminal result.
func (e *Engine) checkinWithRetry(ctx context.Context, account model.Account) model.Outcome {
	var result model.CheckinResult
	err := common.WithRetry(ctx, func() error {
		var cerr error
		result, cerr = e.client.Checkin(ctx, account)
		return cerr
	}, e.maxRetry, e.retryDelay, e.sleep)

	if err != nil {
		return model.FailureOutcome(account, err)
	}
	return model.SuccessOutcome(account, result)
}
