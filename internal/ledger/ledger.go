// Package ledger persists per-account checkin history: an append-only log
// file per day and a JSON aggregate per month.
//
// All writes happen from the single sequential checkin loop, so the monthly
// read-modify-write carries no lock. Concurrent processes targeting the same
// directory would silently lose updates; a single scheduled run at a time is
// an accepted constraint.
package ledger

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/zhanghanyun/ikuuu-checkin/internal/model"
)

// unsafeChars matches every byte that is not allowed in an account
// directory name.
var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9]`)

// DayStat is the per-date outcome breakdown inside a monthly aggregate.
type DayStat struct {
	Success int `json:"success"`
	Failed  int `json:"failed"`
}

// MonthlyStats is one account's aggregate for a calendar month.
// Invariant: Total == Success + Failed, and the per-date counters sum to the
// top-level ones.
type MonthlyStats struct {
	Dates   map[string]*DayStat `json:"dates"`
	Total   int                 `json:"total"`
	Success int                 `json:"success"`
	Failed  int                 `json:"failed"`
}

// Ledger owns the history directory. When disabled, every method is a no-op.
type Ledger struct {
	clock   func() time.Time
	dir     string
	enabled bool
}

// New creates a ledger rooted at dir. The directory is created lazily on
// first write.
func New(dir string, enabled bool) *Ledger {
	return &Ledger{
		dir:     dir,
		enabled: enabled,
		clock:   time.Now,
	}
}

// Enabled reports whether history recording is switched on.
func (l *Ledger) Enabled() bool { return l.enabled }

// Dir returns the history directory path.
func (l *Ledger) Dir() string { return l.dir }

// accountDir derives the per-account directory from the email, replacing
// every non-alphanumeric character with an underscore.
func (l *Ledger) accountDir(account model.Account) string {
	return filepath.Join(l.dir, unsafeChars.ReplaceAllString(account.Email, "_"))
}

// RecordCheckin appends the day's log line and updates the monthly
// aggregate for one attempt. Failures are logged, never fatal.
func (l *Ledger) RecordCheckin(account model.Account, message string, success bool) {
	if !l.enabled {
		return
	}
	now := l.clock()
	if err := l.AppendLogLine(account, success, message); err != nil {
		slog.Warn("Failed to append checkin log", "account", account.Name, "error", err)
	}
	if err := l.RecordStat(account, now.Format("2006-01-02"), success); err != nil {
		slog.Warn("Failed to record monthly stat", "account", account.Name, "error", err)
	}
}

// AppendLogLine appends one "[timestamp] STATUS - message" line to the
// account's current-date log file, creating the directory and file as
// needed. The file is never truncated.
func (l *Ledger) AppendLogLine(account model.Account, success bool, message string) error {
	if !l.enabled {
		return nil
	}
	dir := l.accountDir(account)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create account history dir: %w", err)
	}

	now := l.clock()
	path := filepath.Join(dir, now.Format("2006-01-02")+".log")

	status := "SUCCESS"
	if !success {
		status = "FAILED"
	}
	line := fmt.Sprintf("[%s] %s - %s\n", now.Format("2006-01-02 15:04:05"), status, message)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("failed to write log line: %w", err)
	}
	return nil
}

// RecordStat loads the account's current-month aggregate, applies one
// attempt, and writes the whole file back. A missing or corrupt file starts
// a fresh aggregate.
func (l *Ledger) RecordStat(account model.Account, date string, success bool) error {
	if !l.enabled {
		return nil
	}
	dir := l.accountDir(account)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create account history dir: %w", err)
	}

	path := l.statsPath(account, date[:7])
	stats := l.loadStats(path)

	stats.Total++
	if stats.Dates == nil {
		stats.Dates = make(map[string]*DayStat)
	}
	day := stats.Dates[date]
	if day == nil {
		day = &DayStat{}
		stats.Dates[date] = day
	}
	if success {
		stats.Success++
		day.Success++
	} else {
		stats.Failed++
		day.Failed++
	}

	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode monthly stats: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write monthly stats: %w", err)
	}
	return nil
}

// GetMonthlyStats returns the account's aggregate for the current month,
// zero-valued when absent or unreadable.
func (l *Ledger) GetMonthlyStats(account model.Account) MonthlyStats {
	if !l.enabled {
		return MonthlyStats{}
	}
	month := l.clock().Format("2006-01")
	return l.loadStats(l.statsPath(account, month))
}

func (l *Ledger) statsPath(account model.Account, month string) string {
	return filepath.Join(l.accountDir(account), month+"_stats.json")
}

// loadStats reads an aggregate file. Corruption resets to zero with a
// warning rather than failing the run.
func (l *Ledger) loadStats(path string) MonthlyStats {
	var stats MonthlyStats
	data, err := os.ReadFile(path)
	if err != nil {
		return stats
	}
	if err := json.Unmarshal(data, &stats); err != nil {
		slog.Warn("Monthly stats file corrupt, starting fresh", "path", path, "error", err)
		return MonthlyStats{}
	}
	return stats
}

// BuildHistoryReport renders the current month's summary for each account
// in order. Returns "" when history is disabled.
func (l *Ledger) BuildHistoryReport(accounts []model.Account, _ []model.Outcome) string {
	if !l.enabled {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n📊 本月签到统计:\n")

	for _, account := range accounts {
		stats := l.GetMonthlyStats(account)
		rate := "0"
		if stats.Total > 0 {
			rate = fmt.Sprintf("%.1f", float64(stats.Success)/float64(stats.Total)*100)
		}

		b.WriteString("\n" + account.DisplayName() + ":\n")
		fmt.Fprintf(&b, "  ✅ 成功: %d次\n", stats.Success)
		fmt.Fprintf(&b, "  📈 成功率: %s%%\n", rate)
		fmt.Fprintf(&b, "  📋 总计: %d次\n", stats.Total)
	}

	return b.String()
}
