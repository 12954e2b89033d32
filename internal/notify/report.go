package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/zhanghanyun/ikuuu-checkin/internal/model"
)

// BuildReport renders the composite run report from the ordered outcomes.
// historyBlock is the ledger's monthly summary, empty when history is
// disabled.
func BuildReport(outcomes []model.Outcome, now time.Time, historyBlock string) Message {
	timeString := now.Format("2006-01-02 15:04:05")

	var successCount, failCount int
	for _, o := range outcomes {
		if o.Success {
			successCount++
		} else {
			failCount++
		}
	}

	var text strings.Builder
	text.WriteString("📋 ikuuu签到\n")
	fmt.Fprintf(&text, "⏰ 执行时间: %s\n", timeString)
	fmt.Fprintf(&text, "✅ 成功: %d个  ❌ 失败: %d个\n\n", successCount, failCount)

	htmlLines := make([]string, 0, len(outcomes))
	for _, o := range outcomes {
		icon := "✅"
		if !o.Success {
			icon = "❌"
		}
		fmt.Fprintf(&text, "%s %-20s：%s\n", icon, o.DisplayName, o.Simplified)
		htmlLines = append(htmlLines, fmt.Sprintf("%s %s: %s", icon, o.DisplayName, o.Simplified))
	}

	if historyBlock != "" {
		text.WriteString(historyBlock)
	}

	html := fmt.Sprintf("签到状态更新 - %s<br><br>✅ 成功: %d个账号<br>❌ 失败: %d个账号<br><br>详细结果:<br>%s",
		timeString, successCount, failCount, strings.Join(htmlLines, "<br>"))

	return Message{
		Text: strings.TrimRight(text.String(), "\n"),
		HTML: html,
	}
}

// BuildFailureReport renders the best-effort message sent to the chat
// channels when the run aborts before producing outcomes.
func BuildFailureReport(err error) Message {
	text := fmt.Sprintf("❌ ikuuu 签到任务失败\n\n错误信息: %s", err.Error())
	return Message{Text: text, HTML: text}
}
