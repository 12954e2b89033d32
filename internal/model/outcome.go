package model

import (
	"regexp"
	"strings"
)

// Simplified classification strings used in reports. The site replies in
// Chinese, so the classifications keep its wording.
const (
	SimplifiedDuplicate = "重复签到"
	SimplifiedSuccess   = "签到成功"
	SimplifiedFailure   = "签到失败"
)

// trafficPattern extracts the quota amount from a successful checkin
// message, e.g. "获得了 2.0GB 流量".
var trafficPattern = regexp.MustCompile(`获得了\s*([\d.]+\s*[GMK]B)`)

// duplicateMarkers are the substrings the site uses when an account has
// already checked in today. The match is deliberately loose and must not be
// strengthened without evidence of the service's actual message set.
var duplicateMarkers = []string{"已经", "重复", "already"}

// Outcome is the final classified result of one account's checkin attempt
// sequence, after retries are exhausted or success achieved.
type Outcome struct {
	DisplayName string
	Message     string
	Simplified  string
	Success     bool
}

// CheckinResult is the classified server response to a checkin call.
type CheckinResult interface {
	// Message returns the human-readable server message.
	Message() string
	isCheckinResult()
}

// CheckinSuccess is a plain successful checkin.
type CheckinSuccess struct{ Msg string }

// CheckinDuplicate is a rejection because today's checkin already happened;
// treated as success for reporting purposes.
type CheckinDuplicate struct{ Msg string }

func (r CheckinSuccess) Message() string   { return r.Msg }
func (r CheckinDuplicate) Message() string { return "重复签到：" + r.Msg }

func (CheckinSuccess) isCheckinResult()   {}
func (CheckinDuplicate) isCheckinResult() {}

// IsDuplicateMessage reports whether msg signals a duplicate signin.
func IsDuplicateMessage(msg string) bool {
	lower := strings.ToLower(msg)
	for _, marker := range duplicateMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// Simplify reduces a successful checkin message to its short classification:
// the duplicate marker, the traffic amount if present, or a generic success.
func Simplify(message string) string {
	if IsDuplicateMessage(message) {
		return SimplifiedDuplicate
	}
	if m := trafficPattern.FindStringSubmatch(message); m != nil {
		return "获得 " + m[1]
	}
	return SimplifiedSuccess
}

// SuccessOutcome builds the outcome for a successful checkin.
func SuccessOutcome(account Account, result CheckinResult) Outcome {
	msg := result.Message()
	return Outcome{
		Success:     true,
		DisplayName: account.DisplayName(),
		Message:     msg,
		Simplified:  Simplify(msg),
	}
}

// FailureOutcome builds the outcome for an exhausted-retry failure.
func FailureOutcome(account Account, err error) Outcome {
	return Outcome{
		Success:     false,
		DisplayName: account.DisplayName(),
		Message:     err.Error(),
		Simplified:  SimplifiedFailure,
	}
}
