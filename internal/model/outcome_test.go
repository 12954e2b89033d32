package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimplify(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    string
	}{
		{name: "traffic amount", message: "签到成功，获得了 2.0GB 流量", want: "获得 2.0GB"},
		{name: "traffic amount MB", message: "获得了512MB流量", want: "获得 512MB"},
		{name: "duplicate chinese", message: "您似乎已经签到过了", want: SimplifiedDuplicate},
		{name: "duplicate english", message: "You have ALREADY signed in today", want: SimplifiedDuplicate},
		{name: "plain success", message: "签到成功", want: SimplifiedSuccess},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Simplify(tt.message))
		})
	}
}

func TestSuccessOutcome(t *testing.T) {
	account := Account{Name: "test", Email: "alice@example.com"}

	t.Run("plain success keeps server message", func(t *testing.T) {
		got := SuccessOutcome(account, CheckinSuccess{Msg: "签到成功，获得了 2.0GB 流量"})
		assert.True(t, got.Success)
		assert.Equal(t, "alice_example", got.DisplayName)
		assert.Equal(t, "获得 2.0GB", got.Simplified)
	})

	t.Run("duplicate signin classified as duplicate not failure", func(t *testing.T) {
		got := SuccessOutcome(account, CheckinDuplicate{Msg: "already signed in today"})
		assert.True(t, got.Success)
		assert.Equal(t, SimplifiedDuplicate, got.Simplified)
		assert.Contains(t, got.Message, "重复签到：")
	})
}

func TestFailureOutcome(t *testing.T) {
	account := Account{Email: "bob@site.net"}
	got := FailureOutcome(account, errors.New("login rejected: 密码错误"))

	assert.False(t, got.Success)
	assert.Equal(t, "bob_site", got.DisplayName)
	assert.Equal(t, SimplifiedFailure, got.Simplified)
	assert.Equal(t, "login rejected: 密码错误", got.Message)
}
