package ikuuu

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhanghanyun/ikuuu-checkin/internal/common"
	"github.com/zhanghanyun/ikuuu-checkin/internal/model"
)

func noSleep(_ context.Context, _ time.Duration) error { return nil }

type fakeSite struct {
	loginRet    int
	loginMsg    string
	loginStatus int
	checkinRet  int
	checkinMsg  string
	setCookies  []string

	gotLogin   map[string]string
	gotCookie  string
	checkinHit bool
}

func (f *fakeSite) handler(t *testing.T) http.Handler {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&f.gotLogin))
		for _, c := range f.setCookies {
			w.Header().Add("Set-Cookie", c)
		}
		if f.loginStatus != 0 {
			w.WriteHeader(f.loginStatus)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ret": f.loginRet, "msg": f.loginMsg})
	})
	mux.HandleFunc("/user/checkin", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		f.checkinHit = true
		f.gotCookie = r.Header.Get("Cookie")
		_ = json.NewEncoder(w).Encode(map[string]any{"ret": f.checkinRet, "msg": f.checkinMsg})
	})
	return mux
}

func newTestClient(t *testing.T, site *fakeSite) *Client {
	t.Helper()
	srv := httptest.NewServer(site.handler(t))
	t.Cleanup(srv.Close)

	client := NewClientWithBaseURL(srv.URL)
	client.sleep = noSleep
	return client
}

func TestCheckinHappyPath(t *testing.T) {
	site := &fakeSite{
		loginRet:   1,
		setCookies: []string{"uid=42; path=/", "email=a%40b.com; HttpOnly"},
		checkinRet: 1,
		checkinMsg: "签到成功，获得了 2.0GB 流量",
	}
	client := newTestClient(t, site)

	account := model.Account{Email: "a@b.com", Passwd: "secret"}
	result, err := client.Checkin(context.Background(), account)

	require.NoError(t, err)
	assert.Equal(t, model.CheckinSuccess{Msg: "签到成功，获得了 2.0GB 流量"}, result)
	assert.Equal(t, "uid=42; email=a%40b.com", site.gotCookie)
	assert.Equal(t, map[string]string{
		"email":       "a@b.com",
		"passwd":      "secret",
		"code":        "",
		"remember_me": "on",
	}, site.gotLogin)
}

func TestCheckinDuplicateTreatedAsSuccess(t *testing.T) {
	site := &fakeSite{
		loginRet:   1,
		setCookies: []string{"uid=42"},
		checkinRet: 0,
		checkinMsg: "already signed in today",
	}
	client := newTestClient(t, site)

	result, err := client.Checkin(context.Background(), model.Account{Email: "a@b.com", Passwd: "p"})

	require.NoError(t, err)
	assert.Equal(t, model.CheckinDuplicate{Msg: "already signed in today"}, result)
}

func TestCheckinRejected(t *testing.T) {
	site := &fakeSite{
		loginRet:   1,
		setCookies: []string{"uid=42"},
		checkinRet: 0,
		checkinMsg: "签到失败",
	}
	client := newTestClient(t, site)

	_, err := client.Checkin(context.Background(), model.Account{Email: "a@b.com", Passwd: "p"})

	require.ErrorIs(t, err, common.ErrCheckinRejected)
	assert.Contains(t, err.Error(), "签到失败")
}

func TestCheckinLoginRejected(t *testing.T) {
	site := &fakeSite{
		loginRet: 0,
		loginMsg: "邮箱或密码错误",
	}
	client := newTestClient(t, site)

	_, err := client.Checkin(context.Background(), model.Account{Email: "a@b.com", Passwd: "wrong"})

	require.ErrorIs(t, err, common.ErrLoginRejected)
	assert.False(t, site.checkinHit, "checkin must not be attempted after a rejected login")
}

func TestCheckinLoginTransportError(t *testing.T) {
	site := &fakeSite{loginStatus: http.StatusBadGateway}
	client := newTestClient(t, site)

	_, err := client.Checkin(context.Background(), model.Account{Email: "a@b.com", Passwd: "p"})

	require.ErrorIs(t, err, common.ErrLoginRequest)
}

func TestCheckinMissingCookies(t *testing.T) {
	site := &fakeSite{loginRet: 1}
	client := newTestClient(t, site)

	_, err := client.Checkin(context.Background(), model.Account{Email: "a@b.com", Passwd: "p"})

	require.ErrorIs(t, err, common.ErrCookieExtraction)
	assert.False(t, site.checkinHit)
}
