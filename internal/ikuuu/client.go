// Package ikuuu implements the site's checkin protocol: authenticate,
// extract the session cookie, then perform the daily checkin.
package ikuuu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/zhanghanyun/ikuuu-checkin/internal/common"
	"github.com/zhanghanyun/ikuuu-checkin/internal/model"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/109.0.0.0 Safari/537.36"

// settleDelay gives the server time to propagate the session before the
// checkin request is issued.
const settleDelay = 1 * time.Second

// Client talks the checkin protocol against one site.
type Client struct {
	httpClient *http.Client
	sleep      common.Sleeper
	baseURL    string
}

// apiResponse is the site's uniform reply shape.
type apiResponse struct {
	Msg string `json:"msg"`
	Ret int    `json:"ret"`
}

type loginRequest struct {
	Email      string `json:"email"`
	Passwd     string `json:"passwd"`
	Code       string `json:"code"`
	RememberMe string `json:"remember_me"`
}

// NewClient creates a protocol client for the given site domain.
func NewClient(domain string) *Client {
	return NewClientWithBaseURL("https://" + domain)
}

// NewClientWithBaseURL creates a protocol client against an explicit base
// URL. Tests point this at an httptest server.
func NewClientWithBaseURL(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		sleep: common.SleepContext,
	}
}

// Checkin runs the full protocol sequence for one account and classifies
// the result. Every step is fatal on failure; a duplicate signin rejection
// is classified as success.
func (c *Client) Checkin(ctx context.Context, account model.Account) (model.CheckinResult, error) {
	cookie, err := c.login(ctx, account)
	if err != nil {
		return nil, err
	}

	if err := c.sleep(ctx, settleDelay); err != nil {
		return nil, err
	}

	return c.performCheckin(ctx, cookie)
}

// login authenticates and returns the assembled session cookie.
func (c *Client) login(ctx context.Context, account model.Account) (string, error) {
	body, err := json.Marshal(loginRequest{
		Email:      account.Email,
		Passwd:     account.Passwd,
		Code:       "",
		RememberMe: "on",
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create login request: %w", err)
	}
	c.setCommonHeaders(req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Referer", c.baseURL+"/auth/login")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrLoginRequest, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", common.ErrLoginRequest, resp.StatusCode)
	}

	var result apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrLoginRequest, err)
	}
	if result.Ret != 1 {
		return "", fmt.Errorf("%w: %s", common.ErrLoginRejected, result.Msg)
	}

	cookie := AssembleCookie(resp.Header.Values("Set-Cookie"))
	if cookie == "" {
		return "", common.ErrCookieExtraction
	}

	slog.Debug("Login succeeded", "cookies", len(resp.Header.Values("Set-Cookie")))
	return cookie, nil
}

// performCheckin issues the checkin request with the session cookie and
// classifies the server's reply.
func (c *Client) performCheckin(ctx context.Context, cookie string) (model.CheckinResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/user/checkin", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkin request: %w", err)
	}
	c.setCommonHeaders(req)
	req.Header.Set("Referer", c.baseURL+"/user/panel")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Cookie", cookie)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrCheckinRequest, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: status %d - %s", common.ErrCheckinRequest, resp.StatusCode, string(body))
	}

	var result apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrCheckinRequest, err)
	}

	if result.Ret == 1 {
		return model.CheckinSuccess{Msg: result.Msg}, nil
	}
	if model.IsDuplicateMessage(result.Msg) {
		return model.CheckinDuplicate{Msg: result.Msg}, nil
	}
	return nil, fmt.Errorf("%w: %s", common.ErrCheckinRejected, result.Msg)
}

func (c *Client) setCommonHeaders(req *http.Request) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Origin", c.baseURL)
}
