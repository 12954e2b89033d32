package notify

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"golang.org/x/oauth2"

	"github.com/zhanghanyun/ikuuu-checkin/internal/config"
)

// feedNotificationID is the fixed identifier of the checkin status entry
// inside the hosted feed's data.json.
const feedNotificationID = 2

// GitHubFeed updates a notification entry in a data.json file hosted in a
// GitHub repository, using the file's sha as an optimistic-concurrency
// precondition. Failures here are non-fatal to the run.
type GitHubFeed struct {
	httpClient *http.Client
	clock      func() time.Time
	baseURL    string
	repo       string
	branch     string
}

type feedNotification struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Date    string `json:"date"`
	ID      int    `json:"id"`
}

type contentsResponse struct {
	Content string `json:"content"`
	SHA     string `json:"sha"`
}

// NewGitHubFeed creates the hosted-feed channel. The token rides on an
// oauth2 static token source so every request is authenticated.
func NewGitHubFeed(cfg config.GitHubConfig) *GitHubFeed {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
	return &GitHubFeed{
		baseURL:    "https://api.github.com",
		repo:       cfg.Repo,
		branch:     cfg.Branch,
		httpClient: oauth2.NewClient(context.Background(), ts),
		clock:      time.Now,
	}
}

// Name implements Notifier.
func (g *GitHubFeed) Name() string { return "github-feed" }

// Send reads data.json, replaces the checkin status notification, re-sorts
// the feed by date descending, and writes the file back against the prior
// sha.
func (g *GitHubFeed) Send(ctx context.Context, msg Message) error {
	contentsURL := fmt.Sprintf("%s/repos/%s/contents/data.json", g.baseURL, g.repo)

	current, err := g.getContents(ctx, contentsURL)
	if err != nil {
		return err
	}

	raw, err := base64.StdEncoding.DecodeString(current.Content)
	if err != nil {
		return fmt.Errorf("failed to decode data.json content: %w", err)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("failed to parse data.json: %w", err)
	}

	var notifications []feedNotification
	if rawNotes, ok := doc["notifications"]; ok {
		if err := json.Unmarshal(rawNotes, &notifications); err != nil {
			return fmt.Errorf("failed to parse notifications: %w", err)
		}
	}

	now := g.clock()
	updated := feedNotification{
		ID:      feedNotificationID,
		Title:   "ikuuu 签到状态",
		Content: msg.HTML,
		Date:    now.UTC().Format(time.RFC3339),
	}

	replaced := false
	for i := range notifications {
		if notifications[i].ID == feedNotificationID {
			notifications[i] = updated
			replaced = true
			break
		}
	}
	if !replaced {
		notifications = append(notifications, updated)
	}

	sort.SliceStable(notifications, func(i, j int) bool {
		return parseFeedDate(notifications[i].Date).After(parseFeedDate(notifications[j].Date))
	})

	rawNotes, err := json.Marshal(notifications)
	if err != nil {
		return fmt.Errorf("failed to encode notifications: %w", err)
	}
	doc["notifications"] = rawNotes

	newContent, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode data.json: %w", err)
	}

	return g.putContents(ctx, contentsURL, newContent, current.SHA, now)
}

func (g *GitHubFeed) getContents(ctx context.Context, url string) (*contentsResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create contents request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch data.json: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("github contents API error: %d - %s", resp.StatusCode, string(body))
	}

	var contents contentsResponse
	if err := json.NewDecoder(resp.Body).Decode(&contents); err != nil {
		return nil, fmt.Errorf("failed to decode contents response: %w", err)
	}
	return &contents, nil
}

func (g *GitHubFeed) putContents(ctx context.Context, url string, content []byte, sha string, now time.Time) error {
	payload, err := json.Marshal(map[string]any{
		"message": fmt.Sprintf("更新 ikuuu 签到状态 - %s", now.Format("2006-01-02 15:04:05")),
		"content": base64.StdEncoding.EncodeToString(content),
		"sha":     sha,
		"branch":  g.branch,
	})
	if err != nil {
		return fmt.Errorf("failed to encode update payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create update request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to update data.json: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("github update error: %d - %s", resp.StatusCode, string(body))
	}
	return nil
}

func parseFeedDate(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
