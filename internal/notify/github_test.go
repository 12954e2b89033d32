package notify

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhanghanyun/ikuuu-checkin/internal/config"
)

func newTestFeed(t *testing.T, handler http.Handler) *GitHubFeed {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	feed := NewGitHubFeed(config.GitHubConfig{Token: "tok", Repo: "me/feed", Branch: "main"})
	feed.baseURL = srv.URL
	feed.clock = func() time.Time {
		return time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	}
	return feed
}

func encodeDataJSON(t *testing.T, doc map[string]any) string {
	t.Helper()
	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(raw)
}

func TestGitHubFeedSendReplacesAndSorts(t *testing.T) {
	existing := map[string]any{
		"site": "example",
		"notifications": []map[string]any{
			{"id": 1, "title": "welcome", "content": "hi", "date": "2026-08-30T00:00:00Z"},
			{"id": 2, "title": "ikuuu 签到状态", "content": "old", "date": "2026-08-01T00:00:00Z"},
		},
	}

	var gotPut map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/me/feed/contents/data.json", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			assert.Contains(t, r.Header.Get("Authorization"), "tok")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"content": encodeDataJSON(t, existing),
				"sha":     "abc123",
			})
		case http.MethodPut:
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPut))
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	feed := newTestFeed(t, mux)

	err := feed.Send(context.Background(), Message{HTML: "状态更新<br>✅ alice: 获得 2.0GB"})
	require.NoError(t, err)

	require.NotNil(t, gotPut)
	assert.Equal(t, "abc123", gotPut["sha"], "prior revision marker must gate the write")
	assert.Equal(t, "main", gotPut["branch"])
	assert.Contains(t, gotPut["message"], "更新 ikuuu 签到状态")

	raw, err := base64.StdEncoding.DecodeString(gotPut["content"].(string))
	require.NoError(t, err)

	var doc struct {
		Site          string             `json:"site"`
		Notifications []feedNotification `json:"notifications"`
	}
	require.NoError(t, json.Unmarshal(raw, &doc))

	assert.Equal(t, "example", doc.Site, "unrelated top-level fields survive the rewrite")
	require.Len(t, doc.Notifications, 2)

	// The refreshed entry is newest, so it sorts first.
	assert.Equal(t, feedNotificationID, doc.Notifications[0].ID)
	assert.Equal(t, "状态更新<br>✅ alice: 获得 2.0GB", doc.Notifications[0].Content)
	assert.Equal(t, "2026-09-01T08:00:00Z", doc.Notifications[0].Date)
	assert.Equal(t, 1, doc.Notifications[1].ID)
}

func TestGitHubFeedSendInsertsWhenMissing(t *testing.T) {
	existing := map[string]any{"notifications": []map[string]any{}}

	var gotPut map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/me/feed/contents/data.json", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"content": encodeDataJSON(t, existing),
				"sha":     "def456",
			})
			return
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPut))
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	})

	feed := newTestFeed(t, mux)
	require.NoError(t, feed.Send(context.Background(), Message{HTML: "first update"}))

	raw, err := base64.StdEncoding.DecodeString(gotPut["content"].(string))
	require.NoError(t, err)

	var doc struct {
		Notifications []feedNotification `json:"notifications"`
	}
	require.NoError(t, json.Unmarshal(raw, &doc))
	require.Len(t, doc.Notifications, 1)
	assert.Equal(t, feedNotificationID, doc.Notifications[0].ID)
}

func TestGitHubFeedSendRevisionConflict(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/me/feed/contents/data.json", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"content": encodeDataJSON(t, map[string]any{"notifications": []map[string]any{}}),
				"sha":     "stale",
			})
			return
		}
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"message":"data.json does not match stale"}`))
	})

	feed := newTestFeed(t, mux)
	err := feed.Send(context.Background(), Message{HTML: "update"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "409")
}
