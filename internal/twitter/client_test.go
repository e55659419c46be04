package twitter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/omihq/twitter-bridge/internal/auth/providers"
	"github.com/omihq/twitter-bridge/internal/config"
	"github.com/omihq/twitter-bridge/internal/credentials"
	"github.com/omihq/twitter-bridge/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient wires a client against a stub API server, with fresh
// credentials for "u1" already in the store so no refresh happens.
func newTestClient(t *testing.T, apiHandler http.HandlerFunc) (*Client, credentials.Store) {
	t.Helper()

	api := httptest.NewServer(apiHandler)
	t.Cleanup(api.Close)

	cfg := &config.Config{
		Twitter: config.TwitterConfig{
			APIBaseURL:     api.URL,
			RefreshSkew:    30 * time.Second,
			RequestTimeout: 5 * time.Second,
		},
	}

	store := credentials.NewMemoryStore()
	require.NoError(t, store.Set(context.Background(), "u1", &credentials.Credentials{
		UID:         "u1",
		AccessToken: "AT1",
		ExpiresAt:   time.Now().Add(time.Hour),
	}))

	provider := providers.NewTwitterProvider(&cfg.Twitter)
	refresher := credentials.NewRefresher(store, provider, cfg)

	client := NewClient(ClientParams{
		Config:      cfg,
		Refresher:   refresher,
		Credentials: store,
	})
	return client, store
}

func TestFetchMessagesPassthroughAndNormalize(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2/dm_events", r.URL.Path)
		assert.Equal(t, "Bearer AT1", r.Header.Get("Authorization"))

		q := r.URL.Query()
		assert.Equal(t, "50", q.Get("max_results"))
		assert.Equal(t, "abc", q.Get("pagination_token"))
		assert.Equal(t, "100", q.Get("since_id"))
		assert.NotEmpty(t, q.Get("dm_event.fields"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{
					"id":                 "1585321400000",
					"text":               "hello there",
					"sender_id":          "2244994945",
					"created_at":         "2023-01-15T09:30:00.000Z",
					"dm_conversation_id": "1585094756761149440",
					"participant_ids":    []string{"2244994945", "17874544"},
				},
				{
					"id":        "1585321400001",
					"text":      "no timestamp on this one",
					"sender_id": "17874544",
				},
			},
			"meta": map[string]interface{}{
				"result_count":   2,
				"next_token":     "xyz",
				"previous_token": "uvw",
			},
		})
	})

	page, err := client.FetchMessages(context.Background(), "u1", Filters{
		MaxResults:      50,
		PaginationToken: "abc",
		SinceID:         "100",
	})
	require.NoError(t, err)

	want := &MessagePage{
		Messages: []Message{
			{
				ID:             "1585321400000",
				Text:           "hello there",
				SenderID:       "2244994945",
				RecipientID:    "17874544",
				CreatedAt:      "2023-01-15T09:30:00Z",
				ConversationID: "1585094756761149440",
			},
			{
				ID:       "1585321400001",
				Text:     "no timestamp on this one",
				SenderID: "17874544",
			},
		},
		Meta: PageMeta{ResultCount: 2, NextToken: "xyz", PreviousToken: "uvw"},
	}
	if diff := cmp.Diff(want, page); diff != "" {
		t.Errorf("normalized page mismatch (-want +got):\n%s", diff)
	}
}

func TestFetchMessagesConversationPath(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2/dm_conversations/conv1/dm_events", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{},
			"meta": map[string]interface{}{"result_count": 0},
		})
	})

	page, err := client.FetchMessages(context.Background(), "u1", Filters{ConversationID: "conv1"})
	require.NoError(t, err)
	assert.Empty(t, page.Messages)
	assert.Equal(t, 0, page.Meta.ResultCount)
}

func TestFetchMessagesUnauthorizedDeletesCredentials(t *testing.T) {
	client, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	ctx := context.Background()

	_, err := client.FetchMessages(ctx, "u1", Filters{})
	assert.True(t, errs.IsKind(err, errs.KindReauthRequired))

	stored, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestFetchMessagesRateLimited(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "120")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.FetchMessages(context.Background(), "u1", Filters{})
	require.True(t, errs.IsKind(err, errs.KindRateLimited))

	var e *errs.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, 120*time.Second, e.RetryAfter)
}

func TestFetchMessagesErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   errs.Kind
	}{
		{"forbidden is a bad request", http.StatusForbidden, errs.KindBadRequest},
		{"not found is a bad request", http.StatusNotFound, errs.KindBadRequest},
		{"server error is transient", http.StatusInternalServerError, errs.KindTransient},
		{"bad gateway is transient", http.StatusBadGateway, errs.KindTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})
			_, err := client.FetchMessages(context.Background(), "u1", Filters{})
			assert.Equal(t, tt.want, errs.KindOf(err))
		})
	}
}

func TestFetchMessagesUnauthenticated(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("request must not reach the API without credentials")
	})

	_, err := client.FetchMessages(context.Background(), "nobody", Filters{})
	assert.True(t, errs.IsKind(err, errs.KindUnauthenticated))
}

func TestRetryAfterHints(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	tests := []struct {
		name   string
		header http.Header
		want   time.Duration
	}{
		{"retry-after seconds", http.Header{"Retry-After": []string{"60"}}, time.Minute},
		{"rate limit reset epoch", http.Header{"X-Rate-Limit-Reset": []string{"1700000090"}}, 90 * time.Second},
		{"reset in the past", http.Header{"X-Rate-Limit-Reset": []string{"1600000000"}}, 0},
		{"no hint", http.Header{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, retryAfter(tt.header, now))
		})
	}
}
