// Package twitter calls the Twitter v2 API on behalf of connected users,
// classifying every failure into the service error taxonomy.
package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/omihq/twitter-bridge/internal/config"
	"github.com/omihq/twitter-bridge/internal/credentials"
	"github.com/omihq/twitter-bridge/internal/errs"
	"github.com/omihq/twitter-bridge/internal/logger"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// dmEventFields is requested on every DM listing so normalization has all
// its inputs.
const dmEventFields = "id,text,created_at,sender_id,participant_ids,dm_conversation_id"

// Client performs authenticated calls against the Twitter v2 API.
type Client struct {
	client    *http.Client
	baseURL   string
	refresher *credentials.Refresher
	creds     credentials.Store
}

type ClientParams struct {
	fx.In

	Config      *config.Config
	Refresher   *credentials.Refresher
	Credentials credentials.Store
}

func NewClient(params ClientParams) *Client {
	timeout := params.Config.Twitter.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		client:    &http.Client{Timeout: timeout},
		baseURL:   params.Config.Twitter.APIBaseURL,
		refresher: params.Refresher,
		creds:     params.Credentials,
	}
}

// FetchMessages lists direct-message events for the user, using valid
// credentials from the refresher. Filter values are forwarded unmodified;
// pagination cursors come back verbatim in the page meta.
func (c *Client) FetchMessages(ctx context.Context, uid string, f Filters) (*MessagePage, error) {
	creds, err := c.refresher.GetValid(ctx, uid)
	if err != nil {
		return nil, err
	}

	req, err := c.newMessagesRequest(ctx, creds.AccessToken, f)
	if err != nil {
		return nil, errs.Wrap(errs.KindInternal, "could not build request", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errs.Wrap(errs.KindTransient, "twitter request failed", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			logger.Error("Failed to close response body", zap.Error(closeErr))
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Wrap(errs.KindTransient, "could not read twitter response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.classify(ctx, uid, resp, body)
	}

	var decoded dmEventsResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, errs.Wrap(errs.KindTransient, "malformed twitter response", err)
	}

	return normalize(&decoded), nil
}

func (c *Client) newMessagesRequest(ctx context.Context, accessToken string, f Filters) (*http.Request, error) {
	path := "/2/dm_events"
	if f.ConversationID != "" {
		path = "/2/dm_conversations/" + url.PathEscape(f.ConversationID) + "/dm_events"
	}

	q := url.Values{}
	q.Set("dm_event.fields", dmEventFields)
	if f.MaxResults > 0 {
		q.Set("max_results", strconv.Itoa(f.MaxResults))
	}
	if f.PaginationToken != "" {
		q.Set("pagination_token", f.PaginationToken)
	}
	if f.SinceID != "" {
		q.Set("since_id", f.SinceID)
	}
	if f.UntilID != "" {
		q.Set("until_id", f.UntilID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	return req, nil
}

// classify maps a non-200 response to the error taxonomy. Raw provider
// error text stays in the logs; callers only see the kind.
func (c *Client) classify(ctx context.Context, uid string, resp *http.Response, body []byte) error {
	logger.Warn("twitter request rejected",
		zap.String("uid", uid),
		zap.Int("status", resp.StatusCode),
		zap.ByteString("body", body),
	)

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		// The token is dead and a refresh will not revive it; drop the
		// record so the next call reports Unauthenticated instead of
		// retrying a doomed refresh.
		if err := c.creds.Delete(ctx, uid); err != nil {
			logger.Error("Failed to delete credentials", zap.String("uid", uid), zap.Error(err))
		}
		return errs.New(errs.KindReauthRequired, "twitter rejected the access token")
	case resp.StatusCode == http.StatusTooManyRequests:
		return errs.RateLimited(retryAfter(resp.Header, time.Now()))
	case resp.StatusCode >= http.StatusInternalServerError:
		return errs.New(errs.KindTransient, fmt.Sprintf("twitter returned status %d", resp.StatusCode))
	default:
		return errs.New(errs.KindBadRequest, fmt.Sprintf("twitter returned status %d", resp.StatusCode))
	}
}

// retryAfter extracts the provider reset hint from a 429: Retry-After in
// seconds, or the x-rate-limit-reset epoch. Zero means no hint.
func retryAfter(h http.Header, now time.Time) time.Duration {
	if v := h.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
			return time.Duration(secs) * time.Second
		}
	}
	if v := h.Get("x-rate-limit-reset"); v != "" {
		if epoch, err := strconv.ParseInt(v, 10, 64); err == nil {
			if d := time.Unix(epoch, 0).Sub(now); d > 0 {
				return d
			}
		}
	}
	return 0
}

func normalize(resp *dmEventsResponse) *MessagePage {
	page := &MessagePage{
		Messages: make([]Message, 0, len(resp.Data)),
		Meta: PageMeta{
			ResultCount:   resp.Meta.ResultCount,
			NextToken:     resp.Meta.NextToken,
			PreviousToken: resp.Meta.PreviousToken,
		},
	}

	for _, ev := range resp.Data {
		page.Messages = append(page.Messages, Message{
			ID:             ev.ID,
			Text:           ev.Text,
			SenderID:       ev.SenderID,
			RecipientID:    recipientOf(ev),
			CreatedAt:      normalizeTime(ev.CreatedAt),
			ConversationID: ev.ConversationID,
		})
	}

	return page
}

// recipientOf resolves the other participant of a one-to-one conversation.
// Group conversations have no single recipient.
func recipientOf(ev dmEvent) string {
	if len(ev.ParticipantIDs) != 2 {
		return ""
	}
	for _, id := range ev.ParticipantIDs {
		if id != ev.SenderID {
			return id
		}
	}
	return ""
}

// normalizeTime re-renders the provider timestamp as RFC 3339 UTC, or
// empty when absent or unparseable.
func normalizeTime(s string) string {
	if s == "" {
		return ""
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
