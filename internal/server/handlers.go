package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/omihq/twitter-bridge/internal/errs"
	"github.com/omihq/twitter-bridge/internal/twitter"
	"github.com/omihq/twitter-bridge/internal/utils"
)

// callbackSuccessPage hands the user back to the mobile app once the
// exchange has landed.
const callbackSuccessPage = `<html>
    <head>
        <title>Twitter Login Success</title>
        <meta http-equiv="refresh" content="1;url=omiapp://">
    </head>
    <body>
        <h2>Login Successful!</h2>
        <p>Redirecting back to app...</p>
    </body>
</html>
`

func (s *Server) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uid := r.URL.Query().Get("uid")
	if uid == "" {
		utils.WriteError(w, "invalid_request", "uid is required", http.StatusBadRequest)
		return
	}

	authURL, err := s.flow.Authorize(r.Context(), uid)
	if err != nil {
		writeAPIError(w, err)
		return
	}

	utils.WriteJSON(w, map[string]string{"auth_url": authURL})
}

func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" || state == "" {
		utils.WriteError(w, "invalid_request", "code and state are required", http.StatusBadRequest)
		return
	}

	if _, err := s.flow.HandleCallback(r.Context(), code, state); err != nil {
		writeAPIError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(callbackSuccessPage))
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	uid := q.Get("uid")
	if uid == "" {
		utils.WriteError(w, "invalid_request", "uid is required", http.StatusBadRequest)
		return
	}

	filters := twitter.Filters{
		PaginationToken: q.Get("pagination_token"),
		ConversationID:  q.Get("conversation_id"),
		SinceID:         q.Get("since_id"),
		UntilID:         q.Get("until_id"),
	}
	if v := q.Get("max_results"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			utils.WriteError(w, "invalid_request", "max_results must be a positive integer", http.StatusBadRequest)
			return
		}
		filters.MaxResults = n
	}

	page, err := s.client.FetchMessages(r.Context(), uid, filters)
	if err != nil {
		writeAPIError(w, err)
		return
	}

	utils.WriteJSON(w, page)
}

// writeAPIError maps the error taxonomy onto HTTP. Messages derive from
// the kind alone; provider error text never reaches the client.
func writeAPIError(w http.ResponseWriter, err error) {
	switch kind := errs.KindOf(err); kind {
	case errs.KindInvalidState:
		utils.WriteError(w, string(kind), "Invalid or expired state parameter", http.StatusBadRequest)
	case errs.KindExchangeFailed:
		utils.WriteError(w, string(kind), "Failed to complete Twitter authentication", http.StatusBadRequest)
	case errs.KindUnauthenticated, errs.KindReauthRequired:
		utils.WriteError(w, string(kind), "Twitter authorization required", http.StatusUnauthorized)
	case errs.KindRateLimited:
		var e *errs.Error
		if errors.As(err, &e) && e.RetryAfter > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(int(e.RetryAfter.Seconds())))
		}
		utils.WriteError(w, string(kind), "Rate limited by Twitter, retry later", http.StatusTooManyRequests)
	case errs.KindBadRequest:
		utils.WriteError(w, string(kind), "Twitter rejected the request", http.StatusBadRequest)
	case errs.KindTransient:
		utils.WriteError(w, string(kind), "Temporary upstream failure, retry later", http.StatusBadGateway)
	default:
		utils.WriteError(w, string(errs.KindInternal), "Internal server error", http.StatusInternalServerError)
	}
}
