package twitter

// Filters narrows a direct-message listing. Zero values are omitted from
// the request; anything set is forwarded to the API verbatim.
type Filters struct {
	MaxResults      int
	PaginationToken string
	ConversationID  string
	SinceID         string
	UntilID         string
}

// Message is the normalized direct-message event surfaced to callers,
// decoupled from the wire shape of the Twitter API.
type Message struct {
	ID             string `json:"id"`
	Text           string `json:"text"`
	SenderID       string `json:"sender_id,omitempty"`
	RecipientID    string `json:"recipient_id,omitempty"`
	CreatedAt      string `json:"created_at,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// PageMeta carries the provider pagination cursors unchanged.
type PageMeta struct {
	ResultCount   int    `json:"result_count"`
	NextToken     string `json:"next_token,omitempty"`
	PreviousToken string `json:"previous_token,omitempty"`
}

type MessagePage struct {
	Messages []Message `json:"messages"`
	Meta     PageMeta  `json:"meta"`
}

// Wire shapes of the v2 DM events endpoints.
type dmEvent struct {
	ID             string   `json:"id"`
	Text           string   `json:"text"`
	SenderID       string   `json:"sender_id"`
	CreatedAt      string   `json:"created_at"`
	ConversationID string   `json:"dm_conversation_id"`
	ParticipantIDs []string `json:"participant_ids"`
}

type dmEventsResponse struct {
	Data []dmEvent `json:"data"`
	Meta struct {
		ResultCount   int    `json:"result_count"`
		NextToken     string `json:"next_token"`
		PreviousToken string `json:"previous_token"`
	} `json:"meta"`
}
