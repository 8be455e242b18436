package twitter

import (
	"fmt"
	"time"
)

// Stream endpoints.
const (
	SearchStreamPath = "/2/tweets/search/stream"
	SampleStreamPath = "/2/tweets/sample/stream"
)

// Tweet is one record of a filtered or sampled stream.
type Tweet struct {
	Data          *TweetData     `json:"data,omitempty"`
	Includes      *Includes      `json:"includes,omitempty"`
	MatchingRules []MatchingRule `json:"matching_rules,omitempty"`
	Errors        []APIError     `json:"errors,omitempty"`
}

// TweetData holds the core tweet fields.
type TweetData struct {
	ID             string    `json:"id"`
	Text           string    `json:"text"`
	AuthorID       string    `json:"author_id,omitempty"`
	CreatedAt      time.Time `json:"created_at,omitzero"`
	ConversationID string    `json:"conversation_id,omitempty"`
	Lang           string    `json:"lang,omitempty"`
}

// Includes carries expanded objects referenced by a tweet.
type Includes struct {
	Users  []User      `json:"users,omitempty"`
	Tweets []TweetData `json:"tweets,omitempty"`
}

// User is a platform account.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

// UserResponse wraps a single-user lookup.
type UserResponse struct {
	Data   *User      `json:"data,omitempty"`
	Errors []APIError `json:"errors,omitempty"`
}

// TweetResponse wraps a single-tweet lookup.
type TweetResponse struct {
	Data     *TweetData `json:"data,omitempty"`
	Includes *Includes  `json:"includes,omitempty"`
	Errors   []APIError `json:"errors,omitempty"`
}

// MatchingRule names the filter rule a streamed tweet matched.
type MatchingRule struct {
	ID  string `json:"id"`
	Tag string `json:"tag,omitempty"`
}

// APIError is one entry of an errors array.
type APIError struct {
	Title   string `json:"title,omitempty"`
	Detail  string `json:"detail,omitempty"`
	Type    string `json:"type,omitempty"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

// StreamError is an error document delivered on a stream connection.
type StreamError struct {
	Title           string     `json:"title,omitempty"`
	Detail          string     `json:"detail,omitempty"`
	Type            string     `json:"type,omitempty"`
	Status          int        `json:"status,omitempty"`
	ConnectionIssue string     `json:"connection_issue,omitempty"`
	Errors          []APIError `json:"errors,omitempty"`
}

// Error implements the error interface.
func (e StreamError) Error() string {
	switch {
	case e.Detail != "":
		return fmt.Sprintf("twitter: stream error %d: %s: %s", e.Status, e.Title, e.Detail)
	case e.Title != "":
		return fmt.Sprintf("twitter: stream error %d: %s", e.Status, e.Title)
	default:
		return fmt.Sprintf("twitter: stream error %d", e.Status)
	}
}
