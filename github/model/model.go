package model

import (
	"errors"
	"strings"
)

// ErrMisconfigured marks errors caused by the run environment rather than the API
var ErrMisconfigured = errors.New("misconfigured")

// Kind of the triggering item
type Kind string

const (
	KindIssue       Kind = "issue"
	KindPullRequest Kind = "pull_request"
)

// Mode controls what happens when a collision is found on a pull request
type Mode string

const (
	ModeWarn  Mode = "warn"
	ModeBlock Mode = "block"
)

// ParseMode は設定値をModeに変換します。未知の値はwarnになります
func ParseMode(s string) Mode {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeBlock:
		return ModeBlock
	default:
		return ModeWarn
	}
}

// Struct to hold information about a PR or an Issue
type Item struct {
	Number int    `json:"number"`   // PR number or Issue number
	Title  string `json:"title"`    // Title
	Body   string `json:"body"`     // Body (null is decoded as empty)
	URL    string `json:"html_url"` // URL
}

// Event is the webhook payload that triggered the run
type Event struct {
	Repository struct {
		FullName string `json:"full_name"`
	} `json:"repository"`
	Issue       *Item `json:"issue"`
	PullRequest *Item `json:"pull_request"`
}

// Subject is the item the event is about
type Subject struct {
	Kind Kind
	Item Item
}

// Subject は対象のIssueまたはPRを返します。どちらも無い場合はfalse
func (e Event) Subject() (Subject, bool) {
	switch {
	case e.Issue != nil:
		return Subject{Kind: KindIssue, Item: *e.Issue}, true
	case e.PullRequest != nil:
		return Subject{Kind: KindPullRequest, Item: *e.PullRequest}, true
	default:
		return Subject{}, false
	}
}

// Repository identifies owner/name on a host
type Repository struct {
	Host  string
	Owner string
	Name  string
}

func (r Repository) String() string {
	return r.Owner + "/" + r.Name
}

// OpenItem is an entry from the open issues listing
type OpenItem struct {
	Item
	IsPullRequest bool
}

// Collision is another open item declaring the same scope
type Collision struct {
	Number int    `json:"number"`
	Type   string `json:"type"` // "PR" or "Issue"
	URL    string `json:"url"`
}
