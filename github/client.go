package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"git.pepabo.com/yukyan/gh-scope-collision/github/model"
	"github.com/charmbracelet/log"
	"github.com/cli/go-gh/v2/pkg/api"
)

const (
	userAgent       = "coordination-scope-collision"
	listPageSize    = 100
	defaultTimeout  = 30 * time.Second
	defaultRetries  = 3
	defaultRetryGap = 2 * time.Second
)

// Options configures a Client
type Options struct {
	Host      string
	Token     string
	Timeout   time.Duration
	Transport http.RoundTripper
	Logger    *log.Logger

	// MaxRetries applies to the listing call only; comments are never re-posted.
	MaxRetries int
	RetryDelay time.Duration
}

// Client は GitHub API を操作するためのクライアント
type Client struct {
	client     *api.RESTClient
	logger     *log.Logger
	maxRetries int
	retryDelay time.Duration
}

// NewClient は新しいGitHubクライアントを作成します
func NewClient(opts Options) (*Client, error) {
	if opts.Token == "" {
		return nil, fmt.Errorf("%w: missing GITHUB_TOKEN", model.ErrMisconfigured)
	}
	if opts.Host == "" {
		opts.Host = "github.com"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = defaultRetries
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = defaultRetryGap
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	client, err := api.NewRESTClient(api.ClientOptions{
		Host:      opts.Host,
		AuthToken: opts.Token,
		Timeout:   opts.Timeout,
		Transport: opts.Transport,
		Headers: map[string]string{
			"Authorization": "Bearer " + opts.Token,
			"Accept":        "application/vnd.github+json",
			"User-Agent":    userAgent,
		},
		LogIgnoreEnv: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize GitHub client: %w", err)
	}

	return &Client{
		client:     client,
		logger:     opts.Logger,
		maxRetries: opts.MaxRetries,
		retryDelay: opts.RetryDelay,
	}, nil
}

// Issues listing entries carry a pull_request object when they are PRs.
type listedItem struct {
	model.Item
	PullRequest *json.RawMessage `json:"pull_request"`
}

// ListOpenItems はオープンなIssueとPRを1ページ分（最大100件）取得します
func (c *Client) ListOpenItems(ctx context.Context, repo model.Repository) ([]model.OpenItem, error) {
	path := fmt.Sprintf("repos/%s/%s/issues?state=open&per_page=%d", repo.Owner, repo.Name, listPageSize)

	var raw json.RawMessage
	var err error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		err = c.client.DoWithContext(ctx, http.MethodGet, path, nil, &raw)
		if err == nil || !retryable(err) || attempt == c.maxRetries {
			break
		}

		c.logger.Warn("listing open items failed, retrying", "repo", repo.String(), "attempt", attempt, "err", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.retryDelay):
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list open items for %s: %w", repo, err)
	}

	var listed []listedItem
	if err := json.Unmarshal(raw, &listed); err != nil {
		c.logger.Debug("listing response is not a list, treating as empty", "repo", repo.String(), "err", err)
		return nil, nil
	}

	items := make([]model.OpenItem, 0, len(listed))
	for _, it := range listed {
		items = append(items, model.OpenItem{
			Item:          it.Item,
			IsPullRequest: it.PullRequest != nil,
		})
	}
	return items, nil
}

// CreateComment はIssueまたはPRにコメントを投稿し、コメントのURLを返します
func (c *Client) CreateComment(ctx context.Context, repo model.Repository, number int, body string) (string, error) {
	payload, err := json.Marshal(struct {
		Body string `json:"body"`
	}{Body: body})
	if err != nil {
		return "", err
	}

	// PRs are addressed through the Issues API as well
	path := fmt.Sprintf("repos/%s/%s/issues/%d/comments", repo.Owner, repo.Name, number)

	var created struct {
		URL string `json:"html_url"`
	}
	if err := c.client.DoWithContext(ctx, http.MethodPost, path, bytes.NewReader(payload), &created); err != nil {
		return "", fmt.Errorf("failed to post comment on #%d: %w", number, err)
	}

	return created.URL, nil
}

// Client errors other than rate limiting will not improve on retry.
func retryable(err error) bool {
	var httpErr *api.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode >= 500 || httpErr.StatusCode == http.StatusTooManyRequests
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}
