// Package collision finds open items that declare the same SCOPE as the
// triggering issue or pull request and reports them back.
package collision

import (
	"context"
	"fmt"

	"git.pepabo.com/yukyan/gh-scope-collision/github/model"
	"git.pepabo.com/yukyan/gh-scope-collision/github/output"
	"git.pepabo.com/yukyan/gh-scope-collision/github/util"
	"github.com/charmbracelet/log"
)

// Lister lists open issues and pull requests
type Lister interface {
	ListOpenItems(ctx context.Context, repo model.Repository) ([]model.OpenItem, error)
}

// Commenter posts a comment on an issue or pull request
type Commenter interface {
	CreateComment(ctx context.Context, repo model.Repository, number int, body string) (string, error)
}

// API is the subset of the GitHub client a Runner needs
type API interface {
	Lister
	Commenter
}

// Scanner compares scopes across open items
type Scanner struct {
	lister Lister
}

// NewScanner は一覧取得に lister を使う Scanner を作成します
func NewScanner(lister Lister) *Scanner {
	return &Scanner{lister: lister}
}

// Scan は同じSCOPEを宣言している他のオープンなアイテムを返します
func (s *Scanner) Scan(ctx context.Context, repo model.Repository, number int, scope string) ([]model.Collision, error) {
	if scope == "" {
		return nil, nil
	}

	items, err := s.lister.ListOpenItems(ctx, repo)
	if err != nil {
		return nil, err
	}

	var collisions []model.Collision
	for _, it := range items {
		if it.Number == number {
			continue
		}

		itScope, ok := util.ExtractScope(it.Body)
		if !ok || itScope != scope {
			continue
		}

		kind := "Issue"
		if it.IsPullRequest {
			kind = "PR"
		}
		collisions = append(collisions, model.Collision{
			Number: it.Number,
			Type:   kind,
			URL:    it.URL,
		})
	}

	return collisions, nil
}

// Options for a Runner
type Options struct {
	Host   string
	Mode   model.Mode
	DryRun bool
	Logger *log.Logger
}

// Runner drives one invocation from event to gate decision.
type Runner struct {
	api     API
	scanner *Scanner
	opts    Options
	logger  *log.Logger
}

// NewRunner は新しい Runner を作成します。Logger が nil の場合はデフォルトを使います
func NewRunner(api API, opts Options) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	if opts.Mode == "" {
		opts.Mode = model.ModeWarn
	}
	return &Runner{
		api:     api,
		scanner: NewScanner(api),
		opts:    opts,
		logger:  logger,
	}
}

// Run はイベントを処理し、結果を返します。
// Report.Blocked が true の場合、呼び出し側はチェックを失敗させる必要があります
func (r *Runner) Run(ctx context.Context, ev model.Event) (output.Report, error) {
	report := output.Report{
		Repository: ev.Repository.FullName,
		Mode:       r.opts.Mode,
	}

	subject, ok := ev.Subject()
	if !ok {
		report.Message = "Unsupported event type. Expected issues or pull_request."
		r.logger.Info(report.Message)
		return report, nil
	}
	report.Kind = subject.Kind

	repo, err := util.ParseRepository(ev.Repository.FullName, r.opts.Host)
	if err != nil {
		return report, fmt.Errorf("cannot determine repository full_name from event payload: %w", err)
	}

	number := subject.Item.Number
	if number <= 0 {
		return report, fmt.Errorf("%w: missing issue/PR number", model.ErrMisconfigured)
	}
	report.Number = number

	scope, ok := util.ExtractScope(subject.Item.Body)
	if !ok {
		report.Message = fmt.Sprintf("No SCOPE declared on %s #%d.", subject.Kind, number)
		r.logger.Debug(report.Message)
		return report, nil
	}
	report.Scope = scope
	logger := r.logger.With("repo", repo.String(), "number", number, "scope", scope)

	collisions, err := r.scanner.Scan(ctx, repo, number, scope)
	if err != nil {
		return report, err
	}
	report.Collisions = collisions

	if len(collisions) == 0 {
		report.Message = fmt.Sprintf("No scope collisions for %s #%d.", subject.Kind, number)
		logger.Info(report.Message)
		return report, nil
	}

	comment := output.RenderComment(scope, collisions)
	if r.opts.DryRun {
		logger.Info("dry run, not posting collision comment", "comment", comment)
	} else {
		url, err := r.api.CreateComment(ctx, repo, number, comment)
		if err != nil {
			return report, err
		}
		report.CommentURL = url
		logger.Info("posted collision comment", "url", url, "collisions", len(collisions))
	}

	if subject.Kind == model.KindPullRequest && r.opts.Mode == model.ModeBlock {
		report.Blocked = true
		report.Message = fmt.Sprintf("Collision found for PR #%d, failing because COORD_MODE=block.", number)
		logger.Error(report.Message)
		return report, nil
	}

	report.Message = fmt.Sprintf("Collision found for %s #%d, mode=%s.", subject.Kind, number, r.opts.Mode)
	logger.Warn(report.Message)
	return report, nil
}
