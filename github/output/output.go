package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"git.pepabo.com/yukyan/gh-scope-collision/github/model"
)

// Report is the outcome of a single run
type Report struct {
	Repository string            `json:"repository"`
	Kind       model.Kind        `json:"kind,omitempty"`
	Number     int               `json:"number,omitempty"`
	Scope      string            `json:"scope,omitempty"`
	Mode       model.Mode        `json:"mode"`
	Collisions []model.Collision `json:"collisions"`
	CommentURL string            `json:"comment_url,omitempty"`
	Blocked    bool              `json:"blocked"`
	Message    string            `json:"message"`
}

// RenderComment は衝突通知コメントのMarkdownを生成します
func RenderComment(scope string, collisions []model.Collision) string {
	var b strings.Builder

	b.WriteString("## ⚠️ Scope collision detected\n\n")
	fmt.Fprintf(&b, "**SCOPE:** `%s`\n\n", scope)
	b.WriteString("This scope is already active in the following open items:\n")
	for _, c := range collisions {
		fmt.Fprintf(&b, "- %s #%d: %s\n", c.Type, c.Number, c.URL)
	}

	b.WriteString("\n### Resolution options\n")
	b.WriteString("- Assign a primary owner and link the other item as dependent\n")
	b.WriteString("- Split scope into two non-overlapping scopes\n")
	b.WriteString("- Close one item if it is a duplicate\n\n")
	b.WriteString("Receipt: this comment is the collision notice. Add a decision record if you resolve by splitting or re-assigning ownership.")

	return b.String()
}

// WriteReport は実行結果を指定フォーマットで出力します
func WriteReport(w io.Writer, report Report, format string) error {
	if report.Collisions == nil {
		report.Collisions = []model.Collision{}
	}

	switch format {
	case "json":
		return writeJSONFormat(w, report)
	case "text":
		_, err := fmt.Fprintln(w, report.Message)
		return err
	default:
		return fmt.Errorf("Unsupported output format: %s", format)
	}
}

// JSON形式で出力
func writeJSONFormat(w io.Writer, report Report) error {
	jsonData, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(jsonData))
	return err
}
