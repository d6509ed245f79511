package event

import (
	"encoding/json"
	"fmt"
	"os"

	"git.pepabo.com/yukyan/gh-scope-collision/github/model"
)

// Load はイベントペイロードを読み込みます
func Load(path string) (model.Event, error) {
	if path == "" {
		return model.Event{}, fmt.Errorf("%w: missing GITHUB_EVENT_PATH, cannot run in this environment", model.ErrMisconfigured)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return model.Event{}, fmt.Errorf("%w: failed to read event payload: %v", model.ErrMisconfigured, err)
	}

	var ev model.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return model.Event{}, fmt.Errorf("%w: failed to parse event payload %s: %v", model.ErrMisconfigured, path, err)
	}

	return ev, nil
}
