package util

import (
	"fmt"
	"strings"

	"git.pepabo.com/yukyan/gh-scope-collision/github/model"
	"github.com/cli/go-gh/v2/pkg/repository"
)

// ParseRepository は "owner/repo" 形式の full_name を解析します
func ParseRepository(fullName, host string) (model.Repository, error) {
	fullName = strings.TrimSpace(fullName)
	if strings.Count(fullName, "/") != 1 {
		return model.Repository{}, fmt.Errorf("%w: cannot determine repository from full_name %q", model.ErrMisconfigured, fullName)
	}

	repo, err := repository.ParseWithHost(fullName, host)
	if err != nil {
		return model.Repository{}, fmt.Errorf("%w: %v", model.ErrMisconfigured, err)
	}

	return model.Repository{
		Host:  repo.Host,
		Owner: repo.Owner,
		Name:  repo.Name,
	}, nil
}
