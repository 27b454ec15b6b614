package github

import (
	"errors"
	"net/http"

	gh "github.com/google/go-github/v72/github"

	"github.com/openstax-kanban/issue-importer/internal/types"
)

// classify wraps a go-github error in a *types.RemoteError whose Kind reflects
// the HTTP status.
func classify(op, target string, err error) error {
	if err == nil {
		return nil
	}
	return &types.RemoteError{Op: op, Target: target, Kind: kindOf(err), Err: err}
}

func kindOf(err error) error {
	var rateErr *gh.RateLimitError
	if errors.As(err, &rateErr) {
		return types.ErrRemoteForbidden
	}
	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return types.ErrRemoteForbidden
	}

	switch statusOf(err) {
	case http.StatusNotFound:
		return types.ErrRemoteNotFound
	case http.StatusForbidden:
		return types.ErrRemoteForbidden
	}
	return nil
}

// statusOf returns the HTTP status carried by a go-github error, or 0.
func statusOf(err error) int {
	var respErr *gh.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		return respErr.Response.StatusCode
	}
	return 0
}
