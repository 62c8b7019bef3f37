package github

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/go-github/v81/github"
	"github.com/sirupsen/logrus"
)

// Commit status states accepted by the API.
const (
	StateSuccess = "success"
	StateFailure = "failure"
	StateError   = "error"
	StatePending = "pending"
)

// maxDescriptionLen is the API limit on status descriptions.
const maxDescriptionLen = 140

// StatusPublisher posts commit statuses for one repository and commit.
type StatusPublisher struct {
	Client    *Client
	Owner     string
	Repo      string
	SHA       string
	Context   string
	TargetURL string
}

// NewStatusPublisher splits ownerRepo ("OWNER/REPO").
func NewStatusPublisher(c *Client, ownerRepo, sha, statusContext, targetURL string) (*StatusPublisher, error) {
	owner, repo, ok := strings.Cut(strings.TrimSpace(ownerRepo), "/")
	if !ok || owner == "" || repo == "" {
		return nil, fmt.Errorf("invalid repository %q: expected OWNER/REPO", ownerRepo)
	}
	if strings.TrimSpace(sha) == "" {
		return nil, errors.New("commit sha is required")
	}
	return &StatusPublisher{
		Client:    c,
		Owner:     owner,
		Repo:      repo,
		SHA:       strings.TrimSpace(sha),
		Context:   statusContext,
		TargetURL: targetURL,
	}, nil
}

// Publish creates a status on the commit. Descriptions longer than the API
// limit are cut.
func (p *StatusPublisher) Publish(ctx context.Context, state, description string) error {
	if p == nil || p.Client == nil || p.Client.Client == nil {
		return errors.New("status publisher: client is nil")
	}
	if r := []rune(description); len(r) > maxDescriptionLen {
		description = string(r[:maxDescriptionLen])
	}
	status := github.RepoStatus{
		State:       github.Ptr(state),
		Description: github.Ptr(description),
	}
	if p.Context != "" {
		status.Context = github.Ptr(p.Context)
	}
	if p.TargetURL != "" {
		status.TargetURL = github.Ptr(p.TargetURL)
	}

	if _, _, err := p.Client.Client.Repositories.CreateStatus(ctx, p.Owner, p.Repo, p.SHA, status); err != nil {
		return fmt.Errorf("create commit status on %s/%s@%s: %w", p.Owner, p.Repo, p.SHA, err)
	}
	log.WithFields(logrus.Fields{
		"repo":  p.Owner + "/" + p.Repo,
		"sha":   p.SHA,
		"state": state,
	}).Info("commit status published")
	return nil
}
