// Package github is the pull request collaborator: it lists the jobs of a
// workflow run, posts the aggregated comment and replaces the PR labels.
package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	gh "github.com/google/go-github/v30/github"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

// Job is the subset of a workflow job the aggregator needs.
type Job struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Status     string `json:"status"`
	Conclusion string `json:"conclusion"`
}

// Client talks to one repository.
type Client struct {
	gh    *gh.Client
	owner string
	repo  string
}

// New returns a client for repository ("owner/name"). An empty token yields
// an unauthenticated client, which is enough for listing jobs of public
// repositories. apiURL selects a GitHub Enterprise endpoint; "" or the public
// API URL use api.github.com.
func New(ctx context.Context, token, apiURL, repository string) (*Client, error) {
	var hc *http.Client
	if token != "" {
		hc = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	}
	if strings.TrimSuffix(apiURL, "/") == "https://api.github.com" {
		apiURL = ""
	}
	return NewWithHTTP(hc, apiURL, repository)
}

// NewWithHTTP builds a client on hc. A non-empty baseURL replaces the public
// API endpoint, e.g. for GitHub Enterprise.
func NewWithHTTP(hc *http.Client, baseURL, repository string) (*Client, error) {
	owner, repo, err := SplitRepository(repository)
	if err != nil {
		return nil, err
	}
	c := gh.NewClient(hc)
	if baseURL != "" {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("parse api url: %w", err)
		}
		c.BaseURL = u
	}
	return &Client{gh: c, owner: owner, repo: repo}, nil
}

// SplitRepository splits "owner/name".
func SplitRepository(repository string) (string, string, error) {
	parts := strings.Split(strings.TrimSpace(repository), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("repository must be owner/name, got %q", repository)
	}
	return parts[0], parts[1], nil
}

// ListRunJobs returns every job of workflow run runID, following pagination.
func (c *Client) ListRunJobs(ctx context.Context, runID int64) ([]Job, error) {
	var all []Job
	opts := &gh.ListWorkflowJobsOptions{ListOptions: gh.ListOptions{PerPage: 100, Page: 1}}
	for {
		page, resp, err := c.gh.Actions.ListWorkflowJobs(ctx, c.owner, c.repo, runID, opts)
		if err != nil {
			return nil, fmt.Errorf("list jobs of run %d: %w", runID, err)
		}
		for _, j := range page.Jobs {
			all = append(all, Job{ID: j.GetID(), Name: j.GetName(), Status: j.GetStatus(), Conclusion: j.GetConclusion()})
		}
		logrus.WithFields(logrus.Fields{"run": runID, "page": opts.Page}).Debugf("fetched %d jobs", len(page.Jobs))
		if resp.NextPage == 0 {
			return all, nil
		}
		opts.Page = resp.NextPage
	}
}

// PostComment adds body as a new comment on pull request pr.
func (c *Client) PostComment(ctx context.Context, pr int, body string) error {
	_, _, err := c.gh.Issues.CreateComment(ctx, c.owner, c.repo, pr, &gh.IssueComment{Body: gh.String(body)})
	if err != nil {
		return fmt.Errorf("comment on #%d: %w", pr, err)
	}
	return nil
}

// SetLabels replaces the labels of pull request pr.
func (c *Client) SetLabels(ctx context.Context, pr int, labels []string) error {
	if labels == nil {
		labels = []string{}
	}
	_, _, err := c.gh.Issues.ReplaceLabelsForIssue(ctx, c.owner, c.repo, pr, labels)
	if err != nil {
		return fmt.Errorf("set labels on #%d: %w", pr, err)
	}
	return nil
}
