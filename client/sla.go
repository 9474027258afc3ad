package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// SLAEventsService wraps the workflow SLA events endpoint, project-scoped.
type SLAEventsService struct {
	client    *Client
	projectID string
}

// SLAEvents returns an SLA events service bound to projectID.
func (c *Client) SLAEvents(projectID string) *SLAEventsService {
	return &SLAEventsService{client: c, projectID: projectID}
}

// SLAEventListOptions filter List calls.
type SLAEventListOptions struct {
	IssueID string
	State   string
	Limit   int
}

// List returns SLA events for the project.
func (s *SLAEventsService) List(ctx context.Context, opts *SLAEventListOptions) (map[string]any, error) {
	if s.projectID == "" {
		return nil, fmt.Errorf("project_id is required for SLA queries")
	}

	query := url.Values{}
	query.Set("project_id", s.projectID)
	if opts != nil {
		if opts.IssueID != "" {
			query.Set("issue_id", opts.IssueID)
		}
		if opts.State != "" {
			query.Set("state", opts.State)
		}
		if opts.Limit > 0 {
			query.Set("limit", strconv.Itoa(opts.Limit))
		}
	}

	var out map[string]any
	if err := s.client.Get(ctx, "/api/v1/ext/sla/events", &RequestOptions{Query: query}, &out); err != nil {
		return nil, err
	}
	return out, nil
}
