package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// CustomDataService wraps the extension custom data endpoints. All operations
// are scoped to the project the service was built with.
type CustomDataService struct {
	client    *Client
	projectID string
}

// CustomData returns a custom data service bound to projectID.
func (c *Client) CustomData(projectID string) *CustomDataService {
	return &CustomDataService{client: c, projectID: projectID}
}

// CustomDataListOptions filter and bound List calls.
type CustomDataListOptions struct {
	Limit   int
	Filters map[string]any
}

// List returns records from a custom data table.
func (s *CustomDataService) List(ctx context.Context, moduleKey, table string, opts *CustomDataListOptions) (map[string]any, error) {
	limit := 50
	var filters map[string]any
	if opts != nil {
		if opts.Limit > 0 {
			limit = opts.Limit
		}
		filters = opts.Filters
	}

	query, err := s.baseQuery()
	if err != nil {
		return nil, err
	}
	query.Set("limit", fmt.Sprintf("%d", limit))
	if len(filters) > 0 {
		encoded, err := json.Marshal(filters)
		if err != nil {
			return nil, fmt.Errorf("encode filters: %w", err)
		}
		query.Set("filters", string(encoded))
	}

	var out map[string]any
	if err := s.client.Get(ctx, s.path(moduleKey, table, ""), &RequestOptions{Query: query}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns a single record by ID.
func (s *CustomDataService) Get(ctx context.Context, moduleKey, table, recordID string) (map[string]any, error) {
	query, err := s.baseQuery()
	if err != nil {
		return nil, err
	}

	var out map[string]any
	if err := s.client.Get(ctx, s.path(moduleKey, table, recordID), &RequestOptions{Query: query}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create inserts a record.
func (s *CustomDataService) Create(ctx context.Context, moduleKey, table string, record map[string]any) (map[string]any, error) {
	query, err := s.baseQuery()
	if err != nil {
		return nil, err
	}

	var out map[string]any
	opts := &RequestOptions{Query: query, Body: map[string]any{"record": record}}
	if err := s.client.Post(ctx, s.path(moduleKey, table, ""), opts, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update patches a record.
func (s *CustomDataService) Update(ctx context.Context, moduleKey, table, recordID string, record map[string]any) (map[string]any, error) {
	query, err := s.baseQuery()
	if err != nil {
		return nil, err
	}

	var out map[string]any
	opts := &RequestOptions{Query: query, Body: map[string]any{"record": record}}
	if err := s.client.Patch(ctx, s.path(moduleKey, table, recordID), opts, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a record.
func (s *CustomDataService) Delete(ctx context.Context, moduleKey, table, recordID string) error {
	query, err := s.baseQuery()
	if err != nil {
		return err
	}
	return s.client.Delete(ctx, s.path(moduleKey, table, recordID), &RequestOptions{Query: query}, nil)
}

func (s *CustomDataService) path(moduleKey, table, recordID string) string {
	path := "/api/v1/ext/custom_data/" + url.PathEscape(moduleKey) + "/" + url.PathEscape(table)
	if recordID != "" {
		path += "/" + url.PathEscape(recordID)
	}
	return path
}

func (s *CustomDataService) baseQuery() (url.Values, error) {
	if s.projectID == "" {
		return nil, fmt.Errorf("project_id is required for custom data operations")
	}
	query := url.Values{}
	query.Set("project_id", s.projectID)
	return query, nil
}
