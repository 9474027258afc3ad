package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// IntakeForm is the wire shape of an intake form.
type IntakeForm struct {
	ID               int               `json:"id"`
	Key              string            `json:"key"`
	Name             string            `json:"name"`
	Description      string            `json:"description,omitempty"`
	Active           bool              `json:"active"`
	Public           bool              `json:"public"`
	Fields           []IntakeFormField `json:"fields,omitempty"`
	FormURL          string            `json:"form_url,omitempty"`
	EmbedAllowed     bool              `json:"embed_allowed"`
	SubmissionsCount int               `json:"submissions_count"`
	CreatedAt        string            `json:"created_at,omitempty"`
	UpdatedAt        string            `json:"updated_at,omitempty"`
}

// IntakeFormField is a single field definition on a form.
type IntakeFormField struct {
	Key         string   `json:"key"`
	Label       string   `json:"label"`
	FieldType   string   `json:"field_type"`
	Required    bool     `json:"required"`
	Options     []string `json:"options,omitempty"`
	Placeholder string   `json:"placeholder,omitempty"`
	HelpText    string   `json:"help_text,omitempty"`
}

// IntakeSubmission is the wire shape of a form submission.
type IntakeSubmission struct {
	ID               int            `json:"id"`
	IntakeFormID     int            `json:"intake_form_id"`
	Status           string         `json:"status"`
	Data             map[string]any `json:"data"`
	Metadata         map[string]any `json:"metadata,omitempty"`
	SubmittedByEmail string         `json:"submitted_by_email,omitempty"`
	ReviewedBy       string         `json:"reviewed_by,omitempty"`
	ReviewedAt       string         `json:"reviewed_at,omitempty"`
	Notes            string         `json:"notes,omitempty"`
	CreatedAt        string         `json:"created_at,omitempty"`
	UpdatedAt        string         `json:"updated_at,omitempty"`
}

// IntakeFormStats summarizes submissions by status.
type IntakeFormStats struct {
	TotalSubmissions int    `json:"total_submissions"`
	Pending          int    `json:"pending"`
	Approved         int    `json:"approved"`
	Rejected         int    `json:"rejected"`
	Converted        int    `json:"converted"`
	Period           string `json:"period,omitempty"`
}

// IntakeFormsService wraps the intake form endpoints, project-scoped.
type IntakeFormsService struct {
	client    *Client
	projectID string
}

// IntakeForms returns an intake forms service bound to projectID.
func (c *Client) IntakeForms(projectID string) *IntakeFormsService {
	return &IntakeFormsService{client: c, projectID: projectID}
}

// IntakeFormListOptions filter List calls.
type IntakeFormListOptions struct {
	Active     *bool
	PublicOnly *bool
	Limit      int
}

// List returns the project's intake forms.
func (s *IntakeFormsService) List(ctx context.Context, opts *IntakeFormListOptions) ([]IntakeForm, error) {
	query, err := s.baseQuery()
	if err != nil {
		return nil, err
	}
	if opts != nil {
		if opts.Active != nil {
			query.Set("active", strconv.FormatBool(*opts.Active))
		}
		if opts.PublicOnly != nil {
			query.Set("public", strconv.FormatBool(*opts.PublicOnly))
		}
		if opts.Limit > 0 {
			query.Set("limit", strconv.Itoa(opts.Limit))
		}
	}

	var out struct {
		Data []IntakeForm `json:"data"`
	}
	if err := s.client.Get(ctx, "/api/v1/ext/intake_forms", &RequestOptions{Query: query}, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// Get returns a form by key or ID.
func (s *IntakeFormsService) Get(ctx context.Context, formKey string) (*IntakeForm, error) {
	if formKey == "" {
		return nil, fmt.Errorf("form_key is required")
	}
	query, err := s.baseQuery()
	if err != nil {
		return nil, err
	}

	var out IntakeForm
	if err := s.client.Get(ctx, s.formPath(formKey, ""), &RequestOptions{Query: query}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PublicURL returns the form's public URL when it is public.
func (s *IntakeFormsService) PublicURL(form *IntakeForm) string {
	if form != nil && form.Public {
		return form.FormURL
	}
	return ""
}

// SubmissionListOptions filter ListSubmissions calls.
type SubmissionListOptions struct {
	Status string
	Limit  int
	Since  time.Time
}

// ListSubmissions returns submissions for a form.
func (s *IntakeFormsService) ListSubmissions(ctx context.Context, formKey string, opts *SubmissionListOptions) ([]IntakeSubmission, error) {
	if formKey == "" {
		return nil, fmt.Errorf("form_key is required")
	}
	query, err := s.baseQuery()
	if err != nil {
		return nil, err
	}
	if opts != nil {
		if opts.Status != "" {
			query.Set("status", opts.Status)
		}
		if opts.Limit > 0 {
			query.Set("limit", strconv.Itoa(opts.Limit))
		}
		if !opts.Since.IsZero() {
			query.Set("since", opts.Since.Format(time.RFC3339))
		}
	}

	var out struct {
		Data []IntakeSubmission `json:"data"`
	}
	if err := s.client.Get(ctx, s.formPath(formKey, "/submissions"), &RequestOptions{Query: query}, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// GetSubmission returns a submission by ID.
func (s *IntakeFormsService) GetSubmission(ctx context.Context, formKey string, submissionID int) (*IntakeSubmission, error) {
	if formKey == "" {
		return nil, fmt.Errorf("form_key is required")
	}
	query, err := s.baseQuery()
	if err != nil {
		return nil, err
	}

	var out IntakeSubmission
	path := s.formPath(formKey, "/submissions/"+strconv.Itoa(submissionID))
	if err := s.client.Get(ctx, path, &RequestOptions{Query: query}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateSubmission creates a programmatic submission.
func (s *IntakeFormsService) CreateSubmission(ctx context.Context, formKey string, data, metadata map[string]any) (*IntakeSubmission, error) {
	if formKey == "" {
		return nil, fmt.Errorf("form_key is required")
	}
	if data == nil {
		return nil, fmt.Errorf("data is required")
	}
	if s.projectID == "" {
		return nil, fmt.Errorf("project_id is required for intake form operations")
	}

	body := map[string]any{"project_id": s.projectID, "data": data}
	if metadata != nil {
		body["metadata"] = metadata
	}

	var out IntakeSubmission
	if err := s.client.Post(ctx, s.formPath(formKey, "/submissions"), &RequestOptions{Body: body}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ApproveSubmission approves a pending submission.
func (s *IntakeFormsService) ApproveSubmission(ctx context.Context, formKey string, submissionID int, notes string) (*IntakeSubmission, error) {
	return s.review(ctx, formKey, submissionID, "approve", notes)
}

// RejectSubmission rejects a pending submission.
func (s *IntakeFormsService) RejectSubmission(ctx context.Context, formKey string, submissionID int, notes string) (*IntakeSubmission, error) {
	return s.review(ctx, formKey, submissionID, "reject", notes)
}

// Stats returns submission statistics for a form. Period may be "day",
// "week", or "month"; empty means all time.
func (s *IntakeFormsService) Stats(ctx context.Context, formKey, period string) (*IntakeFormStats, error) {
	if formKey == "" {
		return nil, fmt.Errorf("form_key is required")
	}
	query, err := s.baseQuery()
	if err != nil {
		return nil, err
	}
	if period != "" {
		query.Set("period", period)
	}

	var out IntakeFormStats
	if err := s.client.Get(ctx, s.formPath(formKey, "/stats"), &RequestOptions{Query: query}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *IntakeFormsService) review(ctx context.Context, formKey string, submissionID int, action, notes string) (*IntakeSubmission, error) {
	if formKey == "" {
		return nil, fmt.Errorf("form_key is required")
	}
	if s.projectID == "" {
		return nil, fmt.Errorf("project_id is required for intake form operations")
	}

	body := map[string]any{"project_id": s.projectID}
	if notes != "" {
		body["notes"] = notes
	}

	var out IntakeSubmission
	path := s.formPath(formKey, "/submissions/"+strconv.Itoa(submissionID)+"/"+action)
	if err := s.client.Post(ctx, path, &RequestOptions{Body: body}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *IntakeFormsService) formPath(formKey, suffix string) string {
	return "/api/v1/ext/intake_forms/" + url.PathEscape(formKey) + suffix
}

func (s *IntakeFormsService) baseQuery() (url.Values, error) {
	if s.projectID == "" {
		return nil, fmt.Errorf("project_id is required for intake form operations")
	}
	query := url.Values{}
	query.Set("project_id", s.projectID)
	return query, nil
}
