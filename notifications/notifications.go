// Package notifications defines the request and response types exchanged
// with notification-capable extensions.
package notifications

import (
	"fmt"
	"time"
)

// Channel types accepted in a Request.
const (
	ChannelTypeChannel = "channel"
	ChannelTypeDM      = "dm"
	ChannelTypeGroup   = "group"
)

// Message formats accepted in a Request.
const (
	FormatPlain    = "plain"
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
)

// Priorities accepted in a Request.
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Request describes a notification an extension is asked to deliver.
// ChannelID is required for channel deliveries, RecipientID for DMs.
type Request struct {
	Message     string           `json:"message"`
	ChannelType string           `json:"channel_type"`
	ChannelID   string           `json:"channel_id,omitempty"`
	RecipientID string           `json:"recipient_id,omitempty"`
	Format      string           `json:"format,omitempty"`
	Priority    string           `json:"priority,omitempty"`
	Metadata    map[string]any   `json:"metadata,omitempty"`
	ThreadID    string           `json:"thread_id,omitempty"`
	Attachments []map[string]any `json:"attachments,omitempty"`
}

// Validate checks the request fields, filling in default format and
// priority when unset.
func (r *Request) Validate() error {
	if r.Message == "" {
		return fmt.Errorf("message content is required")
	}
	switch r.ChannelType {
	case ChannelTypeChannel, ChannelTypeDM, ChannelTypeGroup:
	default:
		return fmt.Errorf("invalid channel_type: %q", r.ChannelType)
	}
	if r.ChannelType == ChannelTypeDM && r.RecipientID == "" {
		return fmt.Errorf("recipient_id is required for channel_type=%q", ChannelTypeDM)
	}
	if r.ChannelType == ChannelTypeChannel && r.ChannelID == "" {
		return fmt.Errorf("channel_id is required for channel_type=%q", ChannelTypeChannel)
	}
	if r.Format == "" {
		r.Format = FormatMarkdown
	}
	switch r.Format {
	case FormatPlain, FormatMarkdown, FormatHTML:
	default:
		return fmt.Errorf("invalid format: %q", r.Format)
	}
	if r.Priority == "" {
		r.Priority = PriorityNormal
	}
	switch r.Priority {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
	default:
		return fmt.Errorf("invalid priority: %q", r.Priority)
	}
	return nil
}

// Response reports a delivery outcome. RetryAfter carries a rate-limit
// backoff in seconds when set.
type Response struct {
	Success     bool       `json:"success"`
	MessageID   string     `json:"message_id,omitempty"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
	Error       string     `json:"error,omitempty"`
	RetryAfter  int        `json:"retry_after,omitempty"`
}

// Delivered builds a successful response stamped with the delivery time.
func Delivered(messageID string) Response {
	now := time.Now().UTC()
	return Response{Success: true, MessageID: messageID, DeliveredAt: &now}
}

// Failed builds an error response.
func Failed(errMsg string) Response {
	return Response{Success: false, Error: errMsg}
}

// RateLimited builds an error response asking the platform to retry later.
func RateLimited(errMsg string, retryAfter int) Response {
	return Response{Success: false, Error: errMsg, RetryAfter: retryAfter}
}

// ChannelValidationRequest asks an extension whether a channel is usable.
type ChannelValidationRequest struct {
	ChannelID   string `json:"channel_id"`
	ChannelType string `json:"channel_type,omitempty"`
}

// ChannelValidationResponse reports whether a channel is valid and
// reachable, with optional channel metadata such as name or member count.
type ChannelValidationResponse struct {
	Valid    bool           `json:"valid"`
	Error    string         `json:"error,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}
