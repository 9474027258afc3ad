// Package responses builds properly formatted extension response envelopes,
// including output fields the platform displays in the configuration UI.
package responses

// Statuses understood by the platform.
const (
	StatusAllow   = "allow"
	StatusDeny    = "deny"
	StatusPending = "pending"
)

// Allow builds a success envelope permitting the operation. message may be
// empty; outputFields are surfaced in the configuration UI after setup.
func Allow(message string, data map[string]any, outputFields map[string]string) map[string]any {
	metadata := make(map[string]any, len(data)+1)
	for k, v := range data {
		metadata[k] = v
	}
	if len(outputFields) > 0 {
		metadata["output_fields"] = outputFields
	}

	result := map[string]any{"status": StatusAllow, "metadata": metadata}
	if message != "" {
		result["message"] = message
	}
	return result
}

// Deny builds a rejection envelope. message names the reason.
func Deny(message string, data map[string]any) map[string]any {
	if data == nil {
		data = map[string]any{}
	}
	return map[string]any{
		"status":   StatusDeny,
		"message":  message,
		"metadata": data,
	}
}

// Pending builds an envelope for operations completing asynchronously.
func Pending(message string, data map[string]any) map[string]any {
	if data == nil {
		data = map[string]any{}
	}
	return map[string]any{
		"status":   StatusPending,
		"message":  message,
		"metadata": data,
	}
}
