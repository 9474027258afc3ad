package auth

// Wildcard is the scope token granting unrestricted access.
const Wildcard = "*"

// MissingScopes returns the required scopes not present in granted, preserving
// the order of required. A wildcard grant short-circuits to no missing scopes.
func MissingScopes(required, granted []string) []string {
	if len(required) == 0 {
		return nil
	}

	have := make(map[string]struct{}, len(granted))
	for _, s := range granted {
		if s == Wildcard {
			return nil
		}
		have[s] = struct{}{}
	}

	var missing []string
	for _, s := range required {
		if _, ok := have[s]; !ok {
			missing = append(missing, s)
		}
	}
	return missing
}
