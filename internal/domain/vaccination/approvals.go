package vaccination

import "strings"

// UnknownApprovals is shown when a country has no entry in the approvals table
const UnknownApprovals = "unknown"

// Approvals maps ISO codes to the vaccines approved in that country,
// as a comma separated list exactly as published by the source
type Approvals map[string]string

// For returns the approved vaccines for a country ISO code
func (a Approvals) For(iso string) string {
	if v, ok := a[strings.ToUpper(iso)]; ok && strings.TrimSpace(v) != "" {
		return v
	}
	return UnknownApprovals
}

// List splits the approvals of a country into individual vaccine names
func (a Approvals) List(iso string) []string {
	raw, ok := a[strings.ToUpper(iso)]
	if !ok {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}
