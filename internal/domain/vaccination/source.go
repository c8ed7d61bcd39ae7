package vaccination

import "context"

// Source is the port for fetching raw vaccination data from a remote provider
type Source interface {
	// FetchRecords returns the raw daily records for each requested ISO code
	FetchRecords(ctx context.Context, isoCodes []string) (map[string][]RawRecord, error)
	// FetchApprovals returns the vaccines approved per country
	FetchApprovals(ctx context.Context) (Approvals, error)
}
