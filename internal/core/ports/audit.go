package ports

import "github.com/cloudkenya/hostpanel/internal/core/domain"

// AuditRecorder accepts audit trail entries fire-and-forget: Record never
// blocks the caller and never returns an error, so an audit outage cannot
// fail or delay authentication.
type AuditRecorder interface {
	Record(activity domain.Activity)
}
