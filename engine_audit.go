package cookieauth

import (
	"context"
)

const (
	auditEventLoginSuccess         = "login_success"
	auditEventLoginFailure         = "login_failure"
	auditEventRefreshSuccess       = "refresh_success"
	auditEventRefreshFailure       = "refresh_failure"
	auditEventRefreshReuseDetected = "refresh_reuse_detected"
	auditEventLogout               = "logout"
	auditEventTokenRejected        = "token_rejected"
	auditEventUnknownPrincipal     = "unknown_principal"
)

// emitAudit records an event when auditing is enabled. The error field carries
// the real failure kind, including ones masked from clients.
func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	loginID string,
	kind ErrorKind,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: e.now().UTC(),
		EventType: eventType,
		LoginID:   loginID,
		IP:        clientIPFromContext(ctx),
		RequestID: requestIDFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if kind != KindNone {
		event.Error = kind.String()
	}

	e.audit.Emit(ctx, event)
}
