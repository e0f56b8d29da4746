package audit

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type EventType string

const (
	EventWebhookProcessed  EventType = "webhook_processed"
	EventWebhookIgnored    EventType = "webhook_ignored"
	EventWebhookRejected   EventType = "webhook_rejected"
	EventEnrollmentCreated EventType = "enrollment_created"
	EventMagicLinkIssued   EventType = "magic_link_issued"
	EventMagicLinkRedeemed EventType = "magic_link_redeemed"
	EventMagicLinkRejected EventType = "magic_link_rejected"
	EventPasswordSet       EventType = "password_set"
	EventLoginSuccess      EventType = "login_success"
	EventLoginFailure      EventType = "login_failure"
	EventLogout            EventType = "logout"
	EventRateLimitExceed   EventType = "rate_limit_exceeded"
	EventQuizSubmitted     EventType = "quiz_submitted"
	EventCourseCompleted   EventType = "course_completed"
)

type Event struct {
	Type      EventType
	UserID    string
	Email     string
	IP        string
	UserAgent string
	Details   map[string]interface{}
}

// Log emits a structured security audit event. Audit lines carry the
// "audit" marker so log shippers can route them to a separate stream.
func Log(ctx context.Context, event Event) {
	logger := log.With().
		Str("audit", "security").
		Str("event_type", string(event.Type)).
		Time("timestamp", time.Now()).
		Logger()

	if event.UserID != "" {
		logger = logger.With().Str("user_id", event.UserID).Logger()
	}
	if event.Email != "" {
		logger = logger.With().Str("email", event.Email).Logger()
	}
	if event.IP != "" {
		logger = logger.With().Str("ip", event.IP).Logger()
	}
	if event.UserAgent != "" {
		logger = logger.With().Str("user_agent", event.UserAgent).Logger()
	}

	logEvent := logger.Info()
	for k, v := range event.Details {
		logEvent = addField(logEvent, k, v)
	}
	logEvent.Msg("security audit event")
}

func addField(e *zerolog.Event, key string, value interface{}) *zerolog.Event {
	switch v := value.(type) {
	case string:
		return e.Str(key, v)
	case int:
		return e.Int(key, v)
	case int64:
		return e.Int64(key, v)
	case bool:
		return e.Bool(key, v)
	default:
		return e.Interface(key, v)
	}
}

func LogFromRequest(r *http.Request, event Event) {
	event.IP = GetClientIP(r)
	event.UserAgent = r.UserAgent()
	Log(r.Context(), event)
}

// GetClientIP resolves the originating client address, trusting proxy
// headers when present.
func GetClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return r.RemoteAddr
}
