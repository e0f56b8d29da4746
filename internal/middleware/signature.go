package middleware

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/courseloop/academy-server-go/internal/util"
)

const SignatureHeader = "X-Webhook-Signature"

const RawBodyContextKey contextKey = "rawBody"

// GetRawBody returns the request body captured during signature
// verification, so handlers can log the exact payload that was signed.
func GetRawBody(ctx context.Context) []byte {
	if body, ok := ctx.Value(RawBodyContextKey).([]byte); ok {
		return body
	}
	return nil
}

// WebhookSignatureMiddleware authenticates commerce deliveries with an
// HMAC-SHA256 hex digest of the raw body. With no secret configured,
// verification is bypassed with a warning so local development works
// without the commerce sandbox.
type WebhookSignatureMiddleware struct {
	secret string
}

func NewWebhookSignatureMiddleware(secret string) *WebhookSignatureMiddleware {
	return &WebhookSignatureMiddleware{secret: secret}
}

func (m *WebhookSignatureMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			log.Error().Err(err).Msg("webhook signature middleware: failed to read body")
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": "Failed to read request body",
			})
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		if m.secret == "" {
			log.Warn().Msg("webhook signature verification bypassed: WEBHOOK_SECRET is not configured")
		} else {
			signature := r.Header.Get(SignatureHeader)
			if signature == "" {
				log.Warn().Msg("webhook signature middleware: missing signature header")
				writeJSON(w, http.StatusUnauthorized, map[string]string{
					"error": "Missing signature",
				})
				return
			}

			computed := util.HmacSHA256(m.secret, string(body))
			if !util.ConstantTimeEqual(computed, signature) {
				log.Warn().Msg("webhook signature middleware: invalid signature")
				writeJSON(w, http.StatusUnauthorized, map[string]string{
					"error": "Invalid signature",
				})
				return
			}
		}

		ctx := context.WithValue(r.Context(), RawBodyContextKey, body)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
