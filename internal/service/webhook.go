package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/courseloop/academy-server-go/internal/audit"
	"github.com/courseloop/academy-server-go/internal/config"
	"github.com/courseloop/academy-server-go/internal/database"
	apperrors "github.com/courseloop/academy-server-go/internal/errors"
	"github.com/courseloop/academy-server-go/internal/model"
	"github.com/courseloop/academy-server-go/internal/repository"
	"github.com/courseloop/academy-server-go/internal/util"
)

// PurchaseEvent is the commerce system's delivery payload.
type PurchaseEvent struct {
	Contact struct {
		Email             string `json:"email"`
		FirstName         string `json:"firstName"`
		LastName          string `json:"lastName"`
		ExternalContactID string `json:"externalContactId"`
	} `json:"contact"`
	Product struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"product"`
	Transaction struct {
		ID     string  `json:"id"`
		Amount float64 `json:"amount"`
	} `json:"transaction"`
}

// PurchaseResult reports how a delivery was handled. Ignored deliveries
// still succeed from the sender's point of view.
type PurchaseResult struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	UserID          string `json:"userId,omitempty"`
	CoursesEnrolled int    `json:"coursesEnrolled,omitempty"`
	IsNewUser       bool   `json:"isNewUser,omitempty"`
	MagicLink       string `json:"magicLink,omitempty"`
}

// WebhookService turns commerce purchase events into enrollments and
// sign-in credentials.
type WebhookService struct {
	db       database.TxRunner
	users    repository.UserRepository
	courses  repository.CourseRepository
	enrolls  repository.EnrollmentRepository
	links    repository.MagicLinkRepository
	mappings repository.ProductMappingRepository
	events   repository.WebhookEventRepository
	cfg      *config.Config
}

func NewWebhookService(
	db database.TxRunner,
	users repository.UserRepository,
	courses repository.CourseRepository,
	enrolls repository.EnrollmentRepository,
	links repository.MagicLinkRepository,
	mappings repository.ProductMappingRepository,
	events repository.WebhookEventRepository,
	cfg *config.Config,
) *WebhookService {
	return &WebhookService{
		db:       db,
		users:    users,
		courses:  courses,
		enrolls:  enrolls,
		links:    links,
		mappings: mappings,
		events:   events,
		cfg:      cfg,
	}
}

// ProcessPurchase handles one delivery end to end. Replay-safe: the user
// and enrollment upserts are no-ops on a duplicate, while a fresh magic
// link is minted on every delivery so the confirmation message the
// sender composes always carries a working link.
func (s *WebhookService) ProcessPurchase(
	ctx context.Context,
	event PurchaseEvent,
	rawPayload json.RawMessage,
) (*PurchaseResult, error) {
	email := strings.TrimSpace(strings.ToLower(event.Contact.Email))
	productID := strings.TrimSpace(event.Product.ID)

	if email == "" {
		s.recordEvent(ctx, model.WebhookEventFailed, "missing contact email", email, productID, rawPayload)
		return nil, apperrors.MissingRequired("contact.email")
	}
	if productID == "" {
		s.recordEvent(ctx, model.WebhookEventFailed, "missing product id", email, productID, rawPayload)
		return nil, apperrors.MissingRequired("product.id")
	}

	mapping, err := s.mappings.FindActiveByProductID(ctx, productID)
	if err != nil {
		s.recordEvent(ctx, model.WebhookEventFailed, "product mapping lookup failed", email, productID, rawPayload)
		return nil, apperrors.Database(err)
	}
	if mapping == nil {
		s.recordEvent(ctx, model.WebhookEventIgnored, "no active mapping for product", email, productID, rawPayload)
		audit.Log(ctx, audit.Event{
			Type:  audit.EventWebhookIgnored,
			Email: email,
			Details: map[string]interface{}{
				"product_id": productID,
			},
		})
		return &PurchaseResult{
			Success: true,
			Message: "ignored: unmapped product",
		}, nil
	}

	courseIDs, err := s.targetCourses(ctx, mapping)
	if err != nil {
		s.recordEvent(ctx, model.WebhookEventFailed, "resolve target courses failed", email, productID, rawPayload)
		return nil, err
	}
	if len(courseIDs) == 0 {
		s.recordEvent(ctx, model.WebhookEventIgnored, "mapping resolves to no courses", email, productID, rawPayload)
		return &PurchaseResult{
			Success: true,
			Message: "ignored: mapping resolves to no courses",
		}, nil
	}

	rawToken, err := util.GenerateToken()
	if err != nil {
		return nil, apperrors.Internal("failed to generate sign-in token").WithCause(err)
	}

	var (
		user            *model.User
		isNewUser       bool
		enrolledCourses []string
	)

	txErr := s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		users := s.users.WithTx(tx)
		enrolls := s.enrolls.WithTx(tx)
		links := s.links.WithTx(tx)

		var externalContactID *string
		if event.Contact.ExternalContactID != "" {
			id := event.Contact.ExternalContactID
			externalContactID = &id
		}

		user, isNewUser, err = users.FindOrCreate(ctx, model.CreateUserParams{
			Email:             email,
			Name:              displayName(event.Contact.FirstName, event.Contact.LastName),
			ExternalContactID: externalContactID,
			MustSetPassword:   true,
		})
		if err != nil {
			return fmt.Errorf("find or create user: %w", err)
		}

		metadata := enrollmentMetadata(event)
		for _, courseID := range courseIDs {
			var txnID *string
			if event.Transaction.ID != "" {
				id := event.Transaction.ID
				txnID = &id
			}
			created, err := enrolls.Create(ctx, model.CreateEnrollmentParams{
				UserID:                user.ID,
				CourseID:              courseID,
				Source:                model.EnrollmentSourceWebhook,
				ExternalTransactionID: txnID,
				Metadata:              metadata,
			})
			if err != nil {
				return fmt.Errorf("create enrollment: %w", err)
			}
			if created {
				enrolledCourses = append(enrolledCourses, courseID)
			}
		}

		// Enrollment commits before or with the token, never after: a
		// link must not authenticate a user who has nothing to access.
		_, err = links.Create(ctx, model.CreateMagicLinkTokenParams{
			UserID:    user.ID,
			TokenHash: util.HashToken(rawToken),
			ExpiresAt: time.Now().Add(s.cfg.MagicLinkTTL()),
		})
		if err != nil {
			return fmt.Errorf("create magic link token: %w", err)
		}

		return nil
	})
	if txErr != nil {
		s.recordEvent(ctx, model.WebhookEventFailed, txErr.Error(), email, productID, rawPayload)
		return nil, apperrors.Database(txErr)
	}

	s.recordEvent(ctx, model.WebhookEventProcessed, "", email, productID, rawPayload)

	for _, courseID := range enrolledCourses {
		audit.Log(ctx, audit.Event{
			Type:   audit.EventEnrollmentCreated,
			UserID: user.ID,
			Email:  email,
			Details: map[string]interface{}{
				"course_id": courseID,
				"source":    model.EnrollmentSourceWebhook,
			},
		})
	}

	audit.Log(ctx, audit.Event{
		Type:   audit.EventWebhookProcessed,
		UserID: user.ID,
		Email:  email,
		Details: map[string]interface{}{
			"product_id":       productID,
			"courses_enrolled": len(enrolledCourses),
			"is_new_user":      isNewUser,
		},
	})

	log.Info().
		Str("userId", user.ID).
		Str("productId", productID).
		Int("coursesEnrolled", len(enrolledCourses)).
		Bool("isNewUser", isNewUser).
		Msg("commerce purchase processed")

	return &PurchaseResult{
		Success:         true,
		Message:         "purchase processed",
		UserID:          user.ID,
		CoursesEnrolled: len(enrolledCourses),
		IsNewUser:       isNewUser,
		MagicLink:       s.MagicLinkURL(rawToken),
	}, nil
}

// MagicLinkURL builds the redemption URL for a raw token.
func (s *WebhookService) MagicLinkURL(rawToken string) string {
	return fmt.Sprintf("%s/auth/magic-link?token=%s", strings.TrimRight(s.cfg.PublicBaseURL, "/"), rawToken)
}

func (s *WebhookService) targetCourses(ctx context.Context, mapping *model.ProductMapping) ([]string, error) {
	if mapping.GrantAll {
		courses, err := s.courses.ListPublished(ctx)
		if err != nil {
			return nil, apperrors.Database(err)
		}
		ids := make([]string, 0, len(courses))
		for _, c := range courses {
			ids = append(ids, c.ID)
		}
		return ids, nil
	}
	if mapping.CourseID == nil {
		return nil, nil
	}
	return []string{*mapping.CourseID}, nil
}

// recordEvent writes the durable processing log. Best effort: a logging
// failure must not mask the delivery outcome.
func (s *WebhookService) recordEvent(
	ctx context.Context,
	status model.WebhookEventStatus,
	reason, email, productID string,
	payload json.RawMessage,
) {
	_, err := s.events.Create(ctx, model.CreateWebhookEventParams{
		Status:    status,
		Reason:    reason,
		Email:     email,
		ProductID: productID,
		Payload:   payload,
	})
	if err != nil {
		log.Error().Err(err).Str("status", string(status)).Msg("record webhook event")
	}
}

func displayName(first, last string) string {
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}

func enrollmentMetadata(event PurchaseEvent) *json.RawMessage {
	meta := map[string]interface{}{
		"productId":   event.Product.ID,
		"productName": event.Product.Name,
	}
	if event.Transaction.Amount != 0 {
		meta["amount"] = event.Transaction.Amount
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return nil
	}
	m := json.RawMessage(raw)
	return &m
}
