package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/courseloop/academy-server-go/internal/database"
	"github.com/courseloop/academy-server-go/internal/model"
	"github.com/courseloop/academy-server-go/internal/repository"
)

// fakeTxRunner executes the transaction body directly. Repositories used
// in tests ignore the tx handle.
type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn database.TxFunc) error {
	return fn(nil)
}

type fakeUserRepo struct {
	usersByID    map[string]*model.User
	usersByEmail map[string]*model.User
	created      []model.CreateUserParams
	setPassword  map[string]string
	verified     []string
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		usersByID:    map[string]*model.User{},
		usersByEmail: map[string]*model.User{},
		setPassword:  map[string]string{},
	}
}

func (m *fakeUserRepo) add(u *model.User) {
	m.usersByID[u.ID] = u
	m.usersByEmail[u.Email] = u
}

func (m *fakeUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	return m.usersByID[id], nil
}

func (m *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return m.usersByEmail[email], nil
}

func (m *fakeUserRepo) FindOrCreate(ctx context.Context, params model.CreateUserParams) (*model.User, bool, error) {
	if existing := m.usersByEmail[params.Email]; existing != nil {
		return existing, false, nil
	}
	m.created = append(m.created, params)
	user := &model.User{
		ID:              "user-" + params.Email,
		Email:           params.Email,
		Name:            params.Name,
		MustSetPassword: params.MustSetPassword,
	}
	m.add(user)
	return user, true, nil
}

func (m *fakeUserRepo) SetPassword(ctx context.Context, id string, passwordHash string) (bool, error) {
	user := m.usersByID[id]
	if user == nil || user.PasswordHash != nil {
		return false, nil
	}
	user.PasswordHash = &passwordHash
	user.MustSetPassword = false
	m.setPassword[id] = passwordHash
	return true, nil
}

func (m *fakeUserRepo) MarkEmailVerified(ctx context.Context, id string) error {
	if user := m.usersByID[id]; user != nil {
		user.EmailVerified = true
	}
	m.verified = append(m.verified, id)
	return nil
}

func (m *fakeUserRepo) WithTx(tx *sqlx.Tx) repository.UserRepository { return m }

type fakeCourseRepo struct {
	courses   map[string]*model.Course
	published []model.Course
	lessons   map[string]*model.Lesson
	outlines  map[string]*model.CourseOutline
	counts    map[string]int
}

func newFakeCourseRepo() *fakeCourseRepo {
	return &fakeCourseRepo{
		courses:  map[string]*model.Course{},
		lessons:  map[string]*model.Lesson{},
		outlines: map[string]*model.CourseOutline{},
		counts:   map[string]int{},
	}
}

func (m *fakeCourseRepo) FindByID(ctx context.Context, id string) (*model.Course, error) {
	return m.courses[id], nil
}

func (m *fakeCourseRepo) ListPublished(ctx context.Context) ([]model.Course, error) {
	return m.published, nil
}

func (m *fakeCourseRepo) FindLessonByID(ctx context.Context, id string) (*model.Lesson, error) {
	return m.lessons[id], nil
}

func (m *fakeCourseRepo) CountLessons(ctx context.Context, courseID string) (int, error) {
	return m.counts[courseID], nil
}

func (m *fakeCourseRepo) GetOutline(ctx context.Context, courseID string) (*model.CourseOutline, error) {
	return m.outlines[courseID], nil
}

type fakeEnrollmentRepo struct {
	existing map[string]bool // userID|courseID
	created  []model.CreateEnrollmentParams
}

func newFakeEnrollmentRepo() *fakeEnrollmentRepo {
	return &fakeEnrollmentRepo{existing: map[string]bool{}}
}

func enrollKey(userID, courseID string) string { return userID + "|" + courseID }

func (m *fakeEnrollmentRepo) Create(ctx context.Context, params model.CreateEnrollmentParams) (bool, error) {
	key := enrollKey(params.UserID, params.CourseID)
	if m.existing[key] {
		return false, nil
	}
	m.existing[key] = true
	m.created = append(m.created, params)
	return true, nil
}

func (m *fakeEnrollmentRepo) Exists(ctx context.Context, userID, courseID string) (bool, error) {
	return m.existing[enrollKey(userID, courseID)], nil
}

func (m *fakeEnrollmentRepo) ListByUser(ctx context.Context, userID string) ([]model.Enrollment, error) {
	return nil, nil
}

func (m *fakeEnrollmentRepo) WithTx(tx *sqlx.Tx) repository.EnrollmentRepository { return m }

type fakeMagicLinkRepo struct {
	byHash  map[string]*model.MagicLinkToken
	created []model.CreateMagicLinkTokenParams
}

func newFakeMagicLinkRepo() *fakeMagicLinkRepo {
	return &fakeMagicLinkRepo{byHash: map[string]*model.MagicLinkToken{}}
}

func (m *fakeMagicLinkRepo) Create(ctx context.Context, params model.CreateMagicLinkTokenParams) (*model.MagicLinkToken, error) {
	m.created = append(m.created, params)
	token := &model.MagicLinkToken{
		ID:        "token-" + params.TokenHash[:8],
		UserID:    params.UserID,
		TokenHash: params.TokenHash,
		ExpiresAt: params.ExpiresAt,
		CreatedAt: time.Now(),
	}
	m.byHash[params.TokenHash] = token
	return token, nil
}

func (m *fakeMagicLinkRepo) FindByTokenHash(ctx context.Context, tokenHash string) (*model.MagicLinkToken, error) {
	return m.byHash[tokenHash], nil
}

func (m *fakeMagicLinkRepo) Consume(ctx context.Context, id string) (bool, error) {
	for _, token := range m.byHash {
		if token.ID != id {
			continue
		}
		if token.UsedAt != nil || token.Expired(time.Now()) {
			return false, nil
		}
		now := time.Now()
		token.UsedAt = &now
		return true, nil
	}
	return false, nil
}

func (m *fakeMagicLinkRepo) DeleteExpired(ctx context.Context) (int64, error) { return 0, nil }

func (m *fakeMagicLinkRepo) WithTx(tx *sqlx.Tx) repository.MagicLinkRepository { return m }

type fakeProductMappingRepo struct {
	mappings map[string]*model.ProductMapping
}

func newFakeProductMappingRepo() *fakeProductMappingRepo {
	return &fakeProductMappingRepo{mappings: map[string]*model.ProductMapping{}}
}

func (m *fakeProductMappingRepo) FindActiveByProductID(ctx context.Context, productID string) (*model.ProductMapping, error) {
	return m.mappings[productID], nil
}

type fakeWebhookEventRepo struct {
	events []model.CreateWebhookEventParams
}

func (m *fakeWebhookEventRepo) Create(ctx context.Context, params model.CreateWebhookEventParams) (*model.WebhookEvent, error) {
	m.events = append(m.events, params)
	return &model.WebhookEvent{ID: "event", Status: params.Status}, nil
}

func (m *fakeWebhookEventRepo) ListRecent(ctx context.Context, limit int) ([]model.WebhookEvent, error) {
	return nil, nil
}

func (m *fakeWebhookEventRepo) lastStatus() model.WebhookEventStatus {
	if len(m.events) == 0 {
		return ""
	}
	return m.events[len(m.events)-1].Status
}

type fakeSessionRepo struct {
	byHash  map[string]*model.Session
	deleted []string
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{byHash: map[string]*model.Session{}}
}

func (m *fakeSessionRepo) Create(ctx context.Context, params model.CreateSessionParams) (*model.Session, error) {
	session := &model.Session{
		ID:        "session-" + params.TokenHash[:8],
		UserID:    params.UserID,
		TokenHash: params.TokenHash,
		ExpiresAt: params.ExpiresAt,
	}
	m.byHash[params.TokenHash] = session
	return session, nil
}

func (m *fakeSessionRepo) FindByTokenHash(ctx context.Context, tokenHash string) (*model.Session, error) {
	session := m.byHash[tokenHash]
	if session == nil || time.Now().After(session.ExpiresAt) {
		return nil, nil
	}
	return session, nil
}

func (m *fakeSessionRepo) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	m.deleted = append(m.deleted, tokenHash)
	delete(m.byHash, tokenHash)
	return nil
}

func (m *fakeSessionRepo) DeleteExpired(ctx context.Context) (int64, error) { return 0, nil }

type fakeProgressRepo struct {
	completed map[string][]string // userID|courseID -> lesson ids
	marked    []model.CompleteLessonParams
}

func newFakeProgressRepo() *fakeProgressRepo {
	return &fakeProgressRepo{completed: map[string][]string{}}
}

func (m *fakeProgressRepo) MarkCompleted(ctx context.Context, params model.CompleteLessonParams) (*model.LessonProgress, error) {
	m.marked = append(m.marked, params)
	now := time.Now()
	return &model.LessonProgress{
		ID:             "progress",
		UserID:         params.UserID,
		LessonID:       params.LessonID,
		Completed:      true,
		CompletedAt:    &now,
		WatchedSeconds: params.WatchedSeconds,
		LastPosition:   params.LastPosition,
	}, nil
}

func (m *fakeProgressRepo) Find(ctx context.Context, userID, lessonID string) (*model.LessonProgress, error) {
	return nil, nil
}

func (m *fakeProgressRepo) CompletedLessonIDs(ctx context.Context, userID, courseID string) ([]string, error) {
	return m.completed[enrollKey(userID, courseID)], nil
}

func (m *fakeProgressRepo) CountCompletedInCourse(ctx context.Context, userID, courseID string) (int, error) {
	return len(m.completed[enrollKey(userID, courseID)]), nil
}

type fakeQuizRepo struct {
	quizzes   map[string]*model.Quiz
	questions map[string][]model.QuizQuestion
	answers   map[string][]model.QuizAnswer
	passed    map[string][]string // userID|courseID -> quiz ids
	attempts  []model.CreateQuizAttemptParams
}

func newFakeQuizRepo() *fakeQuizRepo {
	return &fakeQuizRepo{
		quizzes:   map[string]*model.Quiz{},
		questions: map[string][]model.QuizQuestion{},
		answers:   map[string][]model.QuizAnswer{},
		passed:    map[string][]string{},
	}
}

func (m *fakeQuizRepo) FindByID(ctx context.Context, id string) (*model.Quiz, error) {
	return m.quizzes[id], nil
}

func (m *fakeQuizRepo) ListQuestions(ctx context.Context, quizID string) ([]model.QuizQuestion, error) {
	return m.questions[quizID], nil
}

func (m *fakeQuizRepo) ListAnswers(ctx context.Context, quizID string) ([]model.QuizAnswer, error) {
	return m.answers[quizID], nil
}

func (m *fakeQuizRepo) CreateAttempt(ctx context.Context, params model.CreateQuizAttemptParams) (*model.QuizAttempt, error) {
	m.attempts = append(m.attempts, params)
	return &model.QuizAttempt{
		ID:      "attempt",
		UserID:  params.UserID,
		QuizID:  params.QuizID,
		Score:   params.Score,
		Passed:  params.Passed,
		Answers: json.RawMessage(params.Answers),
	}, nil
}

func (m *fakeQuizRepo) ListAttempts(ctx context.Context, userID, quizID string) ([]model.QuizAttempt, error) {
	return nil, nil
}

func (m *fakeQuizRepo) PassedQuizIDs(ctx context.Context, userID, courseID string) ([]string, error) {
	return m.passed[enrollKey(userID, courseID)], nil
}
