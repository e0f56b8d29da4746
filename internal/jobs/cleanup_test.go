package jobs

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"

	"github.com/courseloop/academy-server-go/internal/model"
	"github.com/courseloop/academy-server-go/internal/repository"
)

type mockMagicLinkRepo struct {
	deleteExpiredCount int64
	calls              atomic.Int32
}

func (m *mockMagicLinkRepo) Create(ctx context.Context, params model.CreateMagicLinkTokenParams) (*model.MagicLinkToken, error) {
	return nil, nil
}

func (m *mockMagicLinkRepo) FindByTokenHash(ctx context.Context, tokenHash string) (*model.MagicLinkToken, error) {
	return nil, nil
}

func (m *mockMagicLinkRepo) Consume(ctx context.Context, id string) (bool, error) {
	return false, nil
}

func (m *mockMagicLinkRepo) DeleteExpired(ctx context.Context) (int64, error) {
	m.calls.Add(1)
	return m.deleteExpiredCount, nil
}

func (m *mockMagicLinkRepo) WithTx(tx *sqlx.Tx) repository.MagicLinkRepository {
	return m
}

type mockSessionRepo struct {
	deleteExpiredCount int64
	calls              atomic.Int32
}

func (m *mockSessionRepo) Create(ctx context.Context, params model.CreateSessionParams) (*model.Session, error) {
	return nil, nil
}

func (m *mockSessionRepo) FindByTokenHash(ctx context.Context, tokenHash string) (*model.Session, error) {
	return nil, nil
}

func (m *mockSessionRepo) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	return nil
}

func (m *mockSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	m.calls.Add(1)
	return m.deleteExpiredCount, nil
}

func TestCleanupJob(t *testing.T) {
	t.Run("creates job with correct interval", func(t *testing.T) {
		job := NewCleanupJob(nil, nil, 5*time.Minute)

		assert.NotNil(t, job)
		assert.Equal(t, 5*time.Minute, job.interval)
	})

	t.Run("runs cleanup immediately on start", func(t *testing.T) {
		linkRepo := &mockMagicLinkRepo{deleteExpiredCount: 2}
		sessionRepo := &mockSessionRepo{deleteExpiredCount: 3}

		job := NewCleanupJob(linkRepo, sessionRepo, 1*time.Hour)

		job.Start()
		time.Sleep(20 * time.Millisecond)
		job.Stop()

		assert.GreaterOrEqual(t, linkRepo.calls.Load(), int32(1))
		assert.GreaterOrEqual(t, sessionRepo.calls.Load(), int32(1))
	})

	t.Run("starts and stops without panic", func(t *testing.T) {
		job := NewCleanupJob(&mockMagicLinkRepo{}, &mockSessionRepo{}, 10*time.Millisecond)

		job.Start()
		time.Sleep(35 * time.Millisecond)
		job.Stop()
	})
}
