//go:build integration

// AngelaMos | 2026
// repository_integration_test.go

package purchase

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/carterperez-dev/bloghub/internal/config"
	"github.com/carterperez-dev/bloghub/internal/core"
)

func startPostgres(t *testing.T) *sqlx.DB {
	t.Helper()
	ctx := context.Background()

	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("bloghub"),
		postgres.WithUsername("bloghub"),
		postgres.WithPassword("bloghub"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := core.NewDatabase(ctx, config.DatabaseConfig{
		URL:          dsn,
		MaxOpenConns: 16,
		MaxIdleConns: 4,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, core.MigrateUp(db.DB.DB, "../../migrations"))
	return db.DB
}

type seeded struct {
	userID string
	blogID string
	pdfID  string
}

func seed(t *testing.T, db *sqlx.DB) seeded {
	t.Helper()
	ctx := context.Background()
	f := seeded{
		userID: uuid.NewString(),
		blogID: uuid.NewString(),
		pdfID:  uuid.NewString(),
	}

	_, err := db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, name) VALUES ($1, $2, 'x', 'Ada')`,
		f.userID, f.userID+"@example.com")
	require.NoError(t, err)

	_, err = db.ExecContext(ctx,
		`INSERT INTO blogs (id, title, content, author_id) VALUES ($1, 'Go', 'body', $2)`,
		f.blogID, f.userID)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx,
		`INSERT INTO pdfs (id, blog_id, url, is_paid, price_cents) VALUES ($1, $2, 'https://cdn.test/a.pdf', TRUE, 999)`,
		f.pdfID, f.blogID)
	require.NoError(t, err)

	return f
}

func pending(t *testing.T, repo Repository, f seeded) *Transaction {
	t.Helper()
	tx := &Transaction{
		ID:            uuid.NewString(),
		UserID:        f.userID,
		PDFID:         f.pdfID,
		BlogID:        f.blogID,
		AmountCents:   999,
		PaymentStatus: StatusPending,
		PaymentMethod: "razorpay",
	}
	require.NoError(t, repo.Create(context.Background(), tx))
	return tx
}

func TestConcurrentSettlementHasOneWinner(t *testing.T) {
	db := startPostgres(t)
	repo := NewRepository(db)
	f := seed(t, db)
	tx := pending(t, repo, f)
	ctx := context.Background()

	const callers = 12
	var (
		wg   sync.WaitGroup
		wins atomic.Int32
		fail atomic.Int32
	)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var (
				won bool
				err error
			)
			if i%3 == 0 {
				won, err = repo.MarkFailed(ctx, tx.ID, "pay_x")
				if won {
					fail.Add(1)
				}
			} else {
				won, err = repo.MarkPaid(ctx, tx.ID, "pay_1", "https://pay.test/r/1")
			}
			assert.NoError(t, err)
			if won {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())

	got, err := repo.GetByID(ctx, tx.ID)
	require.NoError(t, err)
	assert.True(t, got.PaymentStatus.Terminal())

	paid, err := repo.HasPaid(ctx, f.userID, f.pdfID)
	require.NoError(t, err)
	assert.Equal(t, fail.Load() == 0, paid)
}

func TestSweepStaleOnlyTouchesPending(t *testing.T) {
	db := startPostgres(t)
	repo := NewRepository(db)
	f := seed(t, db)
	ctx := context.Background()

	stale := pending(t, repo, f)
	settled := pending(t, repo, f)
	won, err := repo.MarkPaid(ctx, settled.ID, "pay_1", "")
	require.NoError(t, err)
	require.True(t, won)

	_, err = db.ExecContext(ctx,
		`UPDATE transactions SET created_at = NOW() - INTERVAL '2 days' WHERE id IN ($1, $2)`,
		stale.ID, settled.ID)
	require.NoError(t, err)

	fresh := pending(t, repo, f)

	swept, err := repo.SweepStale(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), swept)

	for id, want := range map[string]Status{
		stale.ID:   StatusFailed,
		settled.ID: StatusPaid,
		fresh.ID:   StatusPending,
	} {
		got, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, got.PaymentStatus)
	}
}

func TestAttachOrderRequiresPending(t *testing.T) {
	db := startPostgres(t)
	repo := NewRepository(db)
	f := seed(t, db)
	ctx := context.Background()

	tx := pending(t, repo, f)
	require.NoError(t, repo.AttachOrder(ctx, tx.ID, "order_1"))

	got, err := repo.GetByID(ctx, tx.ID)
	require.NoError(t, err)
	assert.True(t, got.OrderMatches("order_1"))

	_, err = repo.MarkFailed(ctx, tx.ID, "")
	require.NoError(t, err)
	assert.ErrorIs(t, repo.AttachOrder(ctx, tx.ID, "order_2"), core.ErrInvalidState)
}
