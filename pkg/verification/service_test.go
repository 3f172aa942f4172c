package verification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockSender records delivered codes and can be told to fail
type mockSender struct {
	mu   sync.Mutex
	sent []sentCode
	fail error
}

type sentCode struct {
	email string
	code  string
}

func (m *mockSender) SendCode(ctx context.Context, email, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.sent = append(m.sent, sentCode{email: email, code: code})
	return nil
}

func (m *mockSender) lastCode() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return ""
	}
	return m.sent[len(m.sent)-1].code
}

// denyAllLimiter rejects every issuance
type denyAllLimiter struct{}

func (denyAllLimiter) Allow(string) bool { return false }

func newTestService(t *testing.T, opts ...ServiceOption) (*Service, *InMemCodeRepository, *mockSender, *time.Time) {
	t.Helper()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	repo := NewInMemCodeRepository()
	repo.now = func() time.Time { return now }
	sender := &mockSender{}
	return NewService(repo, sender, opts...), repo, sender, &now
}

func TestService_RequestCode(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		service, repo, sender, _ := newTestService(t)

		code, err := service.RequestCode(ctx, "a@b.com")
		require.NoError(t, err)
		assert.Len(t, code, CodeLength)
		assert.Equal(t, code, sender.lastCode())

		// the persisted record is redeemable
		rec, err := repo.FindRedeemable(ctx, "a@b.com", code, 5*time.Minute)
		require.NoError(t, err)
		require.NotNil(t, rec)
		assert.False(t, rec.IsUsed)
	})

	t.Run("InvalidEmail", func(t *testing.T) {
		service, repo, sender, _ := newTestService(t)

		for _, email := range []string{"", "not-an-email", "a@b", "a b@c.com", "@b.com", "a@.com "} {
			_, err := service.RequestCode(ctx, email)
			assert.ErrorIs(t, err, ErrInvalidEmail, "email %q", email)
		}

		// no side effects: nothing stored, nothing sent
		assert.Empty(t, sender.sent)
		assert.Empty(t, repo.records)
	})

	t.Run("DeliveryFailureKeepsRecord", func(t *testing.T) {
		service, repo, sender, _ := newTestService(t)
		sender.fail = errors.New("smtp down")

		_, err := service.RequestCode(ctx, "a@b.com")
		assert.ErrorIs(t, err, ErrDelivery)

		// the undelivered record stays and simply expires unredeemed
		assert.Len(t, repo.records, 1)
	})

	t.Run("RateLimited", func(t *testing.T) {
		service, repo, _, _ := newTestService(t, WithIssuanceLimiter(denyAllLimiter{}))

		_, err := service.RequestCode(ctx, "a@b.com")
		assert.ErrorIs(t, err, ErrTooManyRequests)
		assert.Empty(t, repo.records)
	})
}

func TestService_Redeem(t *testing.T) {
	ctx := context.Background()

	t.Run("SucceedsExactlyOnce", func(t *testing.T) {
		service, _, sender, _ := newTestService(t)

		_, err := service.RequestCode(ctx, "a@b.com")
		require.NoError(t, err)
		code := sender.lastCode()

		require.NoError(t, service.Redeem(ctx, "a@b.com", code))
		assert.ErrorIs(t, service.Redeem(ctx, "a@b.com", code), ErrInvalidOrExpired)
	})

	t.Run("MissingFields", func(t *testing.T) {
		service, _, _, _ := newTestService(t)

		assert.ErrorIs(t, service.Redeem(ctx, "", "123456"), ErrMissingField)
		assert.ErrorIs(t, service.Redeem(ctx, "a@b.com", ""), ErrMissingField)
		assert.ErrorIs(t, service.Redeem(ctx, "", ""), ErrMissingField)
	})

	t.Run("BeforeAnyIssuance", func(t *testing.T) {
		service, _, _, _ := newTestService(t)
		assert.ErrorIs(t, service.Redeem(ctx, "a@b.com", "123456"), ErrInvalidOrExpired)
	})

	t.Run("WrongCodeAlwaysSameError", func(t *testing.T) {
		service, _, _, _ := newTestService(t)

		_, err := service.RequestCode(ctx, "a@b.com")
		require.NoError(t, err)

		for i := 0; i < 5; i++ {
			assert.ErrorIs(t, service.Redeem(ctx, "a@b.com", "000000"), ErrInvalidOrExpired)
		}
	})

	t.Run("ExpiredCode", func(t *testing.T) {
		service, _, sender, now := newTestService(t)

		_, err := service.RequestCode(ctx, "a@b.com")
		require.NoError(t, err)
		code := sender.lastCode()

		*now = now.Add(5*time.Minute + time.Millisecond)
		assert.ErrorIs(t, service.Redeem(ctx, "a@b.com", code), ErrInvalidOrExpired)
	})

	t.Run("JustInsideWindow", func(t *testing.T) {
		service, _, sender, now := newTestService(t)

		_, err := service.RequestCode(ctx, "a@b.com")
		require.NoError(t, err)
		code := sender.lastCode()

		*now = now.Add(5*time.Minute - time.Millisecond)
		assert.NoError(t, service.Redeem(ctx, "a@b.com", code))
	})

	t.Run("ConcurrentRedemption", func(t *testing.T) {
		service, _, sender, _ := newTestService(t)

		_, err := service.RequestCode(ctx, "a@b.com")
		require.NoError(t, err)
		code := sender.lastCode()

		var wg sync.WaitGroup
		results := make(chan error, 2)
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				results <- service.Redeem(ctx, "a@b.com", code)
			}()
		}
		wg.Wait()
		close(results)

		var successes, invalid int
		for err := range results {
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrInvalidOrExpired):
				invalid++
			default:
				t.Fatalf("unexpected error: %v", err)
			}
		}
		assert.Equal(t, 1, successes, "exactly one concurrent redemption may succeed")
		assert.Equal(t, 1, invalid)
	})
}

func TestService_EndToEnd(t *testing.T) {
	ctx := context.Background()

	t.Run("IssueRedeemRedeemAgain", func(t *testing.T) {
		service, repo, sender, _ := newTestService(t)

		_, err := service.RequestCode(ctx, "a@b.com")
		require.NoError(t, err)
		require.Len(t, repo.records, 1)
		for _, rec := range repo.records {
			assert.False(t, rec.IsUsed)
		}

		code := sender.lastCode()
		require.NoError(t, service.Redeem(ctx, "a@b.com", code))
		for _, rec := range repo.records {
			assert.True(t, rec.IsUsed)
		}

		assert.ErrorIs(t, service.Redeem(ctx, "a@b.com", code), ErrInvalidOrExpired)
	})

	t.Run("ExpiredRecordStaysUntilSweep", func(t *testing.T) {
		service, repo, sender, now := newTestService(t)

		_, err := service.RequestCode(ctx, "a@b.com")
		require.NoError(t, err)
		code := sender.lastCode()

		// past validity, inside retention: unredeemable but still present
		*now = now.Add(6 * time.Minute)
		assert.ErrorIs(t, service.Redeem(ctx, "a@b.com", code), ErrInvalidOrExpired)
		assert.Len(t, repo.records, 1)

		// past retention: the sweep removes it
		*now = now.Add(5 * time.Minute)
		purged, err := service.PurgeExpired(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), purged)
		assert.Empty(t, repo.records)
	})
}

func TestPurgeJob_Run(t *testing.T) {
	ctx := context.Background()
	service, repo, sender, now := newTestService(t)

	_, err := service.RequestCode(ctx, "a@b.com")
	require.NoError(t, err)
	_ = sender.lastCode()

	job := NewPurgeJob(service)
	assert.Equal(t, "purge-expired-verification-codes", job.Name())

	// nothing past retention yet
	require.NoError(t, job.Run(ctx))
	assert.Len(t, repo.records, 1)

	*now = now.Add(11 * time.Minute)
	require.NoError(t, job.Run(ctx))
	assert.Empty(t, repo.records)
}
