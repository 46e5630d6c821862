package services

import (
	"context"
	"testing"
	"time"

	"github.com/adilzhm/meetmate/models"
	"github.com/adilzhm/meetmate/verification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// fakeCodeStore повторяет одноразовую семантику редисового хранилища.
type fakeCodeStore struct {
	codes map[string]int64
	next  int
}

func newFakeCodeStore() *fakeCodeStore {
	return &fakeCodeStore{codes: make(map[string]int64)}
}

func (s *fakeCodeStore) Issue(ctx context.Context, telegramID int64) (string, error) {
	s.next++
	code := "code-" + string(rune('a'+s.next))
	s.codes[code] = telegramID
	return code, nil
}

func (s *fakeCodeStore) Consume(ctx context.Context, code string) (int64, error) {
	telegramID, ok := s.codes[code]
	if !ok {
		return 0, verification.ErrCodeNotFound
	}
	delete(s.codes, code)
	return telegramID, nil
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestLoginChecksPasswordAndBan(t *testing.T) {
	userRepo := newFakeUserRepo(&models.User{
		ID:           1,
		Username:     "runner",
		PasswordHash: hashPassword(t, "correct-horse"),
		Role:         models.RoleUser,
	})
	moderationRepo := newFakeModerationRepo()
	auth := NewAuthService(nil, userRepo, newFakeProfileRepo(), moderationRepo, newFakeCodeStore(), nil)
	ctx := context.Background()

	user, err := auth.Login(ctx, LoginInput{Username: "runner", Password: "correct-horse"})
	require.NoError(t, err)
	assert.Empty(t, user.PasswordHash)

	_, err = auth.Login(ctx, LoginInput{Username: "runner", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = auth.Login(ctx, LoginInput{Username: "nobody", Password: "correct-horse"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	moderationRepo.bans[1] = &models.Ban{
		ID: 1, UserID: 1, Type: models.BanPermanent,
		IsActive: true, StartsAt: time.Now().Add(-time.Hour),
	}
	_, err = auth.Login(ctx, LoginInput{Username: "runner", Password: "correct-horse"})
	assert.ErrorIs(t, err, ErrUserBanned)
}

func TestLinkTelegramConsumesCodeOnce(t *testing.T) {
	userRepo := newFakeUserRepo(
		&models.User{ID: 1, Username: "runner"},
		&models.User{ID: 2, Username: "climber"},
	)
	codes := newFakeCodeStore()
	auth := NewAuthService(nil, userRepo, newFakeProfileRepo(), newFakeModerationRepo(), codes, nil)
	ctx := context.Background()

	code, err := codes.Issue(ctx, 777000)
	require.NoError(t, err)

	require.NoError(t, auth.LinkTelegram(ctx, 1, code))

	linked, err := userRepo.GetByID(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, linked.TelegramID)
	assert.EqualValues(t, 777000, *linked.TelegramID)
	assert.True(t, linked.TelegramVerified)

	// Код одноразовый: второе использование отклоняется
	err = auth.LinkTelegram(ctx, 2, code)
	assert.ErrorIs(t, err, ErrTelegramCodeInvalid)
}

func TestLinkTelegramRejectsTakenTelegramID(t *testing.T) {
	telegramID := int64(777000)
	userRepo := newFakeUserRepo(
		&models.User{ID: 1, Username: "runner", TelegramID: &telegramID, TelegramVerified: true},
		&models.User{ID: 2, Username: "climber"},
	)
	codes := newFakeCodeStore()
	auth := NewAuthService(nil, userRepo, newFakeProfileRepo(), newFakeModerationRepo(), codes, nil)
	ctx := context.Background()

	code, err := codes.Issue(ctx, telegramID)
	require.NoError(t, err)

	err = auth.LinkTelegram(ctx, 2, code)
	assert.ErrorIs(t, err, ErrTelegramTaken)
}

func TestLinkTelegramRejectsUnknownCode(t *testing.T) {
	auth := NewAuthService(nil, newFakeUserRepo(), newFakeProfileRepo(), newFakeModerationRepo(), newFakeCodeStore(), nil)

	err := auth.LinkTelegram(context.Background(), 1, "never-issued")
	assert.ErrorIs(t, err, ErrTelegramCodeInvalid)
}

func TestRegisterFromTelegramValidation(t *testing.T) {
	auth := NewAuthService(nil, newFakeUserRepo(), newFakeProfileRepo(), newFakeModerationRepo(), newFakeCodeStore(), nil)
	ctx := context.Background()

	_, err := auth.RegisterFromTelegram(ctx, TelegramRegisterInput{
		TelegramID: 777000, Password: "long-enough-pass",
	})
	assert.ErrorIs(t, err, ErrUsernameRequired)

	_, err = auth.RegisterFromTelegram(ctx, TelegramRegisterInput{
		TelegramID: 777000, Username: "runner", Password: "short",
	})
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestUsernameTaken(t *testing.T) {
	auth := NewAuthService(nil, newFakeUserRepo(&models.User{ID: 1, Username: "runner"}),
		newFakeProfileRepo(), newFakeModerationRepo(), newFakeCodeStore(), nil)
	ctx := context.Background()

	taken, err := auth.UsernameTaken(ctx, "runner")
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = auth.UsernameTaken(ctx, "free-name")
	require.NoError(t, err)
	assert.False(t, taken)
}
