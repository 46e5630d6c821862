package services

import (
	"context"
	"testing"
	"time"

	"github.com/adilzhm/meetmate/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newModerationFixture(t *testing.T) (ModerationService, *fakeModerationRepo) {
	t.Helper()
	moderationRepo := newFakeModerationRepo()
	userRepo := newFakeUserRepo(
		&models.User{ID: 1, Username: "moderator", Role: models.RoleModerator},
		&models.User{ID: 2, Username: "offender"},
	)
	svc := NewModerationService(moderationRepo, userRepo, newFakeRequestRepo(), &noopNotifications{})
	return svc, moderationRepo
}

func TestCreateComplaintRequiresExactlyOneTarget(t *testing.T) {
	svc, _ := newModerationFixture(t)
	ctx := context.Background()

	userID, requestID := 2, 1
	input := CreateComplaintInput{Type: models.ComplaintSpam, Description: "спам в описании"}

	_, err := svc.CreateComplaint(ctx, 1, input)
	assert.ErrorIs(t, err, ErrInvalidComplaintTarget)

	input.ReportedUserID = &userID
	input.ReportedRequestID = &requestID
	_, err = svc.CreateComplaint(ctx, 1, input)
	assert.ErrorIs(t, err, ErrInvalidComplaintTarget)

	input.ReportedRequestID = nil
	complaint, err := svc.CreateComplaint(ctx, 1, input)
	require.NoError(t, err)
	assert.Equal(t, models.ComplaintPending, complaint.Status)
	assert.Equal(t, 1, complaint.ComplainantID)
}

func TestCreateComplaintValidation(t *testing.T) {
	svc, _ := newModerationFixture(t)
	ctx := context.Background()
	userID := 2

	_, err := svc.CreateComplaint(ctx, 1, CreateComplaintInput{
		ReportedUserID: &userID, Type: models.ComplaintSpam, Description: "   ",
	})
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = svc.CreateComplaint(ctx, 1, CreateComplaintInput{
		ReportedUserID: &userID, Type: models.ComplaintType("gossip"), Description: "что-то",
	})
	assert.ErrorIs(t, err, ErrValidationFailed)

	missing := 77
	_, err = svc.CreateComplaint(ctx, 1, CreateComplaintInput{
		ReportedUserID: &missing, Type: models.ComplaintSpam, Description: "что-то",
	})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestBanUserLifecycle(t *testing.T) {
	svc, _ := newModerationFixture(t)
	ctx := context.Background()

	ban, err := svc.BanUser(ctx, 1, CreateBanInput{
		UserID: 2,
		Type:   models.BanTemporary,
		Reason: "оскорбления в чате",
		Days:   7,
	})
	require.NoError(t, err)
	require.NotNil(t, ban.EndsAt)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 7), *ban.EndsAt, time.Minute)

	banned, err := svc.IsBanned(ctx, 2)
	require.NoError(t, err)
	assert.True(t, banned)

	require.NoError(t, svc.UnbanUser(ctx, 2))

	banned, err = svc.IsBanned(ctx, 2)
	require.NoError(t, err)
	assert.False(t, banned)
}

func TestTemporaryBanRequiresDays(t *testing.T) {
	svc, _ := newModerationFixture(t)

	_, err := svc.BanUser(context.Background(), 1, CreateBanInput{
		UserID: 2,
		Type:   models.BanTemporary,
		Reason: "спам",
	})
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestPermanentBanHasNoEnd(t *testing.T) {
	svc, _ := newModerationFixture(t)

	ban, err := svc.BanUser(context.Background(), 1, CreateBanInput{
		UserID: 2,
		Type:   models.BanPermanent,
		Reason: "мошенничество",
	})
	require.NoError(t, err)
	assert.Nil(t, ban.EndsAt)
}
