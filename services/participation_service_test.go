package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/adilzhm/meetmate/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type participationFixture struct {
	requestRepo       *fakeRequestRepo
	participationRepo *fakeParticipationRepo
	moderationRepo    *fakeModerationRepo
	notifications     *noopNotifications
	requests          RequestService
	participations    ParticipationService
}

func newParticipationFixture(t *testing.T) *participationFixture {
	t.Helper()

	requestRepo := newFakeRequestRepo()
	participationRepo := newFakeParticipationRepo()
	moderationRepo := newFakeModerationRepo()
	userRepo := newFakeUserRepo(
		&models.User{ID: 1, Username: "creator"},
		&models.User{ID: 2, Username: "runner"},
		&models.User{ID: 3, Username: "climber"},
		&models.User{ID: 4, Username: "cyclist"},
	)
	notifications := &noopNotifications{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	requests := NewRequestService(requestRepo, participationRepo, newFakeCatalogRepo(), notifications, &fakeUploader{}, logger)
	participations := NewParticipationService(participationRepo, requestRepo, userRepo, moderationRepo, requests, notifications)

	return &participationFixture{
		requestRepo:       requestRepo,
		participationRepo: participationRepo,
		moderationRepo:    moderationRepo,
		notifications:     notifications,
		requests:          requests,
		participations:    participations,
	}
}

func (f *participationFixture) seedRequest(t *testing.T, capacity int) *models.Request {
	t.Helper()
	req := &models.Request{
		CreatorID:       1,
		ActivityID:      1,
		Title:           "Morning run",
		StartsAt:        time.Now().Add(24 * time.Hour),
		MaxParticipants: capacity,
		Status:          models.RequestStatusActive,
		Visibility:      models.VisibilityPublic,
	}
	require.NoError(t, f.requestRepo.Create(context.Background(), req))
	return req
}

func TestJoinApprovesImmediately(t *testing.T) {
	f := newParticipationFixture(t)
	req := f.seedRequest(t, 3)

	p, err := f.participations.Join(context.Background(), req.ID, 2, JoinRequestInput{Message: "count me in"})
	require.NoError(t, err)
	assert.Equal(t, models.ParticipationApproved, p.Status)

	stored, err := f.requestRepo.GetByID(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.CurrentParticipants)
	assert.Equal(t, models.RequestStatusActive, stored.Status)
	assert.Equal(t, 1, f.notifications.responses)
}

func TestJoinFillsRequestAtCapacity(t *testing.T) {
	f := newParticipationFixture(t)
	req := f.seedRequest(t, 2)

	_, err := f.participations.Join(context.Background(), req.ID, 2, JoinRequestInput{})
	require.NoError(t, err)
	_, err = f.participations.Join(context.Background(), req.ID, 3, JoinRequestInput{})
	require.NoError(t, err)

	stored, err := f.requestRepo.GetByID(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.CurrentParticipants)
	assert.Equal(t, models.RequestStatusFilled, stored.Status)

	_, err = f.participations.Join(context.Background(), req.ID, 4, JoinRequestInput{})
	assert.ErrorIs(t, err, ErrRequestFull)
}

func TestJoinRejectsCreator(t *testing.T) {
	f := newParticipationFixture(t)
	req := f.seedRequest(t, 3)

	_, err := f.participations.Join(context.Background(), req.ID, 1, JoinRequestInput{})
	assert.ErrorIs(t, err, ErrSelfJoin)
}

func TestJoinRejectsBannedUser(t *testing.T) {
	f := newParticipationFixture(t)
	req := f.seedRequest(t, 3)

	f.moderationRepo.bans[2] = &models.Ban{
		ID:       1,
		UserID:   2,
		Type:     models.BanPermanent,
		IsActive: true,
		StartsAt: time.Now().Add(-time.Hour),
	}

	_, err := f.participations.Join(context.Background(), req.ID, 2, JoinRequestInput{})
	assert.ErrorIs(t, err, ErrUserBanned)
}

func TestJoinRejectsCancelledRequest(t *testing.T) {
	f := newParticipationFixture(t)
	req := f.seedRequest(t, 3)
	require.NoError(t, f.requestRepo.UpdateStatus(context.Background(), nil, req.ID, models.RequestStatusCancelled))

	_, err := f.participations.Join(context.Background(), req.ID, 2, JoinRequestInput{})
	assert.ErrorIs(t, err, ErrRequestNotJoinable)
}

func TestLeaveReopensFilledRequest(t *testing.T) {
	f := newParticipationFixture(t)
	req := f.seedRequest(t, 1)

	_, err := f.participations.Join(context.Background(), req.ID, 2, JoinRequestInput{})
	require.NoError(t, err)

	stored, err := f.requestRepo.GetByID(context.Background(), req.ID)
	require.NoError(t, err)
	require.Equal(t, models.RequestStatusFilled, stored.Status)

	require.NoError(t, f.participations.Leave(context.Background(), req.ID, 2))

	stored, err = f.requestRepo.GetByID(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.CurrentParticipants)
	assert.Equal(t, models.RequestStatusActive, stored.Status)
}

func TestLeaveRequiresActiveParticipation(t *testing.T) {
	f := newParticipationFixture(t)
	req := f.seedRequest(t, 2)

	err := f.participations.Leave(context.Background(), req.ID, 2)
	assert.ErrorIs(t, err, ErrParticipationNotFound)

	_, err = f.participations.Join(context.Background(), req.ID, 2, JoinRequestInput{})
	require.NoError(t, err)
	require.NoError(t, f.participations.Leave(context.Background(), req.ID, 2))

	err = f.participations.Leave(context.Background(), req.ID, 2)
	assert.ErrorIs(t, err, ErrParticipationNotActive)
}

func TestRejoinAfterLeaveReactivatesOldRecord(t *testing.T) {
	f := newParticipationFixture(t)
	req := f.seedRequest(t, 2)

	first, err := f.participations.Join(context.Background(), req.ID, 2, JoinRequestInput{})
	require.NoError(t, err)
	require.NoError(t, f.participations.Leave(context.Background(), req.ID, 2))

	second, err := f.participations.Join(context.Background(), req.ID, 2, JoinRequestInput{})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, models.ParticipationApproved, second.Status)
}

func TestExcludedParticipantCannotRejoin(t *testing.T) {
	f := newParticipationFixture(t)
	req := f.seedRequest(t, 2)

	_, err := f.participations.Join(context.Background(), req.ID, 2, JoinRequestInput{})
	require.NoError(t, err)

	require.NoError(t, f.participations.Exclude(context.Background(), req.ID, 1, 2))

	stored, err := f.requestRepo.GetByID(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.CurrentParticipants)

	_, err = f.participations.Join(context.Background(), req.ID, 2, JoinRequestInput{})
	assert.ErrorIs(t, err, ErrParticipationExcluded)
}

func TestExcludeOnlyByCreator(t *testing.T) {
	f := newParticipationFixture(t)
	req := f.seedRequest(t, 3)

	_, err := f.participations.Join(context.Background(), req.ID, 2, JoinRequestInput{})
	require.NoError(t, err)

	err = f.participations.Exclude(context.Background(), req.ID, 3, 2)
	assert.ErrorIs(t, err, ErrForbiddenOperation)
}

func TestDoubleJoinReturnsConflict(t *testing.T) {
	f := newParticipationFixture(t)
	req := f.seedRequest(t, 3)

	_, err := f.participations.Join(context.Background(), req.ID, 2, JoinRequestInput{})
	require.NoError(t, err)

	_, err = f.participations.Join(context.Background(), req.ID, 2, JoinRequestInput{})
	assert.ErrorIs(t, err, ErrAlreadyParticipating)
}
