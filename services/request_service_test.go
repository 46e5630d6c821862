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

type requestFixture struct {
	requestRepo       *fakeRequestRepo
	participationRepo *fakeParticipationRepo
	notifications     *noopNotifications
	uploader          *fakeUploader
	requests          RequestService
}

func newRequestFixture(t *testing.T) *requestFixture {
	t.Helper()

	requestRepo := newFakeRequestRepo()
	participationRepo := newFakeParticipationRepo()
	catalogRepo := newFakeCatalogRepo(&models.Activity{ID: 1, Name: "Бег", Slug: "running"})
	notifications := &noopNotifications{}
	uploader := &fakeUploader{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &requestFixture{
		requestRepo:       requestRepo,
		participationRepo: participationRepo,
		notifications:     notifications,
		uploader:          uploader,
		requests:          NewRequestService(requestRepo, participationRepo, catalogRepo, notifications, uploader, logger),
	}
}

func validCreateInput() CreateRequestInput {
	return CreateRequestInput{
		ActivityID:      1,
		Type:            models.RequestTypeSport,
		Format:          models.FormatCompany,
		Title:           "Вечерняя пробежка",
		StartsAt:        time.Now().Add(48 * time.Hour),
		MaxParticipants: 4,
	}
}

func TestCreateRequestDefaults(t *testing.T) {
	f := newRequestFixture(t)

	req, err := f.requests.Create(context.Background(), 1, validCreateInput())
	require.NoError(t, err)

	assert.Equal(t, models.RequestStatusActive, req.Status)
	assert.Equal(t, models.LevelAny, req.Level)
	assert.Equal(t, models.VisibilityPublic, req.Visibility)
	assert.Equal(t, 0, req.CurrentParticipants)
}

func TestCreateRequestValidation(t *testing.T) {
	f := newRequestFixture(t)
	ctx := context.Background()

	input := validCreateInput()
	input.Title = "   "
	_, err := f.requests.Create(ctx, 1, input)
	assert.ErrorIs(t, err, ErrTitleRequired)

	input = validCreateInput()
	input.MaxParticipants = 0
	_, err = f.requests.Create(ctx, 1, input)
	assert.ErrorIs(t, err, ErrInvalidCapacity)

	input = validCreateInput()
	input.StartsAt = time.Now().Add(-time.Hour)
	_, err = f.requests.Create(ctx, 1, input)
	assert.ErrorIs(t, err, ErrInvalidDate)

	input = validCreateInput()
	endsAt := input.StartsAt.Add(-time.Minute)
	input.EndsAt = &endsAt
	_, err = f.requests.Create(ctx, 1, input)
	assert.ErrorIs(t, err, ErrInvalidDate)

	input = validCreateInput()
	input.ActivityID = 99
	_, err = f.requests.Create(ctx, 1, input)
	assert.ErrorIs(t, err, ErrActivityNotFound)

	input = validCreateInput()
	input.Level = models.InterestLevel("grandmaster")
	_, err = f.requests.Create(ctx, 1, input)
	assert.ErrorIs(t, err, ErrInvalidLevel)
}

func TestGetByIDCompletesExpiredRequest(t *testing.T) {
	f := newRequestFixture(t)
	ctx := context.Background()

	req := &models.Request{
		CreatorID:       1,
		ActivityID:      1,
		Title:           "Прошедшая игра",
		StartsAt:        time.Now().Add(-2 * time.Hour),
		MaxParticipants: 4,
		Status:          models.RequestStatusActive,
	}
	require.NoError(t, f.requestRepo.Create(ctx, req))

	got, err := f.requests.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusCompleted, got.Status)

	stored, err := f.requestRepo.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusCompleted, stored.Status)
}

func TestGetByIDKeepsRequestWithFutureEnd(t *testing.T) {
	f := newRequestFixture(t)
	ctx := context.Background()

	endsAt := time.Now().Add(time.Hour)
	req := &models.Request{
		CreatorID:       1,
		ActivityID:      1,
		Title:           "Идёт прямо сейчас",
		StartsAt:        time.Now().Add(-time.Hour),
		EndsAt:          &endsAt,
		MaxParticipants: 4,
		Status:          models.RequestStatusActive,
	}
	require.NoError(t, f.requestRepo.Create(ctx, req))

	got, err := f.requests.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusActive, got.Status)
}

func TestSweepExpiredClosesPastRequests(t *testing.T) {
	f := newRequestFixture(t)
	ctx := context.Background()

	past := &models.Request{CreatorID: 1, ActivityID: 1, Title: "Вчера", StartsAt: time.Now().Add(-24 * time.Hour), MaxParticipants: 2, Status: models.RequestStatusFilled}
	future := &models.Request{CreatorID: 1, ActivityID: 1, Title: "Завтра", StartsAt: time.Now().Add(24 * time.Hour), MaxParticipants: 2, Status: models.RequestStatusActive}
	cancelled := &models.Request{CreatorID: 1, ActivityID: 1, Title: "Отменено", StartsAt: time.Now().Add(-24 * time.Hour), MaxParticipants: 2, Status: models.RequestStatusCancelled}
	require.NoError(t, f.requestRepo.Create(ctx, past))
	require.NoError(t, f.requestRepo.Create(ctx, future))
	require.NoError(t, f.requestRepo.Create(ctx, cancelled))

	n, err := f.requests.SweepExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	stored, _ := f.requestRepo.GetByID(ctx, past.ID)
	assert.Equal(t, models.RequestStatusCompleted, stored.Status)
	stored, _ = f.requestRepo.GetByID(ctx, future.ID)
	assert.Equal(t, models.RequestStatusActive, stored.Status)
	stored, _ = f.requestRepo.GetByID(ctx, cancelled.ID)
	assert.Equal(t, models.RequestStatusCancelled, stored.Status)
}

func TestSendRemindersTargetsUpcomingRequests(t *testing.T) {
	f := newRequestFixture(t)
	ctx := context.Background()

	today := &models.Request{CreatorID: 1, ActivityID: 1, Title: "Сегодня", StartsAt: time.Now().Add(3 * time.Hour), MaxParticipants: 3, Status: models.RequestStatusActive}
	nextWeek := &models.Request{CreatorID: 1, ActivityID: 1, Title: "Через неделю", StartsAt: time.Now().Add(7 * 24 * time.Hour), MaxParticipants: 3, Status: models.RequestStatusActive}
	cancelled := &models.Request{CreatorID: 1, ActivityID: 1, Title: "Отменено", StartsAt: time.Now().Add(3 * time.Hour), MaxParticipants: 3, Status: models.RequestStatusCancelled}
	require.NoError(t, f.requestRepo.Create(ctx, today))
	require.NoError(t, f.requestRepo.Create(ctx, nextWeek))
	require.NoError(t, f.requestRepo.Create(ctx, cancelled))

	require.NoError(t, f.participationRepo.Create(ctx, &models.Participation{RequestID: today.ID, UserID: 2, Status: models.ParticipationApproved}))
	require.NoError(t, f.participationRepo.Create(ctx, &models.Participation{RequestID: today.ID, UserID: 3, Status: models.ParticipationCancelled}))

	n, err := f.requests.SendReminders(ctx)
	require.NoError(t, err)

	// Создатель и одобренный участник сегодняшней заявки; отменённый
	// участник, далёкая и отменённая заявки не в счёт.
	assert.Equal(t, 2, n)
	assert.ElementsMatch(t, []int{1, 2}, f.notifications.reminded)
}

func TestUpdateRequestOnlyByCreator(t *testing.T) {
	f := newRequestFixture(t)
	ctx := context.Background()

	req, err := f.requests.Create(ctx, 1, validCreateInput())
	require.NoError(t, err)

	title := "Новый заголовок"
	_, err = f.requests.Update(ctx, req.ID, 2, UpdateRequestInput{Title: &title})
	assert.ErrorIs(t, err, ErrForbiddenOperation)

	updated, err := f.requests.Update(ctx, req.ID, 1, UpdateRequestInput{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
}

func TestUpdateRescheduleNotifiesParticipants(t *testing.T) {
	f := newRequestFixture(t)
	ctx := context.Background()

	req, err := f.requests.Create(ctx, 1, validCreateInput())
	require.NoError(t, err)

	require.NoError(t, f.participationRepo.Create(ctx, &models.Participation{
		RequestID: req.ID, UserID: 2, Status: models.ParticipationApproved,
	}))

	newStart := time.Now().Add(72 * time.Hour)
	_, err = f.requests.Update(ctx, req.ID, 1, UpdateRequestInput{StartsAt: &newStart})
	require.NoError(t, err)
	assert.Equal(t, 1, f.notifications.rescheduled)
}

func TestUpdateCapacityReconcilesStatus(t *testing.T) {
	f := newRequestFixture(t)
	ctx := context.Background()

	input := validCreateInput()
	input.MaxParticipants = 2
	req, err := f.requests.Create(ctx, 1, input)
	require.NoError(t, err)

	require.NoError(t, f.participationRepo.Create(ctx, &models.Participation{RequestID: req.ID, UserID: 2, Status: models.ParticipationApproved}))
	require.NoError(t, f.participationRepo.Create(ctx, &models.Participation{RequestID: req.ID, UserID: 3, Status: models.ParticipationApproved}))
	require.NoError(t, f.requests.Reconcile(ctx, req.ID))

	stored, _ := f.requestRepo.GetByID(ctx, req.ID)
	require.Equal(t, models.RequestStatusFilled, stored.Status)

	capacity := 5
	updated, err := f.requests.Update(ctx, req.ID, 1, UpdateRequestInput{MaxParticipants: &capacity})
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusActive, updated.Status)
	assert.Equal(t, 2, updated.CurrentParticipants)
}

func TestCancelRequestNotifiesApproved(t *testing.T) {
	f := newRequestFixture(t)
	ctx := context.Background()

	req, err := f.requests.Create(ctx, 1, validCreateInput())
	require.NoError(t, err)

	cancelled, err := f.requests.Cancel(ctx, req.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusCancelled, cancelled.Status)
	assert.Equal(t, 1, f.notifications.cancelled)

	_, err = f.requests.Cancel(ctx, req.ID, 1)
	assert.ErrorIs(t, err, ErrRequestNotJoinable)
}

func TestDeleteRequestRemovesPhotos(t *testing.T) {
	f := newRequestFixture(t)
	ctx := context.Background()

	req, err := f.requests.Create(ctx, 1, validCreateInput())
	require.NoError(t, err)

	stored, _ := f.requestRepo.GetByID(ctx, req.ID)
	stored.PhotoKeys = []string{"requests/1/a.jpg", "requests/1/b.jpg"}
	require.NoError(t, f.requestRepo.Update(ctx, stored))

	require.NoError(t, f.requests.Delete(ctx, req.ID, 1))
	assert.ElementsMatch(t, []string{"requests/1/a.jpg", "requests/1/b.jpg"}, f.uploader.deleted)

	_, err = f.requests.GetByID(ctx, req.ID)
	assert.ErrorIs(t, err, ErrRequestNotFound)
}

func TestReconcileNoChangeIsNoop(t *testing.T) {
	f := newRequestFixture(t)
	ctx := context.Background()

	req, err := f.requests.Create(ctx, 1, validCreateInput())
	require.NoError(t, err)

	before, _ := f.requestRepo.GetByID(ctx, req.ID)
	require.NoError(t, f.requests.Reconcile(ctx, req.ID))
	after, _ := f.requestRepo.GetByID(ctx, req.ID)

	assert.Equal(t, before.Status, after.Status)
	assert.Equal(t, before.CurrentParticipants, after.CurrentParticipants)
}
