package services

import (
	"context"
	"testing"
	"time"

	"github.com/adilzhm/meetmate/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reviewFixture struct {
	requestRepo       *fakeRequestRepo
	participationRepo *fakeParticipationRepo
	reviewRepo        *fakeReviewRepo
	profileRepo       *fakeProfileRepo
	notifications     *noopNotifications
	reviews           ReviewService
}

func newReviewFixture(t *testing.T) *reviewFixture {
	t.Helper()

	requestRepo := newFakeRequestRepo()
	participationRepo := newFakeParticipationRepo()
	reviewRepo := newFakeReviewRepo()
	profileRepo := newFakeProfileRepo()
	notifications := &noopNotifications{}

	return &reviewFixture{
		requestRepo:       requestRepo,
		participationRepo: participationRepo,
		reviewRepo:        reviewRepo,
		profileRepo:       profileRepo,
		notifications:     notifications,
		reviews:           NewReviewService(reviewRepo, requestRepo, participationRepo, profileRepo, notifications),
	}
}

// seedCompletedRequest: создатель 1, участник 2 (approved), участник 3 (excluded).
func (f *reviewFixture) seedCompletedRequest(t *testing.T) *models.Request {
	t.Helper()
	ctx := context.Background()

	req := &models.Request{
		CreatorID:       1,
		ActivityID:      1,
		Title:           "Завершённая игра",
		StartsAt:        time.Now().Add(-24 * time.Hour),
		MaxParticipants: 4,
		Status:          models.RequestStatusCompleted,
	}
	require.NoError(t, f.requestRepo.Create(ctx, req))
	require.NoError(t, f.participationRepo.Create(ctx, &models.Participation{RequestID: req.ID, UserID: 2, Status: models.ParticipationApproved}))
	require.NoError(t, f.participationRepo.Create(ctx, &models.Participation{RequestID: req.ID, UserID: 3, Status: models.ParticipationExcluded}))
	require.NoError(t, f.participationRepo.Create(ctx, &models.Participation{RequestID: req.ID, UserID: 4, Status: models.ParticipationCancelled}))
	return req
}

func TestCreateReviewUpdatesRating(t *testing.T) {
	f := newReviewFixture(t)
	req := f.seedCompletedRequest(t)
	ctx := context.Background()

	review, err := f.reviews.Create(ctx, 2, CreateReviewInput{
		RequestID:      req.ID,
		ReviewedUserID: 1,
		Rating:         5,
		Comment:        "Отличная компания",
	})
	require.NoError(t, err)
	assert.Equal(t, 5, review.Rating)
	assert.Equal(t, 5.0, f.profileRepo.ratings[1])
	assert.Equal(t, 1, f.notifications.newReviews)
}

func TestRatingIsMeanRoundedToHundredths(t *testing.T) {
	f := newReviewFixture(t)
	req := f.seedCompletedRequest(t)
	ctx := context.Background()

	_, err := f.reviews.Create(ctx, 2, CreateReviewInput{RequestID: req.ID, ReviewedUserID: 1, Rating: 5})
	require.NoError(t, err)
	_, err = f.reviews.Create(ctx, 3, CreateReviewInput{RequestID: req.ID, ReviewedUserID: 1, Rating: 4})
	require.NoError(t, err)

	// (5 + 4) / 2 = 4.5
	assert.Equal(t, 4.5, f.profileRepo.ratings[1])

	// Третий отзыв с другой заявки: (5 + 4 + 4) / 3 = 4.333... -> 4.33
	other := f.seedCompletedRequest(t)
	_, err = f.reviews.Create(ctx, 2, CreateReviewInput{RequestID: other.ID, ReviewedUserID: 1, Rating: 4})
	require.NoError(t, err)
	assert.Equal(t, 4.33, f.profileRepo.ratings[1])
}

func TestCreateReviewValidation(t *testing.T) {
	f := newReviewFixture(t)
	req := f.seedCompletedRequest(t)
	ctx := context.Background()

	_, err := f.reviews.Create(ctx, 2, CreateReviewInput{RequestID: req.ID, ReviewedUserID: 1, Rating: 0})
	assert.ErrorIs(t, err, ErrInvalidRating)

	_, err = f.reviews.Create(ctx, 2, CreateReviewInput{RequestID: req.ID, ReviewedUserID: 1, Rating: 6})
	assert.ErrorIs(t, err, ErrInvalidRating)

	_, err = f.reviews.Create(ctx, 2, CreateReviewInput{RequestID: req.ID, ReviewedUserID: 2, Rating: 4})
	assert.ErrorIs(t, err, ErrSelfReview)
}

func TestCreateReviewRequiresCompletedRequest(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()

	req := &models.Request{
		CreatorID:       1,
		ActivityID:      1,
		Title:           "Ещё активная",
		StartsAt:        time.Now().Add(24 * time.Hour),
		MaxParticipants: 4,
		Status:          models.RequestStatusActive,
	}
	require.NoError(t, f.requestRepo.Create(ctx, req))
	require.NoError(t, f.participationRepo.Create(ctx, &models.Participation{RequestID: req.ID, UserID: 2, Status: models.ParticipationApproved}))

	_, err := f.reviews.Create(ctx, 2, CreateReviewInput{RequestID: req.ID, ReviewedUserID: 1, Rating: 5})
	assert.ErrorIs(t, err, ErrReviewRequestNotClosed)
}

func TestCreateReviewRequiresMembership(t *testing.T) {
	f := newReviewFixture(t)
	req := f.seedCompletedRequest(t)
	ctx := context.Background()

	// Посторонний пользователь
	_, err := f.reviews.Create(ctx, 9, CreateReviewInput{RequestID: req.ID, ReviewedUserID: 1, Rating: 5})
	assert.ErrorIs(t, err, ErrNotRequestMember)

	// Отзыв на постороннего
	_, err = f.reviews.Create(ctx, 2, CreateReviewInput{RequestID: req.ID, ReviewedUserID: 9, Rating: 5})
	assert.ErrorIs(t, err, ErrNotRequestMember)

	// Отменивший участие — не участник
	_, err = f.reviews.Create(ctx, 4, CreateReviewInput{RequestID: req.ID, ReviewedUserID: 1, Rating: 5})
	assert.ErrorIs(t, err, ErrNotRequestMember)

	// Исключённый после завершения — участник
	_, err = f.reviews.Create(ctx, 3, CreateReviewInput{RequestID: req.ID, ReviewedUserID: 1, Rating: 2})
	assert.NoError(t, err)
}

func TestDuplicateReviewRejected(t *testing.T) {
	f := newReviewFixture(t)
	req := f.seedCompletedRequest(t)
	ctx := context.Background()

	_, err := f.reviews.Create(ctx, 2, CreateReviewInput{RequestID: req.ID, ReviewedUserID: 1, Rating: 5})
	require.NoError(t, err)

	_, err = f.reviews.Create(ctx, 2, CreateReviewInput{RequestID: req.ID, ReviewedUserID: 1, Rating: 3})
	assert.ErrorIs(t, err, ErrDuplicateReview)
}

func TestDeleteReviewRecalculatesRating(t *testing.T) {
	f := newReviewFixture(t)
	req := f.seedCompletedRequest(t)
	ctx := context.Background()

	review, err := f.reviews.Create(ctx, 2, CreateReviewInput{RequestID: req.ID, ReviewedUserID: 1, Rating: 5})
	require.NoError(t, err)
	require.Equal(t, 5.0, f.profileRepo.ratings[1])

	// Чужой отзыв нельзя удалить без роли модератора
	err = f.reviews.Delete(ctx, review.ID, 3, false)
	assert.ErrorIs(t, err, ErrForbiddenOperation)

	require.NoError(t, f.reviews.Delete(ctx, review.ID, 2, false))
	assert.Equal(t, 0.0, f.profileRepo.ratings[1])
}

func TestModeratorCanDeleteAnyReview(t *testing.T) {
	f := newReviewFixture(t)
	req := f.seedCompletedRequest(t)
	ctx := context.Background()

	review, err := f.reviews.Create(ctx, 2, CreateReviewInput{RequestID: req.ID, ReviewedUserID: 1, Rating: 5})
	require.NoError(t, err)

	require.NoError(t, f.reviews.Delete(ctx, review.ID, 99, true))

	_, err = f.reviews.ListForRequest(ctx, req.ID)
	require.NoError(t, err)
}
