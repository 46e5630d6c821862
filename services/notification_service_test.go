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

func newNotificationFixture(t *testing.T) (*fakeNotificationRepo, NotificationService) {
	t.Helper()

	repo := newFakeNotificationRepo()
	userRepo := newFakeUserRepo(
		&models.User{ID: 1, Username: "runner"},
		&models.User{ID: 2, Username: "walker"},
	)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return repo, NewNotificationService(repo, userRepo, nil, nil, logger)
}

func TestActivityReminderSentOncePerRecipient(t *testing.T) {
	repo, notifications := newNotificationFixture(t)
	ctx := context.Background()

	req := &models.Request{ID: 7, CreatorID: 1, Title: "Пробежка", StartsAt: time.Now().Add(2 * time.Hour)}

	created := notifications.NotifyActivityReminder(ctx, req, []int{1, 2})
	assert.Equal(t, 2, created)

	// Повторный тик планировщика ничего не добавляет.
	created = notifications.NotifyActivityReminder(ctx, req, []int{1, 2})
	assert.Equal(t, 0, created)

	list, err := repo.ListByUser(ctx, 1, false, 50, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.NotificationActivityReminder, list[0].Type)
	require.NotNil(t, list[0].RelatedRequestID)
	assert.Equal(t, 7, *list[0].RelatedRequestID)
}

func TestActivityReminderIsPerRequest(t *testing.T) {
	repo, notifications := newNotificationFixture(t)
	ctx := context.Background()

	first := &models.Request{ID: 7, CreatorID: 1, Title: "Пробежка", StartsAt: time.Now().Add(2 * time.Hour)}
	second := &models.Request{ID: 8, CreatorID: 1, Title: "Футбол", StartsAt: time.Now().Add(5 * time.Hour)}

	assert.Equal(t, 1, notifications.NotifyActivityReminder(ctx, first, []int{1}))
	assert.Equal(t, 1, notifications.NotifyActivityReminder(ctx, second, []int{1}))

	list, err := repo.ListByUser(ctx, 1, false, 50, 0)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
