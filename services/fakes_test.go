package services

import (
	"context"
	"io"
	"sort"
	"time"

	"github.com/adilzhm/meetmate/models"
	"github.com/adilzhm/meetmate/repositories"
	"github.com/adilzhm/meetmate/storage"
)

// Фейки держат всё в памяти и возвращают те же сентинельные ошибки,
// что и постгресовые репозитории.

type fakeRequestRepo struct {
	nextID   int
	requests map[int]*models.Request
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{nextID: 1, requests: make(map[int]*models.Request)}
}

func (r *fakeRequestRepo) Create(ctx context.Context, request *models.Request) error {
	request.ID = r.nextID
	r.nextID++
	request.CreatedAt = time.Now()
	request.UpdatedAt = request.CreatedAt
	clone := *request
	r.requests[request.ID] = &clone
	return nil
}

func (r *fakeRequestRepo) GetByID(ctx context.Context, id int) (*models.Request, error) {
	req, ok := r.requests[id]
	if !ok {
		return nil, repositories.ErrRequestNotFound
	}
	clone := *req
	return &clone, nil
}

func (r *fakeRequestRepo) List(ctx context.Context, filter repositories.ListRequestsFilter) ([]*models.Request, error) {
	ids := make([]int, 0, len(r.requests))
	for id := range r.requests {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]*models.Request, 0, len(ids))
	for _, id := range ids {
		clone := *r.requests[id]
		out = append(out, &clone)
	}
	return out, nil
}

func (r *fakeRequestRepo) Update(ctx context.Context, request *models.Request) error {
	if _, ok := r.requests[request.ID]; !ok {
		return repositories.ErrRequestNotFound
	}
	clone := *request
	r.requests[request.ID] = &clone
	return nil
}

func (r *fakeRequestRepo) UpdateDerived(ctx context.Context, exec repositories.SQLExecutor, id, currentParticipants int, status models.RequestStatus) error {
	req, ok := r.requests[id]
	if !ok {
		return repositories.ErrRequestNotFound
	}
	req.CurrentParticipants = currentParticipants
	req.Status = status
	return nil
}

func (r *fakeRequestRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id int, status models.RequestStatus) error {
	req, ok := r.requests[id]
	if !ok {
		return repositories.ErrRequestNotFound
	}
	req.Status = status
	return nil
}

func (r *fakeRequestRepo) MarkPastCompleted(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	for _, req := range r.requests {
		if req.Status != models.RequestStatusActive && req.Status != models.RequestStatusFilled {
			continue
		}
		deadline := req.StartsAt
		if req.EndsAt != nil {
			deadline = *req.EndsAt
		}
		if deadline.Before(now) {
			req.Status = models.RequestStatusCompleted
			n++
		}
	}
	return n, nil
}

func (r *fakeRequestRepo) ListStartingBetween(ctx context.Context, from, to time.Time) ([]*models.Request, error) {
	ids := make([]int, 0, len(r.requests))
	for id, req := range r.requests {
		if req.Status != models.RequestStatusActive {
			continue
		}
		if req.StartsAt.Before(from) || !req.StartsAt.Before(to) {
			continue
		}
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]*models.Request, 0, len(ids))
	for _, id := range ids {
		clone := *r.requests[id]
		out = append(out, &clone)
	}
	return out, nil
}

func (r *fakeRequestRepo) Delete(ctx context.Context, id int) error {
	if _, ok := r.requests[id]; !ok {
		return repositories.ErrRequestNotFound
	}
	delete(r.requests, id)
	return nil
}

type fakeParticipationRepo struct {
	nextID         int
	participations map[int]*models.Participation
}

func newFakeParticipationRepo() *fakeParticipationRepo {
	return &fakeParticipationRepo{nextID: 1, participations: make(map[int]*models.Participation)}
}

func (r *fakeParticipationRepo) Create(ctx context.Context, p *models.Participation) error {
	for _, existing := range r.participations {
		if existing.RequestID == p.RequestID && existing.UserID == p.UserID {
			return repositories.ErrParticipationConflict
		}
	}
	p.ID = r.nextID
	r.nextID++
	p.CreatedAt = time.Now()
	clone := *p
	r.participations[p.ID] = &clone
	return nil
}

func (r *fakeParticipationRepo) FindByID(ctx context.Context, id int) (*models.Participation, error) {
	p, ok := r.participations[id]
	if !ok {
		return nil, repositories.ErrParticipationNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *fakeParticipationRepo) FindByRequestAndUser(ctx context.Context, requestID, userID int) (*models.Participation, error) {
	for _, p := range r.participations {
		if p.RequestID == requestID && p.UserID == userID {
			clone := *p
			return &clone, nil
		}
	}
	return nil, repositories.ErrParticipationNotFound
}

func (r *fakeParticipationRepo) ListByRequest(ctx context.Context, requestID int, statusFilter *models.ParticipationStatus) ([]*models.Participation, error) {
	ids := make([]int, 0, len(r.participations))
	for id, p := range r.participations {
		if p.RequestID != requestID {
			continue
		}
		if statusFilter != nil && p.Status != *statusFilter {
			continue
		}
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]*models.Participation, 0, len(ids))
	for _, id := range ids {
		clone := *r.participations[id]
		out = append(out, &clone)
	}
	return out, nil
}

func (r *fakeParticipationRepo) ListByUser(ctx context.Context, userID int) ([]*models.Participation, error) {
	out := make([]*models.Participation, 0)
	for _, p := range r.participations {
		if p.UserID == userID {
			clone := *p
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeParticipationRepo) CountByRequestAndStatus(ctx context.Context, exec repositories.SQLExecutor, requestID int, status models.ParticipationStatus) (int, error) {
	count := 0
	for _, p := range r.participations {
		if p.RequestID == requestID && p.Status == status {
			count++
		}
	}
	return count, nil
}

func (r *fakeParticipationRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id int, status models.ParticipationStatus) error {
	p, ok := r.participations[id]
	if !ok {
		return repositories.ErrParticipationNotFound
	}
	p.Status = status
	return nil
}

type fakeUserRepo struct {
	users map[int]*models.User
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[int]*models.User)}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (r *fakeUserRepo) Create(ctx context.Context, exec repositories.SQLExecutor, user *models.User) error {
	user.ID = len(r.users) + 1
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	for _, u := range r.users {
		if u.TelegramID != nil && *u.TelegramID == telegramID {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	_, err := r.GetByUsername(ctx, username)
	return err == nil, nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *models.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return repositories.ErrUserNotFound
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) LinkTelegram(ctx context.Context, userID int, telegramID int64) error {
	u, ok := r.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	for _, other := range r.users {
		if other.ID != userID && other.TelegramID != nil && *other.TelegramID == telegramID {
			return repositories.ErrUserTelegramConflict
		}
	}
	u.TelegramID = &telegramID
	u.TelegramVerified = true
	return nil
}

func (r *fakeUserRepo) SetTelegramVerified(ctx context.Context, userID int, verified bool) error {
	u, ok := r.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.TelegramVerified = verified
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id int) error {
	delete(r.users, id)
	return nil
}

type fakeModerationRepo struct {
	bans map[int]*models.Ban // по userID, максимум один активный
}

func newFakeModerationRepo() *fakeModerationRepo {
	return &fakeModerationRepo{bans: make(map[int]*models.Ban)}
}

func (r *fakeModerationRepo) CreateComplaint(ctx context.Context, c *models.Complaint) error {
	return nil
}

func (r *fakeModerationRepo) GetComplaintByID(ctx context.Context, id int) (*models.Complaint, error) {
	return nil, repositories.ErrComplaintNotFound
}

func (r *fakeModerationRepo) ListComplaints(ctx context.Context, filter repositories.ListComplaintsFilter) ([]*models.Complaint, error) {
	return nil, nil
}

func (r *fakeModerationRepo) UpdateComplaintStatus(ctx context.Context, id int, status models.ComplaintStatus, moderatorID int, comment string) error {
	return nil
}

func (r *fakeModerationRepo) CreateBan(ctx context.Context, b *models.Ban) error {
	r.bans[b.UserID] = b
	return nil
}

func (r *fakeModerationRepo) ListBansByUser(ctx context.Context, userID int) ([]*models.Ban, error) {
	if b, ok := r.bans[userID]; ok {
		return []*models.Ban{b}, nil
	}
	return nil, nil
}

func (r *fakeModerationRepo) FindActiveBan(ctx context.Context, userID int, now time.Time) (*models.Ban, error) {
	b, ok := r.bans[userID]
	if !ok || !b.InEffect(now) {
		return nil, repositories.ErrBanNotFound
	}
	return b, nil
}

func (r *fakeModerationRepo) DeactivateBan(ctx context.Context, id int) error {
	for userID, b := range r.bans {
		if b.ID == id {
			b.IsActive = false
			delete(r.bans, userID)
			return nil
		}
	}
	return repositories.ErrBanNotFound
}

type fakeReviewRepo struct {
	nextID  int
	reviews map[int]*models.Review
}

func newFakeReviewRepo() *fakeReviewRepo {
	return &fakeReviewRepo{nextID: 1, reviews: make(map[int]*models.Review)}
}

func (r *fakeReviewRepo) Create(ctx context.Context, review *models.Review) error {
	for _, existing := range r.reviews {
		if existing.RequestID == review.RequestID &&
			existing.ReviewerID == review.ReviewerID &&
			existing.ReviewedUserID == review.ReviewedUserID {
			return repositories.ErrReviewConflict
		}
	}
	review.ID = r.nextID
	r.nextID++
	review.CreatedAt = time.Now()
	clone := *review
	r.reviews[review.ID] = &clone
	return nil
}

func (r *fakeReviewRepo) GetByID(ctx context.Context, id int) (*models.Review, error) {
	review, ok := r.reviews[id]
	if !ok {
		return nil, repositories.ErrReviewNotFound
	}
	clone := *review
	return &clone, nil
}

func (r *fakeReviewRepo) ListByReviewedUser(ctx context.Context, userID int) ([]*models.Review, error) {
	out := make([]*models.Review, 0)
	for _, review := range r.reviews {
		if review.ReviewedUserID == userID {
			clone := *review
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeReviewRepo) ListByRequest(ctx context.Context, requestID int) ([]*models.Review, error) {
	out := make([]*models.Review, 0)
	for _, review := range r.reviews {
		if review.RequestID == requestID {
			clone := *review
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeReviewRepo) AverageForUser(ctx context.Context, userID int) (float64, int, error) {
	sum, count := 0, 0
	for _, review := range r.reviews {
		if review.ReviewedUserID == userID {
			sum += review.Rating
			count++
		}
	}
	if count == 0 {
		return 0, 0, nil
	}
	return float64(sum) / float64(count), count, nil
}

func (r *fakeReviewRepo) Delete(ctx context.Context, id int) error {
	if _, ok := r.reviews[id]; !ok {
		return repositories.ErrReviewNotFound
	}
	delete(r.reviews, id)
	return nil
}

type fakeProfileRepo struct {
	ratings map[int]float64
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{ratings: make(map[int]float64)}
}

func (r *fakeProfileRepo) Create(ctx context.Context, exec repositories.SQLExecutor, profile *models.Profile) error {
	return nil
}

func (r *fakeProfileRepo) GetByUserID(ctx context.Context, userID int) (*models.Profile, error) {
	return &models.Profile{UserID: userID, Rating: r.ratings[userID]}, nil
}

func (r *fakeProfileRepo) Update(ctx context.Context, profile *models.Profile) error {
	return nil
}

func (r *fakeProfileRepo) UpdateRating(ctx context.Context, userID int, rating float64) error {
	r.ratings[userID] = rating
	return nil
}

func (r *fakeProfileRepo) UpdatePhotoKey(ctx context.Context, userID int, photoKey *string) error {
	return nil
}

func (r *fakeProfileRepo) AddLike(ctx context.Context, like *models.ProfileLike) error {
	return nil
}

func (r *fakeProfileRepo) RemoveLike(ctx context.Context, likerID, profileUserID int) error {
	return nil
}

func (r *fakeProfileRepo) CountLikes(ctx context.Context, profileUserID int) (int, error) {
	return 0, nil
}

type fakeCatalogRepo struct {
	activities map[int]*models.Activity
}

func newFakeCatalogRepo(activities ...*models.Activity) *fakeCatalogRepo {
	repo := &fakeCatalogRepo{activities: make(map[int]*models.Activity)}
	for _, a := range activities {
		repo.activities[a.ID] = a
	}
	return repo
}

func (r *fakeCatalogRepo) CreateCategory(ctx context.Context, category *models.Category) error {
	return nil
}

func (r *fakeCatalogRepo) GetCategoryByID(ctx context.Context, id int) (*models.Category, error) {
	return nil, repositories.ErrCategoryNotFound
}

func (r *fakeCatalogRepo) ListCategories(ctx context.Context) ([]models.Category, error) {
	return nil, nil
}

func (r *fakeCatalogRepo) CreateActivity(ctx context.Context, activity *models.Activity) error {
	activity.ID = len(r.activities) + 1
	r.activities[activity.ID] = activity
	return nil
}

func (r *fakeCatalogRepo) UpdateActivity(ctx context.Context, activity *models.Activity) error {
	return nil
}

func (r *fakeCatalogRepo) GetActivityByID(ctx context.Context, id int) (*models.Activity, error) {
	a, ok := r.activities[id]
	if !ok {
		return nil, repositories.ErrActivityNotFound
	}
	return a, nil
}

func (r *fakeCatalogRepo) ListActivities(ctx context.Context, categoryID *int) ([]models.Activity, error) {
	return nil, nil
}

type fakeNotificationRepo struct {
	nextID        int
	notifications map[int]*models.Notification
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{nextID: 1, notifications: make(map[int]*models.Notification)}
}

func (r *fakeNotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	n.ID = r.nextID
	r.nextID++
	n.CreatedAt = time.Now()
	clone := *n
	r.notifications[n.ID] = &clone
	return nil
}

func (r *fakeNotificationRepo) GetByID(ctx context.Context, id int) (*models.Notification, error) {
	n, ok := r.notifications[id]
	if !ok {
		return nil, repositories.ErrNotificationNotFound
	}
	clone := *n
	return &clone, nil
}

func (r *fakeNotificationRepo) ListByUser(ctx context.Context, userID int, unreadOnly bool, limit, offset int) ([]*models.Notification, error) {
	ids := make([]int, 0, len(r.notifications))
	for id, n := range r.notifications {
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.IsRead {
			continue
		}
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]*models.Notification, 0, len(ids))
	for _, id := range ids {
		clone := *r.notifications[id]
		out = append(out, &clone)
	}
	return out, nil
}

func (r *fakeNotificationRepo) CountUnread(ctx context.Context, userID int) (int, error) {
	count := 0
	for _, n := range r.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *fakeNotificationRepo) ExistsForRequest(ctx context.Context, userID int, nType models.NotificationType, requestID int) (bool, error) {
	for _, n := range r.notifications {
		if n.UserID == userID && n.Type == nType && n.RelatedRequestID != nil && *n.RelatedRequestID == requestID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeNotificationRepo) MarkRead(ctx context.Context, id int) error {
	n, ok := r.notifications[id]
	if !ok {
		return repositories.ErrNotificationNotFound
	}
	n.IsRead = true
	return nil
}

func (r *fakeNotificationRepo) MarkAllRead(ctx context.Context, userID int) error {
	for _, n := range r.notifications {
		if n.UserID == userID {
			n.IsRead = true
		}
	}
	return nil
}

// noopNotifications считает вызовы, но никуда не шлёт.
type noopNotifications struct {
	responses   int
	changed     []models.ParticipationStatus
	cancelled   int
	rescheduled int
	newReviews  int
	reminded    []int
}

func (n *noopNotifications) List(ctx context.Context, userID int, unreadOnly bool, limit, offset int) ([]*models.Notification, error) {
	return nil, nil
}
func (n *noopNotifications) UnreadCount(ctx context.Context, userID int) (int, error) { return 0, nil }
func (n *noopNotifications) MarkRead(ctx context.Context, userID, notificationID int) error {
	return nil
}
func (n *noopNotifications) MarkAllRead(ctx context.Context, userID int) error { return nil }
func (n *noopNotifications) Notify(ctx context.Context, notification *models.Notification) error {
	return nil
}
func (n *noopNotifications) NotifyMany(ctx context.Context, recipientIDs []int, build func(recipientID int) *models.Notification) error {
	return nil
}
func (n *noopNotifications) NotifyNewResponse(ctx context.Context, req *models.Request, responder *models.User) {
	n.responses++
}
func (n *noopNotifications) NotifyParticipationChanged(ctx context.Context, req *models.Request, userID int, status models.ParticipationStatus) {
	n.changed = append(n.changed, status)
}
func (n *noopNotifications) NotifyRequestCancelled(ctx context.Context, req *models.Request, participantIDs []int) {
	n.cancelled++
}
func (n *noopNotifications) NotifyRequestRescheduled(ctx context.Context, req *models.Request, participantIDs []int) {
	n.rescheduled++
}
func (n *noopNotifications) NotifyNewMessage(ctx context.Context, roomID int, sender *models.User, recipientIDs []int) {
}
func (n *noopNotifications) NotifyNewReview(ctx context.Context, review *models.Review) {
	n.newReviews++
}
func (n *noopNotifications) NotifyComplaintResolved(ctx context.Context, complaint *models.Complaint) {
}
func (n *noopNotifications) NotifyActivityReminder(ctx context.Context, req *models.Request, recipientIDs []int) int {
	n.reminded = append(n.reminded, recipientIDs...)
	return len(recipientIDs)
}

type fakeUploader struct {
	uploaded []string
	deleted  []string
}

func (u *fakeUploader) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*storage.UploadResult, error) {
	u.uploaded = append(u.uploaded, key)
	return &storage.UploadResult{Key: key, Location: "https://cdn.test/" + key}, nil
}

func (u *fakeUploader) Delete(ctx context.Context, key string) error {
	u.deleted = append(u.deleted, key)
	return nil
}

func (u *fakeUploader) GetPublicURL(key string) string {
	return "https://cdn.test/" + key
}
