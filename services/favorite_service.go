package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/adilzhm/meetmate/models"
	"github.com/adilzhm/meetmate/repositories"
	"github.com/adilzhm/meetmate/storage"
)

type FavoriteService interface {
	Add(ctx context.Context, userID, requestID int) (*models.Favorite, error)
	Remove(ctx context.Context, userID, requestID int) error
	List(ctx context.Context, userID int) ([]*models.Favorite, error)
}

type favoriteService struct {
	favoriteRepo repositories.FavoriteRepository
	requestRepo  repositories.RequestRepository
	uploader     storage.FileUploader
}

func NewFavoriteService(
	favoriteRepo repositories.FavoriteRepository,
	requestRepo repositories.RequestRepository,
	uploader storage.FileUploader,
) FavoriteService {
	return &favoriteService{
		favoriteRepo: favoriteRepo,
		requestRepo:  requestRepo,
		uploader:     uploader,
	}
}

func (s *favoriteService) Add(ctx context.Context, userID, requestID int) (*models.Favorite, error) {
	if _, err := s.requestRepo.GetByID(ctx, requestID); err != nil {
		if errors.Is(err, repositories.ErrRequestNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}

	favorite := &models.Favorite{UserID: userID, RequestID: requestID}
	if err := s.favoriteRepo.Create(ctx, favorite); err != nil {
		if errors.Is(err, repositories.ErrFavoriteConflict) {
			return nil, ErrAlreadyFavorite
		}
		return nil, fmt.Errorf("failed to add favorite: %w", err)
	}
	return favorite, nil
}

func (s *favoriteService) Remove(ctx context.Context, userID, requestID int) error {
	if err := s.favoriteRepo.Delete(ctx, userID, requestID); err != nil {
		if errors.Is(err, repositories.ErrFavoriteNotFound) {
			return ErrFavoriteNotFound
		}
		return err
	}
	return nil
}

func (s *favoriteService) List(ctx context.Context, userID int) ([]*models.Favorite, error) {
	favorites, err := s.favoriteRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	for _, f := range favorites {
		if f.Request != nil {
			populateRequestPhotoURLs(f.Request, s.uploader)
		}
	}
	return favorites, nil
}
