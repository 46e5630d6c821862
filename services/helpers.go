package services

import (
	"fmt"
	"math"
	"strings"

	"github.com/adilzhm/meetmate/models"
	"github.com/adilzhm/meetmate/storage"
)

// roundRating округляет средний рейтинг до двух знаков.
func roundRating(avg float64) float64 {
	return math.Round(avg*100) / 100
}

func populateProfilePhotoURL(profile *models.Profile, uploader storage.FileUploader) {
	if profile == nil || uploader == nil {
		return
	}
	if profile.PhotoKey != nil && *profile.PhotoKey != "" {
		url := uploader.GetPublicURL(*profile.PhotoKey)
		if url != "" {
			profile.PhotoURL = &url
		}
	}
}

func populateRequestPhotoURLs(req *models.Request, uploader storage.FileUploader) {
	if req == nil || uploader == nil || len(req.PhotoKeys) == 0 {
		return
	}
	urls := make([]string, 0, len(req.PhotoKeys))
	for _, key := range req.PhotoKeys {
		if url := uploader.GetPublicURL(key); url != "" {
			urls = append(urls, url)
		}
	}
	req.PhotoURLs = urls
}

func extensionFromContentType(contentType string) (string, error) {
	switch contentType {
	case "image/jpeg":
		return ".jpg", nil
	case "image/png":
		return ".png", nil
	case "image/gif":
		return ".gif", nil
	case "image/webp":
		return ".webp", nil
	default:
		parts := strings.Split(contentType, "/")
		if len(parts) == 2 && parts[0] == "image" && parts[1] != "" {
			return "." + parts[1], nil
		}
		return "", fmt.Errorf("could not determine file extension from content type: %q", contentType)
	}
}

func validLevel(level models.InterestLevel) bool {
	switch level {
	case models.LevelBeginner, models.LevelIntermediate, models.LevelAdvanced, models.LevelProfessional, models.LevelAny:
		return true
	}
	return false
}
