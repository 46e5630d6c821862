package services

import (
	"context"
	"testing"

	"github.com/adilzhm/meetmate/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Board Games", "board-games"},
		{"  Table Tennis  ", "table-tennis"},
		{"5-a-side football", "5-a-side-football"},
		{"Йога", ""},
		{"Yoga (outdoor)", "yoga-outdoor"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, slugify(tc.in), "slugify(%q)", tc.in)
	}
}

func TestCreateActivityDefaultsAndSlug(t *testing.T) {
	catalog := NewCatalogService(newFakeCatalogRepo())
	ctx := context.Background()

	activity, err := catalog.CreateActivity(ctx, ActivityInput{Name: "Street Workout", CategoryID: 1})
	require.NoError(t, err)
	assert.Equal(t, "street-workout", activity.Slug)
	assert.True(t, activity.IsActive)

	inactive := false
	activity, err = catalog.CreateActivity(ctx, ActivityInput{Name: "Chess", CategoryID: 1, IsActive: &inactive})
	require.NoError(t, err)
	assert.False(t, activity.IsActive)
}

func TestCreateActivityRequiresName(t *testing.T) {
	catalog := NewCatalogService(newFakeCatalogRepo())

	_, err := catalog.CreateActivity(context.Background(), ActivityInput{Name: "   "})
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestGetActivityNotFound(t *testing.T) {
	catalog := NewCatalogService(newFakeCatalogRepo())

	_, err := catalog.GetActivity(context.Background(), 404)
	assert.ErrorIs(t, err, ErrActivityNotFound)
}

func TestUpdateActivityPartial(t *testing.T) {
	repo := newFakeCatalogRepo(&models.Activity{ID: 1, Name: "Running", Slug: "running", CategoryID: 1, IsActive: true})
	catalog := NewCatalogService(repo)

	updated, err := catalog.UpdateActivity(context.Background(), 1, ActivityInput{Description: "Бег в парке"})
	require.NoError(t, err)
	assert.Equal(t, "Running", updated.Name)
	assert.Equal(t, "Бег в парке", updated.Description)
}
