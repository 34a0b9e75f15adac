package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	var dest []string

	assert.ErrorIs(t, repo.Get(context.Background(), "catalog:subjects", &dest), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(context.Background(), "catalog:subjects", []string{"math"}, time.Minute))
	assert.NoError(t, repo.DeleteByPattern(context.Background(), "catalog:*"))
}
