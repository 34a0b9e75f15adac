package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

const catalogCachePrefix = "catalog:"

type slotCatalogReader interface {
	ListActive(ctx context.Context) ([]models.TimeSlot, error)
}

type roomCatalogReader interface {
	ListActive(ctx context.Context) ([]models.Classroom, error)
}

type subjectCatalogReader interface {
	List(ctx context.Context) ([]models.Subject, error)
}

type classCatalogReader interface {
	List(ctx context.Context) ([]models.Class, error)
}

type facultyCatalogReader interface {
	ListFaculty(ctx context.Context) ([]models.FacultyProfile, error)
}

type catalogCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, pattern string) error
}

// CatalogService serves cached read views of the institution catalog.
type CatalogService struct {
	slots    slotCatalogReader
	rooms    roomCatalogReader
	subjects subjectCatalogReader
	classes  classCatalogReader
	faculty  facultyCatalogReader
	cache    catalogCache
	ttl      time.Duration
	logger   *zap.Logger
}

// NewCatalogService constructs the catalog service. cache may be nil.
func NewCatalogService(slots slotCatalogReader, rooms roomCatalogReader, subjects subjectCatalogReader, classes classCatalogReader, faculty facultyCatalogReader, cache catalogCache, ttl time.Duration, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{
		slots:    slots,
		rooms:    rooms,
		subjects: subjects,
		classes:  classes,
		faculty:  faculty,
		cache:    cache,
		ttl:      ttl,
		logger:   logger,
	}
}

// TimeSlots lists active slots with display labels, ordered by day and start.
func (s *CatalogService) TimeSlots(ctx context.Context) ([]dto.TimeSlotView, error) {
	return cached(ctx, s, "time-slots", func(ctx context.Context) ([]dto.TimeSlotView, error) {
		slots, err := s.slots.ListActive(ctx)
		if err != nil {
			return nil, err
		}
		views := make([]dto.TimeSlotView, 0, len(slots))
		for _, slot := range slots {
			views = append(views, dto.TimeSlotView{TimeSlot: slot, Label: slot.Label()})
		}
		return views, nil
	})
}

// Classrooms lists active classrooms.
func (s *CatalogService) Classrooms(ctx context.Context) ([]models.Classroom, error) {
	return cached(ctx, s, "classrooms", s.rooms.ListActive)
}

// Subjects lists all subjects.
func (s *CatalogService) Subjects(ctx context.Context) ([]models.Subject, error) {
	return cached(ctx, s, "subjects", s.subjects.List)
}

// Classes lists all classes.
func (s *CatalogService) Classes(ctx context.Context) ([]models.Class, error) {
	return cached(ctx, s, "classes", s.classes.List)
}

// Faculty lists active faculty profiles.
func (s *CatalogService) Faculty(ctx context.Context) ([]models.FacultyProfile, error) {
	return cached(ctx, s, "faculty", s.faculty.ListFaculty)
}

// Refresh drops every cached catalog view.
func (s *CatalogService) Refresh(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Invalidate(ctx, catalogCachePrefix+"*"); err != nil {
		return appErrors.WrapAs(err, appErrors.ErrInternal, "failed to refresh catalog cache")
	}
	return nil
}

func cached[T any](ctx context.Context, s *CatalogService, name string, load func(context.Context) ([]T, error)) ([]T, error) {
	key := catalogCachePrefix + name
	if s.cache != nil {
		var hit []T
		if ok, err := s.cache.Get(ctx, key, &hit); err == nil && ok {
			return hit, nil
		}
	}

	items, err := load(ctx)
	if err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrInternal, "failed to load "+name)
	}
	if items == nil {
		items = []T{}
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, items, s.ttl); err != nil {
			s.logger.Debug("catalog cache write skipped", zap.String("key", key), zap.Error(err))
		}
	}
	return items, nil
}
