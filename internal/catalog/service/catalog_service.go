// Package service orchestrates the catalog: it validates input, derives
// statuses, delegates to the active store and looks drafts up on demand.
// A CatalogService expects one in-flight call at a time.
package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/narwhalmedia/watchlist/internal/catalog/domain"
	"github.com/narwhalmedia/watchlist/internal/catalog/repository"
	"github.com/narwhalmedia/watchlist/pkg/errors"
	"github.com/narwhalmedia/watchlist/pkg/interfaces"
	"github.com/narwhalmedia/watchlist/pkg/logger"
)

// MetadataProvider fetches title drafts from an external catalog.
type MetadataProvider interface {
	SearchByTitle(ctx context.Context, query string) (domain.Title, error)
	SearchByID(ctx context.Context, id int64) (domain.Title, error)
}

// CatalogService handles catalog business logic
type CatalogService struct {
	mu       sync.RWMutex
	store    repository.Store
	metadata MetadataProvider
	eventBus interfaces.EventBus
	logger   interfaces.Logger
	now      func() time.Time
}

// NewCatalogService creates a new catalog service. metadata may be nil, in
// which case lookups fail.
func NewCatalogService(
	store repository.Store,
	metadata MetadataProvider,
	eventBus interfaces.EventBus,
	logger interfaces.Logger,
) *CatalogService {
	return &CatalogService{
		store:    store,
		metadata: metadata,
		eventBus: eventBus,
		logger:   logger,
		now:      time.Now,
	}
}

// UseStore swaps the active backend and returns the previous one, which the
// caller owns.
func (s *CatalogService) UseStore(store repository.Store) repository.Store {
	s.mu.Lock()
	prev := s.store
	s.store = store
	s.mu.Unlock()

	s.logger.Info("Catalog backend switched",
		interfaces.String("from", prev.Name()),
		interfaces.String("to", store.Name()))
	return prev
}

// Backend names the active store.
func (s *CatalogService) Backend() string {
	return s.active().Name()
}

// log returns the service logger with the fields carried by ctx.
func (s *CatalogService) log(ctx context.Context) interfaces.Logger {
	return logger.FromContext(ctx, s.logger)
}

func (s *CatalogService) active() repository.Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store
}

// AddOption tunes AddTitle and ReplaceTitle.
type AddOption func(*addOptions)

type addOptions struct {
	allowDuplicate bool
}

// AllowDuplicate confirms that a title may be added although its
// (name, year) key already exists. Relational stores still refuse it.
func AllowDuplicate() AddOption {
	return func(o *addOptions) {
		o.allowDuplicate = true
	}
}

func collect(opts []AddOption) addOptions {
	var o addOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// prepare normalises, validates and derives the status of t.
func prepare(t domain.Title) (domain.Title, error) {
	t = t.Normalize()
	if err := t.Validate(); err != nil {
		return domain.Title{}, err
	}
	return t.WithDerivedStatus(), nil
}

// AddTitle validates t and persists it. An existing key is a Conflict unless
// AllowDuplicate is passed.
func (s *CatalogService) AddTitle(ctx context.Context, t domain.Title, opts ...AddOption) (domain.Title, error) {
	t, err := prepare(t)
	if err != nil {
		return domain.Title{}, err
	}
	o := collect(opts)
	store := s.active()

	if !o.allowDuplicate {
		exists, err := store.Exists(ctx, t.Name, t.ReleaseYear)
		if err != nil {
			return domain.Title{}, err
		}
		if exists {
			return domain.Title{}, errors.Conflict(t.Key().String() + " is already in the catalog")
		}
	}

	if err := store.Add(ctx, t); err != nil {
		s.log(ctx).Error("Failed to add title", interfaces.String("title", t.Key().String()), interfaces.Error(err))
		return domain.Title{}, err
	}

	s.publish(ctx, domain.NewTitleAddedEvent(t))
	s.log(ctx).Info("Title added",
		interfaces.String("title", t.Key().String()),
		interfaces.String("kind", string(t.Kind)),
		interfaces.String("status", string(t.Status)))
	return t, nil
}

// UpdateTitle replaces the stored value for t's key.
func (s *CatalogService) UpdateTitle(ctx context.Context, t domain.Title) (domain.Title, error) {
	t, err := prepare(t)
	if err != nil {
		return domain.Title{}, err
	}
	store := s.active()

	exists, err := store.Exists(ctx, t.Name, t.ReleaseYear)
	if err != nil {
		return domain.Title{}, err
	}
	if !exists {
		return domain.Title{}, errors.NotFound(t.Key().String() + " is not in the catalog")
	}

	if err := store.Update(ctx, t); err != nil {
		s.log(ctx).Error("Failed to update title", interfaces.String("title", t.Key().String()), interfaces.Error(err))
		return domain.Title{}, err
	}

	s.publish(ctx, domain.NewTitleUpdatedEvent(t))
	s.log(ctx).Info("Title updated",
		interfaces.String("title", t.Key().String()),
		interfaces.Int("progress", t.Progress),
		interfaces.String("status", string(t.Status)))
	return t, nil
}

// ReplaceTitle stores t in place of the title keyed (oldName, oldYear). When
// the key changes this is a delete of the old key followed by an add; the old
// records are restored if the add fails.
func (s *CatalogService) ReplaceTitle(ctx context.Context, oldName string, oldYear int, t domain.Title, opts ...AddOption) (domain.Title, error) {
	t, err := prepare(t)
	if err != nil {
		return domain.Title{}, err
	}
	oldKey := domain.Key{Name: oldName, Year: oldYear}
	if oldKey == t.Key() {
		return s.UpdateTitle(ctx, t)
	}

	store := s.active()
	old, err := s.findAll(ctx, store, oldKey)
	if err != nil {
		return domain.Title{}, err
	}
	if len(old) == 0 {
		return domain.Title{}, errors.NotFound(oldKey.String() + " is not in the catalog")
	}

	if !collect(opts).allowDuplicate {
		exists, err := store.Exists(ctx, t.Name, t.ReleaseYear)
		if err != nil {
			return domain.Title{}, err
		}
		if exists {
			return domain.Title{}, errors.Conflict(t.Key().String() + " is already in the catalog")
		}
	}

	if err := store.Delete(ctx, oldName, oldYear); err != nil {
		return domain.Title{}, err
	}
	if err := store.Add(ctx, t); err != nil {
		s.log(ctx).Error("Failed to add replacement title, restoring original",
			interfaces.String("from", oldKey.String()),
			interfaces.String("to", t.Key().String()),
			interfaces.Error(err))
		for _, prev := range old {
			if rerr := store.Add(ctx, prev); rerr != nil {
				s.log(ctx).Error("Failed to restore title", interfaces.String("title", prev.Key().String()), interfaces.Error(rerr))
			}
		}
		return domain.Title{}, err
	}

	s.publish(ctx, domain.NewTitleDeletedEvent(oldKey))
	s.publish(ctx, domain.NewTitleAddedEvent(t))
	s.log(ctx).Info("Title replaced",
		interfaces.String("from", oldKey.String()),
		interfaces.String("to", t.Key().String()))
	return t, nil
}

// DeleteTitle removes every record keyed (name, year).
func (s *CatalogService) DeleteTitle(ctx context.Context, name string, year int) error {
	store := s.active()
	exists, err := store.Exists(ctx, name, year)
	if err != nil {
		return err
	}
	key := domain.Key{Name: name, Year: year}
	if !exists {
		return errors.NotFound(key.String() + " is not in the catalog")
	}

	if err := store.Delete(ctx, name, year); err != nil {
		s.log(ctx).Error("Failed to delete title", interfaces.String("title", key.String()), interfaces.Error(err))
		return err
	}

	s.publish(ctx, domain.NewTitleDeletedEvent(key))
	s.log(ctx).Info("Title deleted", interfaces.String("title", key.String()))
	return nil
}

// TitleExists reports whether the key is stored.
func (s *CatalogService) TitleExists(ctx context.Context, name string, year int) (bool, error) {
	return s.active().Exists(ctx, name, year)
}

// GetTitle returns the first stored title with the key.
func (s *CatalogService) GetTitle(ctx context.Context, name string, year int) (domain.Title, error) {
	key := domain.Key{Name: name, Year: year}
	matches, err := s.findAll(ctx, s.active(), key)
	if err != nil {
		return domain.Title{}, err
	}
	if len(matches) == 0 {
		return domain.Title{}, errors.NotFound(key.String() + " is not in the catalog")
	}
	return matches[0], nil
}

func (s *CatalogService) findAll(ctx context.Context, store repository.Store, key domain.Key) ([]domain.Title, error) {
	titles, err := store.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	var out []domain.Title
	for _, t := range titles {
		if t.Key() == key {
			out = append(out, t)
		}
	}
	return out, nil
}

// ListTitles returns the full catalog in the backend's natural order.
func (s *CatalogService) ListTitles(ctx context.Context) ([]domain.Title, error) {
	return s.active().GetAll(ctx)
}

// Search matches query case-insensitively against name, genre, kind and
// description. A blank query lists everything.
func (s *CatalogService) Search(ctx context.Context, query string) ([]domain.Title, error) {
	if strings.TrimSpace(query) == "" {
		return s.ListTitles(ctx)
	}
	return s.active().Search(ctx, strings.TrimSpace(query))
}

// FilterByKind returns titles of one kind.
func (s *CatalogService) FilterByKind(ctx context.Context, kind domain.Kind) ([]domain.Title, error) {
	return s.active().FindByKind(ctx, kind)
}

// FilterByStatus returns titles with one status.
func (s *CatalogService) FilterByStatus(ctx context.Context, status domain.Status) ([]domain.Title, error) {
	return s.active().FindByStatus(ctx, status)
}

// IncrementProgress watches one more unit while progress is below the total.
func (s *CatalogService) IncrementProgress(ctx context.Context, name string, year int) (domain.Title, error) {
	return s.stepProgress(ctx, name, year, 1)
}

// DecrementProgress un-watches one unit while progress is above zero.
func (s *CatalogService) DecrementProgress(ctx context.Context, name string, year int) (domain.Title, error) {
	return s.stepProgress(ctx, name, year, -1)
}

func (s *CatalogService) stepProgress(ctx context.Context, name string, year, delta int) (domain.Title, error) {
	t, err := s.GetTitle(ctx, name, year)
	if err != nil {
		return domain.Title{}, err
	}

	switch {
	case delta > 0 && t.Progress < t.TotalUnits:
		t.Progress++
	case delta < 0 && t.Progress > 0:
		t.Progress--
	default:
		return t, nil
	}
	return s.UpdateTitle(ctx, t)
}

// SetStatus applies a manual status. Derivation still runs, so only Favorite
// survives a progress that disagrees with it.
func (s *CatalogService) SetStatus(ctx context.Context, name string, year int, status domain.Status) (domain.Title, error) {
	status, err := domain.ParseStatus(string(status))
	if err != nil {
		return domain.Title{}, err
	}
	t, err := s.GetTitle(ctx, name, year)
	if err != nil {
		return domain.Title{}, err
	}
	t.Status = status
	return s.UpdateTitle(ctx, t)
}

// LookupByTitle fetches a draft from the metadata provider.
func (s *CatalogService) LookupByTitle(ctx context.Context, query string) (domain.Title, error) {
	if s.metadata == nil {
		return domain.Title{}, errors.Internal("metadata lookup is not configured")
	}
	return s.metadata.SearchByTitle(ctx, query)
}

// LookupByID fetches a draft by the provider's numeric id.
func (s *CatalogService) LookupByID(ctx context.Context, id int64) (domain.Title, error) {
	if s.metadata == nil {
		return domain.Title{}, errors.Internal("metadata lookup is not configured")
	}
	return s.metadata.SearchByID(ctx, id)
}

// LookupAndAdd fetches a draft (by id when query is all digits) and adds it.
// Nothing is persisted when the lookup fails.
func (s *CatalogService) LookupAndAdd(ctx context.Context, query string, opts ...AddOption) (domain.Title, error) {
	query = strings.TrimSpace(query)

	var (
		draft domain.Title
		err   error
	)
	if id, perr := strconv.ParseInt(query, 10, 64); perr == nil && isDigits(query) {
		draft, err = s.LookupByID(ctx, id)
	} else {
		draft, err = s.LookupByTitle(ctx, query)
	}
	if err != nil {
		s.log(ctx).Warn("Metadata lookup failed", interfaces.String("query", query), interfaces.Error(err))
		return domain.Title{}, err
	}

	// commas in a draft's genre list read badly in the flat file
	draft.Genre = strings.ReplaceAll(draft.Genre, ",", ";")
	return s.AddTitle(ctx, draft, opts...)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (s *CatalogService) publish(ctx context.Context, event interfaces.Event) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.Publish(ctx, event); err != nil {
		s.log(ctx).Warn("Failed to publish catalog event",
			interfaces.String("event_type", event.EventType()),
			interfaces.Error(err))
	}
}

func snapshotKey(at time.Time) string {
	return fmt.Sprintf("titles-%s.csv", at.UTC().Format("20060102T150405Z"))
}
