package storage

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"agriconnect/models"
	"agriconnect/utils"
)

// Snapshot holds the catalog served to readers. Each refresh swaps in a new
// immutable view; readers never see a partially loaded catalog. Farms handed
// out by a Snapshot must be treated as read-only.
type Snapshot struct {
	source CatalogSource
	retry  utils.RetryConfig
	logger *utils.Logger

	current atomic.Pointer[catalogView]

	mu    sync.Mutex
	hooks []func([]*models.Farm)
	cron  *cron.Cron
}

type catalogView struct {
	farms    []*models.Farm
	byID     map[string]*models.Farm
	loadedAt time.Time
}

func NewSnapshot(source CatalogSource, retry utils.RetryConfig, logger *utils.Logger) *Snapshot {
	s := &Snapshot{source: source, retry: retry, logger: logger}
	s.current.Store(&catalogView{farms: []*models.Farm{}, byID: map[string]*models.Farm{}})
	return s
}

// Refresh reloads the catalog from the source. On failure the previous view
// stays in place.
func (s *Snapshot) Refresh(ctx context.Context) error {
	var farms []*models.Farm
	err := s.retry.DoContext(ctx, "catalog load", func(ctx context.Context) error {
		var err error
		farms, err = s.source.Load(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("snapshot: refresh: %w", err)
	}

	view := &catalogView{
		farms:    make([]*models.Farm, 0, len(farms)),
		byID:     make(map[string]*models.Farm, len(farms)),
		loadedAt: time.Now(),
	}
	for _, f := range farms {
		if f == nil {
			continue
		}
		if _, dup := view.byID[f.ID]; dup {
			s.logger.Warn("[snapshot] Duplicate farm id %s ignored", f.ID)
			continue
		}
		view.byID[f.ID] = f
		view.farms = append(view.farms, f)
	}
	s.current.Store(view)
	s.logger.Info("[snapshot] Loaded %d farms", len(view.farms))

	s.mu.Lock()
	hooks := append([]func([]*models.Farm){}, s.hooks...)
	s.mu.Unlock()
	for _, h := range hooks {
		h(view.farms)
	}
	return nil
}

// OnRefresh registers fn to run after every successful refresh.
func (s *Snapshot) OnRefresh(fn func([]*models.Farm)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, fn)
}

// Farms returns the current catalog in source order.
func (s *Snapshot) Farms() []*models.Farm {
	return s.current.Load().farms
}

func (s *Snapshot) Get(id string) (*models.Farm, error) {
	f, ok := s.current.Load().byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFarmNotFound, id)
	}
	return f, nil
}

func (s *Snapshot) LoadedAt() time.Time {
	return s.current.Load().loadedAt
}

func (s *Snapshot) Len() int {
	return len(s.current.Load().farms)
}

// StartRefresher reloads the catalog on a cron schedule, e.g. "@every 10m" or
// "0 */6 * * *". An empty spec disables scheduled refresh.
func (s *Snapshot) StartRefresher(spec string) error {
	if spec == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return fmt.Errorf("snapshot: refresher already running")
	}

	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := s.Refresh(ctx); err != nil {
			s.logger.Error("[snapshot] Scheduled refresh failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("snapshot: schedule %q: %w", spec, err)
	}
	c.Start()
	s.cron = c
	s.logger.Info("[snapshot] Refreshing catalog on schedule %q", spec)
	return nil
}

// Stop halts the refresher and waits for a running refresh to finish.
func (s *Snapshot) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()
	if c != nil {
		<-c.Stop().Done()
	}
}
