package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/couchcryptid/crash-data-dashboard/internal/domain"
	"github.com/couchcryptid/crash-data-dashboard/internal/observability"
)

// ErrDatasetUnavailable is returned while the dataset is loading or after a
// failed load.
var ErrDatasetUnavailable = errors.New("dataset unavailable")

// DatasetLoader produces the normalized dataset.
type DatasetLoader interface {
	Load(ctx context.Context, progress ProgressFunc) (*domain.Dataset, error)
}

// Load states reported by Status.
const (
	StateIdle    = "idle"
	StateLoading = "loading"
	StateReady   = "ready"
	StateFailed  = "failed"
)

// Status describes the dataset load.
type Status struct {
	State    string    `json:"state"`
	Loaded   int       `json:"loaded_partitions"`
	Total    int       `json:"total_partitions"`
	Records  int       `json:"records"`
	LoadedAt time.Time `json:"loaded_at,omitzero"`
	Error    string    `json:"error,omitempty"`
}

// View is one filtered view with its aggregates.
type View struct {
	Params  domain.FilterParams
	Records []domain.CrashRecord
	Summary domain.Summary
}

// RoadReport is the road conditions breakdown for a multi-select.
type RoadReport struct {
	Groups  []domain.RoadConditionGroup   `json:"groups"`
	Heatmap map[string]map[string]float64 `json:"heatmap"`
	Options RoadOptions                   `json:"options"`
}

// RoadOptions are the selectable values of each road attribute.
type RoadOptions struct {
	Trafficway []string `json:"trafficway"`
	Surface    []string `json:"surface"`
	Defect     []string `json:"defect"`
}

// load is one attempt at building the dataset. done is closed when it ends.
type load struct {
	done     chan struct{}
	dataset  *domain.Dataset
	overview domain.Summary
	roads    RoadOptions
	err      error
}

// Service owns the process-wide dataset and the filtered views derived from
// it. The dataset is loaded lazily on first use; concurrent callers share one
// load and a failed load is retried by the next caller.
type Service struct {
	loader    DatasetLoader
	publisher Publisher
	batchSize int
	logger    *slog.Logger
	metrics   *observability.Metrics

	views *lruCache[*View]

	mu       sync.Mutex
	current  *load
	progress Status

	wg sync.WaitGroup
}

// NewService creates a Service. publisher may be nil.
func NewService(loader DatasetLoader, publisher Publisher, cacheSize, batchSize int, logger *slog.Logger, metrics *observability.Metrics) *Service {
	if cacheSize < 1 {
		cacheSize = 1
	}
	return &Service{
		loader:    loader,
		publisher: publisher,
		batchSize: batchSize,
		logger:    logger,
		metrics:   metrics,
		views:     newLRUCache[*View](cacheSize),
		progress:  Status{State: StateIdle},
	}
}

// Start begins loading in the background if no load is running or done.
// ctx bounds the load itself.
func (s *Service) Start(ctx context.Context) {
	s.begin(ctx)
}

// Dataset waits for the dataset, starting a load if needed. A load started
// here is not cancelled when ctx ends; ctx only bounds the wait.
func (s *Service) Dataset(ctx context.Context) (*domain.Dataset, error) {
	l, err := s.wait(ctx)
	if err != nil {
		return nil, err
	}
	return l.dataset, nil
}

// CheckReadiness returns nil once the dataset is loaded.
func (s *Service) CheckReadiness(_ context.Context) error {
	st := s.Status()
	switch st.State {
	case StateReady:
		return nil
	case StateFailed:
		return fmt.Errorf("%w: %s", ErrDatasetUnavailable, st.Error)
	default:
		return fmt.Errorf("%w: %s (%d/%d partitions)", ErrDatasetUnavailable, st.State, st.Loaded, st.Total)
	}
}

// Status reports load progress.
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress
}

// View returns the records matching params with their summary. Results are
// cached per filter tuple.
func (s *Service) View(ctx context.Context, params domain.FilterParams) (*View, error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	key := params.Key()
	if v, ok := s.views.get(key); ok {
		s.metrics.ViewCache.WithLabelValues("hit").Inc()
		return v, nil
	}
	s.metrics.ViewCache.WithLabelValues("miss").Inc()

	start := time.Now()
	records := domain.FilterRecords(ds.Records, params)
	v := &View{Params: params, Records: records, Summary: domain.Summarize(records)}
	s.metrics.ViewComputeDuration.Observe(time.Since(start).Seconds())
	s.metrics.ViewSize.Observe(float64(len(records)))

	s.views.put(key, v)
	return v, nil
}

// Overview returns the summary of the whole dataset.
func (s *Service) Overview(ctx context.Context) (domain.Summary, error) {
	l, err := s.wait(ctx)
	if err != nil {
		return domain.Summary{}, err
	}
	return l.overview, nil
}

// WeatherConditions returns the weather selector values, "All" first.
func (s *Service) WeatherConditions(ctx context.Context) ([]string, error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(ds.WeatherConditions)+1)
	out = append(out, domain.WeatherAll)
	return append(out, ds.WeatherConditions...), nil
}

// RoadConditions groups the records matching the road multi-select.
func (s *Service) RoadConditions(ctx context.Context, f domain.RoadFilter) (RoadReport, error) {
	l, err := s.wait(ctx)
	if err != nil {
		return RoadReport{}, err
	}
	groups := domain.GroupRoadConditions(domain.FilterRoads(l.dataset.Records, f))
	return RoadReport{
		Groups:  groups,
		Heatmap: domain.PivotInjurySeverity(groups),
		Options: l.roads,
	}, nil
}

// Wait blocks until any started load and its background publishing finish.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) wait(ctx context.Context) (*load, error) {
	l := s.begin(context.WithoutCancel(ctx))
	select {
	case <-l.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if l.err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatasetUnavailable, l.err)
	}
	return l, nil
}

// begin returns the running or successful load, starting a new one when
// there is none or the last one failed.
func (s *Service) begin(ctx context.Context) *load {
	s.mu.Lock()
	defer s.mu.Unlock()

	if l := s.current; l != nil {
		select {
		case <-l.done:
			if l.err == nil {
				return l
			}
		default:
			return l
		}
	}

	l := &load{done: make(chan struct{})}
	s.current = l
	s.progress = Status{State: StateLoading}
	// Registered before the goroutine starts so Wait never misses a load.
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if ds := s.run(ctx, l); ds != nil && s.publisher != nil {
			s.publish(ctx, ds)
		}
	}()
	return l
}

// run loads the dataset into l and returns it, or nil when the load failed.
func (s *Service) run(ctx context.Context, l *load) *domain.Dataset {
	defer close(l.done)

	ds, err := s.loader.Load(ctx, s.setProgress)
	if err != nil {
		l.err = err
		s.metrics.DatasetReady.Set(0)
		s.logger.Error("dataset load failed", "error", err)
		s.mu.Lock()
		s.progress.State = StateFailed
		s.progress.Error = err.Error()
		s.mu.Unlock()
		return nil
	}

	l.dataset = ds
	l.overview = domain.Summarize(ds.Records)
	l.roads = roadOptions(ds.Records)
	s.views.purge()
	s.metrics.DatasetReady.Set(1)

	s.mu.Lock()
	s.progress.State = StateReady
	s.progress.Records = len(ds.Records)
	s.progress.LoadedAt = ds.LoadedAt
	s.mu.Unlock()
	return ds
}

func (s *Service) setProgress(loaded, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress.Loaded = loaded
	s.progress.Total = total
}

// roadOptions lists the distinct non-empty values of each road column on
// its own, so a blank in one column does not hide values in the others.
func roadOptions(records []domain.CrashRecord) RoadOptions {
	return RoadOptions{
		Trafficway: distinctSorted(records, func(r domain.CrashRecord) string { return r.TrafficwayType }),
		Surface:    distinctSorted(records, func(r domain.CrashRecord) string { return r.RoadwaySurfaceCond }),
		Defect:     distinctSorted(records, func(r domain.CrashRecord) string { return r.RoadDefect }),
	}
}

func distinctSorted(records []domain.CrashRecord, field func(domain.CrashRecord) string) []string {
	seen := make(map[string]bool)
	out := []string{}
	for i := range records {
		v := field(records[i])
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}
