package service

import (
	"context"
	"time"

	"github.com/goliatone/go-masker"
	"github.com/goliatone/go-records/activity"
	"github.com/goliatone/go-records/command"
	"github.com/goliatone/go-records/pkg/types"
	"github.com/goliatone/go-records/query"
	"github.com/goliatone/go-records/store"
)

// Service is the entry point for go-records. It wires the activity store and
// the command/query facades supplied to transports.
type Service struct {
	cfg          Config
	commands     Commands
	queries      Queries
	activityRepo types.ActivityRepository
}

// Commands exposes the service command handlers.
type Commands struct {
	LogActivity     *command.ActivityLogCommand
	BulkLogActivity *command.ActivityBulkLogCommand
	DeleteActivity  *command.ActivityDeleteCommand
}

// Queries exposes read-model helpers.
type Queries struct {
	ActivityFeed   *query.ActivityFeedQuery
	ActivityCount  *query.ActivityCountQuery
	ActivityCursor *query.ActivityCursorQuery
}

// Config captures the dependencies of the service. Either Driver or
// ActivityRepository must be supplied; a repository wins when both are set.
type Config struct {
	Driver             store.Driver
	ActivityRepository types.ActivityRepository
	Collection         string
	Hooks              types.Hooks
	Clock              types.Clock
	IDGenerator        types.IDGenerator
	Logger             types.Logger
	Metrics            *store.Metrics
	BatchWorkers       int
	Masker             *masker.Masker
	// CountCacheSize enables the count cache when positive.
	CountCacheSize int
	CountCacheTTL  time.Duration
	// ActorScope narrows queries to the request actor when set.
	ActorScope   bool
	ScopeOptions []activity.ScopeOption
}

// New constructs a Service from the supplied configuration.
func New(cfg Config) *Service {
	norm := normalizeConfig(cfg)

	repo := norm.ActivityRepository
	if repo == nil && norm.Driver != nil {
		built, err := activity.NewRepository(activity.RepositoryConfig{
			Driver:       norm.Driver,
			Collection:   norm.Collection,
			Clock:        norm.Clock,
			IDGen:        norm.IDGenerator,
			Logger:       norm.Logger,
			Metrics:      norm.Metrics,
			BatchWorkers: norm.BatchWorkers,
			Masker:       norm.Masker,
		})
		if err != nil {
			norm.Logger.Error("go-records: activity repository initialization failed", err)
		} else {
			repo = built
		}
	}
	if repo != nil && norm.CountCacheSize > 0 {
		repo = activity.NewCachedRepository(repo, norm.CountCacheSize, norm.CountCacheTTL)
	}

	s := &Service{
		cfg:          norm,
		activityRepo: repo,
	}
	s.commands = s.buildCommands()
	s.queries = s.buildQueries()
	return s
}

func normalizeConfig(cfg Config) Config {
	if cfg.Clock == nil {
		cfg.Clock = types.SystemClock{}
	}
	if cfg.IDGenerator == nil {
		cfg.IDGenerator = types.UUIDGenerator{}
	}
	if cfg.Logger == nil {
		cfg.Logger = types.NopLogger{}
	}
	if cfg.Masker == nil {
		cfg.Masker = activity.DefaultMasker()
	}
	return cfg
}

// Commands returns the command facade.
func (s *Service) Commands() Commands {
	return s.commands
}

// Queries returns the query facade.
func (s *Service) Queries() Queries {
	return s.queries
}

// ActivityRepository returns the repository backing the facades.
func (s *Service) ActivityRepository() types.ActivityRepository {
	if s == nil {
		return nil
	}
	return s.activityRepo
}

// Ready reports whether the service has the required dependencies wired in.
func (s *Service) Ready() bool {
	return s != nil && s.activityRepo != nil
}

// HealthCheck runs a count against the activity store so transports can
// surface storage outages.
func (s *Service) HealthCheck(ctx context.Context) error {
	if !s.Ready() {
		return types.ErrServiceNotReady
	}
	if _, err := s.activityRepo.Count(ctx, &types.ActivityFilters{}); err != nil {
		s.cfg.Logger.Error("go-records: health check failed", err)
		return err
	}
	return nil
}

func (s *Service) buildCommands() Commands {
	logCfg := command.ActivityLogConfig{
		Repository: s.activityRepo,
		Masker:     s.cfg.Masker,
		Hooks:      s.cfg.Hooks,
		Logger:     s.cfg.Logger,
	}
	return Commands{
		LogActivity:     command.NewActivityLogCommand(logCfg),
		BulkLogActivity: command.NewActivityBulkLogCommand(logCfg),
		DeleteActivity: command.NewActivityDeleteCommand(command.ActivityDeleteConfig{
			Repository: s.activityRepo,
			Hooks:      s.cfg.Hooks,
			Logger:     s.cfg.Logger,
		}),
	}
}

func (s *Service) buildQueries() Queries {
	var opts []query.ActivityQueryOption
	if s.cfg.ActorScope {
		opts = append(opts, query.WithActorScope(s.cfg.ScopeOptions...))
	}
	return Queries{
		ActivityFeed:   query.NewActivityFeedQuery(s.activityRepo, opts...),
		ActivityCount:  query.NewActivityCountQuery(s.activityRepo, opts...),
		ActivityCursor: query.NewActivityCursorQuery(s.activityRepo, opts...),
	}
}
