package engine

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/MrSnakeDoc/marksync/internal/cache"
	"github.com/MrSnakeDoc/marksync/internal/domain"
	"github.com/MrSnakeDoc/marksync/internal/logger"
	"github.com/MrSnakeDoc/marksync/internal/remote"
)

// MetadataOutcome tells the scheduler how a metadata cycle ended.
type MetadataOutcome struct {
	Applied      bool
	Unauthorized bool
	Busy         bool
}

// unauthorizedErr aborts the whole batch as soon as one request is rejected.
func unauthorizedErr(k remote.Kind) error {
	if k == remote.KindUnauthorized {
		return remote.ErrUnauthorized
	}
	return nil
}

// FetchMetadata runs the metadata batch: count, tags, config, task queue,
// semantic status and workspaces. Parts that fail transiently keep their
// previous values. An unauthorized answer anywhere discards the cycle.
func (e *Engine) FetchMetadata(ctx context.Context) MetadataOutcome {
	var (
		count    remote.Result[remote.Count]
		tags     remote.Result[[]domain.TagCount]
		config   remote.Result[domain.ServerConfig]
		tasks    remote.Result[domain.TaskQueue]
		semantic remote.Result[domain.SemanticStatus]
		spaces   remote.Result[[]domain.Workspace]
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		count = cache.Request[remote.Count](gCtx, e.cache, MetadataPrefix+"count", e.remote.Count)
		return unauthorizedErr(count.Kind)
	})
	g.Go(func() error {
		tags = cache.Request[[]domain.TagCount](gCtx, e.cache, MetadataPrefix+"tags", e.remote.Tags)
		return unauthorizedErr(tags.Kind)
	})
	g.Go(func() error {
		config = cache.Request[domain.ServerConfig](gCtx, e.cache, MetadataPrefix+"config", e.remote.Config)
		return unauthorizedErr(config.Kind)
	})
	g.Go(func() error {
		tasks = cache.Request[domain.TaskQueue](gCtx, e.cache, MetadataPrefix+"tasks", e.remote.Tasks)
		return unauthorizedErr(tasks.Kind)
	})
	g.Go(func() error {
		semantic = cache.Request[domain.SemanticStatus](gCtx, e.cache, MetadataPrefix+"semantic", e.remote.SemanticStatus)
		return unauthorizedErr(semantic.Kind)
	})
	g.Go(func() error {
		spaces = cache.Request[[]domain.Workspace](gCtx, e.cache, MetadataPrefix+"workspaces", e.remote.Workspaces)
		return unauthorizedErr(spaces.Kind)
	})

	if err := g.Wait(); err != nil {
		if errors.Is(err, remote.ErrUnauthorized) {
			e.logger.Debug("metadata cycle halted: unauthorized")
			return MetadataOutcome{Unauthorized: true}
		}
		return MetadataOutcome{}
	}
	if ctx.Err() != nil {
		return MetadataOutcome{}
	}

	var out MetadataOutcome
	e.mutate(func() bool {
		md := e.metadata
		if count.OK() {
			md.TotalCount = count.Value.Count
		}
		if tags.OK() {
			md.Tags = tags.Value
		}
		if config.OK() {
			md.Config = config.Value
		}
		if tasks.OK() {
			md.Tasks = tasks.Value
		}
		if semantic.OK() {
			md.Semantic = semantic.Value
		}
		switch spaces.Kind {
		case remote.KindOK:
			md.Workspaces = spaces.Value
			md.WorkspacesAvailable = true
		case remote.KindFeatureAbsent:
			md.Workspaces = nil
			md.WorkspacesAvailable = false
		}
		md.FetchedAt = e.now()
		e.metadata = md

		out = MetadataOutcome{Applied: true, Busy: md.Tasks.Busy()}
		return true
	})

	for _, r := range []struct {
		name string
		kind remote.Kind
		err  error
	}{
		{"count", count.Kind, count.Err},
		{"tags", tags.Kind, tags.Err},
		{"config", config.Kind, config.Err},
		{"tasks", tasks.Kind, tasks.Err},
		{"semantic", semantic.Kind, semantic.Err},
		{"workspaces", spaces.Kind, spaces.Err},
	} {
		if r.kind == remote.KindTransient {
			e.logger.Debug("metadata request failed",
				logger.String("part", r.name),
				logger.Error(r.err))
		}
	}
	return out
}
