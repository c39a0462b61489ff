// Package build runs the generation pipeline for one solution.
//
// A run goes through a fixed sequence of stages:
//
//	ParseSolutionDescriptor → [Clean] → UpToDateCheck → Parse →
//	RebuildProjectAndResourceIndex → GenerateArtifacts → PersistStore
//
// The first failing stage aborts the run. The metadata store is loaded from
// SQLite at the start and saved only once every stage succeeded, so a failed
// run leaves the previous store untouched and the next run retries the same
// headers.
package build

import (
	"context"
	"database/sql"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teranos/mirror/config"
	"github.com/teranos/mirror/db"
	"github.com/teranos/mirror/errors"
	"github.com/teranos/mirror/generator"
	"github.com/teranos/mirror/logger"
	"github.com/teranos/mirror/metadata"
	"github.com/teranos/mirror/parser"
	"github.com/teranos/mirror/solution"
)

// Stage names one step of a run
type Stage string

const (
	StageParseDescriptor Stage = "parse_solution_descriptor"
	StageClean           Stage = "clean"
	StageUpToDateCheck   Stage = "up_to_date_check"
	StageParse           Stage = "parse"
	StageRebuildIndex    Stage = "rebuild_project_and_resource_index"
	StageGenerate        Stage = "generate_artifacts"
	StagePersist         Stage = "persist_store"
)

// Options select what a run does
type Options struct {
	// DescriptorPath is the solution descriptor file
	DescriptorPath string
	// Clean removes every generated artifact and resets the store before the check
	Clean bool
	// Rebuild marks every header dirty
	Rebuild bool
	// Check stops after the up-to-date check and writes nothing
	Check bool
}

// StageTiming is the wall time one stage took
type StageTiming struct {
	Stage    Stage
	Duration time.Duration
}

// Result reports what a run did
type Result struct {
	RunID    string
	Solution *metadata.SolutionInfo

	Dirty    []metadata.DirtyHeader
	Obsolete []*metadata.HeaderInfo
	UpToDate int
	// Dependents are up-to-date headers rendered again because they refer to
	// a type of a dirty or obsolete header
	Dependents []*metadata.HeaderInfo

	Parse     parser.Timing
	Artifacts generator.Stats

	// DiscardedStore is the generator version of a store dropped as incompatible
	DiscardedStore string

	Warnings []string
	Timings  []StageTiming
	Duration time.Duration
}

// IsUpToDate reports whether the check found nothing to regenerate
func (r *Result) IsUpToDate() bool {
	return len(r.Dirty) == 0 && len(r.Obsolete) == 0
}

// Builder runs the pipeline with one configuration
type Builder struct {
	cfg    *config.Config
	logger *zap.SugaredLogger
}

// New creates a builder. If logger is nil the global logger is used.
func New(cfg *config.Config, log *zap.SugaredLogger) *Builder {
	if log == nil {
		log = logger.Logger
	}
	return &Builder{cfg: cfg, logger: log.Named("build")}
}

// run holds the state passed between the stages of one Run
type run struct {
	*Builder
	opts   Options
	log    *zap.SugaredLogger
	result *Result

	db         *sql.DB
	store      *metadata.Store
	discovery  *solution.Discovery
	check      *metadata.CheckResult
	dependents []*metadata.HeaderInfo
	out        *generator.Output
	gen        *generator.Generator
}

// Run executes one build. The returned result is non-nil even when the run
// fails, carrying the warnings and timings gathered up to the failing stage.
func (b *Builder) Run(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()
	runID := uuid.NewString()
	r := &run{
		Builder: b,
		opts:    opts,
		log:     b.logger.With(logger.FieldRunID, runID),
		result:  &Result{RunID: runID},
	}
	defer r.close()

	r.log.Infow("Build started",
		logger.FieldSolution, opts.DescriptorPath,
		"clean", opts.Clean,
		"rebuild", opts.Rebuild,
		"check", opts.Check,
	)

	stages := []struct {
		stage Stage
		fn    func(context.Context) error
		skip  bool
	}{
		{StageParseDescriptor, r.parseDescriptor, false},
		{StageClean, r.clean, !opts.Clean || opts.Check},
		{StageUpToDateCheck, r.upToDateCheck, false},
		{StageParse, r.parse, opts.Check},
		{StageRebuildIndex, r.rebuildIndex, opts.Check},
		{StageGenerate, r.generate, opts.Check},
		{StagePersist, r.persist, opts.Check},
	}
	for _, s := range stages {
		if s.skip {
			continue
		}
		if err := ctx.Err(); err != nil {
			return r.finish(start), errors.Wrap(err, "build cancelled")
		}
		if err := r.stage(ctx, s.stage, s.fn); err != nil {
			r.log.Errorw("Build failed",
				logger.FieldStage, s.stage,
				logger.FieldError, err,
			)
			return r.finish(start), err
		}
	}

	res := r.finish(start)
	r.log.Infow("Build finished",
		logger.FieldDirty, len(res.Dirty),
		logger.FieldObsolete, len(res.Obsolete),
		logger.FieldWritten, len(res.Artifacts.Written),
		logger.FieldUnchanged, res.Artifacts.Unchanged,
		logger.FieldDurationMS, res.Duration.Milliseconds(),
	)
	return res, nil
}

func (r *run) stage(ctx context.Context, stage Stage, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	r.result.Timings = append(r.result.Timings, StageTiming{Stage: stage, Duration: elapsed})
	if err != nil {
		return errors.Wrapf(err, "%s", stage)
	}
	r.log.Debugw("Stage finished",
		logger.FieldStage, stage,
		logger.FieldDurationMS, elapsed.Milliseconds(),
	)
	return nil
}

func (r *run) finish(start time.Time) *Result {
	if r.out != nil {
		r.result.Artifacts = r.out.Stats()
	}
	r.result.Duration = time.Since(start)
	return r.result
}

func (r *run) close() {
	if r.db != nil {
		if err := r.db.Close(); err != nil {
			r.log.Warnw("Failed to close store", logger.FieldError, err)
		}
	}
}

func (r *run) warn(msgs ...string) {
	for _, msg := range msgs {
		r.log.Warnw("Build warning", logger.FieldReason, msg)
	}
	r.result.Warnings = append(r.result.Warnings, msgs...)
}

// parseDescriptor resolves the solution, discovers its headers and loads the
// persisted store
func (r *run) parseDescriptor(ctx context.Context) error {
	info, warnings, err := solution.Load(r.opts.DescriptorPath)
	r.warn(warnings...)
	if err != nil {
		return err
	}
	r.result.Solution = info

	d, err := solution.Discover(info)
	if err != nil {
		return err
	}
	r.warn(d.Warnings...)
	r.discovery = d

	store, err := r.loadStore(ctx, info)
	if err != nil {
		return err
	}
	if store.DiscardedVersion != "" {
		r.result.DiscardedStore = store.DiscardedVersion
		r.warn("store written by generator " + store.DiscardedVersion + " is incompatible; regenerating every header")
	}
	r.store = store

	r.out = generator.NewOutput(info.Root, r.opts.Check, r.log)
	r.gen = generator.New(store, info, generator.Options{
		RuntimeImport:   r.cfg.Generator.RuntimeImport,
		SolutionDir:     r.cfg.Generator.SolutionDir,
		SolutionPackage: r.cfg.Generator.SolutionPackage,
	}, r.out, r.log)

	r.log.Debugw("Solution resolved",
		logger.FieldCount, len(info.Projects),
		"headers", len(d.Headers),
		"ignored", len(d.Ignored),
	)
	return nil
}

// loadStore opens the persisted store. A check never creates the store file.
func (r *run) loadStore(ctx context.Context, info *metadata.SolutionInfo) (*metadata.Store, error) {
	path := r.cfg.StorePath(info.Root)
	if r.opts.Check {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return metadata.NewStore(), nil
		}
	}
	conn, err := db.OpenWithMigrations(path, r.log)
	if err != nil {
		return nil, err
	}
	r.db = conn
	store, err := metadata.Load(ctx, conn)
	if err != nil {
		return nil, errors.Wrapf(err, "load store %s", path)
	}
	return store, nil
}

// clean removes the generated artifacts and forgets every record, the run then
// continues as a full build
func (r *run) clean(ctx context.Context) error {
	if err := r.gen.Clean(); err != nil {
		return err
	}
	r.store.Reset()
	r.log.Infow("Cleaned generated artifacts", logger.FieldCount, len(r.out.Stats().Removed))
	return nil
}

func (r *run) upToDateCheck(ctx context.Context) error {
	check, err := r.store.CheckHeaders(r.result.Solution.Root, r.discovery.Headers, r.opts.Rebuild)
	if err != nil {
		return err
	}
	r.check = check
	r.result.Dirty = check.Dirty
	r.result.Obsolete = check.Obsolete
	r.result.UpToDate = len(check.UpToDate)

	for _, d := range check.Dirty {
		r.log.Debugw("Header dirty",
			logger.FieldHeader, d.Header.Path,
			logger.FieldReason, d.Reason,
		)
	}
	for _, h := range check.Obsolete {
		r.log.Debugw("Header obsolete", logger.FieldHeader, h.Path)
	}
	return nil
}

func (r *run) parse(ctx context.Context) error {
	dirty := r.check.DirtyHeaders()
	if len(dirty) == 0 {
		return nil
	}
	p := parser.New(r.result.Solution, r.cfg.Generator.RuntimeImport, r.log)
	timing, err := p.Parse(r.store, dirty)
	r.warn(p.Warnings()...)
	r.result.Parse = timing
	return err
}

func (r *run) generate(ctx context.Context) error {
	if err := r.gen.RemoveHeaderArtifacts(r.check.Obsolete); err != nil {
		return err
	}
	headers := append(r.check.DirtyHeaders(), r.dependents...)
	return r.gen.Generate(headers)
}

func (r *run) persist(ctx context.Context) error {
	if r.db == nil {
		return errors.AssertionFailedf("store was not opened")
	}
	r.store.LastRunID = r.result.RunID
	return metadata.Save(ctx, r.db, r.store)
}
