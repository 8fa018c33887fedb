package job

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/smoreau/docforge/analyzer"
	"github.com/smoreau/docforge/batch"
	"github.com/smoreau/docforge/chunker"
	"github.com/smoreau/docforge/export"
	"github.com/smoreau/docforge/extraction"
	"github.com/smoreau/docforge/objectstore"
	"github.com/smoreau/docforge/retry"
	"github.com/smoreau/docforge/synth"
	"github.com/smoreau/docforge/variant"
)

// Dataset selects which pipeline a job runs.
type Dataset string

const (
	// DatasetVariants rewrites and classifies extracted clauses.
	DatasetVariants Dataset = "variants"
	// DatasetRecords fabricates tabular records from the inferred schema.
	DatasetRecords Dataset = "records"
)

// Request describes one generation job.
type Request struct {
	DocumentRef       string
	MIMEType          string
	Dataset           Dataset
	ChunkSize         int
	OverlapSize       int
	RecordCount       int
	OutputFormat      export.Format
	Shape             export.Shape
	UseOCR            bool
	DetectTables      bool
	AttemptAllMethods bool
}

// ResultData is the finished dataset held for download.
type ResultData struct {
	Data        []byte
	ContentType string
	Format      export.Format
}

// maxRetainedResults bounds how many finished datasets stay in memory for
// download. The oldest is evicted first.
const maxRetainedResults = 100

// Tracker drives the extraction → chunking → generation pipeline for
// detached jobs, persisting a snapshot after every stage and honouring
// cooperative cancellation between stages.
type Tracker struct {
	store       Store
	objects     objectstore.Store
	coordinator *extraction.Coordinator
	variants    *variant.Generator
	logger      *slog.Logger
	batchCfg    batch.Config
	seedFn      func() int64
	resultLimit int

	mu          sync.RWMutex
	cancelled   map[string]bool
	progress    map[string]int
	jobLocks    map[string]*sync.Mutex
	results     map[string]*ResultData
	resultOrder []string
}

func NewTracker(store Store, objects objectstore.Store, coordinator *extraction.Coordinator, variants *variant.Generator, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		store:       store,
		objects:     objects,
		coordinator: coordinator,
		variants:    variants,
		logger:      logger,
		batchCfg:    batch.Config{BatchSize: 5, MaxConcurrentBatches: 3},
		seedFn:      func() int64 { return time.Now().UnixNano() },
		resultLimit: maxRetainedResults,
		cancelled:   make(map[string]bool),
		progress:    make(map[string]int),
		jobLocks:    make(map[string]*sync.Mutex),
		results:     make(map[string]*ResultData),
	}
}

// Start registers the job and runs the pipeline detached. The caller gets
// the job id immediately and polls the store for progress.
func (t *Tracker) Start(req Request) string {
	jobID := uuid.New().String()

	ctx := context.Background()
	t.transition(ctx, jobID, StatusPending, StageUploading, 0, "", Stats{})

	go t.run(ctx, jobID, req)

	return jobID
}

// Cancel flags the job for cooperative cancellation. The flag is checked at
// stage boundaries; an in-flight external call finishes first. Unknown or
// already-terminal jobs are ignored so the flag map cannot grow unbounded.
func (t *Tracker) Cancel(jobID string) {
	t.mu.Lock()
	if _, live := t.progress[jobID]; live {
		t.cancelled[jobID] = true
	}
	t.mu.Unlock()
}

// Result returns the finished dataset, if the job completed.
func (t *Tracker) Result(jobID string) (*ResultData, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	res, ok := t.results[jobID]
	return res, ok
}

// Snapshot exposes the persisted job view.
func (t *Tracker) Snapshot(ctx context.Context, jobID string) (Snapshot, bool, error) {
	return t.store.Get(ctx, jobID)
}

func (t *Tracker) run(ctx context.Context, jobID string, req Request) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("Job panicked",
				slog.String("job_id", jobID),
				slog.Any("panic", r))
			t.fail(ctx, jobID, StageProcessing, fmt.Errorf("internal error: %v", r))
		}
	}()

	stats := Stats{}

	// Stage: extraction.
	if t.checkCancelled(ctx, jobID, StageExtraction) {
		return
	}
	t.update(ctx, jobID, StageExtraction, ProgressExtractionStart, stats)

	doc, err := t.objects.Read(ctx, req.DocumentRef)
	if err != nil {
		t.fail(ctx, jobID, StageExtraction, fmt.Errorf("failed to read document: %w", err))
		return
	}

	result, err := t.coordinator.Extract(ctx, doc, req.MIMEType, extraction.Options{
		UseOCR:            req.UseOCR,
		AttemptAllMethods: req.AttemptAllMethods,
		DetectTables:      req.DetectTables || req.Dataset == DatasetRecords,
	})
	if err != nil {
		t.fail(ctx, jobID, StageExtraction, err)
		return
	}
	t.update(ctx, jobID, StageExtraction, ProgressExtractionDone, stats)

	var payload *ResultData
	switch req.Dataset {
	case DatasetRecords:
		payload, stats, err = t.runRecords(ctx, jobID, req, result, stats)
	default:
		payload, stats, err = t.runVariants(ctx, jobID, req, result, stats)
	}
	if err != nil {
		return // stage already reported
	}
	if payload == nil {
		return // cancelled between stages
	}

	// Stage: saving.
	if t.checkCancelled(ctx, jobID, StageSaving) {
		return
	}
	t.storeResult(jobID, payload)

	t.transition(ctx, jobID, StatusComplete, StageSaving, ProgressSavingDone, "", stats)
	t.logger.Info("Job complete",
		slog.String("job_id", jobID),
		slog.String("dataset", string(req.Dataset)),
		slog.Int("result_bytes", len(payload.Data)))
}

// runVariants chunks the text and runs the variant generator per chunk
// under the batch processor.
func (t *Tracker) runVariants(ctx context.Context, jobID string, req Request, result *extraction.Result, stats Stats) (*ResultData, Stats, error) {
	if t.checkCancelled(ctx, jobID, StageProcessing) {
		return nil, stats, nil
	}

	c, err := chunker.New(req.ChunkSize, req.OverlapSize)
	if err != nil {
		t.fail(ctx, jobID, StageProcessing, err)
		return nil, stats, err
	}
	chunks := c.Split(result.Text)
	stats.ChunksTotal = int64(len(chunks))
	t.update(ctx, jobID, StageProcessing, ProgressAnalysisDone, stats)

	statsMu := &sync.Mutex{}
	chunkResults, runStats, err := batch.Run(ctx, chunks, t.batchCfg,
		func(ctx context.Context, chunk chunker.Chunk) ([]variant.Record, error) {
			return t.variants.FromChunk(ctx, chunk.Text), nil
		},
		batch.Hooks{
			OnProgress: func(processed, total, failed int64) {
				statsMu.Lock()
				stats.ChunksProcessed = processed
				snapProgress := ProgressAnalysisDone
				if total > 0 {
					snapProgress += int(int64(ProgressGenerationDone-ProgressAnalysisDone) * processed / total)
				}
				current := stats
				statsMu.Unlock()
				t.update(ctx, jobID, StageProcessing, snapProgress, current)
			},
			OnError: func(index int, err error) {
				t.logger.Warn("Chunk processing failed",
					slog.String("job_id", jobID),
					slog.Int("chunk_index", index),
					slog.String("error", err.Error()))
			},
		})
	if err != nil {
		t.fail(ctx, jobID, StageProcessing, err)
		return nil, stats, err
	}

	var records []variant.Record
	for _, rs := range chunkResults {
		records = append(records, rs...)
	}
	stats.ChunksProcessed = runStats.Processed
	stats.ClauseCount = int64(len(records))
	stats.CreditsUsed = int64(len(records))
	t.update(ctx, jobID, StageProcessing, ProgressGenerationDone, stats)

	payload, err := serializeVariants(records, req)
	if err != nil {
		t.fail(ctx, jobID, StageSaving, err)
		return nil, stats, err
	}
	return payload, stats, nil
}

// runRecords analyzes the document schema once, then fabricates records.
func (t *Tracker) runRecords(ctx context.Context, jobID string, req Request, result *extraction.Result, stats Stats) (*ResultData, Stats, error) {
	if t.checkCancelled(ctx, jobID, StageAnalyzing) {
		return nil, stats, nil
	}
	t.update(ctx, jobID, StageAnalyzing, ProgressExtractionDone, stats)

	fieldSets, _, err := batch.Run(ctx, []*extraction.Result{result}, t.batchCfg,
		func(_ context.Context, res *extraction.Result) ([]analyzer.Field, error) {
			return analyzer.Analyze(res), nil
		}, batch.Hooks{})
	if err != nil {
		t.fail(ctx, jobID, StageAnalyzing, err)
		return nil, stats, err
	}
	var fields []analyzer.Field
	if len(fieldSets) > 0 {
		fields = fieldSets[0]
	}
	if len(fields) == 0 {
		err := fmt.Errorf("no fields detected in document")
		t.fail(ctx, jobID, StageAnalyzing, err)
		return nil, stats, err
	}
	t.update(ctx, jobID, StageAnalyzing, ProgressAnalysisDone, stats)

	if t.checkCancelled(ctx, jobID, StageDataGeneration) {
		return nil, stats, nil
	}
	generator := synth.NewGenerator(t.seedFn(), t.logger)
	records := generator.Generate(fields, result, req.RecordCount)
	stats.CreditsUsed = int64(len(records))
	t.update(ctx, jobID, StageDataGeneration, ProgressGenerationDone, stats)

	payload, err := serializeRecords(fields, records, req)
	if err != nil {
		t.fail(ctx, jobID, StageSaving, err)
		return nil, stats, err
	}
	return payload, stats, nil
}

func serializeVariants(records []variant.Record, req Request) (*ResultData, error) {
	format := req.OutputFormat
	var data []byte
	var err error
	switch format {
	case export.FormatCSV:
		data, err = export.VariantCSV(records)
	default:
		format = export.FormatNDJSON
		data, err = export.VariantNDJSON(records, req.Shape)
	}
	if err != nil {
		return nil, err
	}
	return &ResultData{Data: data, ContentType: format.ContentType(), Format: format}, nil
}

func serializeRecords(fields []analyzer.Field, records []synth.Record, req Request) (*ResultData, error) {
	format := req.OutputFormat
	var data []byte
	var err error
	switch format {
	case export.FormatCSV:
		data, err = export.RecordsCSV(fields, records)
	case export.FormatXLSX:
		data, err = export.RecordsXLSX(fields, records)
	default:
		format = export.FormatNDJSON
		data, err = export.RecordsNDJSON(records)
	}
	if err != nil {
		return nil, err
	}
	return &ResultData{Data: data, ContentType: format.ContentType(), Format: format}, nil
}

// checkCancelled writes the cancelled terminal state and reports true if
// the job was flagged.
func (t *Tracker) checkCancelled(ctx context.Context, jobID, stage string) bool {
	t.mu.RLock()
	flagged := t.cancelled[jobID]
	t.mu.RUnlock()
	if !flagged {
		return false
	}
	t.transition(ctx, jobID, StatusCancelled, stage, t.currentProgress(jobID), "", Stats{})
	t.logger.Info("Job cancelled",
		slog.String("job_id", jobID),
		slog.String("stage", stage))
	return true
}

func (t *Tracker) update(ctx context.Context, jobID, stage string, progress int, stats Stats) {
	t.transition(ctx, jobID, StatusProcessing, stage, progress, "", stats)
}

func (t *Tracker) fail(ctx context.Context, jobID, stage string, err error) {
	t.transition(ctx, jobID, StatusError, stage, t.currentProgress(jobID), err.Error(), Stats{})
	t.logger.Error("Job failed",
		slog.String("job_id", jobID),
		slog.String("stage", stage),
		slog.String("error", err.Error()))
}

// transition validates the status change, clamps progress to be
// non-decreasing, and persists the snapshot. The whole sequence runs under
// a per-job lock: the clamp and the store write must commit in the same
// order, or a poller could watch persisted progress go backwards during a
// burst of concurrent updates.
func (t *Tracker) transition(ctx context.Context, jobID string, status Status, stage string, progress int, errMsg string, stats Stats) {
	lock := t.lockFor(jobID)
	lock.Lock()
	defer lock.Unlock()

	prev, found, err := t.store.Get(ctx, jobID)
	if err != nil {
		t.logger.Warn("Failed to read previous job snapshot",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()))
	}
	if found && !prev.Status.CanTransitionTo(status) {
		t.logger.Warn("Rejected invalid status transition",
			slog.String("job_id", jobID),
			slog.String("from", string(prev.Status)),
			slog.String("to", string(status)))
		return
	}

	t.mu.Lock()
	if progress < t.progress[jobID] {
		progress = t.progress[jobID]
	}
	t.progress[jobID] = progress
	t.mu.Unlock()

	if stats == (Stats{}) && found {
		stats = prev.Stats
	}

	t.writeSnapshot(ctx, jobID, Snapshot{
		Status:   status,
		Stage:    stage,
		Progress: progress,
		Error:    errMsg,
		Stats:    stats,
	})

	if status.Terminal() {
		t.prune(jobID)
	}
}

func (t *Tracker) lockFor(jobID string) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()
	lock, ok := t.jobLocks[jobID]
	if !ok {
		lock = &sync.Mutex{}
		t.jobLocks[jobID] = lock
	}
	return lock
}

// prune drops per-job tracking state once no further transitions are
// possible. The finished dataset stays in results until the retention cap
// evicts it.
func (t *Tracker) prune(jobID string) {
	t.mu.Lock()
	delete(t.cancelled, jobID)
	delete(t.progress, jobID)
	delete(t.jobLocks, jobID)
	t.mu.Unlock()
}

// storeResult retains the finished dataset for download, evicting the
// oldest retained result beyond the cap.
func (t *Tracker) storeResult(jobID string, payload *ResultData) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.results[jobID] = payload
	t.resultOrder = append(t.resultOrder, jobID)
	for len(t.resultOrder) > t.resultLimit {
		oldest := t.resultOrder[0]
		t.resultOrder = t.resultOrder[1:]
		delete(t.results, oldest)
	}
}

func (t *Tracker) currentProgress(jobID string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.progress[jobID]
}

// writeSnapshot persists with bounded backoff; a store outage should not
// kill the job mid-flight.
func (t *Tracker) writeSnapshot(ctx context.Context, jobID string, snap Snapshot) {
	snap.UpdatedAt = time.Now().UTC()
	err := retry.Do(ctx, 3, 200*time.Millisecond, func(ctx context.Context) error {
		return t.store.Write(ctx, jobID, snap)
	})
	if err != nil {
		t.logger.Error("Failed to persist job snapshot",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()))
	}
}
