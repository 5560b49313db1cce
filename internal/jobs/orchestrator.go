// Package jobs owns the lifecycle of ingestion jobs: record creation,
// detached background execution, progress relay, finalization, retry and the
// stuck-job reaper.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Tormknd/RecipeMe/internal/acquire"
	"github.com/Tormknd/RecipeMe/internal/extract"
	"github.com/Tormknd/RecipeMe/internal/pipeline"
	"github.com/Tormknd/RecipeMe/internal/ratelimit"
	"github.com/Tormknd/RecipeMe/internal/store"
	"github.com/Tormknd/RecipeMe/internal/worker"
	"github.com/Tormknd/RecipeMe/models"
)

// Submitter hands a job to the background pool. Satisfied by
// *worker.Dispatcher; tests substitute a synchronous implementation.
type Submitter interface {
	Submit(job worker.Job) bool
}

// StartRequest carries the input of one ingestion. Exactly one of URL or
// Images must be set.
type StartRequest struct {
	UserID string
	URL    string
	Images []extract.Image
}

// Orchestrator coordinates one ingestion job from placeholder record to
// terminal state. All communication with polling clients goes through the
// record store.
type Orchestrator struct {
	store      store.RecipeStore
	reaper     *Reaper
	limiter    *ratelimit.Limiter
	usage      store.UsageStore
	acquirer   *acquire.Acquirer
	extractor  *extract.Extractor
	dispatcher Submitter
	log        *logrus.Logger

	// inFlight serializes runs per job id: a retry cannot launch while the
	// original run is still executing, and a superseded run cannot clobber a
	// newer result (the store's conditional finalize is the second guard).
	mu       sync.Mutex
	inFlight map[uuid.UUID]struct{}
}

// NewOrchestrator wires the ingestion pipeline. limiter and usage may be nil
// to disable quotas (tests, self-hosted setups).
func NewOrchestrator(
	recipeStore store.RecipeStore,
	reaper *Reaper,
	limiter *ratelimit.Limiter,
	usage store.UsageStore,
	acquirer *acquire.Acquirer,
	extractor *extract.Extractor,
	dispatcher Submitter,
	log *logrus.Logger,
) *Orchestrator {
	return &Orchestrator{
		store:      recipeStore,
		reaper:     reaper,
		limiter:    limiter,
		usage:      usage,
		acquirer:   acquirer,
		extractor:  extractor,
		dispatcher: dispatcher,
		log:        log,
		inFlight:   make(map[uuid.UUID]struct{}),
	}
}

// StartIngestion validates the request, reaps the owner's stuck jobs,
// creates the placeholder record and detaches extraction into the worker
// pool. It returns the job id as soon as the placeholder is durably written;
// it never awaits extraction.
func (o *Orchestrator) StartIngestion(ctx context.Context, req StartRequest) (uuid.UUID, error) {
	hasURL := req.URL != ""
	hasImages := len(req.Images) > 0
	if hasURL == hasImages {
		return uuid.Nil, &pipeline.ValidationError{Message: "Veuillez fournir une URL ou au moins une image"}
	}

	// Best-effort: a failing reaper never blocks a new ingestion.
	if _, err := o.reaper.Reap(ctx, req.UserID); err != nil {
		o.log.WithField("error", err).Warn("Reaper failed before ingestion start")
	}

	if o.limiter != nil {
		if err := o.limiter.Check(ctx, req.UserID); err != nil {
			return uuid.Nil, err
		}
	}

	placeholder, err := json.Marshal(models.PlaceholderContent())
	if err != nil {
		return uuid.Nil, fmt.Errorf("marshal placeholder content: %w", err)
	}

	recipe := models.Recipe{
		ID:     uuid.New(),
		UserID: req.UserID,
		Title:  models.PlaceholderTitle,
		Status: models.StatusProcessing,
		Data:   string(placeholder),
	}
	if hasURL {
		recipe.SourceURL = &req.URL
	}

	created, err := o.store.Create(ctx, recipe)
	if err != nil {
		return uuid.Nil, fmt.Errorf("create recipe record: %w", err)
	}

	if o.usage != nil {
		if err := o.usage.RecordUsage(ctx, req.UserID, models.ActionRecipeGeneration); err != nil {
			o.log.WithField("error", err).Warn("Failed to record AI usage")
		}
	}

	o.launch(created.ID, req.UserID, req.URL, req.Images)
	o.log.WithFields(logrus.Fields{"recipe_id": created.ID, "user_id": req.UserID}).Info("Started background processing")
	return created.ID, nil
}

// Retry relaunches an errored, URL-sourced job. Image-sourced jobs cannot be
// retried: the original images are not retained.
func (o *Orchestrator) Retry(ctx context.Context, jobID uuid.UUID, userID string) error {
	recipe, err := o.store.Get(ctx, jobID, userID)
	if err != nil {
		return err
	}
	if recipe.Status != models.StatusError {
		return pipeline.ErrNotInErrorState
	}
	if recipe.SourceURL == nil || *recipe.SourceURL == "" {
		return pipeline.ErrNoSourceURL
	}
	if o.isInFlight(jobID) {
		return pipeline.ErrJobInFlight
	}

	if err := o.store.ResetForRetry(ctx, jobID, userID); err != nil {
		return fmt.Errorf("reset recipe for retry: %w", err)
	}

	o.launch(jobID, userID, *recipe.SourceURL, nil)
	o.log.WithFields(logrus.Fields{"recipe_id": jobID, "user_id": userID}).Info("Retrying recipe processing")
	return nil
}

func (o *Orchestrator) launch(jobID uuid.UUID, userID, url string, images []extract.Image) {
	o.markInFlight(jobID)
	job := &recipeJob{
		orchestrator: o,
		jobID:        jobID,
		userID:       userID,
		url:          url,
		images:       images,
	}
	if !o.dispatcher.Submit(job) {
		o.clearInFlight(jobID)
		o.failJob(context.Background(), jobID, userID,
			errors.New("Le service est momentanément surchargé, réessayez dans quelques instants"))
	}
}

func (o *Orchestrator) markInFlight(jobID uuid.UUID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.inFlight[jobID] = struct{}{}
}

func (o *Orchestrator) clearInFlight(jobID uuid.UUID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.inFlight, jobID)
}

func (o *Orchestrator) isInFlight(jobID uuid.UUID) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.inFlight[jobID]
	return ok
}

// postProgress is the fire-and-forget progress channel: last write wins, a
// failing write is swallowed and logged, never thrown into the pipeline.
func (o *Orchestrator) postProgress(jobID uuid.UUID, userID, message string) {
	sanitized := SanitizeProgress(message)
	if err := o.store.UpdateStatusMessage(context.Background(), jobID, userID, sanitized); err != nil {
		o.log.WithFields(logrus.Fields{"recipe_id": jobID, "error": err}).Warn("Progress update failed")
	}
}

// failJob writes the error terminal state. When even that write fails, the
// job is left in processing on purpose: the reaper will remove it.
func (o *Orchestrator) failJob(ctx context.Context, jobID uuid.UUID, userID string, cause error) {
	message := SanitizeError(userFacingMessage(cause))
	o.log.WithFields(logrus.Fields{"recipe_id": jobID, "error": cause}).Error("Background processing failed")

	if err := o.store.FinalizeError(ctx, jobID, userID, message); err != nil {
		o.log.WithFields(logrus.Fields{"recipe_id": jobID, "error": err}).Error("Failed to update error status, job left for reaper")
	}
}

// userFacingMessage picks the message a user may see for a pipeline error.
// The policy-block classification survives unmodified through every layer.
func userFacingMessage(err error) string {
	var blocked *pipeline.PolicyBlockError
	if errors.As(err, &blocked) {
		return blocked.Error()
	}
	var acquisition *pipeline.AcquisitionError
	if errors.As(err, &acquisition) {
		return acquisition.Message
	}
	var extraction *pipeline.ExtractionError
	if errors.As(err, &extraction) {
		return extraction.Message
	}
	return err.Error()
}

// recipeJob is the detached background unit of one extraction run.
type recipeJob struct {
	orchestrator *Orchestrator
	jobID        uuid.UUID
	userID       string
	url          string
	images       []extract.Image
}

func (j *recipeJob) ID() string { return j.jobID.String() }

// Execute runs acquisition and extraction to completion. Errors never
// propagate to any caller beyond the worker's log: they are caught here,
// sanitized and written to the record.
func (j *recipeJob) Execute() error {
	o := j.orchestrator
	defer o.clearInFlight(j.jobID)

	// Background tasks outlive the request that spawned them; there is no
	// cancellation, a started run goes to completion or failure.
	ctx := context.Background()

	onProgress := func(message string) {
		o.postProgress(j.jobID, j.userID, message)
	}

	content, err := j.resolveContent(ctx, onProgress)
	if err != nil {
		o.failJob(ctx, j.jobID, j.userID, err)
		return err
	}

	data, err := json.Marshal(content)
	if err != nil {
		o.failJob(ctx, j.jobID, j.userID, fmt.Errorf("marshal recipe content: %w", err))
		return err
	}

	update := store.CompletedUpdate{
		Title: content.Title,
		Data:  string(data),
		Tags:  content.JoinedTags(),
	}
	if j.url != "" {
		update.SourceURL = &j.url
	}

	if err := o.store.FinalizeCompleted(ctx, j.jobID, j.userID, update); err != nil {
		// Not retried: either the record was reaped or a newer run already
		// finalized it. Both are safe to leave alone.
		o.log.WithFields(logrus.Fields{"recipe_id": j.jobID, "error": err}).Error("Failed to finalize completed recipe")
		return err
	}

	o.log.WithFields(logrus.Fields{"recipe_id": j.jobID, "title": content.Title}).Info("Background processing completed")
	return nil
}

func (j *recipeJob) resolveContent(ctx context.Context, onProgress pipeline.ProgressFunc) (models.RecipeContent, error) {
	o := j.orchestrator

	if len(j.images) > 0 {
		return o.extractor.Extract(ctx, extract.Input{Images: j.images}, onProgress)
	}

	result, err := o.acquirer.Acquire(ctx, j.url, onProgress)
	if err != nil {
		return models.RecipeContent{}, err
	}
	if result.Structured != nil {
		return *result.Structured, nil
	}
	return o.extractor.Extract(ctx, extract.Input{Text: result.Text}, onProgress)
}
