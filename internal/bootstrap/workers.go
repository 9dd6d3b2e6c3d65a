package bootstrap

import (
	"context"
	"fmt"

	"cad-archiver/internal/archive"
	"cad-archiver/internal/domain"
	"cad-archiver/internal/jobs"
)

// Worker goroutines. Each run emits zero or more progress/log events, then
// exactly one result or error event, then exactly one finished event. Jobs
// are not cancellable once started; pipelines run on a background context
// to completion or failure.

// runCompressJob executes the compress pipeline and maps outcomes to job events.
// The transcoder is the snapshot taken at dispatch time.
func (a *App) runCompressJob(tr transcoder, jobID, containerPath, archivePath, codec string) {
	req := archive.CompressRequest{
		ContainerPath: containerPath,
		ArchivePath:   archivePath,
		Codec:         codec,
		OnStage:       a.stageRelay(jobID),
		OnProgress: func(percent int) {
			a.publishEvent(jobs.Event{
				JobID:   jobID,
				Type:    jobs.EventTypeProgress,
				Percent: percent,
			})
		},
	}

	result, err := tr.Compress(context.Background(), req)
	if err != nil {
		a.failJob(jobID, err)
		return
	}

	a.cleanupWorkspace(jobID, result.Cleanup)

	if err := a.Jobs.Transition(domain.JobStatusDone); err == nil {
		a.publishStatus(jobID, domain.JobStatusDone, "Job completed")
	}
	a.publishEvent(jobs.Event{
		JobID:  jobID,
		Type:   jobs.EventTypeResult,
		Status: domain.JobStatusDone,
		Message: fmt.Sprintf(
			"Packed %d files: %d -> %d bytes (%.1f%% smaller)",
			result.FileCount,
			result.OriginalSize,
			result.ArchiveSize,
			100*result.Ratio,
		),
		ContainerPath: containerPath,
		ArchivePath:   result.ArchivePath,
		OriginalSize:  result.OriginalSize,
		ArchiveSize:   result.ArchiveSize,
		RatioPercent:  100 * result.Ratio,
	})
	a.finishJob(jobID)
}

// runRestoreJob executes the restore pipeline and maps outcomes to job events.
func (a *App) runRestoreJob(tr transcoder, jobID, archivePath, containerPath string) {
	req := archive.RestoreRequest{
		ArchivePath:   archivePath,
		ContainerPath: containerPath,
		OnStage:       a.stageRelay(jobID),
	}

	result, err := tr.Restore(context.Background(), req)
	if err != nil {
		a.failJob(jobID, err)
		return
	}

	a.cleanupWorkspace(jobID, result.Cleanup)

	if err := a.Jobs.Transition(domain.JobStatusDone); err == nil {
		a.publishStatus(jobID, domain.JobStatusDone, "Job completed")
	}
	a.publishEvent(jobs.Event{
		JobID:  jobID,
		Type:   jobs.EventTypeResult,
		Status: domain.JobStatusDone,
		Message: fmt.Sprintf(
			"Rebuilt %s (%d bytes)",
			result.ContainerPath,
			result.ContainerSize,
		),
		ContainerPath: result.ContainerPath,
		ArchivePath:   archivePath,
		ArchiveSize:   result.ContainerSize,
	})
	a.finishJob(jobID)
}

// stageRelay maps pipeline stage callbacks to status transitions and events.
func (a *App) stageRelay(jobID string) func(stage string) {
	return func(stage string) {
		status, ok := mapStageToStatus(stage)
		if !ok {
			return
		}
		if err := a.Jobs.Transition(status); err == nil {
			a.publishStatus(jobID, status, "Running "+stage+" stage")
		}
	}
}

// failJob publishes the single error event followed by the finished event.
func (a *App) failJob(jobID string, err error) {
	_ = a.Jobs.Transition(domain.JobStatusFailed)
	a.publishStatus(jobID, domain.JobStatusFailed, "Job failed")
	a.publishEvent(jobs.Event{
		JobID:   jobID,
		Type:    jobs.EventTypeError,
		Status:  domain.JobStatusFailed,
		Message: err.Error(),
	})
	a.finishJob(jobID)
}

// finishJob emits the terminal finished event that re-enables UI actions.
func (a *App) finishJob(jobID string) {
	a.publishEvent(jobs.Event{
		JobID:   jobID,
		Type:    jobs.EventTypeFinished,
		Status:  a.Jobs.Current().Status,
		Message: "Job finished",
	})
}

// cleanupWorkspace releases the temp workspace; failures are logged as
// warnings and do not change the job outcome.
func (a *App) cleanupWorkspace(jobID string, cleanup func() error) {
	if err := cleanup(); err != nil {
		a.publishEvent(jobs.Event{
			JobID:   jobID,
			Type:    jobs.EventTypeLog,
			Message: fmt.Sprintf("cleanup temporary workspace: %v", err),
		})
	}
}

// mapStageToStatus maps pipeline stage names to job statuses.
func mapStageToStatus(stage string) (domain.JobStatus, bool) {
	switch stage {
	case archive.StageExtracting:
		return domain.JobStatusExtracting, true
	case archive.StagePacking:
		return domain.JobStatusPacking, true
	case archive.StageRebuilding:
		return domain.JobStatusRebuilding, true
	default:
		return "", false
	}
}
