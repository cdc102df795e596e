package history

import (
	"time"

	"icecale/internal/stage"
)

// Run is one persisted pipeline run.
type Run struct {
	ID              string
	InputPath       string
	OutputPath      string
	SessionDir      string
	Status          stage.Status
	ProgressStage   string
	ProgressPercent float64
	ProgressMessage string
	ErrorKind       string
	ErrorMessage    string
	Width           int
	Height          int
	FrameRate       string
	TotalFrames     int64
	HasAudio        bool
	ExtractedFrames int
	UpscaledFrames  int
	CreatedAt       time.Time
	UpdatedAt       time.Time
	FinishedAt      *time.Time
}

// Duration returns how long the run took, or how long it has been running.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt != nil {
		return r.FinishedAt.Sub(r.CreatedAt)
	}
	return r.UpdatedAt.Sub(r.CreatedAt)
}

func runFromJob(job *stage.Job) *Run {
	run := &Run{
		ID:              job.ID,
		InputPath:       job.InputPath,
		OutputPath:      job.OutputPath,
		Status:          job.Status,
		ProgressStage:   job.ProgressStage,
		ProgressPercent: job.ProgressPercent,
		ProgressMessage: job.ProgressMessage,
		ErrorKind:       job.ErrorKind,
		ErrorMessage:    job.ErrorMessage,
		Width:           job.Metadata.Width,
		Height:          job.Metadata.Height,
		FrameRate:       job.Metadata.FPSText,
		TotalFrames:     job.Metadata.TotalFrames,
		HasAudio:        job.HasAudio,
		ExtractedFrames: job.ExtractedCount,
		UpscaledFrames:  job.UpscaledCount,
		CreatedAt:       job.StartedAt,
	}
	if job.Workspace != nil {
		run.SessionDir = job.Workspace.Root
	}
	if !job.FinishedAt.IsZero() {
		finished := job.FinishedAt
		run.FinishedAt = &finished
	}
	return run
}
