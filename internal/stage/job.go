package stage

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"icecale/internal/media/ffprobe"
	"icecale/internal/staging"
)

// Status represents the lifecycle of a pipeline run.
type Status string

const (
	StatusPending          Status = "pending"
	StatusProbing          Status = "probing"
	StatusProbed           Status = "probed"
	StatusExtractingAudio  Status = "extracting_audio"
	StatusAudioExtracted   Status = "audio_extracted"
	StatusExtractingFrames Status = "extracting_frames"
	StatusFramesExtracted  Status = "frames_extracted"
	StatusUpscaling        Status = "upscaling"
	StatusUpscaled         Status = "upscaled"
	StatusAssembling       Status = "assembling"
	StatusCompleted        Status = "completed"
	StatusFailed           Status = "failed"
)

// Job is the state threaded through the ordered stage list. Each stage reads
// what earlier stages produced and fills in its own fields.
type Job struct {
	ID         string
	InputPath  string
	OutputPath string
	Workspace  *staging.Workspace

	Metadata       ffprobe.Metadata
	HasAudio       bool
	ExtractedCount int
	UpscaledCount  int

	Status          Status
	ProgressStage   string
	ProgressPercent float64
	ProgressMessage string
	ErrorMessage    string
	ErrorKind       string

	StartedAt  time.Time
	FinishedAt time.Time
}

// NewJob creates a pending job for one input/output pair.
func NewJob(id, input, output string, ws *staging.Workspace) *Job {
	return &Job{
		ID:         id,
		InputPath:  input,
		OutputPath: output,
		Workspace:  ws,
		Status:     StatusPending,
		StartedAt:  time.Now().UTC(),
	}
}

// Begin moves the job into a processing status and resets progress.
func (j *Job) Begin(status Status) {
	j.Status = status
	j.ProgressStage = Label(status)
	j.ProgressPercent = 0
	j.ProgressMessage = j.ProgressStage + " started"
	j.ErrorMessage = ""
	j.ErrorKind = ""
}

// SetProgress records stage progress. Percent is clamped to [0, 100].
func (j *Job) SetProgress(percent float64, message string) {
	j.ProgressPercent = max(0, min(100, percent))
	if message = strings.TrimSpace(message); message != "" {
		j.ProgressMessage = message
	}
}

// SetFailed marks the job failed with a human readable message.
func (j *Job) SetFailed(kind, message string) {
	j.Status = StatusFailed
	j.ErrorKind = kind
	j.ErrorMessage = strings.TrimSpace(message)
	j.FinishedAt = time.Now().UTC()
}

// Complete marks the job finished successfully.
func (j *Job) Complete() {
	j.Status = StatusCompleted
	j.ProgressPercent = 100
	j.ProgressMessage = "Completed"
	j.FinishedAt = time.Now().UTC()
}

// Elapsed returns the run duration so far, or the final duration once the
// job has finished.
func (j *Job) Elapsed() time.Duration {
	if j.StartedAt.IsZero() {
		return 0
	}
	end := j.FinishedAt
	if end.IsZero() {
		end = time.Now().UTC()
	}
	return end.Sub(j.StartedAt)
}

// IsTerminal reports whether the job has finished, successfully or not.
func (j *Job) IsTerminal() bool {
	return j.Status == StatusCompleted || j.Status == StatusFailed
}

// Label turns a status such as "extracting_frames" into "Extracting Frames".
func Label(status Status) string {
	if status == "" {
		return ""
	}
	return cases.Title(language.English).String(strings.ReplaceAll(string(status), "_", " "))
}
