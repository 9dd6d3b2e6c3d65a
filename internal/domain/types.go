package domain

// JobStatus tracks each pipeline stage for a single archive job.
type JobStatus string

const (
	JobStatusIdle       JobStatus = "idle"
	JobStatusExtracting JobStatus = "extracting"
	JobStatusPacking    JobStatus = "packing"
	JobStatusRebuilding JobStatus = "rebuilding"
	JobStatusDone       JobStatus = "done"
	JobStatusFailed     JobStatus = "failed"
)

// JobKind distinguishes the compress path from the restore path.
type JobKind string

const (
	JobKindCompress JobKind = "compress"
	JobKindRestore  JobKind = "restore"
)

// Settings contains user-selectable runtime configuration.
type Settings struct {
	HostPath  string `json:"hostPath"`
	OutputDir string `json:"outputDir"`
	Codec     string `json:"codec"`
}

// Job stores the current job identity, kind, and lifecycle status.
type Job struct {
	ID     string    `json:"id"`
	Kind   JobKind   `json:"kind"`
	Status JobStatus `json:"status"`
}
