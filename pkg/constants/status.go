package constants

// Document-level processing states (videoProcessingStatus.state).
const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusOK         = "ok"
)

// Queue-level job states, as reported by the status endpoint.
const (
	JobStateWaiting   = "waiting"
	JobStateActive    = "active"
	JobStateCompleted = "completed"
	JobStateFailed    = "failed"
)

// Progress checkpoints written by the transcode worker.
const (
	ProgressPickedUp      = 5
	ProgressProbed        = 15
	ProgressTranscodeBand = 0.7
	ProgressTranscodeCeil = 95
	ProgressDone          = 100
)

const (
	DefaultQueueName       = "video-transcode"
	DefaultCRF             = 24
	DefaultVideoExtension  = ".mp4"
	DefaultCollection      = "media"
	DefaultCompletedJobTTL = 60 // seconds
)
