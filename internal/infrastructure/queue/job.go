package queue

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"video-processor/internal/domain/entities"
)

var ErrJobNotFound = errors.New("job not found")

// DocumentID is a document id normalized to its string form. JSON numbers
// and strings are both accepted.
type DocumentID string

func (d *DocumentID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*d = DocumentID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("document id must be a string or number: %w", err)
	}
	*d = DocumentID(n.String())
	return nil
}

func (d DocumentID) String() string {
	return string(d)
}

// VideoJob is the unit of queued transcode work.
type VideoJob struct {
	Collection          string             `json:"collection"`
	ID                  DocumentID         `json:"id"`
	Preset              string             `json:"preset"`
	Crop                *entities.CropRect `json:"crop,omitempty"`
	AutoReplaceOriginal bool               `json:"autoReplaceOriginal,omitempty"`
}

type JobOptions struct {
	// RemoveOnCompleteAge is how long a completed job stays queryable.
	RemoveOnCompleteAge time.Duration
	// RemoveOnFail drops failed jobs immediately instead of retaining them.
	RemoveOnFail bool
}

type JobStatus struct {
	ID           string  `json:"id"`
	Name         string  `json:"name,omitempty"`
	State        string  `json:"state"`
	Progress     float64 `json:"progress"`
	Attempts     int     `json:"attempts"`
	FailedReason string  `json:"failedReason,omitempty"`
}

// Delivery is one dequeued job.
type Delivery struct {
	ID      string
	Job     VideoJob
	Attempt int
}

func (j VideoJob) Validate() error {
	if strings.TrimSpace(j.Collection) == "" {
		return errors.New("collection is required")
	}
	if strings.TrimSpace(string(j.ID)) == "" {
		return errors.New("id is required")
	}
	if strings.TrimSpace(j.Preset) == "" {
		return errors.New("preset is required")
	}
	return nil
}

func DeserializeJob(data string) (*VideoJob, error) {
	var job VideoJob
	if err := json.Unmarshal([]byte(data), &job); err != nil {
		return nil, fmt.Errorf("failed to deserialize job: %w", err)
	}
	return &job, nil
}

func SerializeJob(job VideoJob) (string, error) {
	raw, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("failed to serialize job: %w", err)
	}
	return string(raw), nil
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}
