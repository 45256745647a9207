package entity

import (
	"time"

	"github.com/joseph-ayodele/doctext/constants"
)

// DocumentLocation references an object in the blob store.
type DocumentLocation struct {
	Bucket string `json:"Bucket"`
	Key    string `json:"Name"`
}

func (l DocumentLocation) String() string {
	return l.Bucket + "/" + l.Key
}

// Job is a snapshot of one text-detection job.
type Job struct {
	ID               string              `json:"JobId"`
	Status           constants.JobStatus `json:"JobStatus"`
	DocumentLocation DocumentLocation    `json:"DocumentLocation"`
	StartedAt        time.Time           `json:"StartTime"`
	EndedAt          *time.Time          `json:"EndTime,omitempty"`
	Blocks           []Block             `json:"Blocks,omitempty"`
	ErrorMessage     string              `json:"ErrorMessage,omitempty"`
}

// Duration is the run time of a terminal job, zero otherwise.
func (j Job) Duration() time.Duration {
	if j.EndedAt == nil {
		return 0
	}
	return j.EndedAt.Sub(j.StartedAt)
}

// JobSummary is a job without its blocks, as archived and exported.
type JobSummary struct {
	ID           string              `json:"JobId"`
	Bucket       string              `json:"Bucket"`
	Key          string              `json:"Name"`
	Status       constants.JobStatus `json:"JobStatus"`
	Pages        int                 `json:"Pages"`
	Blocks       int                 `json:"BlockCount"`
	ErrorMessage string              `json:"ErrorMessage,omitempty"`
	StartedAt    time.Time           `json:"StartTime"`
	EndedAt      *time.Time          `json:"EndTime,omitempty"`
}

func (j Job) Summary() JobSummary {
	return JobSummary{
		ID:           j.ID,
		Bucket:       j.DocumentLocation.Bucket,
		Key:          j.DocumentLocation.Key,
		Status:       j.Status,
		Pages:        PageCount(j.Blocks),
		Blocks:       len(j.Blocks),
		ErrorMessage: j.ErrorMessage,
		StartedAt:    j.StartedAt,
		EndedAt:      j.EndedAt,
	}
}
