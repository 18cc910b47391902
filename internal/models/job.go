package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"gorm.io/gorm"
)

// JobStatus represents the lifecycle state of a transcription job
type JobStatus string

const (
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusError      JobStatus = "error"
)

// JobStep represents the pipeline phase a job is currently in
type JobStep string

const (
	JobStepTranscribe JobStep = "transcribe"
	JobStepMerge      JobStep = "merge"
	JobStepCompleted  JobStep = "completed"
)

// JobErrorType classifies failures so callers can tell transient from terminal
type JobErrorType string

const (
	ErrorTypeInput        JobErrorType = "input"        // Bad or unreadable source media
	ErrorTypeSegmentation JobErrorType = "segmentation" // FFmpeg split or probe failed
	ErrorTypeNetwork      JobErrorType = "network"      // Speech API upload/transcribe failed
	ErrorTypePersistence  JobErrorType = "persistence"  // Database write failed
	ErrorTypeTerminal     JobErrorType = "terminal"     // Permanently unrecoverable
)

// StructuredJobError carries a failure classification alongside the message
type StructuredJobError struct {
	Type     JobErrorType
	Code     string
	Message  string
	Details  string
	Original error
}

func (e *StructuredJobError) Error() string {
	return e.Message
}

func (e *StructuredJobError) Unwrap() error {
	return e.Original
}

// NewInputError creates an error for unreadable or invalid source media
func NewInputError(code, message, details string, originalErr error) *StructuredJobError {
	return &StructuredJobError{Type: ErrorTypeInput, Code: code, Message: message, Details: details, Original: originalErr}
}

// NewSegmentationError creates an error for audio splitting failures
func NewSegmentationError(code, message, details string, originalErr error) *StructuredJobError {
	return &StructuredJobError{Type: ErrorTypeSegmentation, Code: code, Message: message, Details: details, Original: originalErr}
}

// NewNetworkError creates an error for speech API failures
func NewNetworkError(code, message, details string, originalErr error) *StructuredJobError {
	return &StructuredJobError{Type: ErrorTypeNetwork, Code: code, Message: message, Details: details, Original: originalErr}
}

// NewPersistenceError creates an error for database write failures
func NewPersistenceError(code, message, details string, originalErr error) *StructuredJobError {
	return &StructuredJobError{Type: ErrorTypePersistence, Code: code, Message: message, Details: details, Original: originalErr}
}

// NewTerminalError creates an error that should never be retried
func NewTerminalError(code, message, details string, originalErr error) *StructuredJobError {
	return &StructuredJobError{Type: ErrorTypeTerminal, Code: code, Message: message, Details: details, Original: originalErr}
}

// TimeMap holds the absolute start offset (seconds) of each audio segment.
// Entry 0 is always 0. Stored as a JSON column.
type TimeMap []float64

// Value implements driver.Valuer for TimeMap
func (m TimeMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner for TimeMap
func (m *TimeMap) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		if s, sok := value.(string); sok {
			bytes = []byte(s)
		} else {
			return errors.New("type assertion to []byte failed")
		}
	}

	return json.Unmarshal(bytes, m)
}

// Job represents a transcription job keyed by source identity so the same
// file resumes instead of starting over.
type Job struct {
	ID        string `json:"id" gorm:"primarykey"`
	FileName  string `json:"file_name" gorm:"not null"`
	FileSize  int64  `json:"file_size"`
	Model     string `json:"model" gorm:"not null"`
	Timestamp int64  `json:"timestamp" gorm:"index"` // Unix ms when the job was created

	Status JobStatus `json:"status" gorm:"default:'processing';index"`
	Step   JobStep   `json:"step" gorm:"default:'transcribe'"`
	Error  string    `json:"error,omitempty"`

	// Error classification fields
	ErrorType    string `json:"error_type,omitempty"`
	ErrorCode    string `json:"error_code,omitempty"`
	ErrorDetails string `json:"error_details,omitempty"`

	// ClaimedAt is an optimistic lease. A resume attempt only proceeds when
	// it can swap the stored value for its own claim time.
	ClaimedAt *time.Time `json:"claimed_at,omitempty"`

	TimeMap TimeMap `json:"time_map" gorm:"type:json"`
	Result  string  `json:"result,omitempty" gorm:"type:text"` // Merged SRT once completed

	Segments []Segment `json:"segments,omitempty" gorm:"foreignKey:JobID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// NewJobID derives a stable job identifier from the source file's identity
// and the model. The same file transcribed with the same model maps to the
// same job, which is what makes resume work.
func NewJobID(fileName string, fileSize int64, lastModified int64, model string) string {
	return fmt.Sprintf("%s_%d_%d_%s", url.QueryEscape(fileName), fileSize, lastModified, url.QueryEscape(model))
}

// IsResumable returns true if the job can be picked up again
func (j *Job) IsResumable() bool {
	return j.Status == JobStatusProcessing || j.Status == JobStatusError
}

// IsTerminal returns true if the job finished successfully
func (j *Job) IsTerminal() bool {
	return j.Status == JobStatusCompleted
}

// AllSegmentsProcessed reports whether every segment has a transcription
func (j *Job) AllSegmentsProcessed() bool {
	if len(j.Segments) == 0 {
		return false
	}
	for i := range j.Segments {
		if !j.Segments[i].Processed {
			return false
		}
	}
	return true
}

// SetErrorDetails records error classification on the job
func (j *Job) SetErrorDetails(errorType JobErrorType, errorCode, errorMsg, errorDetails string) {
	j.Status = JobStatusError
	j.ErrorType = string(errorType)
	j.ErrorCode = errorCode
	j.Error = errorMsg
	j.ErrorDetails = errorDetails
}

// ClearError resets error state before a resume attempt
func (j *Job) ClearError() {
	j.Status = JobStatusProcessing
	j.ErrorType = ""
	j.ErrorCode = ""
	j.Error = ""
	j.ErrorDetails = ""
}

// TableName specifies the table name for GORM
func (Job) TableName() string {
	return "jobs"
}
