package models

import (
	"time"

	"gorm.io/gorm"
)

// Segment is one slice of a job's audio. Segments are processed strictly in
// index order and each one records its own progress so a crashed run can
// resume at the first unprocessed index.
type Segment struct {
	ID    uint   `json:"id" gorm:"primarykey"`
	JobID string `json:"job_id" gorm:"not null;index:idx_segments_job_index,unique"`
	Index int    `json:"index" gorm:"not null;index:idx_segments_job_index,unique"`

	Blob     []byte `json:"-" gorm:"type:blob"`
	MimeType string `json:"mime_type"`

	Processed      bool   `json:"processed" gorm:"default:false"`
	Transcription  string `json:"transcription,omitempty" gorm:"type:text"`
	UploadedFileID string `json:"uploaded_file_id,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName specifies the table name for GORM
func (Segment) TableName() string {
	return "segments"
}
