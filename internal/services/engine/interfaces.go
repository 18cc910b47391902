package engine

import "context"

// FileHandle identifies an uploaded audio segment on the speech service
type FileHandle struct {
	Name     string // Server-side resource name, e.g. "files/abc123"
	URI      string // URI referenced by transcription requests
	MimeType string
	State    string
}

// Active reports whether the file is ready for transcription
func (h FileHandle) Active() bool {
	return h.State == "ACTIVE"
}

// Service is the speech-to-text backend. Implementations must be safe for
// sequential reuse across segments of the same job.
type Service interface {
	// Upload pushes one segment's audio bytes and waits until the file is
	// ready to be referenced.
	Upload(ctx context.Context, data []byte, mimeType string) (FileHandle, error)

	// Transcribe asks the model to transcribe a previously uploaded file
	// and returns the raw bracketed-timestamp text.
	Transcribe(ctx context.Context, file FileHandle, model, prompt string) (string, error)
}
