package transcriber

import (
	"errors"
	"fmt"
)

// ErrUploadFailed covers every way a transcription request can fail: a
// transport error, a non-2xx status, or an unreadable response.
var ErrUploadFailed = errors.New("upload failed")

// UploadError is a non-2xx answer from the transcription endpoint.
type UploadError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *UploadError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("transcription endpoint returned %s", e.Status)
	}
	return fmt.Sprintf("transcription endpoint returned %s: %s", e.Status, e.Body)
}

func (e *UploadError) Unwrap() error { return ErrUploadFailed }

func uploadFailed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUploadFailed, fmt.Sprintf(format, args...))
}
