// Package playback keeps a local, playable reference to the most recent
// undecoded recording.
package playback

import (
	"fmt"
	"log"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/leonardotrapani/voicescribe/internal/audio"
)

// Store writes clips under dir. Saving a new clip revokes the previous one.
type Store struct {
	dir string

	mu      sync.Mutex
	current string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// DefaultDir is ~/.cache/voicescribe/clips.
func DefaultDir() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "voicescribe", "clips"), nil
}

// Save stores the blob and returns its path.
func (s *Store) Save(blob audio.Blob) (string, error) {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return "", fmt.Errorf("create clip dir: %w", err)
	}

	path := filepath.Join(s.dir, uuid.NewString()+Extension(blob.MIMEType))
	if err := os.WriteFile(path, blob.Data, 0o600); err != nil {
		return "", fmt.Errorf("write clip: %w", err)
	}

	s.replace(path)
	return path, nil
}

// Adopt makes an existing clip, such as one saved by an earlier store, the
// current one. The clip it replaces is removed.
func (s *Store) Adopt(path string) {
	s.replace(path)
}

func (s *Store) replace(path string) {
	s.mu.Lock()
	previous := s.current
	s.current = path
	s.mu.Unlock()

	if previous == "" || previous == path {
		return
	}
	if err := os.Remove(previous); err != nil && !os.IsNotExist(err) {
		log.Printf("Playback: failed to remove previous clip %s: %v", previous, err)
	}
}

// Current returns the path of the latest clip, or "".
func (s *Store) Current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Revoke removes the current clip.
func (s *Store) Revoke() error {
	s.mu.Lock()
	path := s.current
	s.current = ""
	s.mu.Unlock()

	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Extension picks a file extension for a media type.
func Extension(mimeType string) string {
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return ".bin"
	}
	switch strings.ToLower(mediaType) {
	case "audio/wav", "audio/x-wav", "audio/wave":
		return ".wav"
	case "audio/aiff", "audio/x-aiff":
		return ".aiff"
	case "audio/l16":
		return ".pcm"
	default:
		return ".bin"
	}
}
