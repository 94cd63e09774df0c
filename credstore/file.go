package credstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	autherrors "github.com/jrsteele09/hotel-session/internal/errors"
	"github.com/rs/zerolog"
)

var _ Store = (*File)(nil)

type fileDocument struct {
	AccessToken  string `json:"accessToken,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// File keeps the credential pair in a single JSON document. Writes go through a
// temp file and a rename so readers see either the old pair or the new one.
type File struct {
	path string
	mu   sync.Mutex
	log  zerolog.Logger
}

type FileOption func(*File)

func WithFileLogger(log zerolog.Logger) FileOption {
	return func(f *File) {
		f.log = log
	}
}

func NewFile(path string, options ...FileOption) *File {
	f := &File{
		path: path,
		log:  zerolog.Nop(),
	}
	for _, opt := range options {
		opt(f)
	}
	return f
}

func (f *File) Path() string {
	return f.path
}

func (f *File) Save(_ context.Context, access, refresh string) error {
	data, err := json.Marshal(fileDocument{AccessToken: access, RefreshToken: refresh})
	if err != nil {
		return fmt.Errorf("[credstore File.Save] marshal: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return storageErr("File.Save mkdir", err)
	}

	tmp, err := os.CreateTemp(dir, ".credentials-*.tmp")
	if err != nil {
		return storageErr("File.Save create temp", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once renamed

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return storageErr("File.Save chmod", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return storageErr("File.Save write", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return storageErr("File.Save sync", err)
	}
	if err := tmp.Close(); err != nil {
		return storageErr("File.Save close", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return storageErr("File.Save rename", err)
	}
	return nil
}

func (f *File) Load(_ context.Context) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return "", "", nil
	}
	if err != nil {
		return "", "", storageErr("File.Load read", err)
	}

	var doc fileDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		// A corrupt document is indistinguishable from corrupt tokens: the
		// session layer will treat it as absent and clear it.
		f.log.Warn().Err(err).Str("path", f.path).Msg("credential file is not valid JSON")
		return string(data), "", nil
	}
	return doc.AccessToken, doc.RefreshToken, nil
}

func (f *File) Clear(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return storageErr("File.Clear remove", err)
	}
	return nil
}

// Watch calls onChange whenever the credential file is written, replaced or
// removed by anyone, including this process. It blocks until ctx is done.
func (f *File) Watch(ctx context.Context, onChange func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return storageErr("File.Watch new watcher", err)
	}
	defer w.Close()

	// Watch the directory: the file itself is replaced on every save.
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return storageErr("File.Watch mkdir", err)
	}
	if err := w.Add(dir); err != nil {
		return storageErr("File.Watch add", err)
	}

	name := filepath.Clean(f.path)
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != name {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				f.log.Debug().Str("op", event.Op.String()).Msg("credential file changed")
				onChange()
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			f.log.Error().Err(err).Msg("credential file watcher error")
		}
	}
}

func storageErr(op string, err error) error {
	return fmt.Errorf("[credstore %s] %w", op, autherrors.Join(autherrors.ErrStorageUnavailable, err))
}
