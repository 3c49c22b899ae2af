package form

import (
	"context"
	"io"

	"borgo/internal/domain"
	"borgo/internal/validate"
)

// Uploader stores a file and returns an opaque reference to it.
type Uploader interface {
	Upload(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error)
}

type File struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Upload stores f for a visible file field in the background. The returned
// channel yields exactly one result. On success the reference becomes the
// field's value; on failure the value stays empty and the field carries an
// *domain.UploadError until it is retried, replaced or hidden. Files other
// than jpg, png, webp or gif are refused before reaching the uploader.
func (s *Session) Upload(ctx context.Context, key string, f File) <-chan error {
	done := make(chan error, 1)
	finish := func(err error) {
		done <- err
		close(done)
	}

	s.mu.Lock()
	if err := s.editableLocked(); err != nil {
		s.mu.Unlock()
		finish(err)
		return done
	}
	cf, _, ok := conditionalByKey(key)
	if !ok || !s.visible[key] {
		s.mu.Unlock()
		finish(ErrUnknownField)
		return done
	}
	if !cf.File {
		s.mu.Unlock()
		finish(ErrNotUploadable)
		return done
	}
	if _, ok := validate.Image(f.Name, f.ContentType); !ok {
		s.mu.Unlock()
		finish(&domain.UploadError{FieldKey: key, Err: domain.ErrNotImage})
		return done
	}
	if s.uploader == nil {
		s.mu.Unlock()
		finish(ErrNoUploader)
		return done
	}
	s.gen[key]++
	g := s.gen[key]
	s.inflight[key] = g
	delete(s.values, key)
	delete(s.uploadErr, key)
	up := s.uploader
	s.state = StateEditing
	s.mu.Unlock()

	go func() {
		ref, err := up.Upload(ctx, f.Name, f.Body, f.Size, f.ContentType)

		s.mu.Lock()
		if cur, ok := s.inflight[key]; !ok || cur != g {
			s.mu.Unlock()
			finish(ErrUploadSuperseded)
			return
		}
		delete(s.inflight, key)
		if err != nil {
			uerr := &domain.UploadError{FieldKey: key, Err: err}
			s.uploadErr[key] = uerr
			s.mu.Unlock()
			finish(uerr)
			return
		}
		s.values[key] = ref
		s.mu.Unlock()
		finish(nil)
	}()
	return done
}
