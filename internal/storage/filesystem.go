package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	pkgerrors "plategate/pkg/errors"
)

// FilesystemStore writes areas as directories under Root.
//
// With Sanitize unset the name is joined to the area directory verbatim, so a
// name such as "../../x" lands outside it. That matches what deployed cameras
// have always been able to do; enable Sanitize to reject such names.
type FilesystemStore struct {
	Root     string
	Sanitize bool
}

func NewFilesystemStore(root string, sanitize bool) *FilesystemStore {
	return &FilesystemStore{Root: root, Sanitize: sanitize}
}

func (s *FilesystemStore) Put(ctx context.Context, area Area, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.Sanitize {
		if err := checkName(name); err != nil {
			return "", err
		}
	}

	dir := filepath.Join(s.Root, area.Dir())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", pkgerrors.ErrStorage.WithCause(fmt.Errorf("create area directory %s: %w", dir, err))
	}

	path := filepath.Join(dir, name)
	if err := writeFileSync(path, data); err != nil {
		return "", pkgerrors.ErrStorage.WithCause(err).WithDetail("path", path)
	}
	return path, nil
}

// Name implements health.Checker.
func (s *FilesystemStore) Name() string {
	return "storage"
}

// Check implements health.Checker by creating and removing a probe file in
// the store root.
func (s *FilesystemStore) Check(ctx context.Context) error {
	if err := os.MkdirAll(s.Root, 0o755); err != nil {
		return fmt.Errorf("storage root not writable: %w", err)
	}
	f, err := os.CreateTemp(s.Root, ".health-*")
	if err != nil {
		return fmt.Errorf("storage root not writable: %w", err)
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}

// writeFileSync writes data to path and fsyncs it before returning.
func writeFileSync(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
