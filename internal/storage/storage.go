// Package storage persists raw part bytes into the two ingest areas: plate
// images and event XML logs.
package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	pkgerrors "plategate/pkg/errors"
)

type Area string

const (
	AreaImages    Area = "images"
	AreaEventLogs Area = "event_logs"
)

// Dir returns the area's location relative to the store root.
func (a Area) Dir() string {
	switch a {
	case AreaImages:
		return filepath.Join("images", "lpr_images")
	case AreaEventLogs:
		return filepath.Join("xml", "lpr_logs")
	default:
		return string(a)
	}
}

// Store writes bytes under a name inside an area. Writing an existing name
// overwrites it. Put returns the location the bytes were written to.
type Store interface {
	Put(ctx context.Context, area Area, name string, data []byte) (string, error)
}

// EventLogName is the file name used for an event XML written at t.
func EventLogName(t time.Time) string {
	return fmt.Sprintf("%d.xml", t.UnixMilli())
}

// checkName rejects names that would resolve outside their area. It is only
// applied when filename sanitization is enabled.
func checkName(name string) error {
	if name == "" || name == "." || name == ".." || name != filepath.Base(name) {
		return pkgerrors.ErrStorage.
			WithMessage(fmt.Sprintf("filename %q escapes storage area", name)).
			WithDetail("filename", name).
			AsFatal()
	}
	return nil
}
