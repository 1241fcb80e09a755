// Package sysfs writes plain-text values to kernel attribute files.
package sysfs

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/smazurov/lightnode/internal/metrics"
)

// Sink receives attribute writes. Implementations never report failure to the caller.
type Sink interface {
	Write(path, value string)
	WriteInt(path string, value int)
}

// FailureFunc is notified when an attribute could not be written.
type FailureFunc func(path, value string, err error)

// Writer implements Sink on top of the Linux sysfs attribute files.
type Writer struct {
	logger    *slog.Logger
	onFailure FailureFunc
}

// NewWriter creates a sysfs writer. onFailure may be nil.
func NewWriter(logger *slog.Logger, onFailure FailureFunc) *Writer {
	return &Writer{
		logger:    logger,
		onFailure: onFailure,
	}
}

// Write opens path for writing, writes value and closes the file.
// Failures are logged and counted but not returned.
func (w *Writer) Write(path, value string) {
	// sysfs attributes already exist; never create regular files in their place
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		w.fail(path, value, err)
		return
	}
	defer f.Close()

	if _, err := f.WriteString(value); err != nil {
		w.fail(path, value, err)
		return
	}

	metrics.RecordSysfsWrite(path, value)
	w.logger.Debug("Wrote sysfs attribute", "path", path, "value", value)
}

// WriteInt writes value in decimal.
func (w *Writer) WriteInt(path string, value int) {
	w.Write(path, strconv.Itoa(value))
}

func (w *Writer) fail(path, value string, err error) {
	w.logger.Error("Failed to write sysfs attribute", "value", value, "path", path, "error", err)
	metrics.RecordSysfsWriteFailure(path)
	if w.onFailure != nil {
		w.onFailure(path, value, err)
	}
}
