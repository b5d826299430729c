package writer

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultPerm is the mode given to a newly created output document.
const DefaultPerm os.FileMode = 0o644

// FileWriter replaces the document at Path in one step: the bytes go to a
// temp file next to Path, which is renamed over it once fully written. A
// failed write leaves any previous document untouched and no temp file behind.
type FileWriter struct {
	Path string
	// Perm is the mode of a newly created document; zero selects DefaultPerm.
	// An existing regular file at Path keeps its own mode.
	Perm os.FileMode
}

// WriteDocument stores doc at w.Path.
func (w *FileWriter) WriteDocument(doc []byte) (err error) {
	perm := w.mode()
	tmp, err := os.CreateTemp(filepath.Dir(w.Path), ".mdbkit-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(doc); err != nil {
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	// CreateTemp always uses 0600.
	if err = tmp.Chmod(perm); err != nil {
		return fmt.Errorf("chmod %s: %w", tmp.Name(), err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", tmp.Name(), err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err = os.Rename(tmp.Name(), w.Path); err != nil {
		return fmt.Errorf("replace %s: %w", w.Path, err)
	}
	return nil
}

func (w *FileWriter) mode() os.FileMode {
	if info, err := os.Stat(w.Path); err == nil && info.Mode().IsRegular() {
		return info.Mode().Perm()
	}
	if w.Perm != 0 {
		return w.Perm
	}
	return DefaultPerm
}
