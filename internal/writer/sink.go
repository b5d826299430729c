// Package writer exposes sinks for the encoded output document.
package writer

// Sink receives the fully encoded document in one call.
type Sink interface {
	WriteDocument(buf []byte) error
}

// MemWriter captures document bytes in memory.
type MemWriter struct {
	Buf []byte
}

// WriteDocument stores a copy of buf.
func (w *MemWriter) WriteDocument(buf []byte) error {
	w.Buf = append(w.Buf[:0], buf...)
	return nil
}
