package fs

import (
	"bytes"
	iofs "io/fs"
)

// uploadWriter collects written bytes and hands them to upload once, on Close.
// Object stores and FTP have no partial write, so the whole content travels at once.
type uploadWriter struct {
	buf    bytes.Buffer
	upload func(data []byte) error
	closed bool
}

func newUploadWriter(upload func(data []byte) error) *uploadWriter {
	return &uploadWriter{upload: upload}
}

func (w *uploadWriter) Write(p []byte) (int, error) {
	if w.closed {
		return 0, iofs.ErrClosed
	}
	return w.buf.Write(p)
}

func (w *uploadWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.upload(w.buf.Bytes())
}
