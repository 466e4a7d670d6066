// Package document validates remote document URLs and downloads them into a
// root-confined local directory.
package document

import (
	"errors"
	"fmt"
	"sync"

	"mindflow/internal/safeio"
)

// ErrNotDocument is returned when validation positively rejects a URL.
var ErrNotDocument = errors.New("document: url does not point to a PDF")

// DownloadError reports a failed transfer of RemoteURL.
type DownloadError struct {
	URL string
	Err error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download %s: %v", e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// DocumentSource is one validated, downloaded document. Close deletes the
// local copy; it is safe to call more than once.
type DocumentSource struct {
	RemoteURL string
	LocalPath string
	Validated bool

	fs        *safeio.SafeFS
	closeOnce sync.Once
	closeErr  error
}

// Close removes the local file.
func (d *DocumentSource) Close() error {
	if d == nil {
		return nil
	}
	d.closeOnce.Do(func() {
		if d.fs == nil || d.LocalPath == "" {
			return
		}
		d.closeErr = d.fs.SafeRemove(d.LocalPath)
	})
	return d.closeErr
}
