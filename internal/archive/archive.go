// Package archive packs an assembled file set into a zip. Output is
// deterministic: entry order follows the file set and every header carries a
// fixed timestamp, so the same input always produces the same bytes.
package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"time"

	"stencil/internal/assemble"
)

// epoch is the fixed modification time stamped on every entry.
var epoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// Write streams the file set as a zip to w in file-set order.
func Write(w io.Writer, fs *assemble.FileSet) error {
	zw := zip.NewWriter(w)
	for _, f := range fs.Files() {
		hdr := &zip.FileHeader{
			Name:     f.Path,
			Method:   zip.Deflate,
			Modified: epoch,
		}
		hdr.SetMode(0o644)
		entry, err := zw.CreateHeader(hdr)
		if err != nil {
			return fmt.Errorf("archive: create %s: %w", f.Path, err)
		}
		if _, err := io.WriteString(entry, f.Content); err != nil {
			return fmt.Errorf("archive: write %s: %w", f.Path, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("archive: finalize: %w", err)
	}
	return nil
}

// Bytes renders the zip in memory. Generated projects are capped well below
// anything that would make buffering a problem.
func Bytes(fs *assemble.FileSet) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, fs); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
