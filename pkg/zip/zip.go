package zip

import (
	"archive/zip"
	"bytes"
	"fmt"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

type Asset struct {
	Filename string
	MIME     string
	Data     []byte
}

// ArchiveAssets packs assets into a zip archive. Filenames without an
// extension get one derived from the asset's MIME type.
func ArchiveAssets(assets []Asset) ([]byte, error) {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for _, asset := range assets {
		if len(asset.Data) == 0 {
			continue
		}
		w, err := zw.Create(filenameFor(asset))
		if err != nil {
			return nil, fmt.Errorf("zip: create %q: %w", asset.Filename, err)
		}
		if _, err := w.Write(asset.Data); err != nil {
			return nil, fmt.Errorf("zip: write %q: %w", asset.Filename, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zip: close: %w", err)
	}
	return buf.Bytes(), nil
}

func filenameFor(asset Asset) string {
	name := strings.TrimSpace(asset.Filename)
	if name == "" {
		name = "asset"
	}
	if path.Ext(name) != "" {
		return name
	}
	mime := asset.MIME
	if mime == "" {
		mime = mimetype.Detect(asset.Data).String()
	}
	if m := mimetype.Lookup(mime); m != nil {
		return name + m.Extension()
	}
	return name
}
