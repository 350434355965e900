package history

import (
	"fmt"

	"artshift/internal/domain"
	"artshift/pkg/zip"
)

// Archive packs the result image of each item into a zip, named
// NN-ArtShift-<unix-ms> in list order. Items whose result cannot be decoded
// are passed to skip and left out. It returns the archive and the number of
// images written.
func Archive(items []domain.HistoryItem, skip func(item domain.HistoryItem, err error)) ([]byte, int, error) {
	assets := make([]zip.Asset, 0, len(items))
	for i, item := range items {
		img, err := domain.ParseDataURL(item.TransformedURL)
		if err == nil {
			var data []byte
			if data, err = img.Bytes(); err == nil {
				assets = append(assets, zip.Asset{
					Filename: fmt.Sprintf("%02d-ArtShift-%d", i+1, item.Timestamp),
					MIME:     img.MIMEType,
					Data:     data,
				})
				continue
			}
		}
		if skip != nil {
			skip(item, err)
		}
	}
	archive, err := zip.ArchiveAssets(assets)
	if err != nil {
		return nil, 0, fmt.Errorf("history: archive: %w", err)
	}
	return archive, len(assets), nil
}
