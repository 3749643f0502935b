package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// ResultsArchive stores one JSON snapshot per completed tournament under
// results/<tournament-id>/<timestamp>.json.
type ResultsArchive struct {
	uploader FileUploader
	now      func() time.Time
}

func NewResultsArchive(uploader FileUploader) *ResultsArchive {
	return &ResultsArchive{uploader: uploader, now: time.Now}
}

func (a *ResultsArchive) ArchiveResults(ctx context.Context, tournamentID int, snapshot interface{}) (string, error) {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return "", fmt.Errorf("marshal results snapshot: %w", err)
	}

	key := fmt.Sprintf("results/%d/%s.json", tournamentID, a.now().UTC().Format("20060102T150405Z"))
	if _, err := a.uploader.Upload(ctx, key, "application/json", bytes.NewReader(payload)); err != nil {
		return "", err
	}
	return key, nil
}
