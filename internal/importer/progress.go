package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bturcotte520/FlashCards/internal/logger"
	"github.com/bturcotte520/FlashCards/internal/models"
	"github.com/bturcotte520/FlashCards/internal/repository"
)

// Format is a progress file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts json, yaml or yml.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown format %q", s)
	}
}

// ProgressRestorer writes imported records.
type ProgressRestorer interface {
	Restore(ctx context.Context, rec models.ProgressRecord) error
}

// ExportProgress writes every stored progress record to w.
func ExportProgress(ctx context.Context, store repository.ProgressStore, w io.Writer, format Format) (int, error) {
	records, err := store.All(ctx)
	if err != nil {
		return 0, fmt.Errorf("load progress: %w", err)
	}
	if records == nil {
		records = []models.ProgressRecord{}
	}

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(records)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		err = enc.Encode(records)
		if err == nil {
			err = enc.Close()
		}
	default:
		return 0, fmt.Errorf("unknown format %q", format)
	}
	if err != nil {
		return 0, fmt.Errorf("encode progress: %w", err)
	}
	logger.FromContext(ctx).Info("exported %d progress records as %s", len(records), format)
	return len(records), nil
}

// ImportProgress reads records from r and restores each valid one. Invalid
// records are skipped and reported in the result.
func ImportProgress(ctx context.Context, restorer ProgressRestorer, r io.Reader, format Format) (*Result, error) {
	log := logger.FromContext(ctx)

	var records []models.ProgressRecord
	var err error
	switch format {
	case FormatJSON:
		err = json.NewDecoder(r).Decode(&records)
	case FormatYAML:
		err = yaml.NewDecoder(r).Decode(&records)
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode progress: %w", err)
	}

	res := &Result{}
	for i, rec := range records {
		res.TotalProcessed++
		if err := restorer.Restore(ctx, rec); err != nil {
			log.Warn("skipping progress record %d: %v", i+1, err)
			res.skip(i+1, err)
			continue
		}
		res.Imported++
	}
	log.Info("imported %d of %d progress records", res.Imported, res.TotalProcessed)
	return res, nil
}
