package regionaugment

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/menta2k/region-augment/internal/config"
	"github.com/menta2k/region-augment/internal/utils"
	"github.com/menta2k/region-augment/pkg/client"
	"github.com/menta2k/region-augment/pkg/llamacpp"
	"github.com/menta2k/region-augment/pkg/ollama"
	"github.com/menta2k/region-augment/pkg/overlay"
	"github.com/menta2k/region-augment/pkg/review"
	"github.com/menta2k/region-augment/pkg/types"
)

// NewVisionClient connects to the configured model backend
func NewVisionClient(backend, url string) (client.VisionClient, error) {
	switch backend {
	case "ollama":
		if url == "" {
			url = "http://localhost:11435/api/chat"
		}
		return ollama.NewClient(url)
	case "llamacpp", "":
		return llamacpp.NewClient(url)
	default:
		return nil, fmt.Errorf("unknown backend %q", backend)
	}
}

// NewReviewer builds a reviewer from the review configuration
func NewReviewer(cfg config.ReviewConfig) (*review.Reviewer, error) {
	c, err := NewVisionClient(cfg.Backend, cfg.URL)
	if err != nil {
		return nil, err
	}
	return review.NewReviewer(c, cfg.Model), nil
}

// ReviewEntry is the outcome of reviewing one record
type ReviewEntry struct {
	Key      string         `json:"key"`
	Filename string         `json:"filename"`
	Verdict  *types.Verdict `json:"verdict,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// ReviewReport collects the verdicts of a review run
type ReviewReport struct {
	Entries    []ReviewEntry `json:"entries"`
	Aligned    int           `json:"aligned"`
	Misaligned int           `json:"misaligned"`
	Failed     int           `json:"failed"`
}

// ReviewFile draws the regions of every record (or only of keys, when given)
// over its image and asks the model whether they match. Per record failures
// are recorded in the report and do not stop the run.
func ReviewFile(ctx context.Context, opts Options, reviewer *review.Reviewer, send config.ReviewConfig, keys ...string) (*ReviewReport, error) {
	r, err := newRun(opts)
	if err != nil {
		return nil, err
	}

	wanted := map[string]bool{}
	for _, k := range keys {
		if _, ok := r.dataset[k]; !ok {
			return nil, fmt.Errorf("unknown key %q", k)
		}
		wanted[k] = true
	}

	rng := rand.New(rand.NewSource(r.opts.Seed))
	report := &ReviewReport{}

	err = r.each(ctx, func(key string, record types.Record) error {
		if len(wanted) > 0 && !wanted[key] {
			return nil
		}
		entry := ReviewEntry{Key: key, Filename: record.Filename}
		defer func() { report.Entries = append(report.Entries, entry) }()

		img, skipped := r.load(key, record)
		if skipped != nil {
			entry.Error = skipped.Error()
			report.Failed++
			return nil
		}

		drawn := overlay.FillRegions(img, record.Regions, r.opts.OverlayAlpha, rng)
		imgB64, err := r.proc.PrepareImageForModel(drawn, send.SendFormat, send.SendSize, send.SendQuality)
		if err != nil {
			return fmt.Errorf("%s: failed to encode overlay: %w", key, err)
		}

		verdict, err := reviewer.Review(ctx, imgB64)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.errorLog.Error("review failed", "key", key, "err", err)
			entry.Error = err.Error()
			report.Failed++
			return nil
		}

		entry.Verdict = verdict
		if verdict.Aligned {
			report.Aligned++
			r.logger.Info("aligned", "key", key, "score", verdict.Score, "summary", verdict.Summary)
		} else {
			report.Misaligned++
			r.logger.Warn("misaligned", "key", key, "score", verdict.Score, "issues", verdict.Issues)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// WriteReviewReport stores a report as indented JSON
func WriteReviewReport(path string, report *ReviewReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
