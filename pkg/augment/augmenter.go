// Package augment expands a polygon-annotated dataset with flipped, filtered
// and rotated copies of every image while keeping the annotations in sync.
//
// A run is additive and idempotent. The skip decision for every derived key
// is taken against the input dataset only, never against records produced
// during the same run, so records can be processed in any order or in
// parallel. Records that are themselves variants of another input record are
// not augmented, so feeding the output of a run back in produces nothing new.
package augment

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/menta2k/region-augment/pkg/processing"
	"github.com/menta2k/region-augment/pkg/types"
)

// ImageStore reads source images and writes derived ones
type ImageStore interface {
	Load(path string) (image.Image, error)
	Save(img image.Image, path string) (int64, error)
}

// Previewer receives every source and derived image together with its
// annotations, for visual inspection.
type Previewer interface {
	Preview(name string, img image.Image, regions []types.Region) error
}

// Options configures an Augmenter
type Options struct {
	// ImagesDir is the directory record filenames are relative to.
	ImagesDir string
	// Variants to derive; nil means DefaultVariants.
	Variants []Variant
	// Workers bounds how many records are processed at once. Values below 2
	// process records one after another.
	Workers int
	// RecomputeSize stores the byte size of the written derived image instead
	// of copying the source record's size.
	RecomputeSize bool
	// Logger receives progress, ErrorLogger receives per-record failures.
	Logger      *log.Logger
	ErrorLogger *log.Logger
	Previewer   Previewer
}

// Result is the outcome of Extend
type Result struct {
	// Dataset holds the input records plus every derived record.
	Dataset types.Dataset
	// Added holds only the records derived during this run.
	Added types.Dataset
	// Written lists the image files written, sorted.
	Written []string
	// Skipped lists the records whose source image could not be read.
	Skipped []*RecordError
	// BytesWritten is the total size of the written images.
	BytesWritten int64
}

// Augmenter derives image variants for a dataset
type Augmenter struct {
	store    ImageStore
	opts     Options
	suffixes []string
	logger   *log.Logger
	errorLog *log.Logger
}

// New creates an Augmenter that reads and writes images through store
func New(store ImageStore, opts Options) *Augmenter {
	if opts.Variants == nil {
		opts.Variants = DefaultVariants(processing.DefaultBlurSigma, color.Black)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	errorLog := opts.ErrorLogger
	if errorLog == nil {
		errorLog = logger
	}

	suffixes := Suffixes(DefaultVariants(processing.DefaultBlurSigma, color.Black))
	for _, v := range opts.Variants {
		if !slices.Contains(suffixes, v.Suffix) {
			suffixes = append(suffixes, v.Suffix)
		}
	}
	return &Augmenter{store: store, opts: opts, suffixes: suffixes, logger: logger, errorLog: errorLog}
}

// recordOutput is what processing one source record produced
type recordOutput struct {
	records types.Dataset
	written []string
	bytes   int64
	skipped *RecordError
}

// Extend derives every missing variant of every record in input. The input
// dataset is not modified. Unreadable source images are logged and skipped;
// a failed image write aborts the run. Cancellation is honoured between
// records.
func (a *Augmenter) Extend(ctx context.Context, input types.Dataset) (*Result, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	var (
		mu     sync.Mutex
		result = &Result{Added: types.Dataset{}}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, a.opts.Workers))

	for _, key := range input.Keys() {
		if gctx.Err() != nil {
			break
		}
		record := input[key]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out, err := a.extendRecord(key, record, input)
			if err != nil {
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			for k, r := range out.records {
				result.Added[k] = r
			}
			result.Written = append(result.Written, out.written...)
			result.BytesWritten += out.bytes
			if out.skipped != nil {
				result.Skipped = append(result.Skipped, out.skipped)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Strings(result.Written)
	sort.Slice(result.Skipped, func(i, j int) bool { return result.Skipped[i].Key < result.Skipped[j].Key })

	result.Dataset = input.Clone()
	for k, r := range result.Added {
		result.Dataset[k] = r
	}

	a.logger.Info("augmentation finished",
		"records", len(input),
		"added", len(result.Added),
		"skipped", len(result.Skipped),
		"written", humanize.Bytes(uint64(result.BytesWritten)))
	return result, nil
}

// IsDerived reports whether key is <base>_<suffix> for a variant suffix and a
// base key present in input. Derived records are never augmented again.
func (a *Augmenter) IsDerived(key string, input types.Dataset) bool {
	for _, suffix := range a.suffixes {
		if base, ok := strings.CutSuffix(key, "_"+suffix); ok {
			if _, exists := input[base]; exists {
				return true
			}
		}
	}
	return false
}

// Pending returns the variants of key that the input dataset does not hold
// yet. Derived records have nothing pending.
func (a *Augmenter) Pending(key string, input types.Dataset) []Variant {
	if a.IsDerived(key, input) {
		return nil
	}
	var pending []Variant
	for _, v := range a.opts.Variants {
		if _, exists := input[DerivedKey(key, v.Suffix)]; !exists {
			pending = append(pending, v)
		}
	}
	return pending
}

func (a *Augmenter) extendRecord(key string, record types.Record, input types.Dataset) (recordOutput, error) {
	out := recordOutput{records: types.Dataset{}}

	pending := a.Pending(key, input)
	if len(pending) == 0 {
		a.logger.Debug("all variants present", "key", key)
		return out, nil
	}

	srcPath := filepath.Join(a.opts.ImagesDir, record.Filename)
	img, err := a.store.Load(srcPath)
	if err != nil {
		a.errorLog.Error("failed reading image", "key", key, "path", srcPath, "err", err)
		out.skipped = SourceError(key, srcPath, err)
		return out, nil
	}
	a.preview(record.Filename, img, record.Regions)

	for _, v := range pending {
		derived := v.Filter(img)
		regions := v.Regions(record.Regions, img.Bounds(), derived.Bounds())

		filename := DerivedFilename(record.Filename, v.Suffix)
		dstPath := filepath.Join(a.opts.ImagesDir, filename)
		n, err := a.store.Save(derived, dstPath)
		if err != nil {
			return out, &RecordError{
				Key:  DerivedKey(key, v.Suffix),
				Path: dstPath,
				Err:  fmt.Errorf("%w: %w", ErrImageWrite, err),
			}
		}

		size := record.Size
		if a.opts.RecomputeSize {
			size = n
		}
		out.records[DerivedKey(key, v.Suffix)] = types.Record{
			Filename:       filename,
			Size:           size,
			Regions:        regions,
			FileAttributes: record.FileAttributes,
		}
		out.written = append(out.written, dstPath)
		out.bytes += n

		a.logger.Info("image saved", "variant", v.Name, "path", dstPath, "size", humanize.Bytes(uint64(n)))
		a.preview(filename, derived, regions)
	}
	return out, nil
}

func (a *Augmenter) preview(name string, img image.Image, regions []types.Region) {
	if a.opts.Previewer == nil {
		return
	}
	if err := a.opts.Previewer.Preview(name, img, regions); err != nil {
		a.errorLog.Warn("preview failed", "name", name, "err", err)
	}
}
