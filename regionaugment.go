// Package regionaugment grows a polygon-annotated image dataset with
// flipped, filtered and rotated copies of every image, keeping the polygon
// annotations consistent with the pixels.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"log"
//
//		regionaugment "github.com/menta2k/region-augment"
//	)
//
//	func main() {
//		opts := regionaugment.DefaultOptions()
//		opts.Annotations = "dataset/"   // holds annotations.json
//		opts.ImagesDir = "dataset/images"
//
//		report, err := regionaugment.ExtendFile(context.Background(), opts)
//		if err != nil {
//			log.Fatal(err)
//		}
//		log.Printf("added %d records, wrote %s", len(report.Added), report.Output)
//	}
//
// The package wires together the components below:
//
// 1. Store (pkg/store): loads and atomically saves the annotation store
// 2. Augment (pkg/augment): derives the fixed variants and their annotations
// 3. Geometry (pkg/geometry): mirrors and rotates polygon vertices
// 4. Overlay (pkg/overlay): draws regions for previews and reviews
// 5. Review (pkg/review): asks a vision model to judge overlays
//
// Derived records are keyed <key>_<suffix> and their images are named
// <name>_<suffix>.<ext>. Running ExtendFile on its own output adds nothing.
package regionaugment

import (
	"context"
	"errors"
	"image"
	"image/color"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/menta2k/region-augment/internal/config"
	"github.com/menta2k/region-augment/internal/utils"
	"github.com/menta2k/region-augment/pkg/augment"
	"github.com/menta2k/region-augment/pkg/overlay"
	"github.com/menta2k/region-augment/pkg/processing"
	"github.com/menta2k/region-augment/pkg/store"
	"github.com/menta2k/region-augment/pkg/types"
)

// Version of the region augment library
const Version = "1.0.0"

// Options configures a run over one annotation store
type Options struct {
	// Annotations is the store file or a directory holding annotations.json.
	Annotations string
	// ImagesDir defaults to the directory of the store.
	ImagesDir string
	// Output defaults to new_annotations.json next to the store.
	Output string

	Variants      []string
	BlurSigma     float64
	Background    color.Color
	Workers       int
	RecomputeSize bool

	PreviewDir   string
	OverlayAlpha float64
	Seed         int64

	Processing processing.Options

	Logger      *log.Logger
	ErrorLogger *log.Logger
}

// DefaultOptions returns the options the default configuration describes
func DefaultOptions() Options {
	opts, _ := OptionsFromConfig(config.Default())
	return opts
}

// OptionsFromConfig translates a configuration into run options
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	bg, err := config.ParseColor(cfg.Augment.Background)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Annotations:   cfg.Dataset.Annotations,
		ImagesDir:     cfg.Dataset.ImagesDir,
		Output:        cfg.Dataset.Output,
		Variants:      cfg.Augment.Variants,
		BlurSigma:     cfg.Augment.BlurSigma,
		Background:    bg,
		Workers:       cfg.Augment.Workers,
		RecomputeSize: cfg.Augment.RecomputeSize,
		PreviewDir:    cfg.Output.PreviewDir,
		OverlayAlpha:  cfg.Output.OverlayAlpha,
		Seed:          cfg.Output.Seed,
		Processing: processing.Options{
			JPEGQuality:  cfg.Output.JPEGQuality,
			WebPQuality:  cfg.Output.WebPQuality,
			WebPLossless: cfg.Output.WebPLossless,
		},
	}, nil
}

// Report describes a finished ExtendFile run
type Report struct {
	*augment.Result
	// Input and Output are the store paths that were read and written.
	Input  string
	Output string
}

// ExtendFile loads the store, derives every missing variant and saves the
// extended store. Nothing is written to the store if the run fails.
func ExtendFile(ctx context.Context, opts Options) (*Report, error) {
	r, err := newRun(opts)
	if err != nil {
		return nil, err
	}

	variants, err := augment.SelectVariants(augment.DefaultVariants(r.opts.BlurSigma, r.opts.Background), r.opts.Variants)
	if err != nil {
		return nil, err
	}

	augOpts := augment.Options{
		ImagesDir:     r.opts.ImagesDir,
		Variants:      variants,
		Workers:       r.opts.Workers,
		RecomputeSize: r.opts.RecomputeSize,
		Logger:        r.logger,
		ErrorLogger:   r.errorLog,
	}
	if r.opts.PreviewDir != "" {
		augOpts.Previewer = overlay.NewDirPreviewer(r.opts.PreviewDir, r.opts.OverlayAlpha, r.opts.Seed, r.proc)
	}

	result, err := augment.New(r.proc, augOpts).Extend(ctx, r.dataset)
	if err != nil {
		return nil, err
	}

	if err := store.Save(r.output, result.Dataset); err != nil {
		return nil, err
	}
	r.logger.Info("annotations saved", "path", r.output, "records", len(result.Dataset))

	return &Report{Result: result, Input: r.input, Output: r.output}, nil
}

// PreviewResult lists the overlays PreviewFile wrote
type PreviewResult struct {
	Written []string
	Skipped []*augment.RecordError
}

// PreviewFile draws the regions of every record over its image and writes
// the overlays into opts.PreviewDir as PNG.
func PreviewFile(ctx context.Context, opts Options) (*PreviewResult, error) {
	if opts.PreviewDir == "" {
		return nil, errors.New("preview directory not set")
	}
	r, err := newRun(opts)
	if err != nil {
		return nil, err
	}

	previewer := overlay.NewDirPreviewer(r.opts.PreviewDir, r.opts.OverlayAlpha, r.opts.Seed, r.proc)
	res := &PreviewResult{}

	err = r.each(ctx, func(key string, record types.Record) error {
		img, skipped := r.load(key, record)
		if skipped != nil {
			res.Skipped = append(res.Skipped, skipped)
			return nil
		}
		if err := previewer.Preview(record.Filename, img, record.Regions); err != nil {
			return err
		}
		path := previewer.Path(record.Filename)
		r.logger.Info("preview saved", "key", key, "path", path)
		res.Written = append(res.Written, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

var errNotImage = errors.New("not an image file")

// run holds what every operation over a store needs
type run struct {
	opts     Options
	input    string
	output   string
	dataset  types.Dataset
	proc     *processing.Processor
	logger   *log.Logger
	errorLog *log.Logger
}

func newRun(opts Options) (*run, error) {
	input, err := store.ResolveAnnotationsPath(opts.Annotations)
	if err != nil {
		return nil, err
	}
	dataset, err := store.Load(input)
	if err != nil {
		return nil, err
	}

	if opts.ImagesDir == "" {
		opts.ImagesDir = filepath.Dir(input)
	}
	output := opts.Output
	if output == "" {
		output = store.DefaultOutputPath(input)
	}
	if opts.Background == nil {
		opts.Background = color.Black
	}
	if opts.BlurSigma <= 0 {
		opts.BlurSigma = processing.DefaultBlurSigma
	}
	if opts.OverlayAlpha <= 0 {
		opts.OverlayAlpha = overlay.DefaultAlpha
	}
	if opts.Processing == (processing.Options{}) {
		opts.Processing = processing.DefaultOptions()
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	errorLog := opts.ErrorLogger
	if errorLog == nil {
		errorLog = logger
	}

	logger.Debug("annotations loaded", "path", input, "records", len(dataset))
	return &run{
		opts:     opts,
		input:    input,
		output:   output,
		dataset:  dataset,
		proc:     processing.NewProcessorWithOptions(opts.Processing),
		logger:   logger,
		errorLog: errorLog,
	}, nil
}

// each visits the records in key order and stops on cancellation
func (r *run) each(ctx context.Context, fn func(key string, record types.Record) error) error {
	for _, key := range r.dataset.Keys() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(key, r.dataset[key]); err != nil {
			return err
		}
	}
	return nil
}

// load reads the source image of a record, logging failures
func (r *run) load(key string, record types.Record) (image.Image, *augment.RecordError) {
	path := filepath.Join(r.opts.ImagesDir, record.Filename)
	var (
		img image.Image
		err = errNotImage
	)
	if utils.IsImageFile(record.Filename) {
		img, err = r.proc.Load(path)
	}
	if err != nil {
		r.errorLog.Error("failed reading image", "key", key, "path", path, "err", err)
		return nil, augment.SourceError(key, path, err)
	}
	return img, nil
}
