package compiler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	pkgerrors "github.com/pkg/errors"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/meza/i18n-typegen/internal/fileutils"
	"github.com/meza/i18n-typegen/internal/perf"
)

var errOverwritesInput = errors.New("output path is the input path")

// Result describes one written output.
type Result struct {
	Input  string
	Output string
	Bytes  int
}

type job struct {
	input     string
	output    string
	transform Transform
}

// Compile runs every processor over entry, which may be a file or a
// directory. Failing files do not stop the others: the written results are
// returned together with every *FileError joined. Results are sorted by
// input, then output path.
func Compile(ctx context.Context, fs afero.Fs, entry string, processors ...Processor) ([]Result, error) {
	ctx, span := perf.StartSpan(ctx, "compiler.compile",
		perf.WithAttributes(attribute.String("entry", entry), attribute.Int("processors", len(processors))),
	)
	defer span.End()

	jobs, err := plan(fs, entry, processors)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("files", len(jobs)))

	results, err := run(ctx, fs, jobs)
	span.SetAttributes(attribute.Int("written", len(results)), attribute.Bool("success", err == nil))
	return results, err
}

func plan(fs afero.Fs, entry string, processors []Processor) ([]job, error) {
	for index, processor := range processors {
		if processor.Transform == nil {
			return nil, &MissingTransformError{Processor: index}
		}
	}

	info, err := fs.Stat(entry)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "cannot read entry %s", entry)
	}

	root := entry
	if !info.IsDir() {
		root = filepath.Dir(entry)
	}

	var jobs []job
	for _, processor := range processors {
		inputs, err := discover(fs, entry, info.IsDir(), processor)
		if err != nil {
			return nil, err
		}

		outDir := processor.OutDir
		if outDir == "" {
			outDir = root
		}

		for _, input := range inputs {
			rel, err := filepath.Rel(root, input)
			if err != nil {
				return nil, pkgerrors.Wrapf(err, "cannot place %s under %s", input, root)
			}
			output := filepath.Join(outDir, filepath.Dir(rel), processor.rename(filepath.Base(rel)))
			jobs = append(jobs, job{input: input, output: output, transform: processor.Transform})
		}
	}

	return jobs, nil
}

func discover(fs afero.Fs, entry string, isDir bool, processor Processor) ([]string, error) {
	if !isDir {
		if processor.includes(entry, false) {
			return []string{entry}, nil
		}
		return nil, nil
	}

	var inputs []string
	walkErr := afero.Walk(fs, entry, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if path != entry && !processor.includes(path, true) {
				return filepath.SkipDir
			}
			return nil
		}
		if processor.includes(path, false) {
			inputs = append(inputs, path)
		}
		return nil
	})
	if walkErr != nil {
		return nil, pkgerrors.Wrapf(walkErr, "cannot list %s", entry)
	}

	return inputs, nil
}

func run(ctx context.Context, fs afero.Fs, jobs []job) ([]Result, error) {
	results := make([]Result, len(jobs))
	failures := make([]error, len(jobs))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(runtime.GOMAXPROCS(0))

	for index, current := range jobs {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			results[index], failures[index] = compileFile(groupCtx, fs, current)
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	written := make([]Result, 0, len(jobs))
	var errs []error
	for index := range jobs {
		if failures[index] != nil {
			errs = append(errs, failures[index])
			continue
		}
		written = append(written, results[index])
	}

	sort.SliceStable(written, func(i, j int) bool {
		if written[i].Input != written[j].Input {
			return written[i].Input < written[j].Input
		}
		return written[i].Output < written[j].Output
	})

	return written, errors.Join(errs...)
}

func compileFile(ctx context.Context, fs afero.Fs, current job) (Result, error) {
	_, span := perf.StartSpan(ctx, "compiler.file",
		perf.WithAttributes(attribute.String("input_path", current.input), attribute.String("output_path", current.output)),
	)
	defer span.End()

	result, err := transformFile(fs, current)
	span.SetAttributes(attribute.Bool("success", err == nil))
	if err != nil {
		span.RecordError(err)
		return Result{}, &FileError{Path: current.input, Err: err}
	}
	return result, nil
}

func transformFile(fs afero.Fs, current job) (Result, error) {
	if filepath.Clean(current.output) == filepath.Clean(current.input) {
		return Result{}, errOverwritesInput
	}

	content, err := afero.ReadFile(fs, current.input)
	if err != nil {
		return Result{}, pkgerrors.Wrap(err, "cannot read input")
	}

	out, err := current.transform(content)
	if err != nil {
		return Result{}, err
	}

	if err := fileutils.WriteFileAtomic(fs, current.output, out, fileutils.DefaultFileMode); err != nil {
		return Result{}, pkgerrors.Wrap(err, "cannot write output")
	}

	return Result{Input: current.input, Output: current.output, Bytes: len(out)}, nil
}
