package compiler

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"

	"github.com/meza/i18n-typegen/internal/perf"
)

const DefaultWatchInterval = 500 * time.Millisecond

// WatchOptions configures Watch. Without OnError the first failure ends the
// watch and is returned.
type WatchOptions struct {
	Interval time.Duration
	OnError  func(error)
	OnResult func([]Result)
}

type fileState struct {
	modTime time.Time
	size    int64
}

// Watch compiles entry once, then polls it and recompiles every input that
// appeared or changed since the previous poll. It returns nil once ctx is
// done.
func Watch(ctx context.Context, fs afero.Fs, entry string, opts WatchOptions, processors ...Processor) error {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultWatchInterval
	}

	limiter := rate.NewLimiter(rate.Every(interval), 1)
	limiter.Allow()

	jobs, err := plan(fs, entry, processors)
	if err != nil {
		return err
	}
	seen := snapshot(fs, jobs)

	results, runErr := run(ctx, fs, jobs)
	if err := report(opts, results, runErr); err != nil {
		return err
	}

	for {
		if err := wait(ctx, limiter); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		jobs, err := plan(fs, entry, processors)
		if err != nil {
			if reportErr := report(opts, nil, err); reportErr != nil {
				return reportErr
			}
			continue
		}

		current := snapshot(fs, jobs)
		changed := changedJobs(jobs, seen, current)
		seen = current
		if len(changed) == 0 {
			continue
		}

		_, span := perf.StartSpan(ctx, "compiler.watch.cycle", perf.WithAttributes(attribute.Int("files", len(changed))))
		results, runErr := run(ctx, fs, changed)
		span.End()

		if ctx.Err() != nil {
			return nil
		}
		if err := report(opts, results, runErr); err != nil {
			return err
		}
	}
}

func wait(ctx context.Context, limiter *rate.Limiter) error {
	_, span := perf.StartSpan(ctx, "compiler.watch.wait")
	defer span.End()
	return limiter.Wait(ctx)
}

func report(opts WatchOptions, results []Result, err error) error {
	if len(results) > 0 && opts.OnResult != nil {
		opts.OnResult(results)
	}
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	if opts.OnError == nil {
		return err
	}
	opts.OnError(err)
	return nil
}

func snapshot(fs afero.Fs, jobs []job) map[string]fileState {
	states := make(map[string]fileState, len(jobs))
	for _, current := range jobs {
		info, err := fs.Stat(current.input)
		if err != nil {
			continue
		}
		states[current.input] = fileState{modTime: info.ModTime(), size: info.Size()}
	}
	return states
}

func changedJobs(jobs []job, previous map[string]fileState, current map[string]fileState) []job {
	var changed []job
	for _, candidate := range jobs {
		now, ok := current[candidate.input]
		if !ok {
			continue
		}
		before, existed := previous[candidate.input]
		if existed && before.size == now.size && before.modTime.Equal(now.modTime) {
			continue
		}
		changed = append(changed, candidate)
	}
	return changed
}
