package modsync

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// runEach calls work for every index and returns the outcomes in index order.
// With parallel above one, up to that many items run at once.
// When abort returns an error for an outcome, items that have not started are left out
// and the first such error is returned. A nil abort never stops the run.
func runEach(ctx context.Context, count int, parallel int, progress ProgressReporter, abort func(ItemOutcome) error, work func(context.Context, int) ItemOutcome) ([]ItemOutcome, error) {
	outcomes := make([]ItemOutcome, count)
	started := make([]bool, count)
	progress.Start(count)
	defer progress.Finish()

	check := func(outcome ItemOutcome) error {
		if abort == nil {
			return nil
		}
		return abort(outcome)
	}

	if parallel <= 1 {
		for index := 0; index < count; index++ {
			outcomes[index] = work(ctx, index)
			progress.Advance(outcomes[index].DisplayName())
			if err := check(outcomes[index]); err != nil {
				return outcomes[:index+1], err
			}
		}
		return outcomes, nil
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(parallel)
	for index := 0; index < count; index++ {
		group.Go(func() error {
			if abort != nil && groupCtx.Err() != nil {
				return nil
			}
			started[index] = true
			outcomes[index] = work(groupCtx, index)
			progress.Advance(outcomes[index].DisplayName())
			return check(outcomes[index])
		})
	}
	err := group.Wait()
	if err == nil {
		return outcomes, nil
	}

	ran := make([]ItemOutcome, 0, count)
	for index, outcome := range outcomes {
		if started[index] {
			ran = append(ran, outcome)
		}
	}
	return ran, err
}
