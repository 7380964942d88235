package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Scope runs fn in an isolated scope and cleans up after it.
// (*database.Database).Session is the scope used in production: every
// branch gets a connection of its own instead of sharing the request's.
// The caller must not hold a connection while the branches wait for theirs;
// request contexts bound with (*database.Database).BindLazy hold none until
// they query.
type Scope func(ctx context.Context, fn func(ctx context.Context) error) error

// Parallel executes fns concurrently, each inside scope, and returns on the
// first error. The remaining branches see their context canceled.
// A nil scope runs every branch directly on ctx, so branches must not
// query through a connection bound to ctx.
//
// Example:
//
//	counts, err := Parallel(ctx, db.Session,
//	    func(ctx context.Context) (int64, error) { return repo.CountBySubject(ctx, "Mathematics") },
//	    func(ctx context.Context) (int64, error) { return repo.CountBySubject(ctx, "Biology") },
//	)
func Parallel[T any](ctx context.Context, scope Scope, fns ...func(context.Context) (T, error)) ([]T, error) {
	g, ctx := errgroup.WithContext(ctx)
	results := make([]T, len(fns))

	for i, fn := range fns {
		g.Go(func() error {
			result, err := inScope(ctx, scope, fn)
			if err != nil {
				return err
			}

			results[i] = result

			return nil
		})
	}

	err := g.Wait()
	if err != nil {
		return nil, fmt.Errorf("parallel execution failed: %w", err)
	}

	return results, nil
}

// Parallel2 executes two functions concurrently, each inside scope, and
// returns both results or the first error.
func Parallel2[T1, T2 any](
	ctx context.Context,
	scope Scope,
	fn1 func(context.Context) (T1, error),
	fn2 func(context.Context) (T2, error),
) (result1 T1, result2 T2, err error) {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var fnErr error

		result1, fnErr = inScope(ctx, scope, fn1)

		return fnErr
	})

	g.Go(func() error {
		var fnErr error

		result2, fnErr = inScope(ctx, scope, fn2)

		return fnErr
	})

	err = g.Wait()
	if err != nil {
		var (
			zero1 T1
			zero2 T2
		)

		return zero1, zero2, fmt.Errorf("parallel execution failed: %w", err)
	}

	return result1, result2, nil
}

func inScope[T any](ctx context.Context, scope Scope, fn func(context.Context) (T, error)) (T, error) {
	if scope == nil {
		return fn(ctx)
	}

	var result T

	err := scope(ctx, func(ctx context.Context) error {
		var err error

		result, err = fn(ctx)

		return err
	})

	return result, err
}
