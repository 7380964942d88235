//go:build integration

package integration

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/cucumber/godog"

	"github.com/mentormind/mentormind-backend/internal/platform/database"
)

var stateErrors = map[string]error{
	"field not found": database.ErrFieldNotFound,
	"wrong type":      database.ErrFieldType,
	"unbound context": database.ErrUnboundContext,
}

// stateContext drives a ConnectionState in-process. Contexts are referred
// to by name in the feature files.
type stateContext struct {
	state    *database.ConnectionState
	contexts map[string]context.Context
	err      error
}

func newStateContext() *stateContext {
	return &stateContext{}
}

func (sc *stateContext) reset() {
	sc.state = nil
	sc.contexts = make(map[string]context.Context)
	sc.err = nil
}

func (sc *stateContext) register(ctx *godog.ScenarioContext) {
	ctx.Step(`^a connection state$`, sc.aConnectionState)
	ctx.Step(`^a connection state seeded with "([^"]*)" = "([^"]*)"$`, sc.aSeededConnectionState)
	ctx.Step(`^creating a connection state seeded with "([^"]*)" = "([^"]*)"$`, sc.creatingASeededConnectionState)
	ctx.Step(`^context "([^"]*)" is bound$`, sc.contextIsBound)
	ctx.Step(`^context "([^"]*)" is not bound$`, sc.contextIsNotBound)
	ctx.Step(`^context "([^"]*)" derives from "([^"]*)"$`, sc.contextDerivesFrom)
	ctx.Step(`^context "([^"]*)" sets "([^"]*)" to "([^"]*)"$`, sc.contextSets)
	ctx.Step(`^context "([^"]*)" is reset$`, sc.contextIsReset)
	ctx.Step(`^context "([^"]*)" replaces its state with an open connection$`, sc.contextReplacesWithOpen)
	ctx.Step(`^context "([^"]*)" should read "([^"]*)" as "([^"]*)"$`, sc.contextShouldRead)
	ctx.Step(`^reading "([^"]*)" in context "([^"]*)" should fail with "([^"]*)"$`, sc.readingShouldFail)
	ctx.Step(`^the last operation should fail with "([^"]*)"$`, sc.theLastOperationShouldFail)
	ctx.Step(`^the last operation should succeed$`, sc.theLastOperationShouldSucceed)
	ctx.Step(`^(\d+) bound contexts each set "([^"]*)" to their own number concurrently$`, sc.concurrentWrites)
}

// parseValue maps feature-file literals onto Go values: nil, booleans, and
// strings otherwise.
func parseValue(raw string) any {
	switch raw {
	case "nil":
		return nil
	case "true":
		return true
	case "false":
		return false
	}

	return raw
}

func formatValue(v any) string {
	if v == nil {
		return "nil"
	}

	return fmt.Sprint(v)
}

func (sc *stateContext) aConnectionState() error {
	sc.state = &database.ConnectionState{}

	return nil
}

func (sc *stateContext) aSeededConnectionState(name, value string) error {
	state, err := database.NewConnectionState(map[string]any{name: parseValue(value)})
	if err != nil {
		return err
	}

	sc.state = state

	return nil
}

func (sc *stateContext) creatingASeededConnectionState(name, value string) error {
	sc.state, sc.err = database.NewConnectionState(map[string]any{name: parseValue(value)})

	return nil
}

func (sc *stateContext) contextIsBound(name string) error {
	sc.contexts[name] = sc.state.Bind(context.Background())

	return nil
}

func (sc *stateContext) contextIsNotBound(name string) error {
	sc.contexts[name] = context.Background()

	return nil
}

func (sc *stateContext) contextDerivesFrom(child, parent string) error {
	ctx, err := sc.lookup(parent)
	if err != nil {
		return err
	}

	sc.contexts[child] = context.WithoutCancel(ctx)

	return nil
}

func (sc *stateContext) contextSets(name, field, value string) error {
	ctx, err := sc.lookup(name)
	if err != nil {
		return err
	}

	sc.err = sc.state.Set(ctx, field, parseValue(value))

	return nil
}

func (sc *stateContext) contextIsReset(name string) error {
	ctx, err := sc.lookup(name)
	if err != nil {
		return err
	}

	sc.err = sc.state.Reset(ctx)

	return nil
}

func (sc *stateContext) contextReplacesWithOpen(name string) error {
	ctx, err := sc.lookup(name)
	if err != nil {
		return err
	}

	closed := false
	sc.err = sc.state.Replace(ctx, database.State{Closed: &closed})

	return nil
}

func (sc *stateContext) contextShouldRead(name, field, want string) error {
	ctx, err := sc.lookup(name)
	if err != nil {
		return err
	}

	got, err := sc.state.Get(ctx, field)
	if err != nil {
		return fmt.Errorf("reading %q: %w", field, err)
	}

	if formatValue(got) != want {
		return fmt.Errorf("context %q: expected %s = %s, got %s", name, field, want, formatValue(got))
	}

	return nil
}

func (sc *stateContext) readingShouldFail(field, name, kind string) error {
	ctx, err := sc.lookup(name)
	if err != nil {
		return err
	}

	_, sc.err = sc.state.Get(ctx, field)

	return sc.theLastOperationShouldFail(kind)
}

func (sc *stateContext) theLastOperationShouldFail(kind string) error {
	want, ok := stateErrors[kind]
	if !ok {
		return fmt.Errorf("unknown error kind %q", kind)
	}

	if !errors.Is(sc.err, want) {
		return fmt.Errorf("expected %v, got %v", want, sc.err)
	}

	return nil
}

func (sc *stateContext) theLastOperationShouldSucceed() error {
	if sc.err != nil {
		return fmt.Errorf("expected success, got %w", sc.err)
	}

	return nil
}

// concurrentWrites binds n contexts, has each write and re-read its own
// value from its own goroutine, and fails if any goroutine observes
// another's write.
func (sc *stateContext) concurrentWrites(n int, field string) error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	for i := range n {
		wg.Go(func() {
			ctx := sc.state.Bind(context.Background())
			want := strconv.Itoa(i)

			for range 100 {
				if err := sc.state.Set(ctx, field, want); err != nil {
					mu.Lock()
					errs = append(errs, err)
					mu.Unlock()

					return
				}

				got, err := sc.state.Get(ctx, field)
				if err == nil && got != want {
					err = fmt.Errorf("context %d read %v", i, got)
				}

				if err != nil {
					mu.Lock()
					errs = append(errs, err)
					mu.Unlock()

					return
				}
			}
		})
	}

	wg.Wait()

	return errors.Join(errs...)
}

func (sc *stateContext) lookup(name string) (context.Context, error) {
	if sc.state == nil {
		return nil, fmt.Errorf("no connection state was created")
	}

	ctx, ok := sc.contexts[name]
	if !ok {
		return nil, fmt.Errorf("unknown context %q", name)
	}

	return ctx, nil
}
