package runtime

import "context"

// SafeGo runs fn in a new goroutine that recovers panics according to policy.
func SafeGo(logger Logger, name string, policy PanicPolicy, fn func()) {
	go func() {
		defer recoverWithPolicy(context.Background(), logger, "", name, policy)

		fn()
	}()
}

// SafeGoWithContextAndComponent runs fn(ctx) in a new goroutine with full
// panic observability labelled by component and name.
func SafeGoWithContextAndComponent(ctx context.Context, logger Logger, component, name string, policy PanicPolicy, fn func(context.Context)) {
	if ctx == nil {
		ctx = context.Background()
	}

	go func() {
		defer recoverWithPolicy(ctx, logger, component, name, policy)

		fn(ctx)
	}()
}

// recoverWithPolicy must be deferred directly so recover sees the panic.
func recoverWithPolicy(ctx context.Context, logger Logger, component, name string, policy PanicPolicy) {
	r := recover()
	if r == nil {
		return
	}

	HandlePanicValue(ctx, logger, r, component, name)

	if policy == CrashProcess {
		panic(r)
	}
}
