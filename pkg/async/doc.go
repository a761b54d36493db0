// Package async runs background work with panic recovery, timeouts and
// error collection.
//
// SafeGo runs one task in its own goroutine:
//
//	async.SafeGo(ctx, 5*time.Second, "import widgets/button", func(ctx context.Context) error {
//		return resolve(ctx)
//	})
//
// Batch fans a slice out to a bounded worker pool and returns every error:
//
//	errs := async.Batch(ctx, entries, 4, "compile", time.Minute, func(ctx context.Context, entry string) error {
//		return compile(ctx, entry)
//	})
//
// Failures and recovered panics are logged through the logger installed
// with SetLogger.
package async
