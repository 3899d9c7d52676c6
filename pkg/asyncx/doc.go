// Package asyncx holds the small set of concurrency helpers shared by the
// broker, the worker pool and the predictors: futures, settled fan-out,
// deadlines, sleeping that honours cancellation and capped exponential
// backoff.
//
//	res := asyncx.AllSettled(ctx,
//	    func(ctx context.Context) (bool, error) { return ping(ctx) },
//	    func(ctx context.Context) (bool, error) { return probe(ctx) },
//	)
package asyncx
