// Package poll waits for eventually-consistent resources to appear.
//
// A poll calls a lookup function repeatedly with a linearly growing delay
// between attempts until the lookup returns a value or the attempt budget
// is spent:
//
//	seq := poll.PollResource("video-123", store.GetResource)
//	v, ok, err := seq.Next(ctx)
//
// The first attempt runs immediately. Before attempt k+1 the poll waits
// initialDelay + (k-1)*delayIncrement. A lookup returning a nil pointer
// means "not yet". A lookup error ends the poll at once and is returned
// unchanged. Running out of attempts yields an error matching
// [ErrResourceNotFound], so callers can tell "still processing" apart from
// a failed lookup.
package poll
