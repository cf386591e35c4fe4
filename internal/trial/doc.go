// Package trial loads raw eye-tracker recordings and turns them into the
// sample sequences the segmenters consume.
//
// Responsibilities:
//   - Parse per-trial CSV exports (timestamp_us, x, y, validity).
//   - Drop invalid, blink and off-screen rows and rebase time to seconds
//     elapsed from the first kept row.
//   - Resolve a subject directory (trial order, timer flag, display title).
//
// Key types: RawSample, Report, Screen, Subject.
//
// Dependency rule: trial may import gaze, fsutil, security and monitoring.
// It must not import db, cache, api or plot.
package trial
