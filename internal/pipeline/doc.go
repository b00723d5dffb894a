// Package pipeline runs the capture loop: frames from a Source go through a
// detection.Detector and, when a document is found, through rectify.Rectify.
//
// # Scheduling
//
// A producer goroutine reads the source and hands frames to a single worker
// over a bounded queue (Config.QueueSize, default 1). With DropLateFrames set,
// frames that arrive while the queue is full are discarded, so the worker
// always sees a recent frame instead of a growing backlog. The worker can be
// throttled with Config.MaxFPS. Both goroutines share an errgroup context and
// stop together.
//
// # Results
//
// Every processed frame yields a Result on the output channel. Detection and
// rectification failures are recorded on the Result; the loop keeps going.
// Only source errors and cancellation end a run.
//
// # Sources
//
//   - SliceSource: frames already in memory.
//   - ChanSource: frames pushed by a capture callback.
//   - DirSource: an image sequence on disk, optionally paced.
package pipeline
