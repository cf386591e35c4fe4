// Package gaze owns fixation and saccade segmentation of calibrated gaze
// samples.
//
// Responsibilities: planar and angular gaze velocity, run-length
// compression of per-sample labels, the dispersion-threshold (IDT)
// segmenter and the velocity-threshold (SMT) segmenter with peak
// validation.
// Key types: Sample, Fixation, Segmenter, Run.
//
// Dependency rule: this package performs no I/O, logging or plotting.
// Segmenters are pure functions of their inputs; diagnostics needed for
// visualisation are returned alongside the fixations.
package gaze
