// Package simprof provides a prometheus-backed implementation of
// simcore.Profiler. Each distinct label (spec §4's "Frame",
// "Phase:<name>", "RangeTask:<phase>:<index>", "Reduction:<phase>")
// becomes a histogram observation series, exposed both as a
// promhttp.Handler for scraping and as a text Summary table matching
// the shape of the reference implementation's profiler dump.
package simprof
