// Package stats provides the small set of descriptive statistics used to
// place segment boundaries: mean, population standard deviation, R-7
// quantiles, interquartile range and first differences.
//
// Every function is total. Empty or degenerate input yields 0 (or an empty
// slice) rather than an error or NaN, so callers can feed the output of one
// function into another without guarding.
package stats
