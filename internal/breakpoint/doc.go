// Package breakpoint decides where a sequence of inter-sentence distances
// should be cut.
//
// Four rules are supported:
//
//   - percentile: cut where the distance exceeds the Amount-quantile of all
//     distances. With NumberOfChunks set the quantile is chosen so that
//     roughly that many chunks come out.
//   - standard_deviation: cut above mean + Amount*stddev.
//   - interquartile: cut above Q3 + Amount*IQR.
//   - gradient: cut at a local peak whose drop to the following value
//     exceeds Amount.
//
// A Strategy is plain configuration. Prepare runs it once against a
// distance slice and returns Breakpoints, which is read-only:
//
//	bp := breakpoint.Default(breakpoint.Percentile).Prepare(distances)
//	for i := 1; i < len(blocks); i++ {
//	    if bp.IsBreakpoint(i - 1) {
//	        // block i opens a new chunk
//	    }
//	}
//
// Index k always names distances[k], the distance between block k and
// block k+1.
package breakpoint
