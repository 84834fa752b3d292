// Package analysis provides post-processing for recorded run series.
//
//   - [FFT], [PowerSpectrum]: radix-2 spectrum of a series
//   - [DominantFrequency]: strongest non-DC frequency of a sampled series
//   - [NewPhasePortrait], [PhasePortraitToASCII]: one series against another
//
// # Natural frequency
//
// The first axial mode of a vibrating bar shows up as the dominant frequency
// of its centroid series:
//
//	f, err := analysis.DominantFrequency(series["centroid_x:bar"], dt)
package analysis
