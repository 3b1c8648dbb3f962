// Package chunker splits résumé text into bounded, contiguous fragments.
//
// Text is first cut on structural boundaries (blank lines, heading-like
// lines, bullet groups). Blocks longer than the configured maximum are
// split on sentence boundaries, and small neighbouring blocks of the same
// section are merged back together while they fit. Every chunk is a
// trimmed, contiguous slice of the (newline-normalized) input, in source
// order.
//
// Section labels are assigned with keyword heuristics and are advisory.
package chunker
