// Package core converts between delimited text, GeoJSON and map points.
//
// The package has no UI, storage or transport dependencies. Every entry point
// is a pure function of its input: web handlers, the CLI and tests call it
// the same way.
//
// # Pipeline
//
// An import runs in three stages:
//
//  1. [ParseRows] splits delimited text into header-keyed rows, enforcing
//     [Limits] (file size is fatal, extra rows are truncated with a warning).
//  2. [CoordinatePatterns.Locate] picks the latitude and longitude columns by
//     case-insensitive substring match; the two picks are always distinct.
//  3. [RowsToPoints] builds a [PointRecord] per row. Unparsable or out of range
//     coordinates reject the row; a missing coordinate only skips it.
//
// [ImportFeatureCollection] is the GeoJSON counterpart; [Import] dispatches on
// [Format] and [DetectFormat] picks one from a filename or the content.
//
// # Results
//
// Every call returns an [ImportResult] instead of a Go error. Warnings are
// human-readable strings; Errors are [ErrorEntry] values carrying a kind, a
// stable code and the source line. [ImportResult.Failed] reports a file-level
// failure, in which case Data is empty. Panics inside the pipeline are
// recovered and reported as an INTERNAL entry.
//
// # Merging
//
// [Merge] combines an existing dataset with imported points:
//
//   - replace: the incoming points only
//   - merge: update matching ids field by field, append the rest
//   - append: every incoming point under a fresh id
//
// # Export
//
// [ExportDelimited] writes [StandardColumns] plus optional property columns;
// [ExportFeatureCollection] writes GeoJSON. Both round-trip through Import.
//
// # Error Handling
//
// [MapError] turns technical errors and pipeline entries into a [UserMessage]
// with an action and a support code (FILE, COORD, GEO, MRG, DB, IMP, RATE).
package core
