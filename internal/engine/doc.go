// Package engine provides the import normalization core: turning raw
// rows of arbitrary shape into canonical application and interview
// records.
//
// This package is the heart of the importer, containing all domain
// logic independent of any transport or storage layer. It can be used
// by web handlers, CLI tools, or tests without modification.
//
// # Architecture
//
// The package is organized around a few key pieces:
//
//   - Cells: a closed tagged union ([Cell]) models untyped values at
//     the tokenizer boundary so coercion can match exhaustively.
//   - Coercion: [Coerce] converts cells to canonical typed values
//     (ISO timestamps, status tags, trimmed text). Coercion is total:
//     bad values degrade, they never error.
//   - Field resolution: [Resolver] maps arbitrary localized column
//     names ("Société", "entreprise", "COMPANY") onto canonical fields
//     through an ordered, immutable synonym table.
//   - Group detection: [GroupDetector] finds indexed column families
//     ("Date Entretien 1", "Date Entretien 2") and unnests them into
//     child interview records.
//   - Normalization: [Normalizer.NormalizeRow] is the per-row unit of
//     work, producing an explicit accept-or-reject [RowResult].
//   - Sessions: [Session] spans the preview/confirm/commit lifecycle
//     for one user-initiated import and enforces the single in-flight
//     commit invariant.
//
// # Error handling
//
// Cell-level problems are absorbed as degraded values and row-level
// problems as counted rejections. Only two conditions propagate: a
// dataset that normalizes to nothing ([ErrNoData]) and a failure from
// the persistence collaborator.
package engine
