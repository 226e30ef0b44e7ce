// Package parquetquery implements the query-planning and row-range
// streaming core of a predicate pushdown engine for columnar, Parquet-like
// files.
//
// The package turns a declarative filter specification into the minimum set
// of column pages that must be read: row-group statistics prune whole row
// groups, page (column) indices prune individual pages, and only the
// surviving pages are ever read and scanned row by row. It does not parse
// the on-disk binary format, decode compressed column chunks, or handle
// schema resolution — those concerns belong to the Reader implementation
// supplied by the caller (see Reader).
package parquetquery
