// Package journal provides the core domain types for inkwell.
//
// This package contains type definitions only. All other internal packages
// import journal; journal imports nothing internal. This keeps the domain
// model the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Timestamps are Unix epoch milliseconds (int64) supplied by the caller
//   - Entry content is an opaque Document; the core never interprets it
//   - All JSON tags use snake_case
//   - Stored JSON that fails to parse decodes to the zero value, not an error
package journal
