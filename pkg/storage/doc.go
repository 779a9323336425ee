// Package storage defines the persistence interfaces for the sanitation
// registry and provides the in-memory backend, the read-through cache
// decorator, and blob storage for uploaded photos. The SurrealDB document
// store backend lives in the surreal subpackage.
//
// Consistency is delegated to the backing document store: each write is
// atomic per document, and uniqueness constraints (user email, village
// name+district) are enforced by the store itself, never by an
// application-level lock. A losing concurrent writer receives ErrDuplicate.
package storage
