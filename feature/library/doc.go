// Package library is the book catalog served by the application. It is the main
// consumer of the entity mapper: every write maps a BookDTO graph onto the stored
// Book graph through a gorm unit of work, and every read maps entities back to DTOs.
//
// # Graph
//
//   - Book: the aggregate root, guarded by a concurrency token renewed on every save
//   - Author: referenced by books, kept when a book drops it
//   - Tag: shared between books, unlinked when a book drops it
//   - Review: owned by one book, deleted when the book drops it
//
// # HTTP Endpoints
//
//   - GET /books : Lists books.
//   - POST /books : Saves one book graph.
//   - POST /books/batch : Saves several book graphs in one transaction.
//   - POST /books/plan : Counts the changes a batch would make.
//   - GET /books/:id : Returns one book.
//   - POST /catalog/import : Imports catalog JSON objects from the bucket (supports ?dry_run=true).
//   - POST /catalog/export : Writes all books to the bucket.
//
// # Errors
//
// Stale or missing concurrency tokens answer 409. Policy violations, duplicated list
// items and unknown referenced ids answer 422. An unknown book answers 404.
package library
