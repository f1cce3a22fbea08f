// Package storage wraps the MinIO client used to read and write catalog files.
//
// The Client interface is the subset of minio.Client the application calls, so tests
// can replace it with the testify mock in core/storage/mocks. ReadJSON, WriteJSON and
// ListKeys are the helpers the library importer and exporter are built on.
//
// # Usage
//
//	client, err := storage.NewClient(cfg.Storage)
//	keys, err := storage.ListKeys(ctx, client, cfg.Storage.Bucket, "catalog/")
//	err = storage.ReadJSON(ctx, client, cfg.Storage.Bucket, keys[0], &catalog)
package storage
