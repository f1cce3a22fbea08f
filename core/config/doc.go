// Package config loads the application configuration.
//
// Values come from the environment, optionally seeded from a .env file, with defaults
// taken from the `default` struct tags of each section.
//
// # Configuration Structure
//
//   - Server: HTTP port, API key, body limit
//   - Database: driver (mysql or sqlite) and connection details
//   - Storage: S3/MinIO credentials, bucket and catalog folders
//   - Log: logging level and format
//   - Mapping: mapper defaults (identity and token field names, removal policy)
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Mapping.DeleteOnRemoved)
package config
