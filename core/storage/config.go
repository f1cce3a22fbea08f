package storage

// Config holds configuration for the object storage holding catalog files.
type Config struct {
	// Endpoint is the URL of the storage service.
	Endpoint string `mapstructure:"endpoint" default:"localhost:9000"`
	// AccessKey is the access key ID for authentication.
	AccessKey string `mapstructure:"access_key" default:"minioadmin"`
	// SecretKey is the secret access key for authentication.
	SecretKey string `mapstructure:"secret_key" default:"minioadmin"`
	// UseSSL indicates whether to use SSL/TLS for connections.
	UseSSL bool `mapstructure:"use_ssl" default:"false"`
	// Bucket holds the catalog imports and exports.
	Bucket string `mapstructure:"bucket" default:"library"`
	// Region is the location of the bucket (e.g., us-east-1).
	Region string `mapstructure:"region" default:""`
	// CatalogPrefix is the folder scanned for catalog files to import.
	CatalogPrefix string `mapstructure:"catalog_prefix" default:"catalog/"`
	// ExportPrefix is the folder catalog exports are written to.
	ExportPrefix string `mapstructure:"export_prefix" default:"exports/"`
	// TimeoutSeconds is the connection timeout in seconds.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
}
