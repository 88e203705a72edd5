package storage

import "finn-scraper/models"

// TableWriter is the interface any storage backend must satisfy.
type TableWriter interface {
	Write(table *models.Table) error
	Close() error
}
