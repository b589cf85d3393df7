// Package storage persists finished exports to durable storage and
// hands back a long-lived retrievable URL.
package storage

import "context"

// Store is the durable destination for a finished export file.
type Store interface {
	// Save persists the file at localPath under the export's id and
	// returns the URL the file can be fetched from.
	Save(ctx context.Context, localPath, exportID string) (string, error)
}
