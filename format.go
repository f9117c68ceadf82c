package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tonimelisma/putiodown/internal/walk"
)

// statusf prints a status message to stderr unless quiet mode is set.
func statusf(quiet bool, format string, args ...any) {
	if !quiet {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

// recordPath joins a record's folder path and name exactly as listed.
// filepath.Join would clean away remote names such as "." and "..".
func recordPath(rec walk.Record) string {
	return rec.Path + string(filepath.Separator) + rec.Name
}

// Size unit constants for human-readable formatting.
const (
	sizeKB = 1024
	sizeMB = 1024 * sizeKB
	sizeGB = 1024 * sizeMB
	sizeTB = 1024 * sizeGB
)

// formatSize returns a human-readable size string (e.g. "1.2 MB").
func formatSize(bytes int64) string {
	units := []struct {
		limit int64
		name  string
	}{
		{sizeTB, "TB"},
		{sizeGB, "GB"},
		{sizeMB, "MB"},
		{sizeKB, "KB"},
	}

	for _, u := range units {
		if bytes >= u.limit {
			return fmt.Sprintf("%.1f %s", float64(bytes)/float64(u.limit), u.name)
		}
	}

	return fmt.Sprintf("%d B", bytes)
}
