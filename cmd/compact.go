package cmd

import (
	"fmt"
	"os"
)

// Compact compacts the certificate store to reclaim unused space
func Compact(env *Env) {
	store := env.OpenStore()
	defer store.Close()

	// Get file size before
	info, err := os.Stat(store.Path())
	if err != nil {
		HandleError(err)
	}
	sizeBefore := info.Size()

	if err := store.Compact(); err != nil {
		HandleError(err)
	}

	// Get file size after
	info, err = os.Stat(store.Path())
	if err != nil {
		HandleError(err)
	}
	sizeAfter := info.Size()

	fmt.Printf("Compacted: %s -> %s\n", formatSize(sizeBefore), formatSize(sizeAfter))
}

func formatSize(size int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case size >= GB:
		return fmt.Sprintf("%.1f GB", float64(size)/GB)
	case size >= MB:
		return fmt.Sprintf("%.1f MB", float64(size)/MB)
	case size >= KB:
		return fmt.Sprintf("%.1f KB", float64(size)/KB)
	default:
		return fmt.Sprintf("%d bytes", size)
	}
}
