package parquetquery

import "fmt"

// Cache keys MUST include the row-group ordinal: keying only by column
// path would collide across row groups that happen to share a column
// layout (see the cachekeys.go entry in DESIGN.md). readerID namespaces keys
// across distinct Readers.
func offsetIndexKey(readerID string, rowGroup int, path string) string {
	return fmt.Sprintf("o|%s|%d|%s", readerID, rowGroup, path)
}

func columnIndexKey(readerID string, rowGroup int, path string) string {
	return fmt.Sprintf("c|%s|%d|%s", readerID, rowGroup, path)
}

func pageKey(readerID string, rowGroup int, path string, pageNo int) string {
	return fmt.Sprintf("p|%s|%d|%s|%d", readerID, rowGroup, path, pageNo)
}
