package util

import (
	"os"
	"regexp"
	"strings"
)

// EnsureDir creates a directory if it doesn't exist
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

var (
	unsafeChars = regexp.MustCompile(`[<>:"/\\|?*\[\]]`)
	separators  = regexp.MustCompile(`[\s_]+`)
	dashes      = regexp.MustCompile(`-+`)
)

// Slug turns a title into a lower-case file name fragment of at most 80 chars
func Slug(title string) string {
	s := strings.ToLower(title)
	s = unsafeChars.ReplaceAllString(s, "")
	s = separators.ReplaceAllString(s, "-")
	s = dashes.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if r := []rune(s); len(r) > 80 {
		s = strings.TrimRight(string(r[:80]), "-")
	}
	return s
}
