// Package confedit applies idempotent text edits to configuration files.
//
// Every mutation follows the same discipline: read the whole file, transform
// it, and write it back only when the bytes actually changed. Combined with
// delete-then-append semantics for managed lines and blocks, re-running any
// edit leaves the file byte-identical, so the provisioner can run repeatedly
// without duplicating directives.
//
// Before the first mutation of a file, BackupOnce copies it to <path>.backup.
// The backup is created only once and never overwritten, so it always holds
// the pristine pre-provisioning content that RestoreBackup can bring back.
package confedit

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// BackupSuffix is appended to a file path to form its backup copy.
const BackupSuffix = ".backup"

// BackupOnce copies path to path+".backup" unless the backup already exists.
// It returns true when a new backup was created. The original file mode is
// preserved on the copy.
func BackupOnce(path string) (bool, error) {
	backup := path + BackupSuffix
	if _, err := os.Stat(backup); err == nil {
		return false, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := os.WriteFile(backup, data, info.Mode()); err != nil {
		return false, fmt.Errorf("failed to write backup %s: %w", backup, err)
	}
	return true, nil
}

// HasBackup reports whether a backup copy exists for path.
func HasBackup(path string) bool {
	_, err := os.Stat(path + BackupSuffix)
	return err == nil
}

// RestoreBackup copies path+".backup" back over path. The backup is kept so
// restore can be repeated.
func RestoreBackup(path string) error {
	backup := path + BackupSuffix
	info, err := os.Stat(backup)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("no backup found for %s", path)
		}
		return fmt.Errorf("failed to stat backup %s: %w", backup, err)
	}

	data, err := os.ReadFile(backup)
	if err != nil {
		return fmt.Errorf("failed to read backup %s: %w", backup, err)
	}

	if err := os.WriteFile(path, data, info.Mode()); err != nil {
		return fmt.Errorf("failed to restore %s: %w", path, err)
	}
	return nil
}

// ReplaceLine replaces every line matching pattern with replacement.
// The pattern is matched against the full line. Returns true when the file
// content changed; a file where every matching line already equals the
// replacement is left untouched.
func ReplaceLine(path, pattern, replacement string) (bool, error) {
	re, err := regexp.Compile("^(?:" + pattern + ")$")
	if err != nil {
		return false, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	return transform(path, func(lines []string) []string {
		out := make([]string, len(lines))
		for i, line := range lines {
			if re.MatchString(line) {
				out[i] = replacement
			} else {
				out[i] = line
			}
		}
		return out
	})
}

// ReplaceLineWithin is ReplaceLine scoped to sections delimited by lines
// matching begin and end. All three patterns are matched against full lines;
// lines outside every section are never touched.
func ReplaceLineWithin(path, begin, end, pattern, replacement string) (bool, error) {
	beginRe, err := regexp.Compile("^(?:" + begin + ")$")
	if err != nil {
		return false, fmt.Errorf("invalid begin pattern %q: %w", begin, err)
	}
	endRe, err := regexp.Compile("^(?:" + end + ")$")
	if err != nil {
		return false, fmt.Errorf("invalid end pattern %q: %w", end, err)
	}
	re, err := regexp.Compile("^(?:" + pattern + ")$")
	if err != nil {
		return false, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	return transform(path, func(lines []string) []string {
		out := make([]string, len(lines))
		inSection := false
		for i, line := range lines {
			switch {
			case !inSection && beginRe.MatchString(line):
				inSection = true
			case inSection && endRe.MatchString(line):
				inSection = false
			case inSection && re.MatchString(line):
				out[i] = replacement
				continue
			}
			out[i] = line
		}
		return out
	})
}

// Uncomment strips the leading '#' (plus any following space) from lines whose
// commented-out content matches pattern. Lines already active are left alone,
// which makes the operation idempotent.
func Uncomment(path, pattern string) (bool, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	return transform(path, func(lines []string) []string {
		out := make([]string, len(lines))
		for i, line := range lines {
			trimmed := strings.TrimLeft(line, "#")
			trimmed = strings.TrimPrefix(trimmed, " ")
			if strings.HasPrefix(line, "#") && re.MatchString(trimmed) {
				out[i] = trimmed
			} else {
				out[i] = line
			}
		}
		return out
	})
}

// EnsureLine guarantees that exactly one line matching marker exists: every
// matching line is deleted and the given line is appended. The marker pattern
// must match the line itself, otherwise each run appends another copy.
func EnsureLine(path, marker, line string) (bool, error) {
	re, err := regexp.Compile(marker)
	if err != nil {
		return false, fmt.Errorf("invalid marker %q: %w", marker, err)
	}
	if !re.MatchString(line) {
		return false, fmt.Errorf("marker %q does not match the managed line %q", marker, line)
	}

	return transform(path, func(lines []string) []string {
		out := make([]string, 0, len(lines)+1)
		for _, l := range lines {
			if !re.MatchString(l) {
				out = append(out, l)
			}
		}
		return append(out, line)
	})
}

// EnsureBlock guarantees a managed block delimited by beginMark and endMark
// lines: any existing block (inclusive) is removed and the block is appended.
// The marks are compared literally, line for line.
func EnsureBlock(path, beginMark, endMark, body string) (bool, error) {
	block := []string{beginMark}
	if body != "" {
		block = append(block, strings.Split(strings.TrimRight(body, "\n"), "\n")...)
	}
	block = append(block, endMark)

	return transform(path, func(lines []string) []string {
		out := make([]string, 0, len(lines)+len(block))
		inBlock := false
		for _, l := range lines {
			switch {
			case !inBlock && l == beginMark:
				inBlock = true
			case inBlock && l == endMark:
				inBlock = false
			case !inBlock:
				out = append(out, l)
			}
		}
		return append(out, block...)
	})
}

// Contains reports whether any line in the file matches pattern.
func Contains(path, pattern string) (bool, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}

	for _, line := range strings.Split(string(data), "\n") {
		if re.MatchString(line) {
			return true, nil
		}
	}
	return false, nil
}

// transform reads path, applies fn to its lines, and writes the result back
// only if the content changed. The trailing newline is normalized: managed
// files always end with exactly one.
func transform(path string, fn func([]string) []string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}

	original := string(data)
	lines := strings.Split(strings.TrimRight(original, "\n"), "\n")
	result := strings.Join(fn(lines), "\n") + "\n"

	if result == original {
		return false, nil
	}

	if err := os.WriteFile(path, []byte(result), info.Mode()); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return true, nil
}
