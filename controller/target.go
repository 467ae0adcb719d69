package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"md5brute/internal/bruteforce"
)

// loadTargetHash finds username in a file of "user:digest" lines. Blank lines
// and lines starting with '#' are skipped.
func loadTargetHash(path, username string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("cannot open hash file: %w", err)
	}
	prefix := username + ":"
	for _, line := range strings.Split(string(b), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, prefix) {
			parts := strings.Split(line, ":")
			if len(parts) < 2 || parts[1] == "" {
				return "", fmt.Errorf("malformed hash entry for %q", username)
			}
			return parts[1], nil
		}
	}
	return "", fmt.Errorf("username not in hash file")
}

// resolveTarget picks the digest from --hash or the hash file and applies the
// strictness policy. Without strict mode an unmatchable target is only
// reported, and the search runs to exhaustion.
func resolveTarget(opts options, strict bool, logger *slog.Logger) (string, error) {
	target := opts.hash
	if target == "" {
		var err error
		if target, err = loadTargetHash(opts.hashFile, opts.username); err != nil {
			return "", err
		}
	}
	if err := bruteforce.ValidateTarget(target); err != nil {
		if strict {
			return "", err
		}
		logger.Warn("target can never match, search will run to exhaustion", slog.Any("reason", err))
	}
	return target, nil
}
