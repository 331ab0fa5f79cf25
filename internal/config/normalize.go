package config

import (
	"strings"

	"filenest/internal/errors"
	"filenest/pkg/types"
)

// normalize fills unset fields from Default and expands paths.
func (c *Config) normalize() error {
	def := Default()

	if strings.TrimSpace(c.TargetPath) == "" {
		c.TargetPath = def.TargetPath
	}
	if c.Categories == nil {
		c.Categories = def.Categories
	}
	if strings.TrimSpace(c.OthersFolder) == "" {
		c.OthersFolder = def.OthersFolder
	}
	if c.DuplicateStrategy == "" {
		c.DuplicateStrategy = def.DuplicateStrategy
	} else {
		c.DuplicateStrategy = types.DuplicateStrategy(strings.ToLower(strings.TrimSpace(string(c.DuplicateStrategy))))
	}
	if c.Workers == 0 {
		c.Workers = def.Workers
	}
	if c.SkipHidden == nil {
		c.SkipHidden = def.SkipHidden
	}
	if strings.TrimSpace(c.LogFile) == "" {
		c.LogFile = def.LogFile
	}
	if strings.TrimSpace(c.HistoryDB) == "" {
		c.HistoryDB = def.HistoryDB
	}
	if c.RetentionDays == 0 {
		c.RetentionDays = def.RetentionDays
	}
	if strings.TrimSpace(c.Watch.Debounce) == "" {
		c.Watch.Debounce = def.Watch.Debounce
	}
	if strings.TrimSpace(c.Watch.Interval) == "" {
		c.Watch.Interval = def.Watch.Interval
	}
	c.MaxFileSize = strings.TrimSpace(c.MaxFileSize)
	c.Profile = strings.TrimSpace(c.Profile)

	for i := range c.Categories {
		c.Categories[i].Name = strings.TrimSpace(c.Categories[i].Name)
		c.Categories[i].Extensions = normalizeExtensions(c.Categories[i].Extensions)
	}

	var err error
	if c.TargetPath, err = ExpandPath(c.TargetPath); err != nil {
		return errors.NewConfigError("invalid path", "target_path", errors.InvalidConfig, err)
	}
	if c.LogFile, err = ExpandPath(c.LogFile); err != nil {
		return errors.NewConfigError("invalid path", "log_file", errors.InvalidConfig, err)
	}
	if c.HistoryDB, err = ExpandPath(c.HistoryDB); err != nil {
		return errors.NewConfigError("invalid path", "history_db", errors.InvalidConfig, err)
	}
	return nil
}

// NormalizeExtension lowercases ext and adds a missing leading dot.
// The empty string stays empty so it can match files without an extension.
func NormalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" || strings.HasPrefix(ext, ".") {
		return ext
	}
	return "." + ext
}

func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	seen := make(map[string]bool, len(exts))
	for _, ext := range exts {
		ext = NormalizeExtension(ext)
		if seen[ext] {
			continue
		}
		seen[ext] = true
		out = append(out, ext)
	}
	return out
}
