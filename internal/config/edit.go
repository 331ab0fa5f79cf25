package config

import (
	"fmt"
	"strings"

	"filenest/internal/errors"
	"filenest/internal/rules"
	"filenest/pkg/types"
)

// AddExtensions appends extensions to the named category, creating it at the
// end of the list if needed. An extension already owned by another category is
// rejected so lookups stay unambiguous.
func (c *Config) AddExtensions(category string, exts ...string) error {
	if err := rules.ValidateCategoryName(category); err != nil {
		return err
	}
	normalized := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = NormalizeExtension(ext)
		if err := rules.ValidateExtension(ext); err != nil {
			return err
		}
		for _, cat := range c.Categories {
			if cat.Name != category && cat.HasExtension(ext) {
				return errors.NewRuleError(fmt.Sprintf("extension %q already belongs to", ext), cat.Name, errors.InvalidRule, nil)
			}
		}
		normalized = append(normalized, ext)
	}

	idx := c.Categories.Find(category)
	if idx < 0 {
		c.Categories = append(c.Categories, types.Category{Name: category})
		idx = len(c.Categories) - 1
	}
	c.Categories[idx].Extensions = normalizeExtensions(append(c.Categories[idx].Extensions, normalized...))
	return nil
}

// RemoveExtensions drops extensions from a category. With no extensions the
// whole category is removed.
func (c *Config) RemoveExtensions(category string, exts ...string) error {
	idx := c.Categories.Find(category)
	if idx < 0 {
		return errors.NewRuleError("no such category", category, errors.InvalidRule, nil)
	}
	if len(exts) == 0 {
		c.Categories = append(c.Categories[:idx], c.Categories[idx+1:]...)
		return nil
	}

	drop := make(map[string]bool, len(exts))
	for _, ext := range exts {
		drop[NormalizeExtension(ext)] = true
	}
	kept := c.Categories[idx].Extensions[:0]
	for _, ext := range c.Categories[idx].Extensions {
		if !drop[ext] {
			kept = append(kept, ext)
		}
	}
	c.Categories[idx].Extensions = kept
	return nil
}

// SetCatchAll changes the catch-all folder name.
func (c *Config) SetCatchAll(name string) error {
	if err := rules.ValidateCategoryName(name); err != nil {
		return err
	}
	c.OthersFolder = name
	return nil
}

// SetStrategy changes the duplicate strategy.
func (c *Config) SetStrategy(value string) error {
	s, err := types.ParseDuplicateStrategy(value)
	if err != nil {
		return errors.NewConfigError("invalid duplicate strategy", "duplicate_strategy", errors.InvalidConfig, err)
	}
	c.DuplicateStrategy = s
	return nil
}

// SetMaxFileSize changes the size above which files are skipped. "0" removes
// the limit.
func (c *Config) SetMaxFileSize(value string) error {
	n, err := parseSize(value)
	if err != nil {
		return errors.NewConfigError("invalid size", "max_file_size", errors.InvalidConfig, err)
	}
	if n == 0 {
		c.MaxFileSize = ""
		return nil
	}
	c.MaxFileSize = strings.TrimSpace(value)
	return nil
}

// SetTarget changes the default target directory.
func (c *Config) SetTarget(path string) error {
	expanded, err := ExpandPath(path)
	if err != nil {
		return errors.NewConfigError("invalid path", "target_path", errors.InvalidConfig, err)
	}
	c.TargetPath = expanded
	return nil
}
