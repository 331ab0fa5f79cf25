package config

import (
	"fmt"

	"filenest/internal/errors"
	"filenest/internal/rules"
)

// Validate checks that the configuration can drive an organizer run.
// Returns a ConfigError naming the offending setting.
func (c *Config) Validate() error {
	if c == nil {
		return errors.NewConfigError("nil config", "", errors.InvalidConfig, nil)
	}
	if !c.DuplicateStrategy.Valid() {
		return errors.NewConfigError("invalid duplicate strategy", "duplicate_strategy", errors.InvalidConfig,
			fmt.Errorf("%q is not one of rename, skip, overwrite", c.DuplicateStrategy))
	}
	if err := rules.ValidateCategoryName(c.OthersFolder); err != nil {
		return errors.NewConfigError("invalid catch-all folder", "others_folder", errors.InvalidConfig, err)
	}
	if c.Workers < 1 {
		return errors.NewConfigError("workers must be >= 1", "workers", errors.InvalidConfig, nil)
	}
	if c.RetentionDays < 0 {
		return errors.NewConfigError("retention days must be >= 0", "retention_days", errors.InvalidConfig, nil)
	}

	seen := make(map[string]bool, len(c.Categories))
	for i, cat := range c.Categories {
		param := fmt.Sprintf("categories[%d]", i)
		if err := rules.ValidateCategoryName(cat.Name); err != nil {
			return errors.NewConfigError("invalid category", param, errors.InvalidConfig, err)
		}
		if seen[cat.Name] {
			return errors.NewConfigError("duplicate category", param, errors.InvalidConfig,
				fmt.Errorf("%q is listed twice", cat.Name))
		}
		seen[cat.Name] = true
		for _, ext := range cat.Extensions {
			if err := rules.ValidateExtension(ext); err != nil {
				return errors.NewConfigError("invalid extension", param, errors.InvalidConfig, err)
			}
		}
	}

	if _, err := rules.NewExclusions(c.Exclude); err != nil {
		return errors.NewConfigError("invalid exclude pattern", "exclude", errors.InvalidConfig, err)
	}
	if _, err := parseSize(c.MaxFileSize); err != nil {
		return errors.NewConfigError("invalid size", "max_file_size", errors.InvalidConfig, err)
	}
	if _, err := parseDuration(c.Watch.Debounce); err != nil {
		return errors.NewConfigError("invalid duration", "watch.debounce", errors.InvalidConfig, err)
	}
	if _, err := parseDuration(c.Watch.Interval); err != nil {
		return errors.NewConfigError("invalid duration", "watch.interval", errors.InvalidConfig, err)
	}
	return nil
}
