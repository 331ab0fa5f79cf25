// Package rules maps file extensions to category folders.
package rules

import (
	"path/filepath"
	"strings"

	"filenest/internal/errors"
	"filenest/pkg/types"
)

// DefaultCatchAll is the category used when none is configured.
const DefaultCatchAll = "Others"

// RuleSet is a read-only extension lookup table built from an ordered list of
// categories. When an extension appears in more than one category the first wins.
type RuleSet struct {
	categories []types.Category
	catchAll   string
	index      map[string]string
}

// New builds a RuleSet. Extensions are lowercased; an empty catchAll falls back to DefaultCatchAll.
func New(categories []types.Category, catchAll string) *RuleSet {
	if catchAll == "" {
		catchAll = DefaultCatchAll
	}
	rs := &RuleSet{
		categories: make([]types.Category, 0, len(categories)),
		catchAll:   catchAll,
		index:      make(map[string]string),
	}
	for _, c := range categories {
		exts := make([]string, 0, len(c.Extensions))
		for _, ext := range c.Extensions {
			ext = strings.ToLower(strings.TrimSpace(ext))
			exts = append(exts, ext)
			if _, taken := rs.index[ext]; !taken {
				rs.index[ext] = c.Name
			}
		}
		rs.categories = append(rs.categories, types.Category{Name: c.Name, Extensions: exts})
	}
	return rs
}

// Categorize returns the category folder for filename.
func (r *RuleSet) Categorize(filename string) string {
	if category, ok := r.index[Extension(filename)]; ok {
		return category
	}
	return r.catchAll
}

// Lookup returns the category configured for ext and whether one matched.
func (r *RuleSet) Lookup(ext string) (string, bool) {
	category, ok := r.index[strings.ToLower(ext)]
	return category, ok
}

// CatchAll returns the fallback category name.
func (r *RuleSet) CatchAll() string {
	return r.catchAll
}

// Categories returns a copy of the configured categories in order.
func (r *RuleSet) Categories() []types.Category {
	out := make([]types.Category, len(r.categories))
	for i, c := range r.categories {
		out[i] = types.Category{Name: c.Name, Extensions: append([]string(nil), c.Extensions...)}
	}
	return out
}

// Extension returns the lowercase final extension of name including the dot.
// Names without an extension, dotfiles such as ".bashrc", and names ending in
// a bare dot all yield "".
func Extension(name string) string {
	base := filepath.Base(name)
	trimmed := strings.TrimLeft(base, ".")
	ext := filepath.Ext(trimmed)
	if ext == "." {
		return ""
	}
	return strings.ToLower(ext)
}

// ValidateExtension checks that ext is "" or a dot followed by a name free of
// separators and whitespace.
func ValidateExtension(ext string) error {
	if ext == "" {
		return nil
	}
	if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
		return errors.NewRuleError("extension must start with a dot", ext, errors.InvalidRule, nil)
	}
	if strings.ContainsAny(ext, `/\ `+"\t\n") || strings.Contains(ext[1:], "..") {
		return errors.NewRuleError("extension contains invalid characters", ext, errors.InvalidRule, nil)
	}
	return nil
}

// ValidateCategoryName checks that name can be used as a single folder name.
func ValidateCategoryName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return errors.NewRuleError("category name is required", name, errors.InvalidRule, nil)
	case name == "." || name == "..":
		return errors.NewRuleError("category name cannot be a relative path element", name, errors.InvalidRule, nil)
	case strings.ContainsAny(name, `/\`):
		return errors.NewRuleError("category name cannot contain path separators", name, errors.InvalidRule, nil)
	}
	return nil
}
