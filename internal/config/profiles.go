package config

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"filenest/internal/errors"
)

// DefaultProfile names the stock category table.
const DefaultProfile = "default"

// Profile is a preset rule set for one kind of user.
type Profile struct {
	Name        string
	Description string
	TargetPath  string // Suggested directory, "~" relative
	Categories  Categories
	Exclude     []string
}

func builtinProfiles() []Profile {
	return []Profile{
		{
			Name:        DefaultProfile,
			Description: "General purpose categories for a downloads folder",
			TargetPath:  filepath.Join("~", "Downloads"),
			Categories:  DefaultCategories(),
		},
		{
			Name:        "photographer",
			Description: "Camera raw files apart from JPEG and PNG/TIFF exports",
			TargetPath:  filepath.Join("~", "Pictures"),
			Categories: Categories{
				{Name: "RAW", Extensions: []string{".raw", ".cr2", ".nef", ".arw", ".dng", ".raf", ".orf", ".rw2"}},
				{Name: "JPEG", Extensions: []string{".jpg", ".jpeg"}},
				{Name: "PNG_TIFF", Extensions: []string{".png", ".tiff", ".tif"}},
				{Name: "Videos", Extensions: []string{".mp4", ".mov", ".avi", ".mkv"}},
			},
		},
		{
			Name:        "developer",
			Description: "Source, web and config files, docs, archives and installers",
			TargetPath:  filepath.Join("~", "Downloads"),
			Categories: Categories{
				{Name: "Python", Extensions: []string{".py", ".pyx", ".pyw", ".pyi"}},
				{Name: "Web", Extensions: []string{".html", ".css", ".js", ".ts", ".jsx", ".tsx", ".vue", ".scss", ".sass"}},
				{Name: "Config", Extensions: []string{".json", ".yml", ".yaml", ".toml", ".ini", ".cfg", ".conf"}},
				{Name: "Docs", Extensions: []string{".md", ".rst", ".txt", ".doc", ".docx", ".pdf"}},
				{Name: "Archives", Extensions: []string{".zip", ".tar", ".gz", ".bz2", ".7z"}},
				{Name: "Executables", Extensions: []string{".exe", ".msi", ".app", ".deb", ".rpm"}},
			},
			Exclude: []string{".git", ".vscode", "__pycache__", "node_modules", "*.pyc"},
		},
		{
			Name:        "student",
			Description: "Textbooks, assignments, spreadsheets and slides",
			TargetPath:  filepath.Join("~", "Documents"),
			Categories: Categories{
				{Name: "Textbooks", Extensions: []string{".pdf", ".epub"}},
				{Name: "Assignments", Extensions: []string{".doc", ".docx", ".txt", ".rtf"}},
				{Name: "Spreadsheets", Extensions: []string{".xls", ".xlsx", ".csv"}},
				{Name: "Presentations", Extensions: []string{".ppt", ".pptx"}},
				{Name: "Images", Extensions: []string{".jpg", ".png", ".gif", ".bmp"}},
				{Name: "Archives", Extensions: []string{".zip", ".rar", ".7z"}},
			},
		},
		{
			Name:        "business",
			Description: "Legal documents, financial data, slides and marketing assets",
			TargetPath:  filepath.Join("~", "Documents", "Business"),
			Categories: Categories{
				{Name: "Legal_Documents", Extensions: []string{".pdf", ".doc", ".docx"}},
				{Name: "Financial_Data", Extensions: []string{".xls", ".xlsx", ".csv"}},
				{Name: "Presentations", Extensions: []string{".ppt", ".pptx"}},
				{Name: "Marketing_Assets", Extensions: []string{".jpg", ".png", ".gif"}},
				{Name: "Archives", Extensions: []string{".zip", ".rar"}},
			},
		},
	}
}

// Profiles returns the preset profiles, default first.
func Profiles() []Profile {
	return builtinProfiles()
}

// ProfileNames returns the preset names in order.
func ProfileNames() []string {
	profiles := builtinProfiles()
	names := make([]string, len(profiles))
	for i, p := range profiles {
		names[i] = p.Name
	}
	return names
}

// LookupProfile finds a preset by name, ignoring case.
func LookupProfile(name string) (Profile, error) {
	for _, p := range builtinProfiles() {
		if strings.EqualFold(p.Name, strings.TrimSpace(name)) {
			return p, nil
		}
	}
	return Profile{}, errors.NewConfigError("unknown profile", "profile", errors.InvalidConfig,
		fmt.Errorf("%q is not one of %s", name, strings.Join(ProfileNames(), ", ")))
}

// ForProfile returns the default configuration with the named preset's
// categories, target directory and exclusions.
func ForProfile(name string) (*Config, error) {
	p, err := LookupProfile(name)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	cfg.TargetPath = p.TargetPath
	cfg.Categories = p.Categories
	cfg.Exclude = append([]string(nil), p.Exclude...)
	cfg.Profile = p.Name
	return cfg, nil
}

// ApplyProfile replaces the categories with the named preset's and adds its
// exclusions. The target directory and other settings are kept.
func (c *Config) ApplyProfile(name string) error {
	p, err := LookupProfile(name)
	if err != nil {
		return err
	}
	c.Categories = p.Categories
	for _, pattern := range p.Exclude {
		if !slices.Contains(c.Exclude, pattern) {
			c.Exclude = append(c.Exclude, pattern)
		}
	}
	c.Profile = p.Name
	return nil
}
