package config

import (
	"path/filepath"
	"time"

	"filenest/internal/rules"
	"filenest/pkg/types"
)

const (
	defaultDebounce      = 2 * time.Second
	defaultRetentionDays = 90
)

// DefaultCategories returns the stock category table.
func DefaultCategories() Categories {
	return Categories{
		{Name: "Images", Extensions: []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tiff", ".svg", ".webp"}},
		{Name: "Documents", Extensions: []string{".pdf", ".docx", ".doc", ".txt", ".rtf", ".odt", ".xls", ".xlsx", ".ppt", ".pptx"}},
		{Name: "Videos", Extensions: []string{".mp4", ".mkv", ".mov", ".avi", ".wmv", ".flv", ".webm", ".m4v"}},
		{Name: "Audio", Extensions: []string{".mp3", ".wav", ".flac", ".aac", ".ogg", ".wma", ".m4a"}},
		{Name: "Archives", Extensions: []string{".zip", ".rar", ".7z", ".tar", ".gz", ".bz2", ".xz"}},
		{Name: "Software", Extensions: []string{".exe", ".msi", ".dmg", ".pkg", ".deb", ".rpm", ".appimage"}},
		{Name: "Code", Extensions: []string{".py", ".js", ".html", ".css", ".java", ".cpp", ".c", ".h", ".php", ".rb", ".go", ".rs"}},
	}
}

// Default returns the default configuration with safe defaults.
func Default() *Config {
	skipHidden := true
	return &Config{
		TargetPath:        filepath.Join("~", "Downloads"),
		Categories:        DefaultCategories(),
		OthersFolder:      rules.DefaultCatchAll,
		DuplicateStrategy: types.StrategyRename,
		Workers:           1,
		SkipHidden:        &skipHidden,
		LogFile:           filepath.Join("~", ".config", "filenest", "log.txt"),
		HistoryDB:         filepath.Join("~", ".config", "filenest", "history.db"),
		RetentionDays:     defaultRetentionDays,
		Watch: Watch{
			Debounce: defaultDebounce.String(),
			Interval: "0",
		},
	}
}

// NewTestConfig returns a configuration rooted in dir for tests: small
// category table, logs and history inside dir/.filenest.
func NewTestConfig(dir string) *Config {
	cfg := Default()
	cfg.TargetPath = dir
	cfg.Categories = Categories{
		{Name: "Images", Extensions: []string{".jpg", ".png"}},
		{Name: "Documents", Extensions: []string{".pdf", ".txt"}},
		{Name: "Archives", Extensions: []string{".zip"}},
	}
	cfg.LogFile = filepath.Join(dir, ".filenest", "log.txt")
	cfg.HistoryDB = filepath.Join(dir, ".filenest", "history.db")
	cfg.path = filepath.Join(dir, ".filenest", "config.yaml")
	return cfg
}
