package types

// Category defines a named bucket of file extensions.
// Files whose extension appears in Extensions are moved into a subfolder named Name.
type Category struct {
	Name       string   `yaml:"name" toml:"name" json:"name"`                   // Destination subfolder name (e.g., "Images").
	Extensions []string `yaml:"extensions" toml:"extensions" json:"extensions"` // Lowercase extensions including the leading dot (e.g., ".jpg"). "" matches files without an extension.
}

// HasExtension reports whether ext is listed in the category.
func (c Category) HasExtension(ext string) bool {
	for _, e := range c.Extensions {
		if e == ext {
			return true
		}
	}
	return false
}
