package organize

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ReasonExists is the skip reason for a destination that is already taken.
const ReasonExists = "already exists"

const maxSuffix = 10000

// SuffixedName returns name with the counter n inserted before the final
// extension: "photo.jpg" becomes "photo (1).jpg". n == 0 returns name as is.
// Leading dots belong to the stem, so ".bashrc" becomes ".bashrc (1)".
func SuffixedName(name string, n int) string {
	if n == 0 {
		return name
	}
	ext := filepath.Ext(strings.TrimLeft(name, "."))
	stem := strings.TrimSuffix(name, ext)
	return fmt.Sprintf("%s (%d)%s", stem, n, ext)
}
