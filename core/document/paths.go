package document

import (
	"path/filepath"
	"regexp"
	"strings"
)

var (
	wordExtensions     = []string{".doc", ".docx"}
	wordContentMarkers = []string{"word", "document", "msword"}

	// only the whole segment: ".../password/..." stays as is
	wordSegmentRegex = regexp.MustCompile(`\bword\b`)
)

// IsWordDocument reports whether `path` has a Word extension (case-insensitive).
func IsWordDocument(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, we := range wordExtensions {
		if ext == we {
			return true
		}
	}
	return false
}

// LooksLikeWord matches the declared content type loosely: uploaders send
// "application/msword", "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
// "Word" and worse, so any known marker is enough.
func LooksLikeWord(contentType string) bool {
	ct := strings.ToLower(contentType)
	for _, m := range wordContentMarkers {
		if strings.Contains(ct, m) {
			return true
		}
	}
	return false
}

// artifactFor derives the PDF location of `source` (absolute, under `root`):
// the "word" directory segment becomes "pdf" and the extension becomes ".pdf".
// Only the part below the root is rewritten.
func artifactFor(root, source string) Artifact {
	srcDir := filepath.Dir(source)
	var dir string
	if rel, err := filepath.Rel(root, srcDir); err == nil && !strings.HasPrefix(rel, "..") {
		dir = filepath.Join(root, filepath.FromSlash(wordSegmentRegex.ReplaceAllString(filepath.ToSlash(rel), "pdf")))
	} else {
		dir = wordSegmentRegex.ReplaceAllString(srcDir, "pdf")
	}

	base := filepath.Base(source)
	name := strings.TrimSuffix(base, filepath.Ext(base)) + ".pdf"
	return Artifact{
		Source: source,
		Dir:    dir,
		Path:   filepath.Join(dir, name),
	}
}
