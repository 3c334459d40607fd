package graph

import (
	"path"

	"github.com/src-d/enry/v2"
)

// Language guesses the programming language of a file from its name alone.
// It returns "" when the name is not recognized.
func Language(filePath string) string {
	name := path.Base(filePath)

	if lang, ok := enry.GetLanguageByFilename(name); ok {
		return lang
	}

	if lang, ok := enry.GetLanguageByExtension(name); ok {
		return lang
	}

	return ""
}
