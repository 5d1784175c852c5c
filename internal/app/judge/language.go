package judge

import (
	"fmt"
	"strings"

	"algoarena/internal/common"
)

var ErrUnsupportedLanguage = fmt.Errorf("unsupported language: %w", common.ErrValidation)

// Language pairs the judge's numeric id with the display name.
type Language struct {
	ID   int
	Name string
}

var (
	langCpp        = Language{ID: 54, Name: "C++"}
	langPython     = Language{ID: 71, Name: "Python"}
	langJava       = Language{ID: 62, Name: "Java"}
	langJavaScript = Language{ID: 63, Name: "JavaScript"}
	langC          = Language{ID: 50, Name: "C"}
	langGo         = Language{ID: 60, Name: "Go"}
	langTypeScript = Language{ID: 74, Name: "TypeScript"}
)

var languageAliases = map[string]Language{
	"c++":        langCpp,
	"cpp":        langCpp,
	"g++":        langCpp,
	"py":         langPython,
	"python":     langPython,
	"python3":    langPython,
	"java":       langJava,
	"js":         langJavaScript,
	"javascript": langJavaScript,
	"node":       langJavaScript,
	"nodejs":     langJavaScript,
	"c":          langC,
	"go":         langGo,
	"golang":     langGo,
	"ts":         langTypeScript,
	"typescript": langTypeScript,
}

// ResolveLanguage maps a user-supplied language name to the judge language.
func ResolveLanguage(name string) (Language, error) {
	lang, ok := languageAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Language{}, fmt.Errorf("%q: %w", name, ErrUnsupportedLanguage)
	}
	return lang, nil
}
