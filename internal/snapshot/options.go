// Package snapshot собирает текстовые файлы проекта в один отчет, удобный для ревью.
package snapshot

import (
	"path"
	"slices"
	"strings"
)

// OutputFile - имя файла отчета в корне проекта.
const OutputFile = "project-content.txt"

// Options задает, какие файлы попадают в отчет.
type Options struct {
	ExcludedDirs       []string
	ExcludedFiles      []string
	IncludedExtensions []string
}

// DefaultOptions возвращает стандартные списки исключений и расширений.
func DefaultOptions() Options {
	return Options{
		ExcludedDirs: []string{
			"node_modules", ".astro", ".git", "dist", "build", ".next", ".nuxt", ".cache",
			"coverage", ".vscode", ".idea", "public", "tmp", "temp", "logs",
		},
		ExcludedFiles: []string{
			"package-lock.json", "yarn.lock", ".DS_Store", OutputFile,
			".env", ".env.local", ".env.production", ".env.example",
		},
		IncludedExtensions: []string{
			".js", ".jsx", ".ts", ".tsx",
			".vue", ".svelte", ".astro",
			".html", ".css", ".scss", ".less",
			".json", ".md", ".txt", ".mdx",
			".py", ".java", ".cpp", ".c", ".cs",
			".php", ".rb", ".go", ".rs",
			".sql", ".graphql", ".gql",
			".yml", ".yaml", ".toml",
			".xml", ".svg",
		},
	}
}

func (o Options) excludesDir(name string) bool {
	return slices.Contains(o.ExcludedDirs, name)
}

// includesFile: имя не в списке исключений, а расширение из списка или отсутствует.
// Для dot-файлов (".gitignore") расширением считается пустая строка.
func (o Options) includesFile(name string) bool {
	if slices.Contains(o.ExcludedFiles, name) {
		return false
	}
	ext := extension(name)
	if ext == "" {
		return true
	}
	return slices.ContainsFunc(o.IncludedExtensions, func(e string) bool {
		return strings.EqualFold(e, ext)
	})
}

func extension(name string) string {
	base := strings.TrimLeft(name, ".")
	if base == "" {
		return ""
	}
	return path.Ext(base)
}
