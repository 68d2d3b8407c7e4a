package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/mod/modfile"
)

const (
	separatorWidth = 80
	// maxDepth ограничивает обход при циклических симлинках.
	maxDepth = 64
)

var separator = strings.Repeat("=", separatorWidth)

// Report - собранный отчет и статистика по нему.
type Report struct {
	Content    []byte
	Files      int
	ReadErrors int
	Warnings   int
}

// SizeKB returns the report size in kilobytes.
func (r *Report) SizeKB() float64 {
	return float64(len(r.Content)) / 1024
}

// Preview returns the first n lines of the report.
func (r *Report) Preview(n int) string {
	lines := strings.SplitAfterN(string(r.Content), "\n", n+1)
	if len(lines) > n {
		lines = lines[:n]
	}
	return strings.Join(lines, "")
}

// Generator обходит fsys и собирает отчет. root используется только в заголовке.
type Generator struct {
	fsys   fs.FS
	root   string
	opts   Options
	logger *zap.Logger
	now    func() time.Time
}

func NewGenerator(fsys fs.FS, root string, opts Options, logger *zap.Logger) *Generator {
	return &Generator{
		fsys:   fsys,
		root:   root,
		opts:   opts,
		logger: logger.Named("Snapshot"),
		now:    time.Now,
	}
}

// Generate собирает отчет. Ошибки чтения файлов попадают в отчет маркером,
// недоступные каталоги пропускаются с предупреждением; сам Generate не падает.
func (g *Generator) Generate() *Report {
	var buf bytes.Buffer
	report := &Report{}

	g.writeHeader(&buf)
	g.walk(&buf, report, ".", 0)

	report.Content = buf.Bytes()
	return report
}

func (g *Generator) writeHeader(buf *bytes.Buffer) {
	fmt.Fprintln(buf, "PROJECT CONTENT")
	fmt.Fprintln(buf, separator)
	fmt.Fprintln(buf)
	fmt.Fprintf(buf, "Root directory: %s\n", g.root)
	fmt.Fprintf(buf, "Generated at: %s\n", g.now().Format(time.RFC3339))
	for _, line := range g.projectInfo() {
		fmt.Fprintln(buf, line)
	}
	fmt.Fprintln(buf)
	fmt.Fprintln(buf, separator)
	fmt.Fprintln(buf, "PROJECT SUMMARY")
	fmt.Fprintln(buf, separator)
}

type packageJSON struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Version     string `json:"version"`
}

// projectInfo читает package.json, а если его нет - go.mod. Ошибки разбора игнорируются.
func (g *Generator) projectInfo() []string {
	if data, err := fs.ReadFile(g.fsys, "package.json"); err == nil {
		var pkg packageJSON
		if err := json.Unmarshal(data, &pkg); err != nil {
			g.logger.Debug("Could not parse package.json", zap.Error(err))
			return nil
		}
		return []string{
			"Name: " + orUnspecified(pkg.Name),
			"Description: " + orUnspecified(pkg.Description),
			"Version: " + orUnspecified(pkg.Version),
		}
	}
	if data, err := fs.ReadFile(g.fsys, "go.mod"); err == nil {
		if module := modfile.ModulePath(data); module != "" {
			return []string{"Module: " + module}
		}
	}
	return nil
}

func orUnspecified(s string) string {
	if s == "" {
		return "not specified"
	}
	return s
}

func (g *Generator) walk(buf *bytes.Buffer, report *Report, dir string, depth int) {
	if depth > maxDepth {
		g.warn(report, "Directory nesting too deep, skipping", dir, nil)
		return
	}

	entries, err := fs.ReadDir(g.fsys, dir)
	if err != nil {
		g.warn(report, "Could not read directory, skipping", dir, err)
		return
	}

	for _, entry := range entries {
		name := entry.Name()
		p := path.Join(dir, name)

		// Stat, а не entry.Info: симлинки разыменовываются.
		info, err := fs.Stat(g.fsys, p)
		if err != nil {
			g.warn(report, "Could not access path", p, err)
			continue
		}

		switch {
		case info.IsDir():
			if !g.opts.excludesDir(name) {
				g.walk(buf, report, p, depth+1)
			}
		case info.Mode().IsRegular() && g.opts.includesFile(name):
			g.writeFile(buf, report, p)
		}
	}
}

func (g *Generator) writeFile(buf *bytes.Buffer, report *Report, p string) {
	content, err := fs.ReadFile(g.fsys, p)

	fmt.Fprintf(buf, "\n%s\nFILE: %s\n%s\n\n", separator, p, separator)
	report.Files++

	if err != nil {
		report.ReadErrors++
		g.logger.Warn("Could not read file", zap.String("path", p), zap.Error(err))
		fmt.Fprintf(buf, "[ERROR: could not read file - %s]\n", reason(err))
		return
	}
	buf.Write(content)
	buf.WriteByte('\n')
}

func (g *Generator) warn(report *Report, msg, p string, err error) {
	report.Warnings++
	g.logger.Warn(msg, zap.String("path", p), zap.Error(err))
}

// reason убирает из ошибки путь: он уже есть в заголовке блока.
func reason(err error) string {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return pathErr.Err.Error()
	}
	return err.Error()
}

// WriteReport записывает отчет в файл.
func WriteReport(filename string, report *Report) error {
	if err := os.WriteFile(filename, report.Content, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	return nil
}
