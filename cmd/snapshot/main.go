// Command snapshot собирает текстовые файлы текущего каталога в project-content.txt.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"visualdilemma/internal/logger"
	"visualdilemma/internal/snapshot"

	"go.uber.org/zap"
)

const previewLines = 15

func main() {
	log, err := logger.New(logger.Config{Level: "info", Encoding: "console", OutputPath: "stderr"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	root, err := os.Getwd()
	if err != nil {
		log.Fatal("Failed to determine working directory", zap.Error(err))
	}

	opts := snapshot.DefaultOptions()
	log.Info("Generating project snapshot",
		zap.String("root", root),
		zap.Strings("excludedFiles", opts.ExcludedFiles),
		zap.Strings("excludedDirs", opts.ExcludedDirs))

	report := snapshot.NewGenerator(os.DirFS(root), root, opts, log).Generate()

	output := filepath.Join(root, snapshot.OutputFile)
	if err := snapshot.WriteReport(output, report); err != nil {
		log.Error("Failed to write snapshot", zap.Error(err))
		os.Exit(1)
	}

	log.Info("Snapshot written",
		zap.String("file", snapshot.OutputFile),
		zap.String("size", fmt.Sprintf("%.2f KB", report.SizeKB())),
		zap.Int("files", report.Files),
		zap.Int("readErrors", report.ReadErrors),
		zap.Int("warnings", report.Warnings))

	fmt.Printf("\nPreview (first %d lines):\n%s...\n\n", previewLines, report.Preview(previewLines))
	fmt.Println("Review the file before sharing it. Look for:")
	fmt.Println("  - credentials, API keys, tokens")
	fmt.Println("  - sensitive environment variables")
	fmt.Println("  - personal or private data")
	fmt.Printf("  grep -i \"password\\|secret\\|key\\|token\\|api\" %s | head -20\n", snapshot.OutputFile)
}
