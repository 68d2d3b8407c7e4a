// Package deckfile читает колоды из файлов YAML и JSON для импорта.
package deckfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"visualdilemma/internal/models"

	"gopkg.in/yaml.v3"
)

// Load читает колоду из файла. Формат определяется по расширению: .json, .yaml, .yml.
func Load(path string) (models.DeckInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.DeckInput{}, fmt.Errorf("failed to read deck file: %w", err)
	}
	in, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return models.DeckInput{}, fmt.Errorf("%s: %w", path, err)
	}
	return in, nil
}

// Parse разбирает содержимое файла колоды. Неизвестные поля - ошибка.
func Parse(data []byte, ext string) (models.DeckInput, error) {
	var in models.DeckInput
	switch strings.ToLower(ext) {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&in); err != nil {
			return in, fmt.Errorf("%w: invalid JSON deck: %v", models.ErrInvalidInput, err)
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&in); err != nil {
			return in, fmt.Errorf("%w: invalid YAML deck: %v", models.ErrInvalidInput, err)
		}
	default:
		return in, fmt.Errorf("%w: unsupported deck file extension %q", models.ErrInvalidInput, ext)
	}
	return in, nil
}
