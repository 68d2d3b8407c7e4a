package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultSecretsDir - стандартный путь Docker Secrets.
const DefaultSecretsDir = "/run/secrets"

// ErrSecretNotFound возвращается, когда файла секрета нет.
var ErrSecretNotFound = errors.New("secret file not found")

// SecretReader читает секрет по имени.
type SecretReader func(name string) (string, error)

// DirSecretReader читает секреты из файлов в каталоге dir.
func DirSecretReader(dir string) SecretReader {
	return func(name string) (string, error) {
		filePath := filepath.Join(dir, name)
		secretBytes, err := os.ReadFile(filePath)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return "", fmt.Errorf("%w: %s", ErrSecretNotFound, filePath)
			}
			return "", fmt.Errorf("failed to read secret file %s: %w", filePath, err)
		}
		secret := strings.TrimSpace(string(secretBytes))
		if secret == "" {
			return "", fmt.Errorf("secret file %s is empty", filePath)
		}
		return secret, nil
	}
}

// readOptionalSecret возвращает пустую строку, если секрета нет.
func readOptionalSecret(read SecretReader, name string) (string, error) {
	secret, err := read(name)
	if err != nil {
		if errors.Is(err, ErrSecretNotFound) {
			return "", nil
		}
		return "", err
	}
	return secret, nil
}
