package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// DSNEnv overrides database.dsn when set.
const DSNEnv = "TESTSTAND_DSN"

// LoadEnv reads the .env file next to the project config, if there is one.
// Variables already set in the environment win.
func LoadEnv(dir string) error {
	err := godotenv.Load(filepath.Join(dir, ".env"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// ResolveDSN returns the DSN the store should be opened with.
func (c *ProjectConfig) ResolveDSN() string {
	if dsn := strings.TrimSpace(os.Getenv(DSNEnv)); dsn != "" {
		return dsn
	}
	return c.Database.DSN
}
