package config

import (
	"errors"
	"fmt"
	"os"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.ViewsDir == "" {
		return errors.New("views_dir is required")
	}
	if c.Build.Jobs < 0 {
		return fmt.Errorf("build.jobs %d must not be negative", c.Build.Jobs)
	}
	if c.Serve.Port < 0 || c.Serve.Port > 65535 {
		return fmt.Errorf("serve.port %d is out of range", c.Serve.Port)
	}
	return nil
}

// ValidateDirectories checks that the views directory exists.
// The helpers directory is optional.
func (c *Config) ValidateDirectories() error {
	info, err := os.Stat(c.ViewsDir)
	if os.IsNotExist(err) {
		return fmt.Errorf("views directory does not exist: %s\nHint: Create the directory or use --views-dir to specify a different path", c.ViewsDir)
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("views path is not a directory: %s", c.ViewsDir)
	}
	return nil
}
