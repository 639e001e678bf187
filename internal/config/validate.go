package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
)

// Validate ensures the configuration is usable. Readarr credentials are not
// required here; they are checked when a search client is constructed so that
// seeding and dry runs work without them.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateNPR(); err != nil {
		return err
	}
	if err := c.validateReadarr(); err != nil {
		return err
	}
	if err := c.validateSearchCache(); err != nil {
		return err
	}
	if err := c.validateTracker(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.StateFile) == "" {
		return errors.New("paths.state_file must be set")
	}
	if info, err := os.Stat(c.Paths.StateFile); err == nil && info.IsDir() {
		return fmt.Errorf("paths.state_file %q is a directory", c.Paths.StateFile)
	}
	if strings.TrimSpace(c.Paths.BooksDir) == "" {
		return errors.New("paths.books_dir must be set")
	}
	return nil
}

func (c *Config) validateNPR() error {
	if strings.TrimSpace(c.NPR.BaseURL) == "" {
		return errors.New("npr.base_url must be set")
	}
	if _, err := url.Parse(c.NPR.BaseURL); err != nil {
		return fmt.Errorf("npr.base_url: %w", err)
	}
	if c.NPR.TimeoutSeconds <= 0 {
		return errors.New("npr.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateReadarr() error {
	if c.Readarr.Endpoint == "" {
		return nil
	}
	parsed, err := url.Parse(c.Readarr.Endpoint)
	if err != nil {
		return fmt.Errorf("readarr.endpoint: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("readarr.endpoint %q must use http or https", c.Readarr.Endpoint)
	}
	if c.Readarr.TimeoutSeconds <= 0 {
		return errors.New("readarr.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateSearchCache() error {
	if !c.SearchCache.Enabled {
		return nil
	}
	if strings.TrimSpace(c.SearchCache.Path) == "" {
		return errors.New("search_cache.path must be set when search_cache.enabled is true")
	}
	if c.SearchCache.TTLDays <= 0 {
		return errors.New("search_cache.ttl_days must be positive when search_cache.enabled is true")
	}
	return nil
}

func (c *Config) validateTracker() error {
	if c.Tracker.Limit <= 0 {
		return errors.New("tracker.limit must be positive")
	}
	if c.Tracker.MaxAttempts <= 0 {
		return errors.New("tracker.max_attempts must be positive")
	}
	return nil
}
