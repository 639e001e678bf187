package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeNPR(); err != nil {
		return err
	}
	if err := c.normalizeReadarr(); err != nil {
		return err
	}
	if err := c.normalizeSearchCache(); err != nil {
		return err
	}
	c.normalizeTracker()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateFile) == "" {
		c.Paths.StateFile = defaultStateFile
	}
	if c.Paths.StateFile, err = expandPath(c.Paths.StateFile); err != nil {
		return fmt.Errorf("paths.state_file: %w", err)
	}
	if strings.TrimSpace(c.Paths.BooksDir) == "" {
		c.Paths.BooksDir = defaultBooksDir
	}
	if c.Paths.BooksDir, err = expandPath(c.Paths.BooksDir); err != nil {
		return fmt.Errorf("paths.books_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeNPR() error {
	c.NPR.BaseURL = strings.TrimRight(strings.TrimSpace(c.NPR.BaseURL), "/")
	if c.NPR.BaseURL == "" {
		c.NPR.BaseURL = defaultNPRBaseURL
	}
	if c.NPR.TimeoutSeconds <= 0 {
		c.NPR.TimeoutSeconds = defaultNPRTimeoutSeconds
	}
	return nil
}

func (c *Config) normalizeReadarr() error {
	c.Readarr.Endpoint = strings.TrimSpace(c.Readarr.Endpoint)
	if c.Readarr.Endpoint == "" {
		if value, ok := os.LookupEnv("READARR_API_ENDPOINT"); ok {
			c.Readarr.Endpoint = strings.TrimSpace(value)
		}
	}
	c.Readarr.Endpoint = strings.TrimRight(c.Readarr.Endpoint, "/")
	c.Readarr.APIKey = strings.TrimSpace(c.Readarr.APIKey)
	if c.Readarr.APIKey == "" {
		if value, ok := os.LookupEnv("READARR_API_KEY"); ok {
			c.Readarr.APIKey = strings.TrimSpace(value)
		}
	}
	if c.Readarr.TimeoutSeconds <= 0 {
		c.Readarr.TimeoutSeconds = defaultReadarrTimeout
	}
	if c.Readarr.QualityProfileID <= 0 {
		if value, ok := os.LookupEnv("READARR_QUALITY_PROFILE_ID"); ok {
			if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
				c.Readarr.QualityProfileID = parsed
			}
		}
	}
	if c.Readarr.MetadataProfileID <= 0 {
		if value, ok := os.LookupEnv("READARR_METADATA_PROFILE_ID"); ok {
			if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
				c.Readarr.MetadataProfileID = parsed
			}
		}
	}
	c.Readarr.RootFolderPath = strings.TrimSpace(c.Readarr.RootFolderPath)
	if c.Readarr.RootFolderPath == "" {
		if value, ok := os.LookupEnv("READARR_ROOT_FOLDER_PATH"); ok {
			c.Readarr.RootFolderPath = strings.TrimSpace(value)
		}
	}
	if c.Readarr.RootFolderPath == "" {
		c.Readarr.RootFolderPath = defaultRootFolderPath
	}
	return nil
}

func (c *Config) normalizeSearchCache() error {
	var err error
	if strings.TrimSpace(c.SearchCache.Path) == "" {
		c.SearchCache.Path = defaultSearchCachePath
	}
	if c.SearchCache.Path, err = expandPath(c.SearchCache.Path); err != nil {
		return fmt.Errorf("search_cache.path: %w", err)
	}
	if c.SearchCache.TTLDays <= 0 {
		c.SearchCache.TTLDays = defaultSearchCacheTTLDays
	}
	return nil
}

func (c *Config) normalizeTracker() {
	if c.Tracker.Limit <= 0 {
		c.Tracker.Limit = defaultTrackerLimit
	}
	if c.Tracker.MaxAttempts <= 0 {
		c.Tracker.MaxAttempts = defaultTrackerMaxAttempts
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
