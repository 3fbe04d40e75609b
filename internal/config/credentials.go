package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNoCredentials is returned when neither the environment nor a
// credentials file provides CDS access.
var ErrNoCredentials = errors.New("no CDS credentials found")

// Credentials locate and authenticate against the CDS API.
type Credentials struct {
	URL string `yaml:"url"`
	Key string `yaml:"key"` // "<UID>:<API_KEY>"
}

// UserID returns the part of Key before the colon.
func (c Credentials) UserID() string {
	uid, _, _ := strings.Cut(c.Key, ":")
	return uid
}

// Secret returns the part of Key after the colon.
func (c Credentials) Secret() string {
	_, secret, _ := strings.Cut(c.Key, ":")
	return secret
}

func (c Credentials) validate() error {
	if c.URL == "" {
		return errors.New("credentials: url is empty")
	}
	if c.Key == "" {
		return errors.New("credentials: key is empty")
	}
	uid, secret, ok := strings.Cut(c.Key, ":")
	if !ok || uid == "" || secret == "" {
		return errors.New("credentials: key must have the form <UID>:<API_KEY>")
	}
	return nil
}

// LoadCredentials resolves CDS credentials from CDSAPI_URL/CDSAPI_KEY, then
// the file named by CDSAPI_RC, then ~/.cdsapirc.
func LoadCredentials() (Credentials, error) {
	url, key := os.Getenv("CDSAPI_URL"), os.Getenv("CDSAPI_KEY")
	if url != "" && key != "" {
		c := Credentials{URL: strings.TrimRight(url, "/"), Key: key}
		if err := c.validate(); err != nil {
			return Credentials{}, err
		}
		return c, nil
	}

	path, err := credentialsPath()
	if err != nil {
		return Credentials{}, err
	}
	return ReadCredentialsFile(path)
}

// ReadCredentialsFile parses a .cdsapirc file.
func ReadCredentialsFile(path string) (Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Credentials{}, fmt.Errorf("%w: %s does not exist", ErrNoCredentials, path)
		}
		return Credentials{}, fmt.Errorf("reading credentials file: %w", err)
	}

	var c Credentials
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Credentials{}, fmt.Errorf("parsing credentials file %s: %w", path, err)
	}
	c.URL = strings.TrimRight(strings.TrimSpace(c.URL), "/")
	c.Key = strings.TrimSpace(c.Key)
	if err := c.validate(); err != nil {
		return Credentials{}, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func credentialsPath() (string, error) {
	if p := os.Getenv("CDSAPI_RC"); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("%w: cannot resolve home directory: %v", ErrNoCredentials, err)
	}
	return filepath.Join(home, ".cdsapirc"), nil
}
