package main

import (
	"fmt"
	"os"

	"github.com/kjk/employees/empstore"
	"github.com/kjk/employees/minioutil"
	"gopkg.in/yaml.v3"
)

const defaultMaxAttempts = 5

// Config is read from a yaml file, e.g.
//
//	data_file: /var/lib/emp/employees.dat
//	log_dir: /var/log/emp
//	max_attempts: 5
//	s3:
//	  endpoint: s3.us-east-1.amazonaws.com
//	  bucket: emp-backups
type Config struct {
	DataFile string `yaml:"data_file"`
	// empty means no log files and no history
	LogDir  string `yaml:"log_dir"`
	Verbose bool   `yaml:"verbose"`
	// how many times we ask again after invalid input, 0 means forever
	MaxAttempts int              `yaml:"max_attempts"`
	ClearScreen bool             `yaml:"clear_screen"`
	S3          minioutil.Config `yaml:"s3"`
}

func DefaultConfig() *Config {
	return &Config{
		DataFile:    empstore.DefaultFileName,
		MaxAttempts: defaultMaxAttempts,
		ClearScreen: true,
	}
}

// loadConfig reads yaml config from path on top of DefaultConfig().
// Empty path means defaults only.
func loadConfig(path string) (*Config, error) {
	config := DefaultConfig()
	if path == "" {
		return config, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file '%s': %w", path, err)
	}
	return config, nil
}

var envVars = []struct {
	name string
	dst  func(c *Config) *string
}{
	{"EMP_DATA_FILE", func(c *Config) *string { return &c.DataFile }},
	{"EMP_LOG_DIR", func(c *Config) *string { return &c.LogDir }},
	{"EMP_S3_ACCESS", func(c *Config) *string { return &c.S3.Access }},
	{"EMP_S3_SECRET", func(c *Config) *string { return &c.S3.Secret }},
	{"EMP_S3_BUCKET", func(c *Config) *string { return &c.S3.Bucket }},
	{"EMP_S3_ENDPOINT", func(c *Config) *string { return &c.S3.Endpoint }},
}

// applyEnv overrides config values with non-empty env variables
func (c *Config) applyEnv(getenv func(string) string) {
	for _, v := range envVars {
		if s := getenv(v.name); s != "" {
			*v.dst(c) = s
		}
	}
}

// applyFlags overrides config values with flags given on command line
func (c *Config) applyFlags(f *globalFlags) {
	if f.dataFile != "" {
		c.DataFile = f.dataFile
	}
	if f.logDir != "" {
		c.LogDir = f.logDir
	}
	if f.verbose {
		c.Verbose = true
	}
}

func (c *Config) Validate() error {
	if c.DataFile == "" {
		return fmt.Errorf("data_file is empty")
	}
	if c.MaxAttempts < 0 {
		return fmt.Errorf("max_attempts is %d, must be >= 0", c.MaxAttempts)
	}
	return nil
}

// resolveConfig builds the final config: defaults, then yaml file,
// then env variables, then flags
func resolveConfig(f *globalFlags, getenv func(string) string) (*Config, error) {
	config, err := loadConfig(f.configPath)
	if err != nil {
		return nil, err
	}
	config.applyEnv(getenv)
	config.applyFlags(f)
	if err = config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}
