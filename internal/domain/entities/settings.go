package entities

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"
)

const (
	DefaultAPIBaseURL     = "https://api.bitbucket.org/2.0"
	DefaultOutputDir      = "bitbucket_snippets_backup"
	DefaultCommitterName  = "Snippet Backup Script"
	DefaultCommitterEmail = "backup@bitbucket-script.local"

	VCSBackendGit   = "git"
	VCSBackendGoGit = "go-git"

	LedgerSQLite = "sqlite"
	LedgerMemory = "memory"
	LedgerNone   = "none"

	// StateDirName holds local run state inside the output directory; it is never committed.
	StateDirName = ".snipbackup"

	defaultMaxAttempts  = 3
	defaultInitialDelay = 2 * time.Second
	defaultMultiplier   = 2.0
)

// Settings is the full runtime configuration of a backup run.
type Settings struct {
	Auth       AuthConfig      `yaml:"auth"        toml:"auth"`
	Workspace  string          `yaml:"workspace"   toml:"workspace"`
	OutputDir  string          `yaml:"output_dir"  toml:"output_dir"`
	APIBaseURL string          `yaml:"api_base_url" toml:"api_base_url"`
	Role       string          `yaml:"role"        toml:"role"`        // owner, contributor or member
	Historical bool            `yaml:"historical"  toml:"historical"`  // Replay every revision
	SnippetIDs []string        `yaml:"snippet_ids" toml:"snippet_ids"` // Overrides the listing when set
	Committer  CommitterConfig `yaml:"committer"   toml:"committer"`
	VCS        VCSConfig       `yaml:"vcs"         toml:"vcs"`
	Retry      RetryConfig     `yaml:"retry"       toml:"retry"`
	Ledger     LedgerConfig    `yaml:"ledger"      toml:"ledger"`
	Archive    ArchiveConfig   `yaml:"archive"     toml:"archive"`
}

// AuthConfig holds the HTTP basic credentials for the snippet host.
type AuthConfig struct {
	User     string `yaml:"user"     toml:"user"`
	Password string `yaml:"password" toml:"password"` // Inline, ${ENV_VAR}, file path or .age file
}

// CommitterConfig is the identity used as committer and as last-resort author.
type CommitterConfig struct {
	Name  string `yaml:"name"  toml:"name"`
	Email string `yaml:"email" toml:"email"`
}

// VCSConfig selects the version-control backend.
type VCSConfig struct {
	Backend string `yaml:"backend" toml:"backend"` // "git" or "go-git"
}

// RetryConfig tunes the resilient fetch client.
type RetryConfig struct {
	MaxAttempts  int     `yaml:"max_attempts"  toml:"max_attempts"`
	InitialDelay string  `yaml:"initial_delay" toml:"initial_delay"` // Go duration, e.g. "2s"
	Multiplier   float64 `yaml:"multiplier"    toml:"multiplier"`
}

// LedgerConfig configures the run ledger database.
type LedgerConfig struct {
	Type string `yaml:"type" toml:"type"` // "sqlite", "memory" or "none"
	Path string `yaml:"path" toml:"path"` // Defaults to <output_dir>/.snipbackup/ledger.db
}

// ArchiveConfig configures the optional S3 upload of the backup repository.
type ArchiveConfig struct {
	S3Bucket   string `yaml:"s3_bucket"   toml:"s3_bucket"`
	S3Prefix   string `yaml:"s3_prefix"   toml:"s3_prefix"`
	S3Region   string `yaml:"s3_region"   toml:"s3_region"`
	S3Endpoint string `yaml:"s3_endpoint" toml:"s3_endpoint"`
	AccessKey  string `yaml:"access_key"  toml:"access_key"` // Empty uses the default AWS chain
	SecretKey  string `yaml:"secret_key"  toml:"secret_key"`
}

// Enabled reports whether an archive destination is configured.
func (a ArchiveConfig) Enabled() bool { return a.S3Bucket != "" }

// InitialDelayDuration parses InitialDelay, falling back to the default.
func (r RetryConfig) InitialDelayDuration() time.Duration {
	if r.InitialDelay == "" {
		return defaultInitialDelay
	}
	d, err := time.ParseDuration(r.InitialDelay)
	if err != nil || d < 0 {
		return defaultInitialDelay
	}
	return d
}

// NewSettings reads a configuration file. The format is chosen by extension:
// .toml, .hcl, anything else is YAML. Secrets are resolved; defaults are left to
// ApplyDefaults so that command-line overrides can be merged first.
func NewSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	var settings Settings
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, decodeErr := toml.Decode(string(data), &settings); decodeErr != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", decodeErr)
		}
	case ".hcl":
		if decodeErr := decodeHCL(path, data, &settings); decodeErr != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", decodeErr)
		}
	default:
		if decodeErr := yaml.Unmarshal(data, &settings); decodeErr != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", decodeErr)
		}
	}

	settings.Auth.User = ResolveSecret(settings.Auth.User)
	settings.Auth.Password = ResolveSecret(settings.Auth.Password)
	settings.Archive.AccessKey = ResolveSecret(settings.Archive.AccessKey)
	settings.Archive.SecretKey = ResolveSecret(settings.Archive.SecretKey)
	return &settings, nil
}

// ApplyDefaults fills every unset field with its default value.
func (s *Settings) ApplyDefaults() {
	if s.Workspace == "" {
		s.Workspace = s.Auth.User
	}
	if s.OutputDir == "" {
		s.OutputDir = DefaultOutputDir
	}
	if s.APIBaseURL == "" {
		s.APIBaseURL = DefaultAPIBaseURL
	}
	s.APIBaseURL = strings.TrimSuffix(s.APIBaseURL, "/")
	if s.Committer.Name == "" {
		s.Committer.Name = DefaultCommitterName
	}
	if s.Committer.Email == "" {
		s.Committer.Email = DefaultCommitterEmail
	}
	if s.VCS.Backend == "" {
		s.VCS.Backend = VCSBackendGit
	}
	if s.Retry.MaxAttempts <= 0 {
		s.Retry.MaxAttempts = defaultMaxAttempts
	}
	if s.Retry.Multiplier <= 0 {
		s.Retry.Multiplier = defaultMultiplier
	}
	if s.Ledger.Type == "" {
		s.Ledger.Type = LedgerSQLite
	}
	if s.Ledger.Type == LedgerSQLite && s.Ledger.Path == "" {
		s.Ledger.Path = filepath.Join(s.OutputDir, StateDirName, "ledger.db")
	}
}

// CommitterIdentity returns the default identity.
func (s *Settings) CommitterIdentity() Identity {
	return Identity{Name: s.Committer.Name, Email: s.Committer.Email}
}

// Validate checks for required configuration values.
func (s *Settings) Validate() error {
	if s.Auth.User == "" {
		return errors.New("auth.user is required (set --auth-user or auth.user in the config file)")
	}
	if s.Auth.Password == "" {
		return errors.New(
			"auth.password is required (set --auth-pass, or auth.password inline, via ${ENV_VAR} or as file path)",
		)
	}
	if s.OutputDir == "" {
		return errors.New("output_dir is required")
	}
	switch s.VCS.Backend {
	case VCSBackendGit, VCSBackendGoGit:
	default:
		return fmt.Errorf("unknown vcs backend %q (expected %q or %q)", s.VCS.Backend, VCSBackendGit, VCSBackendGoGit)
	}
	switch s.Ledger.Type {
	case LedgerSQLite, LedgerMemory, LedgerNone:
	default:
		return fmt.Errorf("unknown ledger type %q", s.Ledger.Type)
	}
	switch s.Role {
	case "", "owner", "contributor", "member":
	default:
		return fmt.Errorf("unknown role %q (expected owner, contributor or member)", s.Role)
	}
	return nil
}

// FindConfigFile searches for a configuration file in standard locations.
// Returns the path to the first file found or an error if none is found.
func FindConfigFile() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = ""
	}

	locations := []string{
		".",
		".config",
		"configs",
	}
	if homeDir != "" {
		locations = append(
			locations,
			homeDir,
			filepath.Join(homeDir, ".config"),
		)
	}

	patterns := []string{
		".snipbackup.yaml",
		".snipbackup.yml",
		".snipbackup.toml",
		".snipbackup.hcl",
		"snipbackup.yaml",
		"snipbackup.yml",
		"snipbackup.toml",
		"snipbackup.hcl",
	}

	for _, loc := range locations {
		for _, pat := range patterns {
			p := filepath.Join(loc, pat)
			if _, statErr := os.Stat(p); statErr == nil {
				return p, nil
			}
		}
	}

	return "", errors.New("config file not found in default locations")
}

// hclFile mirrors Settings for gohcl; nested sections are optional blocks.
type hclFile struct {
	Workspace  string   `hcl:"workspace,optional"`
	OutputDir  string   `hcl:"output_dir,optional"`
	APIBaseURL string   `hcl:"api_base_url,optional"`
	Role       string   `hcl:"role,optional"`
	Historical bool     `hcl:"historical,optional"`
	SnippetIDs []string `hcl:"snippet_ids,optional"`

	Auth *struct {
		User     string `hcl:"user,optional"`
		Password string `hcl:"password,optional"`
	} `hcl:"auth,block"`
	Committer *struct {
		Name  string `hcl:"name,optional"`
		Email string `hcl:"email,optional"`
	} `hcl:"committer,block"`
	VCS *struct {
		Backend string `hcl:"backend,optional"`
	} `hcl:"vcs,block"`
	Retry *struct {
		MaxAttempts  int     `hcl:"max_attempts,optional"`
		InitialDelay string  `hcl:"initial_delay,optional"`
		Multiplier   float64 `hcl:"multiplier,optional"`
	} `hcl:"retry,block"`
	Ledger *struct {
		Type string `hcl:"type,optional"`
		Path string `hcl:"path,optional"`
	} `hcl:"ledger,block"`
	Archive *struct {
		S3Bucket   string `hcl:"s3_bucket,optional"`
		S3Prefix   string `hcl:"s3_prefix,optional"`
		S3Region   string `hcl:"s3_region,optional"`
		S3Endpoint string `hcl:"s3_endpoint,optional"`
		AccessKey  string `hcl:"access_key,optional"`
		SecretKey  string `hcl:"secret_key,optional"`
	} `hcl:"archive,block"`
}

// decodeHCL parses an HCL config. Expressions may read the environment through
// the "env" object, e.g. password = env.BITBUCKET_APP_PASSWORD.
func decodeHCL(path string, data []byte, settings *Settings) error {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, path)
	if diags.HasErrors() {
		return diags
	}

	var raw hclFile
	if decodeDiags := gohcl.DecodeBody(file.Body, hclEvalContext(), &raw); decodeDiags.HasErrors() {
		return decodeDiags
	}

	settings.Workspace = raw.Workspace
	settings.OutputDir = raw.OutputDir
	settings.APIBaseURL = raw.APIBaseURL
	settings.Role = raw.Role
	settings.Historical = raw.Historical
	settings.SnippetIDs = raw.SnippetIDs
	if raw.Auth != nil {
		settings.Auth = AuthConfig{User: raw.Auth.User, Password: raw.Auth.Password}
	}
	if raw.Committer != nil {
		settings.Committer = CommitterConfig{Name: raw.Committer.Name, Email: raw.Committer.Email}
	}
	if raw.VCS != nil {
		settings.VCS.Backend = raw.VCS.Backend
	}
	if raw.Retry != nil {
		settings.Retry = RetryConfig{
			MaxAttempts:  raw.Retry.MaxAttempts,
			InitialDelay: raw.Retry.InitialDelay,
			Multiplier:   raw.Retry.Multiplier,
		}
	}
	if raw.Ledger != nil {
		settings.Ledger = LedgerConfig{Type: raw.Ledger.Type, Path: raw.Ledger.Path}
	}
	if raw.Archive != nil {
		settings.Archive = ArchiveConfig{
			S3Bucket:   raw.Archive.S3Bucket,
			S3Prefix:   raw.Archive.S3Prefix,
			S3Region:   raw.Archive.S3Region,
			S3Endpoint: raw.Archive.S3Endpoint,
			AccessKey:  raw.Archive.AccessKey,
			SecretKey:  raw.Archive.SecretKey,
		}
	}
	return nil
}

func hclEvalContext() *hcl.EvalContext {
	env := make(map[string]cty.Value)
	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			continue
		}
		env[name] = cty.StringVal(value)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": cty.ObjectVal(env),
		},
	}
}
