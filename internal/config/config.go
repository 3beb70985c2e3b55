package config

import (
	"bytes"
	"fmt"
	"net"
	neturl "net/url"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"
	defaultPort       = 2345
	defaultEnv        = "development"
	defaultDBHost     = "127.0.0.1"
	defaultDBPort     = 3306
	defaultDBUser     = "root"
	defaultDBPassword = "password"
	defaultDBName     = "friend_apply"
	defaultDBCharset  = "utf8mb4"
	defaultDBLoc      = "Local"
	defaultLinkFile   = "source/_data/link.yml"
	defaultSMTPPort   = 465
)

// AppConfig holds runtime configuration loaded once at startup and passed
// into every component constructor. Business logic never reads the process
// environment directly.
type AppConfig struct {
	Port           int                   `yaml:"port"`
	Env            string                `yaml:"env"` // "development" | "production"
	Database       DatabaseRuntimeConfig `yaml:"database"`
	RedisURL       string                `yaml:"redis_url"` // optional; enables rate limiting
	AllowedOrigins []string              `yaml:"allowed_origins"`

	// DSN is derived from Database unless set explicitly.
	DSN string `yaml:"dsn"`

	GitHub GitHubConfig `yaml:"github"`
	Mail   MailConfig   `yaml:"mail"`
	Bark   BarkConfig   `yaml:"bark"`

	// AdminEmail receives new-application notifications.
	AdminEmail string `yaml:"admin_email"`
	// APIDomain is the public base URL used to build review links.
	APIDomain string `yaml:"api_domain"`
	// ReviewPassword is the shared review credential embedded in review links.
	ReviewPassword string `yaml:"review_password"`
}

type DatabaseRuntimeConfig struct {
	DSN       string            `yaml:"dsn"`
	Host      string            `yaml:"host"`
	Port      int               `yaml:"port"`
	User      string            `yaml:"user"`
	Password  string            `yaml:"password"`
	Name      string            `yaml:"name"`
	Charset   string            `yaml:"charset"`
	ParseTime bool              `yaml:"parse_time"`
	Loc       string            `yaml:"loc"`
	Params    map[string]string `yaml:"params"`
}

// GitHubConfig points at the blog repository holding the link-list file.
type GitHubConfig struct {
	Token string `yaml:"token"`
	// Repo is "owner/name".
	Repo string `yaml:"repo"`
	// LinkFilePath is the path of the link-list YAML inside the repo.
	LinkFilePath string `yaml:"link_file_path"`
}

func (g GitHubConfig) OwnerRepo() (owner, repo string) {
	parts := strings.SplitN(strings.TrimSpace(g.Repo), "/", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return g.Repo, ""
}

type MailConfig struct {
	Enable    bool   `yaml:"enable"`
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	Secure    bool   `yaml:"secure"`
	User      string `yaml:"user"`
	Pass      string `yaml:"pass"`
	From      string `yaml:"from"`
	ResendKey string `yaml:"resend_key"`
}

type BarkConfig struct {
	Enable    bool   `yaml:"enable"`
	Key       string `yaml:"key"`
	ServerURL string `yaml:"server_url"`
}

func Load(configPath string) (*AppConfig, error) {
	path := strings.TrimSpace(configPath)
	if path == "" {
		path = DefaultConfigPath
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}

	cfg := defaultAppConfig()
	decoder := yaml.NewDecoder(bytes.NewReader(content))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config file %q: %w", path, err)
	}
	normalize(&cfg)

	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d in %q, expected 1-65535", cfg.Port, path)
	}
	if cfg.ReviewPassword == "" {
		return nil, fmt.Errorf("review_password is required in %q", path)
	}
	if cfg.GitHub.Token == "" || cfg.GitHub.Repo == "" {
		return nil, fmt.Errorf("github.token and github.repo are required in %q", path)
	}
	if _, repo := cfg.GitHub.OwnerRepo(); repo == "" {
		return nil, fmt.Errorf("github.repo %q must be owner/name", cfg.GitHub.Repo)
	}

	return &cfg, nil
}

func defaultAppConfig() AppConfig {
	return AppConfig{
		Port: defaultPort,
		Env:  defaultEnv,
		Database: DatabaseRuntimeConfig{
			Host:      defaultDBHost,
			Port:      defaultDBPort,
			User:      defaultDBUser,
			Password:  defaultDBPassword,
			Name:      defaultDBName,
			Charset:   defaultDBCharset,
			ParseTime: true,
			Loc:       defaultDBLoc,
		},
		GitHub: GitHubConfig{LinkFilePath: defaultLinkFile},
		Mail:   MailConfig{Port: defaultSMTPPort, Secure: true},
	}
}

func normalize(cfg *AppConfig) {
	cfg.Env = strings.ToLower(strings.TrimSpace(cfg.Env))
	if cfg.Env == "" {
		cfg.Env = defaultEnv
	}
	cfg.RedisURL = normalizeRedisRawURL(cfg.RedisURL)
	cfg.APIDomain = strings.TrimRight(strings.TrimSpace(cfg.APIDomain), "/")
	cfg.AdminEmail = strings.TrimSpace(cfg.AdminEmail)
	cfg.ReviewPassword = strings.TrimSpace(cfg.ReviewPassword)
	cfg.GitHub.Token = strings.TrimSpace(cfg.GitHub.Token)
	cfg.GitHub.Repo = strings.TrimSpace(cfg.GitHub.Repo)
	if strings.TrimSpace(cfg.GitHub.LinkFilePath) == "" {
		cfg.GitHub.LinkFilePath = defaultLinkFile
	}
	if cfg.Mail.Port == 0 {
		cfg.Mail.Port = defaultSMTPPort
	}

	origins := cfg.AllowedOrigins[:0]
	for _, origin := range cfg.AllowedOrigins {
		if v := strings.TrimSpace(origin); v != "" {
			origins = append(origins, v)
		}
	}
	cfg.AllowedOrigins = origins

	if strings.TrimSpace(cfg.DSN) == "" {
		cfg.DSN = cfg.Database.DSNValue()
	}
}

func normalizeRedisRawURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "redis://") || strings.HasPrefix(trimmed, "rediss://") {
		return trimmed
	}
	return "redis://" + trimmed
}

func (c DatabaseRuntimeConfig) DSNValue() string {
	if v := strings.TrimSpace(c.DSN); v != "" {
		return v
	}

	host := strings.TrimSpace(c.Host)
	if host == "" {
		host = defaultDBHost
	}
	port := c.Port
	if port == 0 {
		port = defaultDBPort
	}
	user := strings.TrimSpace(c.User)
	if user == "" {
		user = defaultDBUser
	}
	password := c.Password
	if password == "" {
		password = defaultDBPassword
	}
	name := strings.TrimSpace(c.Name)
	if name == "" {
		name = defaultDBName
	}
	charset := strings.TrimSpace(c.Charset)
	if charset == "" {
		charset = defaultDBCharset
	}
	loc := strings.TrimSpace(c.Loc)
	if loc == "" {
		loc = defaultDBLoc
	}

	params := neturl.Values{}
	for key, value := range c.Params {
		k := strings.TrimSpace(key)
		v := strings.TrimSpace(value)
		if k != "" && v != "" {
			params.Set(k, v)
		}
	}
	if params.Get("charset") == "" {
		params.Set("charset", charset)
	}
	if params.Get("parseTime") == "" {
		params.Set("parseTime", strconv.FormatBool(c.ParseTime))
	}
	if params.Get("loc") == "" {
		params.Set("loc", loc)
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s)/%s", user, password, net.JoinHostPort(host, strconv.Itoa(port)), name)
	if query := params.Encode(); query != "" {
		dsn += "?" + query
	}
	return dsn
}

func (c *AppConfig) IsDev() bool {
	return strings.EqualFold(c.Env, defaultEnv)
}
