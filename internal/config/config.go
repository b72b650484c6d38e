package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Server struct {
	Addr           string `yaml:"addr"`
	ReadTimeoutMS  int    `yaml:"read_timeout_ms"`
	WriteTimeoutMS int    `yaml:"write_timeout_ms"`
	IdleTimeoutMS  int    `yaml:"idle_timeout_ms"`
	MaxBodyBytes   int64  `yaml:"max_body_bytes"`
}

type Observability struct {
	LogLevel       string `yaml:"log_level"`       // "debug","info","warn","error"
	PrometheusPath string `yaml:"prometheus_path"` // e.g. "/metrics"
}

type Upstream struct {
	URL           string `yaml:"url"`
	TimeoutMS     int    `yaml:"timeout_ms"`
	TestTimeoutMS int    `yaml:"test_timeout_ms"`
}

type Admission struct {
	MaxPerMinute     int `yaml:"max_per_minute"`
	MaxPerHour       int `yaml:"max_per_hour"`
	BlockDurationSec int `yaml:"block_duration_sec"`
}

type Root struct {
	Server        Server        `yaml:"server"`
	Observability Observability `yaml:"observability"`
	Upstream      Upstream      `yaml:"upstream"`
	Admission     Admission     `yaml:"admission"`
	Allowlist     []string      `yaml:"allowlist"`
}

func (s Server) ReadTimeout() time.Duration {
	if s.ReadTimeoutMS == 0 {
		return 5 * time.Second
	}
	return time.Duration(s.ReadTimeoutMS) * time.Millisecond
}

func (s Server) WriteTimeout() time.Duration {
	if s.WriteTimeoutMS == 0 {
		// must outlast the 30s upstream call
		return 60 * time.Second
	}
	return time.Duration(s.WriteTimeoutMS) * time.Millisecond
}

func (s Server) IdleTimeout() time.Duration {
	if s.IdleTimeoutMS == 0 {
		return 60 * time.Second
	}
	return time.Duration(s.IdleTimeoutMS) * time.Millisecond
}

func (s Server) MaxBody() int64 {
	if s.MaxBodyBytes == 0 {
		return 64 << 10
	}
	return s.MaxBodyBytes
} // default 64KB, chat payloads are small

func (u Upstream) Timeout() time.Duration {
	if u.TimeoutMS == 0 {
		return 30 * time.Second
	}
	return time.Duration(u.TimeoutMS) * time.Millisecond
}

func (u Upstream) TestTimeout() time.Duration {
	if u.TestTimeoutMS == 0 {
		return 10 * time.Second
	}
	return time.Duration(u.TestTimeoutMS) * time.Millisecond
}

func (a Admission) BlockDuration() time.Duration {
	if a.BlockDurationSec == 0 {
		return time.Hour
	}
	return time.Duration(a.BlockDurationSec) * time.Second
}

func Load(path string) (*Root, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Root
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Observability.LogLevel == "" {
		cfg.Observability.LogLevel = "info"
	}
	if cfg.Observability.PrometheusPath == "" {
		cfg.Observability.PrometheusPath = "/metrics"
	}
	if cfg.Upstream.URL == "" {
		cfg.Upstream.URL = "https://nabi-api-1.onrender.com/chat"
	}
	if cfg.Admission.MaxPerMinute <= 0 {
		cfg.Admission.MaxPerMinute = 10
	}
	if cfg.Admission.MaxPerHour <= 0 {
		cfg.Admission.MaxPerHour = 100
	}
	if len(cfg.Allowlist) == 0 {
		cfg.Allowlist = []string{"127.0.0.1", "::1"}
	}

	return &cfg, nil
}
