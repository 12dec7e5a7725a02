package config

import (
	"errors"
	"path/filepath"
	"time"

	"github.com/kkyr/fig"
)

const EnvPrefix = "CAMERA_RELAY"

type Config struct {
	Server Server
	Relay  Relay
	Ingest Ingest
	Log    Log
}

type Server struct {
	Addr            string `fig:"addr" default:":8090"`
	CORSAllowOrigin string `fig:"cors_allow_origin" default:"*"`
}

// Relay timing windows. StaleWindow must be longer than FreshWindow;
// frames past it are still served, flagged stale.
type Relay struct {
	FreshWindow   time.Duration `fig:"fresh_window" default:"3s"`
	StaleWindow   time.Duration `fig:"stale_window" default:"120s"`
	SweepInterval time.Duration `fig:"sweep_interval" default:"5m"`
	SessionTTL    time.Duration `fig:"session_ttl" default:"5m"`
	LimiterTTL    time.Duration `fig:"limiter_ttl" default:"5m"`
}

// Ingest admission control. AdmitProbability is the leniency valve on
// an empty bucket; a strict deployment can set it to 0.
type Ingest struct {
	BucketCapacity    float64       `fig:"bucket_capacity" default:"30"`
	RefillPerSec      float64       `fig:"refill_per_sec" default:"10"`
	AdmitProbability  float64       `fig:"admit_probability" default:"0.5"`
	WarmupRequests    int64         `fig:"warmup_requests" default:"100"`
	StatusMinInterval time.Duration `fig:"status_min_interval" default:"25ms"`
}

type Log struct {
	Level string `fig:"level" default:"info"`
}

// Load reads the config file (default camera-relay.yaml in the working
// directory or ./configs) and applies CAMERA_RELAY_* env overrides.
// A missing file is fine: defaults plus env apply.
func Load(path string) (Config, error) {
	var c Config
	file := "camera-relay.yaml"
	dirs := []string{".", "configs"}
	if path != "" {
		dir, f := filepath.Split(path)
		if dir != "" {
			dirs = []string{dir}
		}
		file = f
	}
	err := fig.Load(&c, fig.File(file), fig.Dirs(dirs...), fig.UseEnv(EnvPrefix))
	if err != nil && errors.Is(err, fig.ErrFileNotFound) && path == "" {
		err = fig.Load(&c, fig.IgnoreFile(), fig.UseEnv(EnvPrefix))
	}
	return c, err
}
