package config

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/ardanlabs/conf"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Prefix is the environment namespace, e.g. ATTENDANCE_DB_HOST.
const Prefix = "ATTENDANCE"

// ErrHelp is returned by Parse after usage was printed.
var ErrHelp = errors.New("provided help")

type Config struct {
	Env string `conf:"default:development"`
	Web struct {
		APIHost         string        `conf:"default:0.0.0.0:5000"`
		ReadTimeout     time.Duration `conf:"default:10s"`
		WriteTimeout    time.Duration `conf:"default:30s"`
		ShutdownTimeout time.Duration `conf:"default:10s"`
		AllowedOrigins  []string      `conf:"default:http://localhost:3000;http://localhost:5173"`
	}
	DB struct {
		User         string `conf:"default:postgres"`
		Password     string `conf:"default:postgres,noprint"`
		Host         string `conf:"default:localhost:5432"`
		Name         string `conf:"default:attendance"`
		DisableTLS   bool   `conf:"default:true"`
		Debug        bool   `conf:"default:false"`
		MaxOpenConns int    `conf:"default:10"`
	}
	Redis struct {
		// Addr left empty keeps the attendance lock in-process.
		Addr     string
		Password string        `conf:"noprint"`
		DB       int           `conf:"default:0"`
		LockTTL  time.Duration `conf:"default:10s"`
	}
	Auth struct {
		JWTKey   string        `conf:"noprint"`
		TokenTTL time.Duration `conf:"default:24h"`
	}
	Admin struct {
		Name       string `conf:"default:Admin"`
		Mobile     string `conf:"default:9999999999"`
		EmployeeID string `conf:"default:ADMIN001"`
		Password   string `conf:"noprint"`
	}
	Policy Policy
	Log    struct {
		Level  string `conf:"default:info"`
		Pretty bool   `conf:"default:false"`
	}
}

// Policy holds the attendance rules. File, when set, points at a YAML
// document overriding the other fields.
type Policy struct {
	File            string  `yaml:"-"`
	OnePerDay       bool    `conf:"default:false" yaml:"one_per_day"`
	RequireLocation bool    `conf:"default:false" yaml:"require_location"`
	Timezone        string  `conf:"default:UTC" yaml:"timezone"`
	OfficeLatitude  float64 `yaml:"office_latitude"`
	OfficeLongitude float64 `yaml:"office_longitude"`
	// OfficeRadius in meters; zero disables the geofence.
	OfficeRadius float64 `yaml:"office_radius_meters"`
}

// Parse reads flags and ATTENDANCE_* variables, then applies the policy
// file when one is configured.
func Parse(args []string) (Config, error) {
	var cfg Config

	if err := conf.Parse(args, Prefix, &cfg); err != nil {
		if err == conf.ErrHelpWanted {
			usage, err := conf.Usage(Prefix, &cfg)
			if err != nil {
				return Config{}, errors.Wrap(err, "generating config usage")
			}
			fmt.Println(usage)
			return Config{}, ErrHelp
		}
		return Config{}, errors.Wrap(err, "parsing config")
	}

	if cfg.Policy.File != "" {
		p, err := LoadPolicy(cfg.Policy.File, cfg.Policy)
		if err != nil {
			return Config{}, err
		}
		cfg.Policy = p
	}

	if err := cfg.Policy.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// String renders the configuration with secrets left out.
func (c Config) String() string {
	out, err := conf.String(&c)
	if err != nil {
		return err.Error()
	}
	return out
}

// LoadPolicy reads a YAML policy file on top of base.
func LoadPolicy(path string, base Policy) (Policy, error) {
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, errors.Wrapf(err, "reading policy file %s", path)
	}

	p := base
	if err := yaml.Unmarshal(yamlFile, &p); err != nil {
		return Policy{}, errors.Wrapf(err, "decoding policy file %s", path)
	}
	p.File = path

	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}

func (p Policy) Validate() error {
	if _, err := p.Location(); err != nil {
		return err
	}
	if p.OfficeRadius < 0 || math.IsNaN(p.OfficeRadius) || math.IsInf(p.OfficeRadius, 0) {
		return errors.New("policy: office radius must be a non-negative number")
	}
	if p.OfficeRadius > 0 {
		if p.OfficeLatitude < -90 || p.OfficeLatitude > 90 {
			return errors.New("policy: office latitude must be between -90 and 90")
		}
		if p.OfficeLongitude < -180 || p.OfficeLongitude > 180 {
			return errors.New("policy: office longitude must be between -180 and 180")
		}
	}
	return nil
}

// Location resolves the policy timezone; empty means UTC.
func (p Policy) Location() (*time.Location, error) {
	if p.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return nil, errors.Wrapf(err, "policy: unknown timezone %q", p.Timezone)
	}
	return loc, nil
}
