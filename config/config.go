package config

import (
	"errors"
	"flag"
	"net"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Addr        string
	Store       string
	DBUrl       string
	TokenSecret string
	TokenTTL    time.Duration
	CORSOrigins []string
	SeedFile    string
	Debug       bool
}

// env holds the defaults for every flag, read from QSURVEY_* variables.
type env struct {
	Host        string `envconfig:"HOST" default:"0.0.0.0"`
	Port        uint   `envconfig:"PORT" default:"80"`
	Store       string `envconfig:"STORE" default:"sqlite"`
	DBUrl       string `envconfig:"DB_URL" default:"qforms.sqlite"`
	TokenSecret string `envconfig:"TOKEN_SECRET"`
	TokenTTL    uint   `envconfig:"TOKEN_TTL" default:"120"`
	CORSOrigins string `envconfig:"CORS_ORIGINS" default:"http://localhost:3000"`
	Seed        string `envconfig:"SEED"`
	Debug       bool   `envconfig:"DEBUG" default:"false"`
}

const EnvPrefix = "qsurvey"

func ParseFlags() (Config, error) {
	return Parse(flag.CommandLine, nil)
}

// Parse reads flags from args (os.Args[1:] when nil) on top of the
// environment defaults.
func Parse(fs *flag.FlagSet, args []string) (cfg Config, err error) {
	var e env
	if err = envconfig.Process(EnvPrefix, &e); err != nil {
		return
	}

	var host string
	fs.StringVar(&host, "host", e.Host, "listen host name")
	var port uint
	fs.UintVar(&port, "port", e.Port, "listen port number")
	fs.StringVar(&cfg.Store, "store", e.Store, "storage backend: sqlite, json or memory")
	fs.StringVar(&cfg.DBUrl, "db-url", e.DBUrl, "path to the SQLite3 DB file or the JSON document")
	fs.StringVar(&cfg.TokenSecret, "token-secret", e.TokenSecret, "secret key for token encryption and decryption")
	var ttl uint
	fs.UintVar(&ttl, "token-ttl", e.TokenTTL, "token TTL in seconds")
	var origins string
	fs.StringVar(&origins, "cors-origins", e.CORSOrigins, "comma separated list of allowed CORS origins")
	fs.StringVar(&cfg.SeedFile, "seed", e.Seed, "YAML file with users and forms to create at startup")
	fs.BoolVar(&cfg.Debug, "debug", e.Debug, "log at DEBUG level")

	if args == nil {
		args = os.Args[1:]
	}
	if err = fs.Parse(args); err != nil {
		return
	}

	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(int(port)))
	cfg.TokenTTL = time.Duration(ttl) * time.Second
	for _, origin := range strings.Split(origins, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, trimmed)
		}
	}

	if cfg.TokenSecret == "" {
		err = errors.New("missing parameter -token-secret")
	}

	return
}

func (cfg Config) Url() (url string) {
	url = cfg.Addr
	url = regexp.MustCompile(`^0.0.0.0`).ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}
