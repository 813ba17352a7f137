package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/venuelab/backend/pkg/storage"
)

type Configs struct {
	Env string

	Database  DatabaseConfigs
	ApiServer ServerConfigs
	Auth      AuthConfigs
	Session   SessionConfigs
	Storage   storage.S3Configs
	Redis     RedisConfigs
	Prize     PrizeConfigs
}

// Load reads the configuration file at path. Values not present in the file
// keep their zero value; callers are expected to validate what they need.
func Load(path string) (Configs, error) {
	var cfg Configs
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Configs{}, err
	}

	return cfg, nil
}

type DatabaseConfigs struct {
	Host     string
	Port     string
	Database string
	User     string
	Password string
}

func (d *DatabaseConfigs) ConnectionString() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.User,
		d.Password,
		d.Host,
		d.Port,
		d.Database,
	)
}

type ServerConfigs struct {
	Host string
	Port string
	Cert string
	Key  string
}

type SessionConfigs struct {
	Secret string
	Name   string
}

type AuthConfigs struct {
	TokenSecret string
	AccessToken TokenConfigs
}

type TokenConfigs struct {
	Name       string
	Expiration time.Duration
}

type RedisConfigs struct {
	Addr string
}

// PrizeConfigs holds everything the prize engine consumes as configuration:
// the signing key, the redemption mode, the civil timezone the venue operates
// in, and the daily availability boundaries.
type PrizeConfigs struct {
	SignatureSecret  string
	SignatureVersion int

	// RedemptionMode is either "single_phase" or "two_phase".
	RedemptionMode string

	// Timezone is an IANA name, e.g. "America/Argentina/Buenos_Aires".
	// Daily schedules and reusable-token windows are evaluated in it.
	Timezone  string
	OpenHour  int
	CloseHour int

	DefaultExpirationDays int
	PublicBaseURL         string
	RouletteMaxPoolSize   int

	ExportBucket string
}
