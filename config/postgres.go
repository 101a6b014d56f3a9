package config

import (
	"context"
	"fmt"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// PostgresConfig defines the connection for the optional snapshot mirror.
type PostgresConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	TimeZone string `mapstructure:"timezone"`

	// SSMPrefix names the Parameter Store path holding HOST, USER and
	// PASSWORD in prod, e.g. "/tradepulse/db/".
	SSMPrefix string `mapstructure:"ssm_prefix"`

	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// ParameterLookup fetches a (possibly encrypted) value from a parameter store.
type ParameterLookup func(ctx context.Context, name string) (string, error)

// DSN builds the connection string. In prod, host and credentials come from
// SSM Parameter Store under SSMPrefix; elsewhere the configured values are used.
func (cfg *PostgresConfig) DSN(ctx context.Context, env string) (string, error) {
	return cfg.dsn(ctx, env, getParameterStoreValue)
}

func (cfg *PostgresConfig) dsn(ctx context.Context, env string, lookup ParameterLookup) (string, error) {
	host, user, password := cfg.Host, cfg.User, cfg.Password

	if env == "prod" {
		var err error
		if host, err = lookup(ctx, cfg.SSMPrefix+"HOST"); err != nil {
			return "", fmt.Errorf("resolve db host: %w", err)
		}
		if user, err = lookup(ctx, cfg.SSMPrefix+"USER"); err != nil {
			return "", fmt.Errorf("resolve db user: %w", err)
		}
		if password, err = lookup(ctx, cfg.SSMPrefix+"PASSWORD"); err != nil {
			return "", fmt.Errorf("resolve db password: %w", err)
		}
	}

	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		host, cfg.Port, user, password, cfg.DBName, cfg.SSLMode,
	)
	if cfg.TimeZone != "" {
		dsn += fmt.Sprintf(" TimeZone=%s", cfg.TimeZone)
	}
	return dsn, nil
}

func getParameterStoreValue(ctx context.Context, parameterName string) (string, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctxWithTimeout)
	if err != nil {
		return "", fmt.Errorf("load aws config: %w", err)
	}

	client := ssm.NewFromConfig(awsCfg)

	decrypt := true
	result, err := client.GetParameter(ctxWithTimeout, &ssm.GetParameterInput{
		Name:           &parameterName,
		WithDecryption: &decrypt,
	})
	if err != nil {
		return "", fmt.Errorf("get parameter %s: %w", parameterName, err)
	}

	if result.Parameter == nil || result.Parameter.Value == nil {
		return "", fmt.Errorf("parameter %s has no value", parameterName)
	}

	return *result.Parameter.Value, nil
}
