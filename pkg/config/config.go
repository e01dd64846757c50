// Package config loads the reporter's settings from the environment.
//
// Every setting is required unless a default is noted. Validation is
// performed once at entry and reports all absent keys in a single error.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultRegion    = "us-east-1"
	DefaultUsageType = "BoxUsage:t2.small"

	dateLayout = "2006-01-02"
)

// envKeys lists the required environment variables in the order they are
// reported when missing.
var envKeys = []string{
	"COMMON_TAG_KEY",
	"COMMON_TAG_VALUE",
	"DISTINCT_TAG_KEY",
	"START_DATE",
	"S3_BUCKET_FOR_ALL_DATA",
	"S3_KEY_FOR_COST_DATA_PER_USER",
	"S3_KEY_FOR_USAGE_DATA_PER_USER",
	"EMAIL_SENDER_ADDRESS",
	"EMAIL_SENDER_NAME",
	"EMAIL_RECIPIENTS",
	"HELP_CONTACT_ADDRESS",
}

// Config holds one run's settings.
type Config struct {
	ClusterTagKey   string
	ClusterTagValue string
	OwnerTagKey     string
	StartDate       time.Time

	Bucket   string
	UsageKey string
	CostKey  string

	SenderAddress string
	SenderName    string
	Recipients    []string
	HelpContact   string

	Region    string
	UsageType string

	// CompatPositionalColumns restores the legacy usage-table layout where
	// each owner's cells follow its own series order instead of the header.
	CompatPositionalColumns bool
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	for _, key := range envKeys {
		// AutomaticEnv alone does not register keys for IsSet checks.
		_ = v.BindEnv(key)
	}
	_ = v.BindEnv("AWS_REGION")
	_ = v.BindEnv("USAGE_TYPE")
	_ = v.BindEnv("COMPAT_POSITIONAL_COLUMNS")
	v.SetDefault("AWS_REGION", DefaultRegion)
	v.SetDefault("USAGE_TYPE", DefaultUsageType)

	var missing []string
	for _, key := range envKeys {
		if strings.TrimSpace(v.GetString(key)) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing configuration: %s", strings.Join(missing, ", "))
	}

	start, err := time.Parse(dateLayout, v.GetString("START_DATE"))
	if err != nil {
		return nil, fmt.Errorf("invalid START_DATE: %w", err)
	}

	cfg := &Config{
		ClusterTagKey:           v.GetString("COMMON_TAG_KEY"),
		ClusterTagValue:         v.GetString("COMMON_TAG_VALUE"),
		OwnerTagKey:             v.GetString("DISTINCT_TAG_KEY"),
		StartDate:               start,
		Bucket:                  v.GetString("S3_BUCKET_FOR_ALL_DATA"),
		UsageKey:                v.GetString("S3_KEY_FOR_USAGE_DATA_PER_USER"),
		CostKey:                 v.GetString("S3_KEY_FOR_COST_DATA_PER_USER"),
		SenderAddress:           v.GetString("EMAIL_SENDER_ADDRESS"),
		SenderName:              v.GetString("EMAIL_SENDER_NAME"),
		Recipients:              ParseRecipients(v.GetString("EMAIL_RECIPIENTS")),
		HelpContact:             v.GetString("HELP_CONTACT_ADDRESS"),
		Region:                  v.GetString("AWS_REGION"),
		UsageType:               v.GetString("USAGE_TYPE"),
		CompatPositionalColumns: v.GetBool("COMPAT_POSITIONAL_COLUMNS"),
	}

	if len(cfg.Recipients) == 0 {
		return nil, fmt.Errorf("missing configuration: EMAIL_RECIPIENTS")
	}

	return cfg, nil
}

// ParseRecipients accepts the legacy bracketed list form
// "[a@x.org, b@y.org]" as well as a plain comma-separated list.
func ParseRecipients(raw string) []string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "[")
	raw = strings.TrimSuffix(raw, "]")

	var recipients []string
	for _, part := range strings.Split(raw, ",") {
		if addr := strings.TrimSpace(part); addr != "" {
			recipients = append(recipients, addr)
		}
	}
	return recipients
}
