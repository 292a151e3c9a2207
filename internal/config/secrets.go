package config

import (
	"net/url"
	"slices"
)

const redacted = "***"

// secretFields lists every plain secret in cfg.
func (c *Config) secretFields() []*string {
	return []*string{
		&c.Ebay.ClientSecret,
		&c.Amazon.AccessKey,
		&c.Amazon.SecretKey,
		&c.Credentials.VaultPassword,
		&c.Postgres.Password,
		&c.Redis.Password,
		&c.S3.AccessKey,
		&c.S3.SecretKey,
		&c.Server.APIKey,
		&c.Server.ReadAPIKey,
		&c.Notify.TelegramToken,
	}
}

// RedactedConfig returns a copy of cfg that is safe to log. Secrets become
// "***", the Postgres DSN keeps everything but its password and the Discord
// webhook keeps only its host. Slices are cloned so the copy can be mutated.
func RedactedConfig(cfg *Config) Config {
	out := *cfg
	for _, s := range out.secretFields() {
		if *s != "" {
			*s = redacted
		}
	}
	out.Postgres.DSN = redactDSN(cfg.Postgres.DSN)
	out.Notify.DiscordWebhookURL = redactWebhook(cfg.Notify.DiscordWebhookURL)

	out.Search.Keywords = slices.Clone(cfg.Search.Keywords)
	out.Search.BlockedSellers = slices.Clone(cfg.Search.BlockedSellers)
	out.Server.CORSOrigins = slices.Clone(cfg.Server.CORSOrigins)
	out.Notify.Events = slices.Clone(cfg.Notify.Events)
	return out
}

// redactDSN masks the password of a URL-style DSN. Anything that does not
// parse as one is masked whole.
func redactDSN(dsn string) string {
	if dsn == "" {
		return ""
	}
	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return redacted
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), redacted)
	}
	return u.String()
}

// redactWebhook keeps the scheme and host; the path carries the token.
func redactWebhook(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return redacted
	}
	return u.Scheme + "://" + u.Host + "/" + redacted
}
