package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_NAME", "learnconnect")
	t.Setenv("JWT_SECRET", "s3cret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	for _, k := range []string{"APP_ENV", "APP_PORT", "PORT", "TOKEN_TTL", "BCRYPT_COST", "CORS_ALLOWED_ORIGINS", "MAIL_TRANSPORT", "PROFILE_CACHE_TTL"} {
		t.Setenv(k, "")
	}
	t.Setenv("FRONTEND_URL", "https://app.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, "3306", cfg.DBPort)
	assert.True(t, cfg.DBMigrate)
	assert.Equal(t, 7*24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, []string{
		"http://localhost:3000",
		"https://my-app-rose-six.vercel.app",
		"https://app.example.com",
	}, cfg.CORSOrigins)
	assert.False(t, cfg.Production())

	assert.Equal(t, MailTransportSMTP, cfg.Mail.Transport)
	assert.Equal(t, 10*time.Second, cfg.Mail.Timeout)
	assert.Equal(t, "mail.verification", cfg.Mail.Queue)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("APP_PORT", "8080")
	t.Setenv("TOKEN_TTL", "1h")
	t.Setenv("BCRYPT_COST", "12")
	t.Setenv("DB_MIGRATE", "off")
	t.Setenv("MAIL_TRANSPORT", "queue")
	t.Setenv("EMAIL_USER", "bot@example.com")
	t.Setenv("AMQP_URL", "amqp://u:p@mq:5672/")
	t.Setenv("PROFILE_CACHE_TTL", "garbage")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Production())
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, time.Hour, cfg.TokenTTL)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.False(t, cfg.DBMigrate)
	assert.Equal(t, MailTransportQueue, cfg.Mail.Transport)
	assert.Equal(t, "bot@example.com", cfg.Mail.SMTPUser)
	assert.Equal(t, "bot@example.com", cfg.Mail.From)
	assert.Equal(t, "amqp://u:p@mq:5672/", cfg.Mail.AMQPURL)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL, "unparsable duration falls back")
}

func TestLoadReportsAllMissing(t *testing.T) {
	for _, k := range []string{"DB_USER", "DB_HOST", "DB_NAME", "JWT_SECRET"} {
		t.Setenv(k, "")
	}
	_, err := Load()
	require.Error(t, err)
	for _, k := range []string{"DB_USER", "DB_HOST", "DB_NAME", "JWT_SECRET"} {
		assert.Contains(t, err.Error(), k)
	}
}

func TestLoadRejectsBadCost(t *testing.T) {
	setRequired(t)
	t.Setenv("BCRYPT_COST", "99")
	_, err := Load()
	assert.ErrorContains(t, err, "BCRYPT_COST")
}

func TestRedisOptions(t *testing.T) {
	t.Setenv("REDIS_URL", "")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("REDIS_DB", "2")
	opts, err := RedisOptions()
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Nil(t, opts.TLSConfig)

	t.Setenv("REDIS_URL", "redis://:pw@example:6379/3")
	opts, err = RedisOptions()
	require.NoError(t, err)
	assert.Equal(t, "example:6379", opts.Addr)
	assert.Equal(t, "pw", opts.Password)
	assert.Equal(t, 3, opts.DB)
}
