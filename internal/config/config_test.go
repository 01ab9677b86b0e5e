package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Env:                      "production",
		DBSSLMode:                "require",
		JWTSecret:                "secure-secret-at-least-32-chars-long",
		DBPassword:               "secure-password",
		Port:                     "8080",
		ImageStore:               ImageStoreSQL,
		ImageMaxUploadSizeMB:     5,
		DBConnMaxLifetimeMinutes: 1,
		RedisURL:                 "redis://localhost:6379",
	}
}

func TestConfig_ValidateSSLMode(t *testing.T) {
	tests := []struct {
		name        string
		env         string
		sslMode     string
		expectError bool
	}{
		{"Production with empty SSL mode", "production", "", true},
		{"Production with disable SSL mode", "production", "disable", true},
		{"Production with require SSL mode", "production", "require", false},
		{"Prod with empty SSL mode", "prod", "", true},
		{"Prod with verify-full SSL mode", "prod", "verify-full", false},
		{"Development with disable SSL mode", "development", "disable", false},
		{"Test with empty SSL mode", "test", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			c.Env = tt.env
			c.DBSSLMode = tt.sslMode

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateImageStore(t *testing.T) {
	tests := []struct {
		name        string
		store       string
		mongoURI    string
		expectError bool
	}{
		{"sql store", ImageStoreSQL, "", false},
		{"mongo store with uri", ImageStoreMongo, "mongodb://localhost:27017", false},
		{"mongo store without uri", ImageStoreMongo, "", true},
		{"unknown store", "s3", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			c.ImageStore = tt.store
			c.MongoURI = tt.mongoURI

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateProductionSecrets(t *testing.T) {
	c := validConfig()
	c.JWTSecret = defaultJWTSecret
	assert.Error(t, c.Validate())

	c = validConfig()
	c.JWTSecret = "short"
	assert.Error(t, c.Validate())

	c = validConfig()
	c.DBPassword = "password"
	assert.Error(t, c.Validate())

	c = validConfig()
	c.ImageMaxUploadSizeMB = 0
	assert.Error(t, c.Validate())

	c = validConfig()
	c.SeedDemo = true
	assert.Error(t, c.Validate())
}

func TestLoadConfig_DefaultsAndNormalization(t *testing.T) {
	t.Cleanup(viper.Reset)
	t.Setenv("APP_ENV", "development")
	t.Setenv("DB_SSLMODE", "  DISABLE  ")
	t.Setenv("IMAGE_STORE", " SQL ")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, ImageStoreSQL, c.ImageStore)
	assert.Equal(t, 5, c.ImageMaxUploadSizeMB)
	assert.Equal(t, 1200, c.ImageMaxWidth)
	assert.Equal(t, "/dashboard", c.DashboardPath)
	assert.Equal(t, 25, c.DBMaxOpenConns)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Cleanup(viper.Reset)
	t.Setenv("APP_ENV", "test")
	t.Setenv("PORT", "9999")
	t.Setenv("DASHBOARD_PATH", "/me")
	t.Setenv("FEATURE_FLAGS", "live_comments=off")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "9999", c.Port)
	assert.Equal(t, "/me", c.DashboardPath)
	assert.Equal(t, "live_comments=off", c.FeatureFlags)
}
