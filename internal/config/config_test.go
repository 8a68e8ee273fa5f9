package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSV(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{name: "empty", in: "", want: nil},
		{name: "single", in: "kafka:9092", want: []string{"kafka:9092"}},
		{name: "trims and skips blanks", in: " a:1 , ,b:2,", want: []string{"a:1", "b:2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CSV(tt.in))
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "")
	t.Setenv("CORS_ORIGINS", "")
	t.Setenv("UPLOAD_DIR", "")
	t.Setenv("KAFKA_TOPIC", "")
	t.Setenv("ES_INDEX", "")

	cfg := Load()

	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, defaultOrigins, cfg.CORSOrigins)
	assert.Equal(t, "uploads", cfg.UploadDir)
	assert.Equal(t, "ad_events", cfg.KafkaTopic)
	assert.Equal(t, "ads", cfg.ESIndex)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg := Load()

	assert.Equal(t, 9000, cfg.ServerPort)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, []byte("s3cret"), cfg.JWTSecret)
}

func TestEnvIntDefault_InvalidFallsBack(t *testing.T) {
	t.Setenv("SOME_INT", "abc")
	assert.Equal(t, 7, EnvIntDefault("SOME_INT", 7))
}

func TestValidate(t *testing.T) {
	err := Config{}.Validate()
	require.ErrorIs(t, err, ErrMissingEnv)
	assert.Contains(t, err.Error(), "DATABASE_URL")
	assert.Contains(t, err.Error(), "JWT_SECRET")

	err = Config{DatabaseURL: "postgres://localhost/ads"}.Validate()
	require.ErrorIs(t, err, ErrMissingEnv)
	assert.NotContains(t, err.Error(), "DATABASE_URL")

	require.NoError(t, Config{DatabaseURL: "postgres://localhost/ads", JWTSecret: []byte("s")}.Validate())
	require.NoError(t, Config{DatabaseURL: "postgres://localhost/ads"}.RequireDatabase())
}
