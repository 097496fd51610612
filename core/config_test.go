package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckSecretKey(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		key     string
		wantErr bool
	}{
		{name: "dev default", env: "DEV", key: defaultSecretKey},
		{name: "test default", env: "TEST", key: defaultSecretKey},
		{name: "prod default", env: "PROD", key: defaultSecretKey, wantErr: true},
		{name: "qa default", env: "QA", key: defaultSecretKey, wantErr: true},
		{name: "prod own key", env: "PROD", key: "s3cr3t-prod"},
		{name: "empty key", env: "DEV", key: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkSecretKey(tt.env, tt.key)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestNewConfig(t *testing.T) {
	t.Setenv("ENV", "test")
	t.Setenv("TEST_BACKEND_BASEURL", "http://localhost:8000/")
	t.Setenv("TEST_SESSION_STORE", "MEMORY")

	conf := NewConfig()
	require.NotNil(t, conf)
	assert.Equal(t, "TEST", conf.Env)
	assert.True(t, conf.TestMode)
	assert.Equal(t, defaultSecretKey, conf.SecretKey)
	assert.Equal(t, "http://localhost:8000", conf.Backend.BaseURL)
	assert.Equal(t, SessionStoreMemory, conf.Session.Store)
	assert.Equal(t, 5*time.Second, conf.Backend.LoginTimeout)
}
