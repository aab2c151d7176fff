package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "127.0.0.1:50051", c.ServerEndpointAddr)
	assert.Equal(t, ".nestdevhive", c.DataDir)
	assert.Equal(t, 10*time.Second, c.RequestTimeout)
	assert.Equal(t, 5*time.Second, c.OnlineCheckInterval)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "cli.json")
	require.NoError(t, os.WriteFile(file,
		[]byte(`{"server_endpoint_addr":"hive.example:9000","request_timeout":"30s"}`), 0o600))

	tests := []struct {
		name    string
		args    []string
		want    *Config
		wantErr bool
	}{
		{name: "defaults", args: nil,
			want: &Config{ServerEndpointAddr: "127.0.0.1:50051", DataDir: ".nestdevhive", RequestTimeout: 10 * time.Second, OnlineCheckInterval: 5 * time.Second}},
		{name: "flags", args: []string{"-a", "127.0.0.1:9090", "-t", "3", "-d", "/tmp/ndh"},
			want: &Config{ServerEndpointAddr: "127.0.0.1:9090", DataDir: "/tmp/ndh", RequestTimeout: 3 * time.Second, OnlineCheckInterval: 5 * time.Second}},
		{name: "file", args: []string{"-c", file},
			want: &Config{ServerEndpointAddr: "hive.example:9000", DataDir: ".nestdevhive", RequestTimeout: 30 * time.Second, OnlineCheckInterval: 5 * time.Second}},
		{name: "flags override file", args: []string{"-config", file, "-a", "other:1"},
			want: &Config{ServerEndpointAddr: "other:1", DataDir: ".nestdevhive", RequestTimeout: 30 * time.Second, OnlineCheckInterval: 5 * time.Second}},
		{name: "bad interval", args: []string{"-t", "abc"}, wantErr: true},
		{name: "interval flag", args: []string{"-i", "1"},
			want: &Config{ServerEndpointAddr: "127.0.0.1:50051", DataDir: ".nestdevhive", RequestTimeout: 10 * time.Second, OnlineCheckInterval: time.Second}},
		{name: "zero timeout", args: []string{"-t", "0"}, wantErr: true},
		{name: "missing file", args: []string{"-c", filepath.Join(dir, "nope.json")}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LoadConfig(tt.args)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(tt.want, got))
		})
	}
}
