package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"sftpsync/internal/config"
	"sftpsync/internal/testsupport"
	"sftpsync/internal/transfer"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	client     *testsupport.DirClient
	dialed     []transfer.Options
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	for _, key := range config.EnvironmentKeys() {
		t.Setenv(key, "")
	}
	cfg := testsupport.NewConfig(t, append([]testsupport.ConfigOption{testsupport.WithoutMail()}, opts...)...)
	t.Setenv("HOME", filepath.Join(testsupport.BaseDir(cfg), "home"))

	env := &cliTestEnv{
		cfg:        cfg,
		configPath: filepath.Join(testsupport.BaseDir(cfg), "config.toml"),
		client:     testsupport.NewDirClient(testsupport.RemoteRoot(cfg)),
	}
	env.writeConfig(t)

	previous := dialSession
	dialSession = func(_ context.Context, opts transfer.Options) (transfer.Client, error) {
		env.dialed = append(env.dialed, opts)
		return env.client, nil
	}
	t.Cleanup(func() { dialSession = previous })

	return env
}

func (e *cliTestEnv) writeConfig(t *testing.T) {
	t.Helper()
	payload, err := toml.Marshal(e.cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(e.configPath, payload, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func (e *cliTestEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return runCLI(t, append([]string{"--config", e.configPath}, args...)...)
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}
