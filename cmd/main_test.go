package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MimeLyc/sakura-subtrans/internal/config"
	"github.com/MimeLyc/sakura-subtrans/internal/llm"
	"github.com/MimeLyc/sakura-subtrans/internal/service"
)

const fixtureSRT = "1\n00:00:01,000 --> 00:00:02,000\nこんにちは\n\n2\n00:00:03,000 --> 00:00:04,000\nOK!\n"

var envKeys = []string{
	"LLM_API_KEY", "LLM_API_URL", "LLM_MODEL", "LLM_MAX_TOKENS", "LLM_TEMPERATURE",
	"LLM_REPEAT_PENALTY", "LLM_TIMEOUT", "LLM_CONTEXT_SIZE",
	"INPUT_PATH", "OUTPUT_PATH", "TRANSLATE_MODE", "BATCH_SIZE", "MAX_WORKERS", "LINE_MAX_TOKENS", "TARGET_LANGUAGE", "GLOSSARY_PATH",
	"WATCH_DIR", "CRON_EXPR", "LOG_LEVEL", "LOG_FILE",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
}

type run struct {
	stdout bytes.Buffer
	stderr bytes.Buffer
	err    error
}

func execute(t *testing.T, ctx *commandContext, args ...string) *run {
	t.Helper()
	r := &run{}
	cmd := newRootCommand(ctx)
	cmd.SetArgs(args)
	cmd.SetOut(&r.stdout)
	cmd.SetErr(&r.stderr)
	r.err = cmd.ExecuteContext(context.Background())
	return r
}

func stubContext(reply string, prompts *[]string) *commandContext {
	ctx := newCommandContext()
	ctx.newCompleter = func(*config.Config) (llm.Completer, error) {
		return llm.CompleterFunc(func(_ context.Context, prompt string, _ *llm.CompletionOptions) (string, error) {
			if prompts != nil {
				*prompts = append(*prompts, prompt)
			}
			return reply, nil
		}), nil
	}
	return ctx
}

func TestTranslateCommand(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	input := filepath.Join(dir, "ep01.srt")
	require.NoError(t, os.WriteFile(input, []byte(fixtureSRT), 0o644))

	var prompts []string
	r := execute(t, stubContext("你好", &prompts), "translate", "-i", input, "--workers", "1")
	require.NoError(t, r.err)

	require.Len(t, prompts, 1)
	assert.Contains(t, r.stdout.String(), "ep01.bilingual.srt (srt, line mode")
	assert.Contains(t, r.stdout.String(), "pass-through")

	data, err := os.ReadFile(filepath.Join(dir, "ep01.bilingual.srt"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "こんにちは\n你好")
	assert.Contains(t, string(data), "OK!\nOK!")
}

func TestTranslateCommand_InputFromEnvAndConfigFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	input := filepath.Join(dir, "ep02.srt")
	output := filepath.Join(dir, "out", "ep02.zh.srt")
	require.NoError(t, os.WriteFile(input, []byte(fixtureSRT), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Dir(output), 0o755))

	cfgPath := filepath.Join(dir, "subtrans.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("[translate]\noutput = \""+filepath.ToSlash(output)+"\"\n"), 0o644))
	t.Setenv("INPUT_PATH", input)

	r := execute(t, stubContext("你好", nil), "--config", cfgPath, "--log-level", "debug", "translate")
	require.NoError(t, r.err)

	assert.FileExists(t, output)
	assert.Contains(t, r.stderr.String(), "[DEBUG]")
}

func TestTranslateCommand_Errors(t *testing.T) {
	clearEnv(t)

	r := execute(t, stubContext("", nil), "translate")
	require.Error(t, r.err)
	assert.True(t, service.IsErrorType(r.err, service.ErrValidation))

	r = execute(t, stubContext("", nil), "translate", "-i", "ep01.srt", "--mode", "stream")
	require.Error(t, r.err)
	assert.True(t, service.IsErrorType(r.err, service.ErrConfig))

	r = execute(t, stubContext("", nil), "translate", "extra-arg")
	assert.Error(t, r.err)
}

func TestModelsCommand(t *testing.T) {
	clearEnv(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"id":"sakura-7b"},{"id":"sakura-14b"}]}`))
	}))
	defer server.Close()
	t.Setenv("LLM_API_URL", server.URL+"/v1")

	r := execute(t, newCommandContext(), "models")
	require.NoError(t, r.err)

	lines := strings.Split(strings.TrimSpace(r.stdout.String()), "\n")
	assert.Equal(t, []string{"* sakura-7b", "  sakura-14b"}, lines)
}

func TestModelsCommand_ServerDown(t *testing.T) {
	clearEnv(t)
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()
	t.Setenv("LLM_API_URL", server.URL)

	r := execute(t, newCommandContext(), "models")
	require.Error(t, r.err)
	assert.True(t, service.IsErrorType(r.err, service.ErrAPI))
}

func TestWatchCommand_RequiresDir(t *testing.T) {
	clearEnv(t)

	r := execute(t, stubContext("", nil), "watch")
	require.Error(t, r.err)
	assert.True(t, service.IsErrorType(r.err, service.ErrConfig))

	r = execute(t, stubContext("", nil), "watch", "--dir", t.TempDir(), "--cron", "whenever")
	require.Error(t, r.err)
	assert.True(t, service.IsErrorType(r.err, service.ErrConfig))
}
