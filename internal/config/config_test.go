package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validTOML = `
[llm]
base_url = "https://api.example.com/v1"
api_key = "sk-test"
chat_model = "gpt-4o-mini"
embedding_model = "text-embedding-3-small"

[rag]
chunk_size = 500
top_k = 3
embed_concurrency = 4

[limits]
max_upload_mb = 10.0
max_conversation_mb = 4.0

[sqlite]
path = "data/app.db"
`

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadValidFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", writeConfigFile(t, validTOML))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com/v1", cfg.LLM.BaseURL)
	assert.Equal(t, 500, cfg.RAG.ChunkSize)
	assert.Equal(t, 3, cfg.RAG.TopK)
	assert.InDelta(t, 4.0, cfg.Limits.MaxConversationMB, 1e-9)
	assert.Equal(t, "data/app.db", cfg.SQLite.Path)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTPAddr())
	assert.False(t, cfg.Redis.Enabled)
	assert.False(t, cfg.RabbitMQ.Enabled)
}

func TestLoadReportsAllMissingKeys(t *testing.T) {
	t.Setenv("CONFIG_FILE", writeConfigFile(t, `
[llm]
base_url = "https://api.example.com/v1"
`))

	_, err := Load()
	require.Error(t, err)
	assert.ErrorContains(t, err, "llm.api_key")
	assert.ErrorContains(t, err, "sqlite.path")
	assert.ErrorContains(t, err, "rag.chunk_size")
	assert.ErrorContains(t, err, "limits.max_upload_mb")
}

func TestLoadEnvOverridesFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", writeConfigFile(t, validTOML))
	t.Setenv("RAG_TOP_K", "7")
	t.Setenv("LLM_CHAT_MODEL", "gpt-4.1")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.RAG.TopK)
	assert.Equal(t, "gpt-4.1", cfg.LLM.ChatModel)
}

func TestLoadRejectsMalformedEnv(t *testing.T) {
	t.Setenv("CONFIG_FILE", writeConfigFile(t, validTOML))
	t.Setenv("RAG_TOP_K", "three")

	_, err := Load()
	require.Error(t, err)
	assert.ErrorContains(t, err, "RAG_TOP_K")
}

func TestLoadEnabledRedisRequiresAddr(t *testing.T) {
	t.Setenv("CONFIG_FILE", writeConfigFile(t, validTOML+`
[redis]
enabled = true
addr = ""
`))

	_, err := Load()
	require.Error(t, err)
	assert.ErrorContains(t, err, "redis.addr")
}
