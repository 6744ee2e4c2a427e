package embedder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectProvider(t *testing.T) {
	tests := []struct {
		name      string
		provider  string
		jinaKey   string
		openaiKey string
		want      string
	}{
		{name: "explicit jina provider", provider: "jina", want: ProviderJina},
		{name: "explicit openai provider", provider: "OpenAI", want: ProviderOpenAI},
		{name: "explicit local provider", provider: "local", jinaKey: "k", want: ProviderLocal},
		{name: "jina key present", jinaKey: "test-key", want: ProviderJina},
		{name: "openai key present", openaiKey: "test-key", want: ProviderOpenAI},
		{name: "jina wins over openai", jinaKey: "a", openaiKey: "b", want: ProviderJina},
		{name: "no keys falls back to local", want: ProviderLocal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvProvider, tt.provider)
			t.Setenv(EnvJinaAPIKey, tt.jinaKey)
			t.Setenv(EnvOpenAIAPIKey, tt.openaiKey)

			assert.Equal(t, tt.want, DetectProvider())
		})
	}
}

func TestNew(t *testing.T) {
	t.Run("explicit providers", func(t *testing.T) {
		e, err := New(Config{Provider: "local"})
		require.NoError(t, err)
		assert.Equal(t, ProviderLocal, e.Provider())

		e, err = New(Config{Provider: "jina", APIKey: "k", Model: "m"})
		require.NoError(t, err)
		assert.Equal(t, ProviderJina, e.Provider())
		assert.Equal(t, "m", e.Model())

		e, err = New(Config{Provider: "openai", APIKey: "k"})
		require.NoError(t, err)
		assert.Equal(t, ProviderOpenAI, e.Provider())
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := New(Config{Provider: "cohere"})
		assert.ErrorIs(t, err, ErrUnsupportedModel)
	})

	t.Run("auto-detect from environment", func(t *testing.T) {
		t.Setenv(EnvProvider, "")
		t.Setenv(EnvJinaAPIKey, "")
		t.Setenv(EnvOpenAIAPIKey, "")

		e, err := NewFromEnv()
		require.NoError(t, err)
		assert.Equal(t, ProviderLocal, e.Provider())
	})
}
