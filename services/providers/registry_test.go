package providers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/route-optimizer/models"
	"github.com/upb/route-optimizer/services/prompt"
)

type stubProvider struct {
	name  string
	model string
}

func (s *stubProvider) Name() string              { return s.name }
func (s *stubProvider) Kind() models.ProviderKind { return models.ProviderKindLocal }
func (s *stubProvider) Model() string             { return s.model }
func (s *stubProvider) Ping(ctx context.Context) error {
	return nil
}
func (s *stubProvider) Generate(ctx context.Context, p prompt.Prompt) (string, error) {
	return "", nil
}

func stubBuilder(name string) Builder {
	return func(config Config) (Provider, error) {
		return &stubProvider{name: name, model: config.Model}, nil
	}
}

func TestRegistry_Build(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("ollama", stubBuilder("ollama"), "local"))

	t.Run("by name", func(t *testing.T) {
		p, err := r.Build("ollama", Config{Model: "llama3.1"})
		require.NoError(t, err)
		assert.Equal(t, "ollama", p.Name())
		assert.Equal(t, "llama3.1", p.Model())
	})

	t.Run("by alias, case insensitive", func(t *testing.T) {
		p, err := r.Build(" Local ", Config{})
		require.NoError(t, err)
		assert.Equal(t, "ollama", p.Name())
	})

	t.Run("unknown selector", func(t *testing.T) {
		_, err := r.Build("anthropic", Config{})
		assert.ErrorIs(t, err, ErrProviderNotFound)
		assert.Contains(t, err.Error(), "anthropic (available: local, ollama)")
	})
}

func TestRegistry_BuilderError(t *testing.T) {
	r := NewRegistry()
	boom := errors.New("boom")
	require.NoError(t, r.Register("broken", func(Config) (Provider, error) { return nil, boom }))

	_, err := r.Build("broken", Config{})
	assert.ErrorIs(t, err, boom)
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("openai", stubBuilder("openai"), "remote"))

	assert.ErrorIs(t, r.Register("remote", stubBuilder("other")), ErrProviderAlreadyRegistered)
	assert.Error(t, r.Register("", stubBuilder("x")))
	assert.Error(t, r.Register("nil", nil))
	assert.Equal(t, []string{"openai", "remote"}, r.Names())
}

func TestRegistry_MustRegisterPanicsOnDuplicate(t *testing.T) {
	r := NewRegistry().MustRegister("openai", stubBuilder("openai"))
	assert.Panics(t, func() { r.MustRegister("openai", stubBuilder("openai")) })
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, 0.1, cfg.Temperature)
	assert.NotNil(t, cfg.Headers)
}
