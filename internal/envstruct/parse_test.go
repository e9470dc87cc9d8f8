package envstruct

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPopulate(t *testing.T) {
	type config struct {
		Addr          string        `env:"MORIARTY_ADDR" envDefault:"localhost:4000"`
		APIKey        string        `env:"OPENAI_API_KEY"`
		Debug         bool          `env:"MORIARTY_DEBUG" envDefault:"false"`
		MaxPlayers    int           `env:"MORIARTY_MAX_PLAYERS" envDefault:"8"`
		DiscussionDur time.Duration `env:"MORIARTY_DISCUSSION_DURATION" envDefault:"5m"`
	}

	env := map[string]string{
		"OPENAI_API_KEY": "sk-test",
		"MORIARTY_DEBUG": "true",
	}
	lookupEnv := func(name string) (string, bool) {
		val, ok := env[name]
		return val, ok
	}

	var cfg config
	require.NoError(t, Populate(&cfg, lookupEnv))
	require.Equal(t, "localhost:4000", cfg.Addr)
	require.Equal(t, "sk-test", cfg.APIKey)
	require.True(t, cfg.Debug)
	require.Equal(t, 8, cfg.MaxPlayers)
	require.Equal(t, 5*time.Minute, cfg.DiscussionDur)
}

func TestPopulateErrors(t *testing.T) {
	lookupEnv := func(string) (string, bool) { return "", false }

	t.Run("not a pointer", func(t *testing.T) {
		err := Populate(struct{}{}, lookupEnv)
		require.ErrorIs(t, err, ErrInvalidValue)
	})

	t.Run("missing required variable", func(t *testing.T) {
		var cfg struct {
			APIKey string `env:"OPENAI_API_KEY"`
		}
		err := Populate(&cfg, lookupEnv)
		require.ErrorIs(t, err, ErrEnvNotSet)
	})

	t.Run("invalid int", func(t *testing.T) {
		var cfg struct {
			MaxPlayers int `env:"MORIARTY_MAX_PLAYERS" envDefault:"not-a-number"`
		}
		err := Populate(&cfg, lookupEnv)
		require.Error(t, err)
	})
}
