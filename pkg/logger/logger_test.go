package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   Level
		want string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level("bogus"), "INFO"},
	}

	for _, tt := range tests {
		t.Run(string(tt.in), func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.in).String())
		})
	}
}

func TestNew(t *testing.T) {
	t.Run("text format uses the tint handler", func(t *testing.T) {
		log := NewDevelopment("test")
		assert.NotNil(t, log.Unwrap())
	})

	t.Run("with does not mutate the receiver", func(t *testing.T) {
		base := NewProduction("base")
		scoped := base.With("node", "web-1")
		assert.NotSame(t, base, scoped)
		assert.Equal(t, "base", base.config.Component)
	})

	t.Run("component scoping", func(t *testing.T) {
		log := NewDevelopment("root").WithComponent("driver")
		assert.Equal(t, "driver", log.config.Component)
	})
}
