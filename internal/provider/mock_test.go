package provider

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMockProvider_CalculateCost(t *testing.T) {
	p := NewMockProvider()

	tests := []struct {
		name string
		opts Options
		want int
	}{
		{"defaults price at base", Options{}, 5},
		{"small size", Options{Size: "256x256", Quality: "standard"}, 5},
		{"large artistic", Options{Size: "1024x1024", Style: "artistic"}, 11},
		{"wide hd", Options{Size: "1792x1024", Quality: "hd"}, 15},
		{"unknown values price at 1x", Options{Size: "999x999", Style: "unknown"}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, p.CalculateCost(tt.opts))
		})
	}
}

func TestMockProvider_ValidatePrompt(t *testing.T) {
	p := NewMockProvider()

	require.NoError(t, p.ValidatePrompt("a calm mountain lake"))

	require.Error(t, p.ValidatePrompt("ab"))
	require.Error(t, p.ValidatePrompt("  a  ")) // whitespace does not count
	require.Error(t, p.ValidatePrompt(strings.Repeat("x", 1001)))
	require.Error(t, p.ValidatePrompt("some NSFW scene"))
}

func TestMockProvider_Generate(t *testing.T) {
	p := NewMockProvider()

	result, err := p.Generate(context.Background(), Request{Prompt: "a calm mountain lake"})
	require.NoError(t, err)
	require.NotEmpty(t, result.Data)
	require.Equal(t, "image/png", result.ContentType)

	_, err = p.Generate(context.Background(), Request{Prompt: "please fail this one"})
	require.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Generate(ctx, Request{Prompt: "a calm mountain lake"})
	require.ErrorIs(t, err, context.Canceled)
}
