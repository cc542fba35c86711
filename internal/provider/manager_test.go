package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubProvider struct {
	name      string
	statusErr error
}

func (s *stubProvider) Name() string                 { return s.name }
func (s *stubProvider) ValidatePrompt(string) error  { return nil }
func (s *stubProvider) CalculateCost(Options) int    { return 1 }
func (s *stubProvider) Status(context.Context) error { return s.statusErr }
func (s *stubProvider) Models() []ModelInfo          { return nil }
func (s *stubProvider) Generate(context.Context, Request) (*Result, error) {
	return &Result{URL: "https://example.com/" + s.name}, nil
}

func TestManager_FirstRegisteredBecomesCurrent(t *testing.T) {
	m := NewManager(zap.NewNop())
	first := &stubProvider{name: "first"}
	m.Register(first)
	m.Register(&stubProvider{name: "second"})

	require.Same(t, Provider(first), m.Current())
	require.Equal(t, []string{"first", "second"}, m.Names())
}

func TestManager_Switch(t *testing.T) {
	m := NewManager(zap.NewNop())
	m.Register(&stubProvider{name: "first"})
	second := &stubProvider{name: "second"}
	m.Register(second)

	require.NoError(t, m.Switch("second"))
	require.Same(t, Provider(second), m.Current())

	err := m.Switch("missing")
	require.ErrorIs(t, err, ErrUnknownProvider)
	require.Same(t, Provider(second), m.Current())
}

func TestManager_TestDoesNotTouchCurrent(t *testing.T) {
	m := NewManager(zap.NewNop())
	current := &stubProvider{name: "current"}
	m.Register(current)
	m.Register(&stubProvider{name: "broken", statusErr: errors.New("unreachable")})

	require.Error(t, m.Test(context.Background(), "broken"))
	require.NoError(t, m.Test(context.Background(), "current"))
	require.Same(t, Provider(current), m.Current())

	require.ErrorIs(t, m.Test(context.Background(), "missing"), ErrUnknownProvider)
}
