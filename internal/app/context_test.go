package app

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goalplanner/internal/analysis"
	"goalplanner/internal/engine"
)

func openTestApp(t *testing.T) *App {
	t.Helper()
	a, err := Open(context.Background(), Options{
		InMemory: true,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func TestOpenWithoutKeyUsesFallback(t *testing.T) {
	a := openTestApp(t)
	assert.Nil(t, a.Analyzer.Model)
	assert.Equal(t, "gemini-2.5-flash", a.Analyzer.ModelName)

	out, err := a.Analyzer.Analyze(context.Background(), analysis.Request{Goal: "Write a novel", UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, analysis.SourceFallback, out.Source)
	assert.Len(t, out.Tasks, 5)
	assert.NotEmpty(t, out.SessionID)

	sessions, err := a.Analyzer.ListSessions(context.Background(), "u1", 0)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.True(t, sessions[0].Success)
}

func TestEnsureUserIsIdempotent(t *testing.T) {
	a := openTestApp(t)
	ctx := context.Background()
	u1, err := a.EnsureUser(ctx, " Ada@Example.com ", "")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", u1.Email)
	assert.Equal(t, "ada", u1.Name)

	u2, err := a.EnsureUser(ctx, "ada@example.com", "Ada")
	require.NoError(t, err)
	assert.Equal(t, u1.ID, u2.ID)

	_, err = a.EnsureUser(ctx, "not-an-email", "")
	assert.True(t, engine.IsValidation(err))
}
