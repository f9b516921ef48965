package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errx "github.com/bowlmetrics/server/internal/core/error"
)

func newTestCLI(t *testing.T) *cli {
	t.Helper()
	c := &cli{cfg: AppConfig{
		DBPath: filepath.Join(t.TempDir(), "db", "orders.db"),
		RawDir: t.TempDir(),
	}}
	t.Cleanup(c.Close)
	return c
}

func execute(c *cli, args ...string) (string, error) {
	var out bytes.Buffer
	root := newRootCmd(c)
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestParseDate(t *testing.T) {
	_, err := parseDate("date", "2026-01-05")
	assert.NoError(t, err)

	for _, v := range []string{"2026-1-5", "2026/01/05", "20260105", "2026-02-30", ""} {
		_, err := parseDate("date", v)
		assert.True(t, errx.IsKind(err, errx.KindInvalidInput), v)
	}
}

func TestDailyRejectsMalformedDate(t *testing.T) {
	c := newTestCLI(t)
	_, err := execute(c, "daily", "--date", "2026-1-5")
	require.Error(t, err)
	assert.True(t, errx.IsKind(err, errx.KindInvalidInput))
	assert.Contains(t, err.Error(), "--date")
}

func TestDailyNoData(t *testing.T) {
	c := newTestCLI(t)
	out, err := execute(c, "daily", "--date", "2026-01-15")
	require.NoError(t, err)
	assert.Equal(t, "No data found for 2026-01-15.\n", out)
}

func TestWeeklyRejectsBadRange(t *testing.T) {
	tests := map[string][]string{
		"malformed start":  {"--start", "2026-01-5", "--end", "2026-01-11"},
		"malformed end":    {"--start", "2026-01-05", "--end", "Jan 11"},
		"end before start": {"--start", "2026-01-11", "--end", "2026-01-05"},
	}
	for name, flags := range tests {
		t.Run(name, func(t *testing.T) {
			c := newTestCLI(t)
			_, err := execute(c, append([]string{"weekly"}, flags...)...)
			require.Error(t, err)
			assert.True(t, errx.IsKind(err, errx.KindInvalidInput))
		})
	}
}

func TestCloseAfterFailedCommand(t *testing.T) {
	c := newTestCLI(t)
	_, err := execute(c, "daily", "--date", "bad")
	require.Error(t, err)
	require.NotNil(t, c.app)

	st := c.app.store
	c.Close()
	assert.Nil(t, c.app)

	_, err = st.LoadOrders(context.Background(), "2026-01-15", "2026-01-15")
	assert.Error(t, err)
}

func TestInferCommand(t *testing.T) {
	c := newTestCLI(t)
	out, err := execute(c, "infer", "--name", "雞胸肉自選碗", "--price", "288")
	require.NoError(t, err)
	assert.Contains(t, out, "known=true")
	assert.Contains(t, out, "quantity=2")
}
