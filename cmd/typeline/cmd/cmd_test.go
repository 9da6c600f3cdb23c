package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/ssargent/typeline/pkg/config"
	"github.com/ssargent/typeline/pkg/di"
	"github.com/ssargent/typeline/pkg/row"
)

const readingsTSV = "id\tname\ttags\tscore\n" +
	"# exported\n" +
	"1\tada\t[\"x\"]\t0.5\n" +
	"2\tbob\t[]\t\n" +
	"3\tcy\tnotjson\t1\n"

func setup(t *testing.T) (dir, configPath string) {
	t.Helper()
	SetContainer(di.NewContainer())
	t.Cleanup(func() { SetContainer(nil) })

	dir = t.TempDir()
	configPath = filepath.Join(dir, "config.yaml")
	require.NoError(t, config.SaveConfig(config.DefaultConfig(), configPath))
	return dir, configPath
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	}()
	err := rootCmd.Execute()
	return out.String(), err
}

func TestInitCommand(t *testing.T) {
	_, _ = setup(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	t.Run("writes defaults", func(t *testing.T) {
		written, err := writeStarterConfig(path, false)
		require.NoError(t, err)
		assert.True(t, written)

		loaded, err := config.LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, config.DefaultConfig(), loaded)
	})

	t.Run("keeps existing file", func(t *testing.T) {
		custom := config.DefaultConfig()
		custom.Format.Dialect = "csv"
		require.NoError(t, config.SaveConfig(custom, path))

		written, err := writeStarterConfig(path, false)
		require.NoError(t, err)
		assert.False(t, written)

		loaded, err := config.LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "csv", loaded.Format.Dialect)
	})

	t.Run("force overwrites", func(t *testing.T) {
		written, err := writeStarterConfig(path, true)
		require.NoError(t, err)
		assert.True(t, written)

		loaded, err := config.LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "tsv", loaded.Format.Dialect)
	})

	t.Run("runs without a configuration", func(t *testing.T) {
		fresh := filepath.Join(t.TempDir(), "fresh.yaml")
		_, err := execute(t, "init", "--config", fresh)
		require.NoError(t, err)
		assert.True(t, config.ConfigExists(fresh))
	})
}

func TestRootCommand(t *testing.T) {
	t.Run("nil container", func(t *testing.T) {
		SetContainer(nil)
		_, err := execute(t, "header")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "dependency container not initialized")
	})

	t.Run("missing config file", func(t *testing.T) {
		dir, _ := setup(t)
		_, err := execute(t, "header", "--config", filepath.Join(dir, "missing.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "does not exist")
	})

	t.Run("invalid log level", func(t *testing.T) {
		_, configPath := setup(t)
		_, err := execute(t, "header", "--config", configPath, "--log-level", "loud")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger("warn", &buf)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	logger, err = newLogger("", &buf)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
}

func TestHeaderCommand(t *testing.T) {
	_, configPath := setup(t)

	out, err := execute(t, "header", "--config", configPath, "--log-level", "error")
	require.NoError(t, err)
	assert.Equal(t, "id\tname\ttags\tscore\n", out)

	t.Run("quotes names", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Format.Dialect = "csv"
		cfg.Schema.Fields = []config.FieldDef{{Name: "a,b", Type: "int"}, {Name: "c", Type: "string"}}
		line, err := renderHeader(cfg)
		require.NoError(t, err)
		assert.Equal(t, "'a,b',c", line)
	})
}

func TestCheckCommand(t *testing.T) {
	dir, configPath := setup(t)
	cfg, err := config.LoadConfig(configPath)
	require.NoError(t, err)

	input := filepath.Join(dir, "readings.tsv")
	writeFile(t, input, readingsTSV)

	t.Run("reports invalid rows", func(t *testing.T) {
		var out bytes.Buffer
		res, err := checkFile(cfg, input, &out)
		require.NoError(t, err)
		assert.Equal(t, checkResult{Records: 2, Invalid: 1}, res)
		assert.True(t, strings.HasPrefix(out.String(), input+":5: "), out.String())
	})

	t.Run("header mismatch aborts", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.tsv")
		writeFile(t, bad, "id\tname\n1\tada\n")
		_, err := checkFile(cfg, bad, &bytes.Buffer{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), bad)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := checkFile(cfg, filepath.Join(dir, "nope.tsv"), &bytes.Buffer{})
		require.Error(t, err)
	})

	t.Run("command exits with error and stats", func(t *testing.T) {
		out, err := execute(t, "check", "--config", configPath, "--log-level", "error", "--stats", input)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "1 of 3 rows invalid")
		assert.Contains(t, out, "typeline_rows_read_total")
		assert.Contains(t, out, `typeline_rows_read_total{schema="record"} 2`)
	})

	t.Run("clean file passes", func(t *testing.T) {
		clean := filepath.Join(dir, "clean.tsv")
		writeFile(t, clean, "1\tada\t[]\t\n")
		_, err := execute(t, "check", "--config", configPath, "--log-level", "error", "--no-header", clean)
		require.NoError(t, err)
	})
}

func TestConvertCommand(t *testing.T) {
	dir, configPath := setup(t)
	cfg, err := config.LoadConfig(configPath)
	require.NoError(t, err)

	input := filepath.Join(dir, "readings.tsv")
	writeFile(t, input, readingsTSV)

	t.Run("drops invalid rows", func(t *testing.T) {
		output := filepath.Join(dir, "out", "readings.csv")
		res, err := convertFile(cfg, input, output, row.CSV, false)
		require.NoError(t, err)
		assert.Equal(t, 2, res.Records)
		assert.Len(t, res.Dropped, 1)

		data, err := os.ReadFile(output)
		require.NoError(t, err)
		assert.Equal(t, "id,name,tags,score\n1,ada,[\"x\"],0.5\n2,bob,[],null\n", string(data))
	})

	t.Run("strict leaves no output", func(t *testing.T) {
		output := filepath.Join(dir, "strict.csv")
		_, err := convertFile(cfg, input, output, row.CSV, true)
		require.Error(t, err)
		assert.NoFileExists(t, output)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		for _, e := range entries {
			assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), e.Name())
		}
	})

	t.Run("command", func(t *testing.T) {
		output := filepath.Join(dir, "cmd.csv")
		_, err := execute(t, "convert", "--config", configPath, "--log-level", "error", "--to", "csv", input, output)
		require.NoError(t, err)
		assert.FileExists(t, output)
	})

	t.Run("unknown dialect", func(t *testing.T) {
		_, err := execute(t, "convert", "--config", configPath, "--to", "psv", input, filepath.Join(dir, "x"))
		require.Error(t, err)
	})
}

func TestWatchFiles(t *testing.T) {
	dir, _ := setup(t)
	watched := filepath.Join(dir, "watched.tsv")
	other := filepath.Join(dir, "other.tsv")
	writeFile(t, watched, "")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	changes := make(chan string, 8)
	done := make(chan error, 1)
	go func() {
		done <- watchFiles(ctx, []string{watched}, 20*time.Millisecond, func(path string) {
			changes <- path
		})
	}()

	// The watcher starts asynchronously, so keep touching the file until
	// the first change is reported.
	var got string
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
loop:
	for {
		select {
		case got = <-changes:
			break loop
		case <-tick.C:
			writeFile(t, other, "ignored\n")
			writeFile(t, watched, "1\tada\t[]\t\n")
		case <-ctx.Done():
			t.Fatal("no change reported")
		}
	}
	assert.Equal(t, watched, got)

	cancel()
	require.NoError(t, <-done)
}

func TestWatchLoop_ReleasesPendingChanges(t *testing.T) {
	_, _ = setup(t)
	abs := filepath.Join(t.TempDir(), "watched.tsv")
	byAbs := map[string]string{abs: "watched.tsv"}

	tests := []struct {
		name string
		stop func(events chan fsnotify.Event, errs chan error, cancel context.CancelFunc)
	}{
		{"events closed", func(events chan fsnotify.Event, _ chan error, _ context.CancelFunc) { close(events) }},
		{"errors closed", func(_ chan fsnotify.Event, errs chan error, _ context.CancelFunc) { close(errs) }},
		{"context canceled", func(_ chan fsnotify.Event, _ chan error, cancel context.CancelFunc) { cancel() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			events := make(chan fsnotify.Event)
			errs := make(chan error)
			called := make(chan string, 1)
			done := make(chan error, 1)
			go func() {
				done <- watchLoop(ctx, events, errs, byAbs, 50*time.Millisecond, func(path string) {
					called <- path
				})
			}()

			events <- fsnotify.Event{Name: abs, Op: fsnotify.Write}
			tt.stop(events, errs, cancel)

			select {
			case err := <-done:
				require.NoError(t, err)
			case <-time.After(5 * time.Second):
				t.Fatal("watchLoop did not return with a change pending")
			}
			assert.Empty(t, called)
		})
	}
}
