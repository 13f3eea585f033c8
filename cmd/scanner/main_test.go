package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func useConfig(t *testing.T, body string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_PATH", path)
	for _, k := range []string{"TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "ANALYSIS_CRON", "SQLITE_PATH", "HTTPS_PROXY"} {
		t.Setenv(k, "")
	}
}

func TestRun_OnceWritesCharts(t *testing.T) {
	useConfig(t, `
analysis:
  symbols: [EURUSD, GBPUSD]
  timeframe: M15
  candles: 40
  source: mock
`)
	out := t.TempDir()
	if err := run(true, out); err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, name := range []string{"EURUSD_M15.html", "GBPUSD_M15.html"} {
		data, err := os.ReadFile(filepath.Join(out, name))
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		if !strings.Contains(string(data), "echarts") {
			t.Errorf("%s does not look like a chart page", name)
		}
	}
}

func TestRun_ErrorsAreReturned(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name string
		cfg  string
		once bool
		out  string
		want string
	}{
		{
			name: "invalid config",
			cfg:  "analysis:\n  source: carrier-pigeon\n",
			want: "config validation",
		},
		{
			name: "chart dir not creatable",
			cfg:  "analysis:\n  source: mock\n",
			once: true,
			out:  filepath.Join(blocker, "charts"),
			want: "create output dir",
		},
		{
			name: "bad cron after session is open",
			cfg:  "analysis:\n  source: mock\n  cron: not-a-cron\ndatabase:\n  sqlite_path: " + filepath.Join(dir, "scan.db") + "\n",
			want: "register cron tasks",
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			useConfig(t, c.cfg)
			err := run(c.once, c.out)
			if err == nil || !strings.Contains(err.Error(), c.want) {
				t.Errorf("expected error containing %q, got %v", c.want, err)
			}
		})
	}
}
