package main

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/endianspa/smart/internal/loaders/base"
	"github.com/endianspa/smart/internal/loaders/pkgdb"
	"github.com/endianspa/smart/internal/test"
)

// setupSmart writes a repository channel, an installed package database and
// a configuration pointing at both. It returns the configuration path.
func setupSmart(h *test.Helper, broken bool) string {
	h.TempFile("repo/index.yaml", h.GetTestFileString("index.yaml"))

	records := []pkgdb.Record{{
		Name:    "bash",
		Version: "5.1-1",
		Targets: base.Targets{Provides: []string{"sh = 5.1"}},
		Files:   []string{"/bin/sh"},
	}}
	if broken {
		records = append(records, pkgdb.Record{
			Name:    "old",
			Version: "1.0",
			Targets: base.Targets{Requires: []string{"libgone"}},
		})
	}
	h.Must(pkgdb.WriteDatabase(h.Path("installed.db"), records))

	h.TempFile("etc/smart.toml", fmt.Sprintf(`
[[channel]]
alias = "repo"
type  = "yaml-index"
path  = %q

[[channel]]
alias = "system"
type  = "pkgdb"
path  = %q
`, h.Path("repo"), h.Path("installed.db")))
	return h.Path("etc/smart.toml")
}

func runSmart(config string, args ...string) (stdout, stderr string, code int) {
	var out, errb bytes.Buffer
	argv := []string{"smart"}
	if len(args) > 0 {
		argv = append(argv, args[0])
		if config != "" {
			argv = append(argv, "-config", config)
		}
		argv = append(argv, args[1:]...)
	}
	c := &Config{Args: argv, Stdout: &out, Stderr: &errb}
	code = c.Run()
	return out.String(), errb.String(), code
}

func TestCommands(t *testing.T) {
	table := []struct {
		name   string
		broken bool
		args   []string
		code   int
		golden string
	}{
		{name: "install", args: []string{"install", "app"}, golden: "install"},
		{name: "install minimal", args: []string{"install", "-policy", "minimal", "app"}, golden: "install_minimal"},
		{name: "install already installed", args: []string{"install", "bash"}, golden: "nothing_to_do"},
		{name: "install unknown policy", args: []string{"install", "-policy", "reckless", "app"}, code: 1},
		{name: "install nothing matches", args: []string{"install", "nope"}, code: 1},
		{name: "remove", args: []string{"remove", "bash"}, golden: "remove"},
		{name: "remove not installed", args: []string{"remove", "app"}, code: 1},
		{name: "upgrade all", args: []string{"upgrade"}, golden: "upgrade_all"},
		{name: "fix nothing broken", args: []string{"fix"}, golden: "nothing_to_do"},
		{name: "fix broken", broken: true, args: []string{"fix"}, golden: "fix_broken"},
		{name: "query installed", args: []string{"query", "-installed"}, golden: "query_installed"},
		{name: "query whoprovides", args: []string{"query", "-whoprovides", "lib >= 2"}, golden: "query_whoprovides"},
		{name: "query whorequires", args: []string{"query", "-whorequires", "/bin/sh"}, golden: "query_whorequires"},
		{name: "query spec", args: []string{"query", "lib"}, golden: "query_spec"},
		{name: "query files", args: []string{"query", "-files", "/bin/"}, golden: "query_files"},
		{name: "query relations", args: []string{"query", "-show-relations", "app"}, golden: "query_relations"},
	}

	for _, c := range table {
		t.Run(c.name, func(t *testing.T) {
			h := test.NewHelper(t)
			config := setupSmart(h, c.broken)

			stdout, stderr, code := runSmart(config, c.args...)
			if code != c.code {
				t.Fatalf("exit code %d, want %d\nstderr:\n%s", code, c.code, stderr)
			}
			if c.golden != "" {
				h.CompareGolden(filepath.Join("golden", c.golden+".golden"), stdout)
			}
		})
	}
}

func TestFlagCommand(t *testing.T) {
	h := test.NewHelper(t)
	config := setupSmart(h, false)

	if _, stderr, code := runSmart(config, "flag", "-set", "lock", "bash"); code != 0 {
		t.Fatalf("flag -set failed:\n%s", stderr)
	}
	if stdout, _, _ := runSmart(config, "flag", "-show"); stdout != "lock\n    bash\n" {
		t.Errorf("flag -show printed %q", stdout)
	}

	_, stderr, code := runSmart(config, "remove", "bash")
	if code != 1 || !strings.Contains(stderr, "lock violation") {
		t.Errorf("removing a locked package should fail with a lock violation, got %d:\n%s", code, stderr)
	}

	if _, stderr, code := runSmart(config, "flag", "-remove", "lock", "bash"); code != 0 {
		t.Fatalf("flag -remove failed:\n%s", stderr)
	}
	if stdout, _, _ := runSmart(config, "flag", "-show"); stdout != "" {
		t.Errorf("expected no flags, got %q", stdout)
	}
	if _, _, code := runSmart(config, "flag", "-remove", "lock"); code != 1 {
		t.Error("removing an unset flag should fail")
	}
	if _, _, code := runSmart(config, "flag", "-set", "-show", "lock", "x"); code != 1 {
		t.Error("-set and -show together should be rejected")
	}
}

func TestInfoCommand(t *testing.T) {
	h := test.NewHelper(t)
	config := setupSmart(h, false)

	stdout, stderr, code := runSmart(config, "info", "app")
	if code != 0 {
		t.Fatalf("info failed:\n%s", stderr)
	}
	for _, want := range []string{"Name:", "app", "Version:", "1.0-1", "Installed:", "false", "Channel:", "repo", "Summary:", "An application"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("info output lacks %q:\n%s", want, stdout)
		}
	}

	if _, _, code := runSmart(config, "info"); code != 1 {
		t.Error("info without a spec should fail")
	}
}

func TestMetricsFlag(t *testing.T) {
	h := test.NewHelper(t)
	config := setupSmart(h, false)

	_, stderr, code := runSmart(config, "install", "-metrics", h.Path("smart.prom"), "app")
	if code != 0 {
		t.Fatalf("install failed:\n%s", stderr)
	}
	if got := h.ReadFile("smart.prom"); !strings.Contains(got, `smart_transactions_total{outcome="ok"} 1`) {
		t.Errorf("unexpected metrics:\n%s", got)
	}
}

func TestUsage(t *testing.T) {
	if _, stderr, code := runSmart(""); code != 1 || !strings.Contains(stderr, "Usage: smart <command>") {
		t.Errorf("expected usage, got %d:\n%s", code, stderr)
	}
	if _, stderr, code := runSmart("", "frobnicate"); code != 1 || !strings.Contains(stderr, "no such command") {
		t.Errorf("expected an unknown command error, got %d:\n%s", code, stderr)
	}
	if _, stderr, code := runSmart("", "help", "install"); code != 1 || !strings.Contains(stderr, "Usage: smart install") {
		t.Errorf("expected install help, got %d:\n%s", code, stderr)
	}
}

func TestVersion(t *testing.T) {
	h := test.NewHelper(t)
	stdout, _, code := runSmart(h.Path("missing.toml"), "version")
	if code != 0 || stdout != Version+"\n" {
		t.Errorf("version printed %q (exit %d)", stdout, code)
	}
}
