package smart

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/endianspa/smart/internal/gps"
	"github.com/endianspa/smart/internal/loaders/base"
	"github.com/endianspa/smart/internal/loaders/pkgdb"
	"github.com/endianspa/smart/internal/test"
)

const availableIndex = `packages:
  - name: app
    version: 1.0-1
    requires: ["lib >= 2.0", "/bin/sh"]
  - name: lib
    version: 2.0-1
  - name: lib
    version: 1.0-1
`

// newTestContext writes a yaml-index channel of available packages and a
// pkgdb channel holding an installed shell, and returns a context over them.
func newTestContext(t *testing.T, h *test.Helper, extra string) *Ctx {
	h.TempFile("repo/available.yaml", availableIndex)
	h.Must(pkgdb.WriteDatabase(h.Path("installed.db"), []pkgdb.Record{{
		Name:    "bash",
		Version: "5.1-1",
		Targets: base.Targets{Provides: []string{"sh = 5.1"}},
		Files:   []string{"/bin/sh"},
	}}))

	cfg := fmt.Sprintf(`
[[channel]]
alias = "repo"
type  = "yaml-index"
path  = %q

[[channel]]
alias = "system"
type  = "pkgdb"
path  = %q
%s`, h.Path("repo"), h.Path("installed.db"), extra)
	h.TempFile("smart.toml", cfg)

	var out bytes.Buffer
	ctx, err := NewContext(h.Path("smart.toml"), &out, test.Writer{TB: t}, testing.Verbose())
	h.Must(err)
	ctx.Logger = test.Logger(t)
	return ctx
}

func TestCtxLoadCacheAndResolve(t *testing.T) {
	h := test.NewHelper(t)
	ctx := newTestContext(t, h, "")

	cache, err := ctx.LoadCache()
	h.Must(err)
	if cache.Len() != 4 {
		t.Fatalf("expected 4 packages, got %d", cache.Len())
	}
	if got := cache.WhoProvides("/bin/sh"); len(got) != 1 || got[0].Name != "bash" {
		t.Errorf("file provide /bin/sh was not resolved: %v", got)
	}

	txn, err := ctx.NewTransaction(cache, gps.PolicyInstall)
	h.Must(err)
	h.Must(txn.Enqueue(cache.Packages("app")[0], gps.Install))
	res := txn.Run()
	h.Must(res.Err())

	var got []string
	for _, p := range res.Install {
		got = append(got, p.String())
	}
	if strings.Join(got, " ") != "app-1.0-1 lib-2.0-1" {
		t.Errorf("install plan = %v", got)
	}

	h.Must(ctx.WriteMetrics(h.Path("smart.prom")))
	metrics := h.ReadFile("smart.prom")
	for _, name := range []string{"smart_transactions_total", "smart_cache_packages 4"} {
		if !strings.Contains(metrics, name) {
			t.Errorf("metrics missing %q:\n%s", name, metrics)
		}
	}
}

func TestCtxFlagsApplyToTransactions(t *testing.T) {
	h := test.NewHelper(t)
	ctx := newTestContext(t, h, "\n[package-flags]\nlock = [\"bash\"]\n")

	cache, err := ctx.LoadCache()
	h.Must(err)
	txn, err := ctx.NewTransaction(cache, gps.PolicyRemove)
	h.Must(err)
	h.Must(txn.Enqueue(cache.Packages("bash")[0], gps.Remove))

	res := txn.Run()
	if res.OK() {
		t.Fatal("removing a locked package should fail")
	}
	if res.Failures[0].Kind != gps.LockViolation {
		t.Errorf("failure kind = %v", res.Failures[0].Kind)
	}
}

func TestCtxLoadCacheError(t *testing.T) {
	h := test.NewHelper(t)
	h.TempFile("smart.toml", "[[channel]]\nalias = \"gone\"\ntype = \"pkgdb\"\npath = \"/nonexistent/db\"\n")

	ctx, err := NewContext(h.Path("smart.toml"), &bytes.Buffer{}, &bytes.Buffer{}, false)
	h.Must(err)
	if _, err := ctx.LoadCache(); err == nil {
		t.Error("expected a load error")
	}
}
