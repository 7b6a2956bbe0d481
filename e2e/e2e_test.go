//go:build e2e

package e2e_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/engine/lockbuilder"
)

var strataBinary string

func TestMain(m *testing.M) {
	tmpDir, err := os.MkdirTemp("", "strata-e2e-*")
	if err != nil {
		panic(err)
	}

	strataBinary = filepath.Join(tmpDir, "strata")

	//nolint:gosec // Building binary with static arguments, not user input
	cmd := exec.Command("go", "build", "-o", strataBinary, "./cmd/strata")
	cmd.Dir = ".."
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		panic("failed to build strata binary: " + err.Error())
	}

	exitCode := m.Run()

	_ = os.RemoveAll(tmpDir)

	os.Exit(exitCode)
}

func TestScripts(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir:   "testdata",
		Setup: setupE2E,
		Cmds: map[string]func(ts *testscript.TestScript, neg bool, args []string){
			"locked": cmdLocked,
		},
	})
}

func setupE2E(env *testscript.Env) error {
	env.Setenv("NO_COLOR", "1")
	env.Setenv("CI", "true")

	binDir := filepath.Dir(strataBinary)
	currentPath := env.Getenv("PATH")
	env.Setenv("PATH", binDir+string(os.PathListSeparator)+currentPath)

	homeDir := filepath.Join(env.WorkDir, ".home")
	if err := os.MkdirAll(homeDir, 0o750); err != nil {
		return err
	}
	env.Setenv("HOME", homeDir)
	env.Setenv("XDG_CACHE_HOME", filepath.Join(homeDir, ".cache"))

	return nil
}

// cmdLocked checks the version a cell of strata.lock pins for a package.
// Usage: locked <environment> <platform> <name> <version>.
func cmdLocked(ts *testscript.TestScript, neg bool, args []string) {
	if len(args) != 4 {
		ts.Fatalf("usage: locked environment platform name version")
	}
	doc, err := lockbuilder.Decode([]byte(ts.ReadFile(domain.LockFileName)))
	ts.Check(err)

	platform, err := domain.ParsePlatform(args[1])
	ts.Check(err)

	got := ""
	if cell, ok := doc.Cell(domain.CellKey{Environment: args[0], Platform: platform}); ok {
		for _, r := range cell.Records {
			if r.Name.String() == args[2] {
				got = r.Version.String()
			}
		}
	}

	switch {
	case neg && got == args[3]:
		ts.Fatalf("%s is locked at %s", args[2], got)
	case !neg && got != args[3]:
		ts.Fatalf("%s is locked at %q, want %q", args[2], got, args[3])
	}
}
