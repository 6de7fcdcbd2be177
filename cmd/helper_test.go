package cmd

import (
	"context"
	"flag"
	"io"
	"os"
	"testing"

	"github.com/google/subcommands"
)

// setFlag sets a global flag for the duration of the test.
func setFlag[T any](t *testing.T, p *T, v T) {
	t.Helper()
	old := *p
	*p = v
	t.Cleanup(func() { *p = old })
}

// useTempBudget points the global flags to an empty budget folder, and returns it.
func useTempBudget(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, key := range []string{"BUDGET_DATA_DIR", "BUDGET_DATABASE", "BUDGET_DEFAULT_CURRENCY", "BUDGET_RATE_SOURCE", "BUDGET_SECURE"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	setFlag(t, configFile, "")
	setFlag(t, dataDir, dir)
	setFlag(t, database, "")
	setFlag(t, defaultCurrency, "USD")
	return dir
}

// run executes cmd with args, and returns its exit status and standard output.
func run(t *testing.T, cmd subcommands.Command, args ...string) (subcommands.ExitStatus, string) {
	t.Helper()
	f := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	cmd.SetFlags(f)
	if err := f.Parse(args); err != nil {
		t.Fatalf("invalid arguments %q: %v", args, err)
	}

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	stdout := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = stdout }()

	out := make(chan string)
	go func() {
		data, _ := io.ReadAll(r)
		out <- string(data)
	}()
	status := cmd.Execute(context.Background(), f)
	w.Close()
	return status, <-out
}
