package cmd

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/subcommands"
)

// stripGUIDs removes the guid of id:guid:payload lines.
func stripGUIDs(out string) string {
	var lines []string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if parts := strings.SplitN(line, ":", 3); len(parts) == 3 {
			line = parts[0] + ":" + parts[2]
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func TestRecordCommands(t *testing.T) {
	dir := useTempBudget(t)

	testCases := []struct {
		cmd    subcommands.Command
		args   []string
		status subcommands.ExitStatus
		want   string
	}{
		{cmd: &accountCmd{}, args: []string{"-name", "Checking", "-amount", "1000.00"}, want: "1"},
		{cmd: newExpenseCmd(), args: []string{"-name", "Groceries", "-amount", "42.50", "-account", "1", "-d", "2025-09-08"}, want: "1"},
		{cmd: newExpenseCmd(), args: []string{"-name", "Rent", "-amount", "900", "-account", "1", "-d", "2025-09-01"}, want: "2"},
		{cmd: newEarningCmd(), args: []string{"-name", "Salary", "-amount", "2500", "-account", "1", "-d", "2025-09-25"}, want: "1"},
		{cmd: &deleteCmd{}, args: []string{"-k", "expenses", "-id", "1"}},
		{cmd: &deleteCmd{}, args: []string{"-k", "expenses", "-id", "1"}, status: subcommands.ExitFailure},
		{cmd: &deleteCmd{}, args: []string{"-k", "nope", "-id", "1"}, status: subcommands.ExitFailure},
		{cmd: newExpenseCmd(), args: []string{"-name", "Lunch", "-amount", "12", "-account", "7"}, status: subcommands.ExitFailure},
		{cmd: newExpenseCmd(), args: []string{"-name", "Lunch", "-amount", "twelve", "-account", "1"}, status: subcommands.ExitUsageError},
		{cmd: &accountCmd{}, args: []string{"-name", "Savings", "-amount", "1", "-currency", "XYZ"}, status: subcommands.ExitUsageError},
		{cmd: &listCmd{}, args: []string{"-k", "expenses", "-raw"}, want: "2:2025-09-01:Rent:1:900.00"},
		{cmd: &listCmd{}, args: []string{"-k", "earnings", "-raw"}, want: "1:2025-09-25:Salary:1:2500.00"},
		{cmd: &listCmd{}, args: []string{"-k", "wishes", "-raw"}},
		{cmd: &listCmd{}, args: []string{"-k", "expenses", "-p", "fortnight"}, status: subcommands.ExitUsageError},
	}
	for _, tc := range testCases {
		status, out := run(t, tc.cmd, tc.args...)
		if status != tc.status {
			t.Errorf("%s %q: status = %v, want %v", tc.cmd.Name(), tc.args, status, tc.status)
			continue
		}
		if got := stripGUIDs(out); got != tc.want {
			t.Errorf("%s %q: output = %q, want %q", tc.cmd.Name(), tc.args, got, tc.want)
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, "expenses.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), `{"next_id":3}`+"\n") {
		t.Errorf("expenses.jsonl = %s", data)
	}
}

func TestFmtAndMigrate(t *testing.T) {
	dir := useTempBudget(t)
	content := `{"next_id":1}` + "\n" + `{"id":4,"date":"2025-01-02","name":"Coffee","account":1,"amount":"3.50"}` + "\n"
	if err := os.WriteFile(filepath.Join(dir, "expenses.jsonl"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	if status, _ := run(t, &fmtCmd{}); status != subcommands.ExitSuccess {
		t.Fatalf("fmt status = %v", status)
	}
	for _, kind := range []string{"accounts", "expenses", "objectives"} {
		if _, err := os.Stat(filepath.Join(dir, kind+".jsonl")); err != nil {
			t.Errorf("fmt did not write %s: %v", kind, err)
		}
	}
	data, err := os.ReadFile(filepath.Join(dir, "expenses.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), `{"next_id":5}`+"\n") || strings.Contains(string(data), `"guid":""`) {
		t.Errorf("expenses.jsonl after fmt = %s", data)
	}

	backup := filepath.Join(t.TempDir(), "backup")
	if status, _ := run(t, &migrateCmd{}, "-to-dir", backup); status != subcommands.ExitSuccess {
		t.Fatalf("migrate status = %v", status)
	}
	copied, err := os.ReadFile(filepath.Join(backup, "expenses.jsonl"))
	if err != nil || string(copied) != string(data) {
		t.Errorf("migrated expenses = %s, %v, want %s", copied, err, data)
	}

	if status, _ := run(t, &migrateCmd{}); status != subcommands.ExitUsageError {
		t.Errorf("migrate without target: status = %v, want usage error", status)
	}
}

func TestRateCommand(t *testing.T) {
	useTempBudget(t)
	t.Setenv("BUDGET_RATE_SOURCE", "static")

	status, out := run(t, &rateCmd{}, "USD")
	if status != subcommands.ExitSuccess || out != "1\n" {
		t.Errorf("rate USD = %v %q, want 1", status, out)
	}
	if status, _ := run(t, &rateCmd{}, "CHF"); status != subcommands.ExitFailure {
		t.Errorf("rate CHF without source: status = %v, want failure", status)
	}
	status, out = run(t, &rateCmd{}, "-amount", "12.5", "usd", "usd")
	if status != subcommands.ExitSuccess || out != "$12.50\n" {
		t.Errorf("rate -amount 12.5 = %v %q, want $12.50", status, out)
	}
	if status, _ := run(t, &rateCmd{}); status != subcommands.ExitUsageError {
		t.Errorf("rate without currency: status = %v, want usage error", status)
	}
}

func TestTopicCommand(t *testing.T) {
	status, out := run(t, &topicCmd{}, "api")
	if status != subcommands.ExitSuccess || strings.TrimSpace(out) == "" {
		t.Errorf("topic api = %v %q", status, out)
	}
	if status, out := run(t, &topicCmd{}); status != subcommands.ExitSuccess || strings.TrimSpace(out) == "" {
		t.Errorf("topic without argument = %v %q, want the list of topics", status, out)
	}
	if status, _ := run(t, &topicCmd{}, "nope"); status != subcommands.ExitFailure {
		t.Errorf("topic nope: status = %v, want failure", status)
	}
}

func TestCompletion(t *testing.T) {
	c := Completion()
	commander := subcommands.NewCommander(flag.NewFlagSet("bw", flag.ContinueOnError), "bw")
	Register(commander)
	commander.VisitCommands(func(_ *subcommands.CommandGroup, cmd subcommands.Command) {
		if _, ok := c.Sub[cmd.Name()]; !ok {
			t.Errorf("command %q has no completion", cmd.Name())
		}
	})
}
