package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
)

// Environment passed to extensions, so that they work on the same budget.
const (
	EnvConfig          = "BUDGET_CONFIG"
	EnvDataDir         = "BUDGET_DATA_DIR"
	EnvDatabase        = "BUDGET_DATABASE"
	EnvDefaultCurrency = "BUDGET_DEFAULT_CURRENCY"
	EnvVerbose         = "BUDGET_VERBOSE"
)

// RunExtension attempts to find and execute an external bw-<subcommand> binary.
// It returns (true, exitCode) if an extension was found and executed,
// and (false, 0) if no extension was found.
func RunExtension(subcommand string, args []string) (bool, int) {
	return runExtension(subcommand, args, os.Stdin, os.Stdout, os.Stderr)
}

func runExtension(subcommand string, args []string, stdin io.Reader, stdout, stderr io.Writer) (bool, int) {
	name := "bw-" + subcommand
	lp, err := exec.LookPath(name)
	if err != nil {
		return false, 0
	}

	cmd := exec.Command(lp, args...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.Env = append(os.Environ(), extensionEnv()...)

	if err := cmd.Run(); err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			return true, exitError.ExitCode()
		}
		fmt.Fprintf(stderr, "Error executing external command %q: %v\n", name, err)
		return true, 1
	}
	return true, 0
}

// extensionEnv returns the global flags as environment variables.
// Flags left empty are not passed, the extension then reads the configuration like bw does.
func extensionEnv() []string {
	env := []string{EnvVerbose + "=" + strconv.FormatBool(*Verbose)}
	for key, value := range map[string]string{
		EnvConfig:          *configFile,
		EnvDataDir:         *dataDir,
		EnvDatabase:        *database,
		EnvDefaultCurrency: *defaultCurrency,
	} {
		if value != "" {
			env = append(env, key+"="+value)
		}
	}
	return env
}
