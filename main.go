package main

import (
	"os"
	"path/filepath"
)

func main() {
	ensureRuntimeCWD()
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// ensureRuntimeCWD moves to the executable's directory when started from
// somewhere without a config file, so relative asset paths resolve.
func ensureRuntimeCWD() {
	if _, err := os.Stat("config.yaml"); err == nil {
		return
	}
	exe, err := os.Executable()
	if err != nil {
		return
	}
	execDir := filepath.Dir(exe)
	if _, err := os.Stat(filepath.Join(execDir, "config.yaml")); err == nil {
		_ = os.Chdir(execDir)
	}
}
