package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/loykin/bookbuild"
)

// embedded_build: run one build session through the public facade and
// show where the dated log file was written.
func main() {
	logDir := os.Getenv("BOOKBUILD_LOG_DIR")
	if logDir == "" {
		logDir = filepath.Join(os.TempDir(), fmt.Sprintf("bookbuild-logs-%d", time.Now().UnixNano()))
	}

	spec := bookbuild.Spec{
		Name:    "demo",
		Command: "sh -c 'echo Collecting pages...; sleep 0.2; echo WARNING: one page skipped; echo Rendering HTML'",
	}

	res, err := bookbuild.Run(context.Background(), spec, logDir, false)
	if err != nil {
		panic(err)
	}

	fmt.Println("Embedded build example")
	fmt.Println("  Exit code:", res.ExitCode)
	fmt.Printf("  Elapsed:   %.3f min\n", res.ElapsedMin)
	fmt.Println("  Lines:", res.Lines, "warnings:", res.WarningLines, "errors:", res.ErrorLines)
	fmt.Println("  Log file:", res.LogPath)
	fmt.Println("Tip: set BOOKBUILD_LOG_DIR to choose a custom log directory.")
}
