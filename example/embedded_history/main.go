package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/loykin/bookbuild"
)

// embedded_history: run a build with a sqlite history store attached,
// then query back the recorded sessions.
func main() {
	dir, err := os.MkdirTemp("", "bookbuild-history-")
	if err != nil {
		panic(err)
	}
	dsn := "sqlite://" + filepath.Join(dir, "history.db")

	store, err := bookbuild.NewHistoryStore(dsn)
	if err != nil {
		panic(err)
	}
	defer func() { _ = store.Close() }()

	r := bookbuild.NewRunner()
	r.History = store

	ctx := context.Background()
	for _, cmd := range []string{
		"sh -c 'echo first build'",
		"sh -c 'echo second build; exit 2'",
	} {
		if _, err := r.Run(ctx, bookbuild.Spec{Name: "demo", Command: cmd}, dir, false); err != nil {
			panic(err)
		}
	}

	builds, err := store.Recent(ctx, 10)
	if err != nil {
		panic(err)
	}
	b, _ := json.MarshalIndent(builds, "", "  ")
	fmt.Println("Recorded builds (newest first):")
	fmt.Println(string(b))
}
