package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/loykin/bookbuild"
)

func printJSON(v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

func printBuilds(builds []bookbuild.Build) {
	if len(builds) == 0 {
		fmt.Println("no builds recorded")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "STARTED\tNAME\tRESULT\tDURATION\tLINES\tWARN\tERR\tLOG")
	for _, b := range builds {
		result := "ok"
		if !b.Succeeded() {
			result = fmt.Sprintf("exit %d", b.ExitCode)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%.3f min\t%d\t%d\t%d\t%s\n",
			b.StartedAt.Local().Format("2006-01-02 15:04:05"),
			b.Name, result, b.DurationMin, b.Lines, b.WarningLines, b.ErrorLines, b.LogPath)
	}
	_ = w.Flush()
}
