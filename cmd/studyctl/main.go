// Command studyctl runs single study tasks against the configured model
// from the terminal, and applies database migrations.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(newStudyService).Execute(); err != nil {
		os.Exit(1)
	}
}
