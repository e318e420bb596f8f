// legal-case-api serves the case priority API and runs the scheduling jobs.
//
// Usage:
//
//	legal-case-api                      serve the API and start the cron jobs
//	legal-case-api run-once             run one hourly analysis pass and exit
//	legal-case-api daily                run the daily statistics and rebalance and exit
//	legal-case-api analyze <case-id>    score one case now
//	legal-case-api hash-password <pw>   print a bcrypt hash for seeding a user
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		zap.S().Errorw("command failed", "error", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
