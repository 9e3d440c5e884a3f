package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"misicuan-admin/internal/verify"
)

// promptConfirmer shows the plan and reads y/n from in. assumeYes skips the
// question but still prints the plan.
func promptConfirmer(in io.Reader, out io.Writer, assumeYes bool) verify.ConfirmFunc {
	reader := bufio.NewReader(in)
	return func(_ context.Context, plan *verify.Plan) (bool, error) {
		printPlan(out, plan)
		if assumeYes {
			return true, nil
		}
		fmt.Fprintf(out, "Create %d missions? [y/N] ", len(plan.Drafts()))
		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return false, fmt.Errorf("read confirmation: %w", err)
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes", "ya":
			return true, nil
		default:
			return false, nil
		}
	}
}
