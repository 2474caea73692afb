package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	feeSvc "schoolku_backend/internals/features/finance/fees/service"
)

var (
	errHelp  = errors.New("help provided")
	errDrift = errors.New("ledger drift detected")
)

// FeeLedger: subset yang dipakai CLI (mockable di test).
type FeeLedger interface {
	VerifyLedgers(ctx context.Context, branchID *uuid.UUID) (*feeSvc.VerifyReport, error)
	RebuildLedger(ctx context.Context, branchID uuid.UUID, ref string, actor *uuid.UUID) (*feeSvc.RebuildResult, error)
}

type commandLine struct {
	fees    FeeLedger
	migrate func(ctx context.Context) error
	out     io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate                                   - create/upgrade tables & indexes")
	fmt.Fprintln(cli.out, "  verify-ledger [-branch UUID]              - compare paid/due with the payment stream")
	fmt.Fprintln(cli.out, "  rebuild-ledger -branch UUID -student REF  - recompute paid/due of one student")
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	verifyCmd := flag.NewFlagSet("verify-ledger", flag.ContinueOnError)
	verifyCmd.SetOutput(cli.out)
	verifyBranch := verifyCmd.String("branch", "", "Branch UUID (empty = all branches).")

	rebuildCmd := flag.NewFlagSet("rebuild-ledger", flag.ContinueOnError)
	rebuildCmd.SetOutput(cli.out)
	rebuildBranch := rebuildCmd.String("branch", "", "Branch UUID.")
	rebuildStudent := rebuildCmd.String("student", "", "Student UUID or code.")

	switch args[1] {
	case "migrate":
		if err := cli.migrate(ctx); err != nil {
			return err
		}
		fmt.Fprintln(cli.out, "migrated")
		return nil

	case "verify-ledger":
		if err := verifyCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		var branchID *uuid.UUID
		if s := strings.TrimSpace(*verifyBranch); s != "" {
			id, err := uuid.Parse(s)
			if err != nil {
				verifyCmd.Usage()
				return errHelp
			}
			branchID = &id
		}
		rep, err := cli.fees.VerifyLedgers(ctx, branchID)
		if err != nil {
			return err
		}
		if err := cli.printJSON(rep); err != nil {
			return err
		}
		if len(rep.Drifts) > 0 {
			return fmt.Errorf("%d of %d students: %w", len(rep.Drifts), rep.Checked, errDrift)
		}
		return nil

	case "rebuild-ledger":
		if err := rebuildCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		branchID, err := uuid.Parse(strings.TrimSpace(*rebuildBranch))
		if err != nil || strings.TrimSpace(*rebuildStudent) == "" {
			rebuildCmd.Usage()
			return errHelp
		}
		res, err := cli.fees.RebuildLedger(ctx, branchID, *rebuildStudent, nil)
		if err != nil {
			return err
		}
		return cli.printJSON(res)

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) printJSON(v any) error {
	enc := json.NewEncoder(cli.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
