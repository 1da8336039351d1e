package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"golang.org/x/term"

	"github.com/trezcool/pathwise/core"
	"github.com/trezcool/pathwise/core/audit"
	"github.com/trezcool/pathwise/core/auth"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db        *sql.DB // nil without a database engine
	auditSvc  *audit.Service
	inspector *auth.Inspector
	out       io.Writer
}

func (cli *commandLine) printUsage() {
	_, _ = fmt.Fprintln(cli.out, "Usage:")
	_, _ = fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run a goose command against the audit database")
	_, _ = fmt.Fprintln(cli.out, "  audit [-actor ACTOR] [-action ACTION] [-outcome OUTCOME] [-limit N] [-ordering FIELDS] - list admin overrides")
	_, _ = fmt.Fprintln(cli.out, "  inspect [-token TOKEN] - decode a bearer token (prompted when omitted)")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	auditCmd := flag.NewFlagSet("audit", flag.ExitOnError)
	auditActor := auditCmd.String("actor", "", "Only entries recorded for this token subject.")
	auditAction := auditCmd.String("action", "", "Only entries for this action, eg. achievement.delete.")
	auditOutcome := auditCmd.String("outcome", "", "Only entries with this outcome: forwarded, masked or failed.")
	auditLimit := auditCmd.Int("limit", audit.DefaultLimit, "Maximum number of entries.")
	auditOrdering := auditCmd.String("ordering", "-created_at", "Comma separated fields, \"-\" prefixed for descending order.")

	inspectCmd := flag.NewFlagSet("inspect", flag.ExitOnError)
	inspectToken := inspectCmd.String("token", "", "The bearer token. It will be prompted when omitted.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "audit":
		if err := auditCmd.Parse(args[2:]); err != nil {
			return err
		}
		filter := audit.Filter{Actor: *auditActor, Action: *auditAction, Outcome: *auditOutcome, Limit: *auditLimit}
		return cli.listAudit(filter, core.ParseOrderings(*auditOrdering))
	case "inspect":
		if err := inspectCmd.Parse(args[2:]); err != nil {
			return err
		}
		token := *inspectToken
		if token == "" {
			_, _ = fmt.Fprint(cli.out, "Enter token:")
			raw, err := readPasswordFunc(int(syscall.Stdin))
			_, _ = fmt.Fprintln(cli.out)
			if err != nil {
				return err
			}
			token = strings.TrimSpace(string(raw))
		}
		if token == "" {
			inspectCmd.Usage()
			return errHelp
		}
		return cli.inspect(token)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) listAudit(filter audit.Filter, ordering []core.DBOrdering) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	entries, err := cli.auditSvc.Query(ctx, filter, ordering...)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "CREATED AT\tACTOR\tACTION\tTARGET\tOUTCOME\tSTATUS")
	for _, e := range entries {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n",
			e.CreatedAt.Format(time.RFC3339), e.Actor, e.Action, e.Target, e.Outcome, e.Status)
	}
	return w.Flush()
}

func (cli *commandLine) inspect(token string) error {
	id, err := cli.inspector.Inspect(token)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cli.out)
	enc.SetIndent("", "  ")
	return enc.Encode(id)
}
