// Package cli is the ledgerctl command tree. Commands print JSON to stdout.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"agency-ledger/internal/app"
)

// Backend is what a command needs once a database is reachable.
type Backend struct {
	Service app.ApplicationService
	// Migrate applies pending schema migrations and returns their names.
	Migrate func(ctx context.Context) ([]string, error)
	Close   func()
}

// Opener connects a Backend. It runs only for commands that touch the ledger,
// so `token` and `--help` work without a database.
type Opener func(ctx context.Context) (*Backend, error)

// Options configures the command tree.
type Options struct {
	Open      Opener
	JWTSecret string
	Version   string
	Log       zerolog.Logger
	// Out receives command output. Nil means stdout.
	Out io.Writer
}

type runtime struct {
	opts    Options
	tenant  string
	backend *Backend
}

func newRoot(opts Options) (*cobra.Command, *runtime) {
	rt := &runtime{opts: opts}

	root := &cobra.Command{
		Use:   "ledgerctl",
		Short: "Operate the agency ledger from the command line",
		Long: `ledgerctl runs maintenance and reporting jobs against the agency ledger.

Ledger commands need DATABASE_URL and a --tenant id. Output is JSON.`,
		Version:       opts.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	if opts.Out != nil {
		root.SetOut(opts.Out)
	}
	root.PersistentFlags().StringVar(&rt.tenant, "tenant", "", "Tenant id (UUID)")

	root.AddCommand(
		rt.migrateCommand(),
		rt.invoicesCommand(),
		rt.xreportCommand(),
		rt.reportCommand(),
		rt.tokenCommand(),
	)
	return root, rt
}

// Execute runs the tree and returns the first error. main decides the exit code.
func Execute(ctx context.Context, opts Options, args []string) error {
	root, rt := newRoot(opts)
	defer rt.close()
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		opts.Log.Error().Err(err).Msg("command failed")
		return err
	}
	return nil
}

func (rt *runtime) open(ctx context.Context) (*Backend, error) {
	if rt.backend != nil {
		return rt.backend, nil
	}
	if rt.opts.Open == nil {
		return nil, fmt.Errorf("no ledger backend configured")
	}
	b, err := rt.opts.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	rt.backend = b
	return b, nil
}

func (rt *runtime) close() {
	if rt.backend != nil && rt.backend.Close != nil {
		rt.backend.Close()
	}
}

func (rt *runtime) tenantID() (uuid.UUID, error) {
	if rt.tenant == "" {
		return uuid.Nil, fmt.Errorf("--tenant is required")
	}
	id, err := uuid.Parse(rt.tenant)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid --tenant %q: %w", rt.tenant, err)
	}
	return id, nil
}

// service resolves the tenant and opens the backend for a ledger command.
func (rt *runtime) service(cmd *cobra.Command) (app.ApplicationService, uuid.UUID, error) {
	tenantID, err := rt.tenantID()
	if err != nil {
		return nil, uuid.Nil, err
	}
	b, err := rt.open(cmd.Context())
	if err != nil {
		return nil, uuid.Nil, err
	}
	return b.Service, tenantID, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// SystemUser is the acting user recorded on rows written by ledgerctl jobs.
type SystemUser struct {
	ID uuid.UUID
}

func (u SystemUser) UserID(context.Context) uuid.UUID { return u.ID }
