package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/magicaleks/freq-server/internal/config"
	"github.com/magicaleks/freq-server/internal/domain"
	"github.com/magicaleks/freq-server/internal/infra/freqclient"
	"github.com/spf13/cobra"
)

var (
	serverURL  string
	jsonOutput bool
	timeout    time.Duration
	retries    int
	verbose    bool
)

// errDomain marks a command whose envelope reported ERROR; the envelope has
// already been printed.
var errDomain = errors.New("operation rejected")

// NewRootCmd builds the freqctl command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "freqctl",
		Short:         "Frequency server client",
		Long:          `freqctl starts and stops a frequency server and allocates or releases frequencies on it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&serverURL, "server", envOr("FREQ_SERVER_URL", freqclient.DefaultBaseURL), "Base URL of the frequency server")
	root.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	root.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")
	root.PersistentFlags().IntVar(&retries, "retries", 2, "Retries on transport failures")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log HTTP requests and retries to stderr")

	root.AddCommand(
		versionCmd(),
		operationCmd("start", "Start the frequency server", func(ctx context.Context, c *freqclient.Client, _ []string) (*domain.Response, error) {
			return c.StartServer(ctx)
		}),
		operationCmd("stop", "Stop the frequency server and drop all allocations", func(ctx context.Context, c *freqclient.Client, _ []string) (*domain.Response, error) {
			return c.StopServer(ctx)
		}),
		operationCmd("allocate", "Allocate a free frequency", func(ctx context.Context, c *freqclient.Client, _ []string) (*domain.Response, error) {
			return c.AllocateFrequency(ctx)
		}),
		deallocateCmd(),
		statusCmd(),
	)
	return root
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	if err := NewRootCmd().Execute(); err != nil {
		if !errors.Is(err, errDomain) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

type operationFunc func(ctx context.Context, c *freqclient.Client, args []string) (*domain.Response, error)

func operationCmd(use, short string, fn operationFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOperation(cmd, args, fn)
		},
	}
}

func deallocateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deallocate <frequency>",
		Short: "Release an allocated frequency",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOperation(cmd, args, func(ctx context.Context, c *freqclient.Client, args []string) (*domain.Response, error) {
				return c.DeallocateFrequency(ctx, args[0])
			})
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show server state and allocated frequencies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			snap, err := newClient(cmd).Status(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOutput {
				return writeJSON(out, snap)
			}
			fmt.Fprintf(out, "state:     %s\n", snap.State)
			fmt.Fprintf(out, "epoch:     %d\n", snap.Epoch)
			fmt.Fprintf(out, "capacity:  %d\n", snap.Capacity)
			fmt.Fprintf(out, "available: %d\n", snap.Available)
			fmt.Fprintf(out, "allocated: %v\n", snap.Allocated)
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			if jsonOutput {
				_ = writeJSON(cmd.OutOrStdout(), map[string]string{"version": config.Version, "build_time": config.BuildTime})
				return
			}
			fmt.Fprintf(cmd.OutOrStdout(), "freqctl version %s (%s)\n", config.Version, config.BuildTime)
		},
	}
}

func runOperation(cmd *cobra.Command, args []string, fn operationFunc) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	resp, err := fn(ctx, newClient(cmd), args)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		if err := writeJSON(out, resp); err != nil {
			return err
		}
	} else {
		printResponse(out, resp)
	}
	if !resp.IsOK() {
		return errDomain
	}
	return nil
}

func printResponse(out io.Writer, resp *domain.Response) {
	switch {
	case !resp.IsOK():
		fmt.Fprintf(out, "ERROR %s\n", resp.ErrorType())
	case resp.Result != nil:
		fmt.Fprintf(out, "OK frequency=%d\n", resp.Result.FrequencyAllocated)
	default:
		fmt.Fprintln(out, "OK")
	}
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newClient(cmd *cobra.Command) *freqclient.Client {
	opts := []freqclient.Option{freqclient.WithRetryMax(retries), freqclient.WithTimeout(timeout)}
	if verbose {
		handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug})
		opts = append(opts, freqclient.WithLogger(slog.New(handler)))
	}
	return freqclient.NewClient(serverURL, opts...)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
