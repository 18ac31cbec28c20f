package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/legacy-registry/profile-api/internal/platform/logging"
	"github.com/legacy-registry/profile-api/pkg/client"
)

const programName = "legacyctl"

// cliEnv supplies flag defaults from the environment.
type cliEnv struct {
	APIURL  string `env:"LEGACY_API_URL" envDefault:"http://localhost:8080"`
	Token   string `env:"LEGACY_TOKEN"`
	Subject string `env:"LEGACY_DEBUG_SUBJECT"`
}

type globalFlags struct {
	apiURL  string
	token   string
	subject string
	debug   bool
}

func (g *globalFlags) client() *client.Client {
	return client.New(g.apiURL, client.WithToken(g.token), client.WithDebugSubject(g.subject))
}

func (g *globalFlags) logger() *zap.Logger {
	level := "warn"
	if g.debug {
		level = "debug"
	}
	l, err := logging.New(level, true)
	if err != nil {
		return zap.NewNop()
	}
	return l
}

func newRootCmd() *cobra.Command {
	var defaults cliEnv
	// Malformed env values fall back to the zero defaults; flags can still override them.
	_ = env.Parse(&defaults)

	g := &globalFlags{}
	root := &cobra.Command{
		Use:           programName,
		Short:         "Command-line client for the legacy profile API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.apiURL, "api-url", defaults.APIURL, "API base URL")
	root.PersistentFlags().StringVar(&g.token, "token", defaults.Token, "bearer access token")
	root.PersistentFlags().StringVar(&g.subject, "subject", defaults.Subject, "X-Debug-Subject for servers in AUTH_MODE=dev")
	root.PersistentFlags().BoolVarP(&g.debug, "debug", "D", false, "enable debug logging")

	root.AddCommand(validateCommand())
	root.AddCommand(draftCommand(g))
	root.AddCommand(publishCommand(g))
	root.AddCommand(statusCommand(g))
	root.AddCommand(payCommand(g))
	root.AddCommand(polishCommand(g))
	root.AddCommand(whoamiCommand(g))
	root.AddCommand(wizardCommand(g))
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", programName, err)
		os.Exit(1)
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// readInput reads a file, or stdin when path is "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return b, nil
}
