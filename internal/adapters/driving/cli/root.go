// Package cli implements the notari command-line interface.
// Commands are thin adapters over the driving services, wired in by
// the main package before Execute runs.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/calder-labs/notari/internal/adapters/driving/httpapi"
	"github.com/calder-labs/notari/internal/core/ports/driving"
	"github.com/calder-labs/notari/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// Persistent flags.
var (
	verbose    bool
	configPath string
)

// Services injected by the main package.
var (
	documentService driving.DocumentService
	retriever       driving.Retriever
	synthesizer     driving.AnswerSynthesizer
	apiKeyService   driving.APIKeyService
	ingestor        driving.Ingestor
	httpServer      *httpapi.Server
	chatTopK        = 4
)

// Deps bundles everything the commands need.
type Deps struct {
	Documents   driving.DocumentService
	Retriever   driving.Retriever
	Synthesizer driving.AnswerSynthesizer
	APIKeys     driving.APIKeyService
	Ingestor    driving.Ingestor
	HTTPServer  *httpapi.Server
	TopK        int
}

// SetServices wires the driving services into the command tree.
func SetServices(deps Deps) {
	documentService = deps.Documents
	retriever = deps.Retriever
	synthesizer = deps.Synthesizer
	apiKeyService = deps.APIKeys
	ingestor = deps.Ingestor
	httpServer = deps.HTTPServer
	if deps.TopK > 0 {
		chatTopK = deps.TopK
	}
}

// initServices builds the service graph once flags are parsed. The
// main package installs it; tests inject services directly through
// SetServices instead.
var initServices func(configPath string) (Deps, error)

// SetInitializer installs the lazy service constructor.
func SetInitializer(fn func(configPath string) (Deps, error)) {
	initServices = fn
}

var rootCmd = &cobra.Command{
	Use:   "notari",
	Short: "Personal knowledge assistant",
	Long: `Notari ingests your documents, indexes them for semantic search,
and answers questions grounded in their content.`,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		if initServices != nil && documentService == nil {
			deps, err := initServices(configPath)
			if err != nil {
				return err
			}
			SetServices(deps)
		}
		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
