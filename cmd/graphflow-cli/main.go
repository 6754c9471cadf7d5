// graphflow CLI — инструмент командной строки для управления
// workflows, цепочками и запусками через HTTP API.
//
// Использование:
//
//	graphflow [--api-url URL] [--json] <command> <subcommand> [flags]
//
// Команды:
//
//	workflow  Управление workflows
//	chain     Управление цепочками
//	run       Просмотр запусков
//	exec      Наблюдение за исполнением
//	events    Живой поток событий (RabbitMQ)
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/akimenko/graphflow/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var apiURL string
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "graphflow",
		Short:         "graphflow CLI — workflow chain automation tool",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "http://localhost:8080", "API server URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	clientFn := func() *cli.Client { return cli.NewClient(apiURL) }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewWorkflowCmd(clientFn, outputFn),
		cli.NewChainCmd(clientFn, outputFn),
		cli.NewRunCmd(clientFn, outputFn),
		cli.NewExecCmd(clientFn, outputFn),
		cli.NewEventsCmd(outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
