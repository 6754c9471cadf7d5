package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

// NewChainCmd создаёт группу команд для управления цепочками.
func NewChainCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chain",
		Short: "Manage workflow chains",
	}

	cmd.AddCommand(
		newChainListCmd(clientFn, outputFn),
		newChainCreateCmd(clientFn, outputFn),
		newChainShowCmd(clientFn, outputFn),
		newChainUpdateCmd(clientFn, outputFn),
		newChainDeleteCmd(clientFn, outputFn),
		newChainEnableCmd(clientFn, outputFn),
		newChainDisableCmd(clientFn, outputFn),
		newChainExecuteCmd(clientFn, outputFn),
		newChainRunsCmd(clientFn, outputFn),
	)

	return cmd
}

func chainRow(c *ChainResponse) []string {
	return []string{
		c.ID,
		c.Name,
		strconv.Itoa(len(c.Nodes)),
		c.CronExpr,
		strconv.FormatBool(c.Enabled),
		c.NextDueAt,
	}
}

var chainHeaders = []string{"ID", "NAME", "NODES", "CRON", "ENABLED", "NEXT DUE"}

func newChainListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all chains",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			chains, err := client.ListChains()
			if err != nil {
				return err
			}

			rows := make([][]string, len(chains))
			for i := range chains {
				rows[i] = chainRow(&chains[i])
			}

			out.Print(chainHeaders, rows, chains)
			return nil
		},
	}
}

func newChainCreateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a chain from a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read chain file: %w", err)
			}

			chain, err := client.CreateChain(data)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Chain created: %s", chain.ID))
			out.Print(chainHeaders, [][]string{chainRow(chain)}, chain)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "path to chain JSON file (required)")
	cmd.MarkFlagRequired("file")

	return cmd
}

func newChainShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show chain details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			chain, err := client.GetChain(args[0])
			if err != nil {
				return err
			}

			out.Print(chainHeaders, [][]string{chainRow(chain)}, chain)
			return nil
		},
	}
}

func newChainUpdateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var name, description, cronExpr, timezone string

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a chain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			var req UpdateChainRequest
			if cmd.Flags().Changed("name") {
				req.Name = &name
			}
			if cmd.Flags().Changed("description") {
				req.Description = &description
			}
			if cmd.Flags().Changed("cron") {
				req.CronExpr = &cronExpr
			}
			if cmd.Flags().Changed("timezone") {
				req.Timezone = &timezone
			}

			chain, err := client.UpdateChain(args[0], req)
			if err != nil {
				return err
			}

			out.Success("Chain updated")
			out.Print(chainHeaders, [][]string{chainRow(chain)}, chain)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "new chain name")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	cmd.Flags().StringVar(&cronExpr, "cron", "", "cron expression (empty to disable scheduling)")
	cmd.Flags().StringVar(&timezone, "timezone", "", "timezone for cron")

	return cmd
}

func newChainDeleteCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a chain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if err := client.DeleteChain(args[0]); err != nil {
				return err
			}

			out.Success("Chain deleted")
			return nil
		},
	}
}

func newChainEnableCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "enable <id>",
		Short: "Enable chain scheduling",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			chain, err := client.SetChainEnabled(args[0], true)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Chain enabled, next due: %s", chain.NextDueAt))
			return nil
		},
	}
}

func newChainDisableCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "disable <id>",
		Short: "Disable chain scheduling",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if _, err := client.SetChainEnabled(args[0], false); err != nil {
				return err
			}

			out.Success("Chain disabled")
			return nil
		},
	}
}

func newChainExecuteCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "execute <id>",
		Short: "Execute a chain now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			run, err := client.ExecuteChain(args[0])
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Run started: %s (execution %s)", run.ID, run.ExecutionID))
			out.Print(
				[]string{"RUN", "CHAIN", "EXECUTION", "STATUS"},
				[][]string{{run.ID, run.ChainID, run.ExecutionID, run.Status}},
				run,
			)
			return nil
		},
	}
}

func newChainRunsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs <id>",
		Short: "List runs of a chain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			runs, err := client.ListChainRuns(args[0], limit)
			if err != nil {
				return err
			}

			headers := []string{"ID", "EXECUTION", "STATUS", "STARTED", "FINISHED"}
			rows := make([][]string, len(runs))
			for i, r := range runs {
				rows[i] = []string{r.ID, r.ExecutionID, r.Status, r.StartedAt, r.FinishedAt}
			}

			out.Print(headers, rows, runs)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs")

	return cmd
}
