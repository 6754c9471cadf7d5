package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

// NewExecCmd создаёт группу команд для наблюдения за исполнением.
func NewExecCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exec",
		Short: "Inspect the current execution",
	}

	cmd.AddCommand(
		newExecStatusCmd(clientFn, outputFn),
		newExecProgressCmd(clientFn, outputFn),
		newExecNodesCmd(clientFn, outputFn),
		newExecMetricsCmd(clientFn, outputFn),
		newExecInterruptCmd(clientFn, outputFn),
	)

	return cmd
}

func newExecStatusCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show execution tracker state",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			state, err := client.GetExecutionState()
			if err != nil {
				return err
			}

			headers := []string{"STATE", "DONE", "TOTAL", "PERCENT"}
			rows := [][]string{{
				state.State,
				strconv.Itoa(state.Progress.Done),
				strconv.Itoa(state.Progress.Total),
				fmt.Sprintf("%.1f%%", state.Progress.Percent),
			}}

			out.Print(headers, rows, state)
			return nil
		},
	}
}

func newExecProgressCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "progress",
		Short: "Show current chain progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			progress, err := client.GetChainProgress()
			if err != nil {
				return err
			}

			headers := []string{"NODE", "NAME", "STATUS"}
			rows := make([][]string, len(progress.Nodes))
			for i, n := range progress.Nodes {
				rows[i] = []string{n.ID, n.Name, n.Status}
			}

			out.Print(headers, rows, progress)
			return nil
		},
	}
}

func newExecNodesCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "nodes",
		Short: "List tracked nodes of the current execution",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			nodes, err := client.ListExecutionNodes()
			if err != nil {
				return err
			}

			headers := []string{"ID", "TYPE", "STATE", "DURATION", "ERROR"}
			rows := make([][]string, len(nodes))
			for i, n := range nodes {
				rows[i] = []string{
					n.ID,
					n.Type,
					n.State,
					time.Duration(n.Duration).String(),
					n.Error,
				}
			}

			out.Print(headers, rows, nodes)
			return nil
		},
	}
}

func newExecMetricsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "Show accumulated per-type execution metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			metrics, err := client.GetExecutionMetrics()
			if err != nil {
				return err
			}

			headers := []string{"TYPE", "COUNT", "ERRORS", "AVG", "MIN", "MAX"}
			rows := make([][]string, 0, len(metrics.Metrics))
			for nodeType, m := range metrics.Metrics {
				avg := time.Duration(0)
				if m.Count > 0 {
					avg = time.Duration(m.Total / int64(m.Count))
				}
				rows = append(rows, []string{
					nodeType,
					strconv.Itoa(m.Count),
					strconv.Itoa(m.Errors),
					avg.String(),
					time.Duration(m.Min).String(),
					time.Duration(m.Max).String(),
				})
			}

			out.Print(headers, rows, metrics)
			return nil
		},
	}
}

func newExecInterruptCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "interrupt",
		Short: "Interrupt the executing chain",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if err := client.InterruptExecution(); err != nil {
				return err
			}

			out.Success("Interrupt requested")
			return nil
		},
	}
}
