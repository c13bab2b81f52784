/*
Package cli provides command-line helpers used by the switchboard command.

Output Formatting:

Results can be printed as text, JSON or CSV. Tabular results use Table:

	formatter := cli.NewFormatter(cli.FormatText)
	table := &cli.Table{Headers: []string{"ID", "MODEL"}}
	table.Rows = append(table.Rows, []string{"primary", "gpt-4o"})
	if err := formatter.FormatTo(os.Stdout, table); err != nil {
		return err
	}

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM and reload on SIGHUP:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()
	reload, stopReload := cli.ReloadSignals()
	defer stopReload()

Errors:

ExitCode maps command errors to process exit codes; configuration errors
exit with 2.
*/
package cli
