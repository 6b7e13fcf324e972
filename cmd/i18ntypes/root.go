package i18ntypes

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/meza/i18n-typegen/cmd/i18ntypes/generate"
	"github.com/meza/i18n-typegen/cmd/i18ntypes/version"
	"github.com/meza/i18n-typegen/internal/constants"
	"github.com/meza/i18n-typegen/internal/environment"
	"github.com/meza/i18n-typegen/internal/i18n"
	"github.com/meza/i18n-typegen/internal/tui"
)

// Command builds the i18ntypes command tree.
func Command() *cobra.Command {
	root := &cobra.Command{
		Use:     constants.CommandName,
		Short:   i18n.T("app.description"),
		Version: environment.AppVersion(),
	}
	// Double-clicking the Windows binary should still run it.
	cobra.MousetrapHelpText = ""

	persistent := root.PersistentFlags()
	persistent.StringP("config", "c", "", i18n.T("flag.config"))
	persistent.BoolP("quiet", "q", false, i18n.T("flag.quiet"))
	persistent.Bool("debug", false, i18n.T("flag.debug"))
	persistent.Bool("perf", false, i18n.T("flag.perf"))
	persistent.String("perf-out-dir", "", i18n.T("flag.perf_out_dir"))

	root.AddCommand(generate.Command(), version.Command())

	root.SetVersionTemplate("{{.Version}}\n")
	root.SetHelpTemplate(fmt.Sprintf("%s\n%s\n", root.HelpTemplate(), i18n.T("app.help.more", i18n.Tvars{
		Data: &i18n.TData{"url": environment.HelpURL()},
	})))
	root.SetUsageTemplate(wrapFlagUsages(root.UsageTemplate(), tui.TerminalWidth(os.Stdout)))

	localizeHelp(root)
	return root
}

// wrapFlagUsages makes the usage template wrap flag descriptions at width.
// A width of 0 leaves them on one line.
func wrapFlagUsages(template string, width int) string {
	return strings.ReplaceAll(template, ".FlagUsages", fmt.Sprintf(".FlagUsagesWrapped %d", width))
}

// localizeHelp translates the help flag of every command and the help
// command itself.
func localizeHelp(root *cobra.Command) {
	var walk func(*cobra.Command)
	walk = func(cmd *cobra.Command) {
		cmd.InitDefaultHelpFlag()
		cmd.Flags().Lookup("help").Usage = i18n.T("cmd.help.template", i18n.Tvars{
			Data: &i18n.TData{"command": cmd.Name()},
		})
		for _, child := range cmd.Commands() {
			walk(child)
		}
	}
	walk(root)

	root.InitDefaultHelpCmd()
	help, _, err := root.Find([]string{"help"})
	if err != nil {
		return
	}

	help.Short = i18n.T("cmd.help.usage.short")
	help.Long = i18n.T("cmd.help.usage.long", i18n.Tvars{
		Data: &i18n.TData{"appName": root.Name()},
	})
	help.Run = func(cmd *cobra.Command, args []string) {
		topic, _, err := cmd.Root().Find(args)
		if topic == nil || err != nil {
			cmd.PrintErrln(i18n.T("cmd.help.error", i18n.Tvars{
				Data: &i18n.TData{"topic": fmt.Sprintf("%#q", args)},
			}) + "\n")
			cobra.CheckErr(cmd.Root().Usage())
			return
		}
		topic.InitDefaultHelpFlag()
		topic.InitDefaultVersionFlag()
		cobra.CheckErr(topic.Help())
	}
}

func Execute() error {
	return Command().Execute()
}

// ExecuteContext runs the command tree with args and returns the error of the
// command that ran.
func ExecuteContext(ctx context.Context, args []string) error {
	root := Command()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}
