package version

import (
	"github.com/spf13/cobra"

	"github.com/meza/i18n-typegen/internal/constants"
	"github.com/meza/i18n-typegen/internal/environment"
	"github.com/meza/i18n-typegen/internal/i18n"
)

func Command() *cobra.Command {
	return &cobra.Command{
		Use: "version",
		Short: i18n.T("cmd.version.short", i18n.Tvars{
			Data: &i18n.TData{"appName": constants.AppName},
		}),
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Println(environment.AppVersion())
		},
	}
}
