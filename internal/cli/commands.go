package cli

import (
	"github.com/spf13/cobra"

	"github.com/git-pkgs/channel"
)

type providerFunc func(cmd *cobra.Command) *channel.Provider

func newRepositoriesCommand(provider providerFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "repositories",
		Short: "List the repository URLs referenced by the channel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repos, err := provider(cmd).Repositories(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(repos)
		},
	}
}

func newPackagesCommand(provider providerFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "packages <repository-url>",
		Short: "Print the package records cached for a repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pkgs, err := provider(cmd).Packages(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			loggerFromContext(cmd.Context()).Debug("fetched packages", "count", len(pkgs))
			return printJSON(pkgs)
		},
	}
}

func newLibrariesCommand(provider providerFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "libraries <repository-url>",
		Short: "Print the library records cached for a repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			libs, err := provider(cmd).Libraries(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			loggerFromContext(cmd.Context()).Debug("fetched libraries", "count", len(libs))
			return printJSON(libs)
		},
	}
}

func newInfoCommand(provider providerFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Print the channel location and schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := provider(cmd)
			ver, err := p.SchemaVersion(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(map[string]string{
				"location":       p.Location(),
				"schema_version": ver,
			})
		},
	}
}

func newRenamesCommand(provider providerFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "renames",
		Short: "Print the previous-name to current-name mapping",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			renamed, err := provider(cmd).RenamedPackages(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(renamed)
		},
	}
}
