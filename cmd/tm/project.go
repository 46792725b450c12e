package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zulandar/taskyard/internal/models"
	"github.com/zulandar/taskyard/internal/project"
	"github.com/zulandar/taskyard/internal/task"
)

func newProjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Project management commands",
	}

	cmd.AddCommand(newProjectCreateCmd())
	cmd.AddCommand(newProjectListCmd())
	cmd.AddCommand(newProjectShowCmd())
	cmd.AddCommand(newProjectDeleteCmd())
	cmd.AddCommand(newProjectCloneCmd())
	return cmd
}

func newProjectCreateCmd() *cobra.Command {
	var (
		configPath  string
		name        string
		description string
		public      bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new project",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			p, err := project.Create(gormDB, project.CreateOpts{
				Name:        name,
				Description: description,
				Public:      public,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created project %s\n", p.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Taskyard config file")
	cmd.Flags().StringVar(&name, "name", "", "project name (required)")
	cmd.Flags().StringVar(&description, "description", "", "project description")
	cmd.Flags().BoolVar(&public, "public", true, "whether the project is visible to all users")
	cmd.MarkFlagRequired("name")
	return cmd
}

func newProjectListCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			projects, err := project.List(gormDB)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tPUBLIC\tCREATED")
			for _, p := range projects {
				fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", p.ID, p.Name, p.Public, p.CreatedAt.Format("2006-01-02"))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Taskyard config file")
	return cmd
}

func newProjectShowCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "show <project-id>",
		Short: "Show a project and its task tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			p, err := project.Get(gormDB, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Project: %s (%s)\n", p.Name, p.ID)
			if p.Description != "" {
				fmt.Fprintf(out, "Description: %s\n", p.Description)
			}
			fmt.Fprintf(out, "Public: %t\n\n", p.Public)

			roots, err := task.Tree(gormDB, &p.ID)
			if err != nil {
				return err
			}
			if len(roots) == 0 {
				fmt.Fprintln(out, "No tasks.")
				return nil
			}
			for _, root := range roots {
				printTaskTree(out, root, 0)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Taskyard config file")
	return cmd
}

func newProjectDeleteCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "delete <project-id>...",
		Short: "Delete projects and everything under them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			if err := project.DeleteMany(gormDB, args); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d project(s)\n", len(args))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Taskyard config file")
	return cmd
}

func newProjectCloneCmd() *cobra.Command {
	var (
		configPath string
		name       string
		actorID    string
		excluded   []string
	)

	cmd := &cobra.Command{
		Use:   "clone <project-id>",
		Short: "Deep-copy a project and its task trees",
		Long:  "Copies the project and every top-level task subtree. Excluded task ids are skipped together with their descendants.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			newID, err := project.Clone(gormDB, args[0], project.CloneOpts{
				Name:     name,
				ActorID:  actorID,
				Excluded: excluded,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cloned into project %s\n", newID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Taskyard config file")
	cmd.Flags().StringVar(&name, "name", "", "name for the copy (default: \"<source> (Copy)\")")
	cmd.Flags().StringVar(&actorID, "actor", "", "user id recorded as creator of the copies")
	cmd.Flags().StringSliceVar(&excluded, "exclude", nil, "task ids to skip (with their subtrees)")
	return cmd
}

// printTaskTree writes one task line and recurses into its children.
func printTaskTree(out io.Writer, t *models.TaskItem, depth int) {
	indent := ""
	for i := 0; i < depth; i++ {
		indent += "  "
	}
	due := ""
	if t.DueDate != nil {
		due = " due " + t.DueDate.Format("2006-01-02")
	}
	fmt.Fprintf(out, "%s- [%s] %s (%s)%s\n", indent, t.Status, t.Title, t.ID, due)
	for _, c := range t.TreeChildren() {
		printTaskTree(out, c, depth+1)
	}
}
