package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zulandar/taskyard/internal/template"
)

func newTemplateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Project template commands",
	}

	cmd.AddCommand(newTemplateCreateCmd())
	cmd.AddCommand(newTemplateListCmd())
	cmd.AddCommand(newTemplateSectionAddCmd())
	cmd.AddCommand(newTemplatePreviewCmd())
	cmd.AddCommand(newTemplateExpandCmd())
	return cmd
}

func newTemplateCreateCmd() *cobra.Command {
	var (
		configPath  string
		name        string
		description string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new template",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			tpl, err := template.Create(gormDB, template.CreateOpts{Name: name, Description: description})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created template %s\n", tpl.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Taskyard config file")
	cmd.Flags().StringVar(&name, "name", "", "template name (required)")
	cmd.Flags().StringVar(&description, "description", "", "template description")
	cmd.MarkFlagRequired("name")
	return cmd
}

func newTemplateListCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			templates, err := template.List(gormDB)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tDESCRIPTION")
			for _, tpl := range templates {
				fmt.Fprintf(w, "%s\t%s\t%s\n", tpl.ID, tpl.Name, tpl.Description)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Taskyard config file")
	return cmd
}

func newTemplateSectionAddCmd() *cobra.Command {
	var (
		configPath  string
		templateID  string
		title       string
		description string
		priority    string
		offsetDays  int
		order       int
		parentID    string
	)

	cmd := &cobra.Command{
		Use:   "section-add",
		Short: "Add a section to a template",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			opts := template.SectionOpts{
				Title:       title,
				Description: description,
				Priority:    priority,
				Order:       order,
			}
			if cmd.Flags().Changed("due-offset") {
				opts.DueOffsetDays = &offsetDays
			}
			if parentID != "" {
				opts.ParentID = &parentID
			}

			s, err := template.AddSection(gormDB, templateID, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added section %s\n", s.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Taskyard config file")
	cmd.Flags().StringVar(&templateID, "template", "", "template id (required)")
	cmd.Flags().StringVar(&title, "title", "", "section title (required)")
	cmd.Flags().StringVar(&description, "description", "", "section description")
	cmd.Flags().StringVar(&priority, "priority", "medium", "priority of expanded tasks")
	cmd.Flags().IntVar(&offsetDays, "due-offset", 0, "days from expansion to due date (omit for no due date)")
	cmd.Flags().IntVar(&order, "order", 0, "ordering among siblings")
	cmd.Flags().StringVar(&parentID, "parent", "", "parent section id")
	cmd.MarkFlagRequired("template")
	cmd.MarkFlagRequired("title")
	return cmd
}

func newTemplatePreviewCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "preview <template-id>",
		Short: "Show the tree a template would expand into",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			nodes, err := template.Preview(gormDB, args[0])
			if err != nil {
				return err
			}
			if len(nodes) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Template has no sections.")
				return nil
			}
			for _, n := range nodes {
				printPreview(cmd.OutOrStdout(), n, 0)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Taskyard config file")
	return cmd
}

func newTemplateExpandCmd() *cobra.Command {
	var (
		configPath string
		projectID  string
		actorID    string
	)

	cmd := &cobra.Command{
		Use:   "expand <template-id>",
		Short: "Create tasks in a project from a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			created, err := template.Expand(gormDB, args[0], projectID, actorID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %d task(s) in project %s\n", len(created), projectID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Taskyard config file")
	cmd.Flags().StringVar(&projectID, "project", "", "target project id (required)")
	cmd.Flags().StringVar(&actorID, "actor", "", "user id recorded as creator")
	cmd.MarkFlagRequired("project")
	return cmd
}

func printPreview(out io.Writer, n *template.PreviewNode, depth int) {
	indent := ""
	for i := 0; i < depth; i++ {
		indent += "  "
	}
	due := ""
	if n.DueDateOffsetDays != nil {
		due = fmt.Sprintf(" due +%dd", *n.DueDateOffsetDays)
	}
	fmt.Fprintf(out, "%s- %s [%s]%s\n", indent, n.Title, n.Priority, due)
	for _, c := range n.Children {
		printPreview(out, c, depth+1)
	}
}
