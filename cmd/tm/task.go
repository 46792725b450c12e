package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/zulandar/taskyard/internal/identity"
	"github.com/zulandar/taskyard/internal/task"
)

func newTaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Task management commands",
	}

	cmd.AddCommand(newTaskCreateCmd())
	cmd.AddCommand(newTaskListCmd())
	cmd.AddCommand(newTaskShowCmd())
	cmd.AddCommand(newTaskCompleteCmd())
	cmd.AddCommand(newTaskCloneCmd())
	return cmd
}

func newTaskCreateCmd() *cobra.Command {
	var (
		configPath  string
		title       string
		description string
		priority    string
		due         string
		projectID   string
		parentID    string
		actorID     string
		assignees   []string
		assignAll   bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new task",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			opts := task.CreateOpts{
				Title:       title,
				Description: description,
				Priority:    priority,
				ActorID:     actorID,
				AssigneeIDs: assignees,
				AssignAll:   assignAll,
			}
			if projectID != "" {
				opts.ProjectID = &projectID
			}
			if parentID != "" {
				opts.ParentID = &parentID
			}
			if due != "" {
				d, err := time.Parse("2006-01-02", due)
				if err != nil {
					return fmt.Errorf("parse --due: %w", err)
				}
				opts.DueDate = &d
			}

			t, err := task.Create(gormDB, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created task %s\n", t.ID)
			if len(t.Assignments) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Assigned to %d user(s)\n", len(t.Assignments))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Taskyard config file")
	cmd.Flags().StringVar(&title, "title", "", "task title (required)")
	cmd.Flags().StringVar(&description, "description", "", "detailed description")
	cmd.Flags().StringVar(&priority, "priority", "medium", "priority (low, medium, high)")
	cmd.Flags().StringVar(&due, "due", "", "due date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&projectID, "project", "", "project id (omit for an unfiled task)")
	cmd.Flags().StringVar(&parentID, "parent", "", "parent task id")
	cmd.Flags().StringVar(&actorID, "actor", "", "user id recorded as creator")
	cmd.Flags().StringSliceVar(&assignees, "assign", nil, "user ids to assign")
	cmd.Flags().BoolVar(&assignAll, "assign-all", false, "assign every known user")
	cmd.MarkFlagRequired("title")
	return cmd
}

func newTaskListCmd() *cobra.Command {
	var (
		configPath string
		projectID  string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a project's task tree",
		Long:  "Prints the task hierarchy of one project, or the unfiled tasks when no project is given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			var scope *string
			if projectID != "" {
				scope = &projectID
			}
			roots, err := task.Tree(gormDB, scope)
			if err != nil {
				return err
			}
			if len(roots) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No tasks.")
				return nil
			}
			for _, root := range roots {
				printTaskTree(cmd.OutOrStdout(), root, 0)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Taskyard config file")
	cmd.Flags().StringVar(&projectID, "project", "", "project id (omit for unfiled tasks)")
	return cmd
}

func newTaskShowCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show a task with its subtree, assignees and completions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			t, err := task.Get(gormDB, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Task: %s (%s)\n", t.Title, t.ID)
			fmt.Fprintf(out, "Status: %s  Priority: %s  Version: %d\n", t.Status, t.Priority, t.Version)
			if t.DueDate != nil {
				fmt.Fprintf(out, "Due: %s\n", t.DueDate.Format("2006-01-02"))
			}
			if t.Description != "" {
				fmt.Fprintf(out, "Description: %s\n", t.Description)
			}

			if len(t.Assignments) > 0 {
				w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "\nASSIGNEE\tCOMPLETED")
				done := make(map[string]time.Time, len(t.Completions))
				for _, comp := range t.Completions {
					done[comp.UserID] = comp.CompletedAt
				}
				for _, a := range t.Assignments {
					when := "-"
					if ts, ok := done[a.UserID]; ok {
						when = ts.Format("2006-01-02 15:04")
					}
					fmt.Fprintf(w, "%s\t%s\n", a.User.FullName(), when)
				}
				w.Flush()
			}

			if len(t.TreeChildren()) > 0 {
				fmt.Fprintln(out, "\nSub-tasks:")
				for _, c := range t.TreeChildren() {
					printTaskTree(out, c, 1)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Taskyard config file")
	return cmd
}

func newTaskCompleteCmd() *cobra.Command {
	var (
		configPath string
		userID     string
	)

	cmd := &cobra.Command{
		Use:   "complete <task-id>",
		Short: "Record a user's completion of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			capa, err := identity.Resolve(gormDB, userID)
			if err != nil {
				return err
			}
			auto, err := task.Complete(gormDB, args[0], capa)
			if err != nil {
				return err
			}
			if auto {
				fmt.Fprintln(cmd.OutOrStdout(), "Task completed: all assignees have checked it off.")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Completion recorded.")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Taskyard config file")
	cmd.Flags().StringVar(&userID, "user", "", "user id completing the task (required)")
	cmd.MarkFlagRequired("user")
	return cmd
}

func newTaskCloneCmd() *cobra.Command {
	var (
		configPath    string
		targetProject string
		newParent     string
		actorID       string
		excluded      []string
	)

	cmd := &cobra.Command{
		Use:   "clone <task-id>",
		Short: "Deep-copy a task subtree",
		Long:  "Copies a task and all of its descendants. Copies start over: pending, no due date, no assignments.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			opts := task.CloneOpts{ActorID: actorID, Excluded: excluded}
			if targetProject != "" {
				opts.TargetProjectID = &targetProject
			}
			if newParent != "" {
				opts.NewParentID = &newParent
			}

			newID, err := task.CloneSubtree(gormDB, args[0], opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cloned subtree, new root %s\n", newID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Taskyard config file")
	cmd.Flags().StringVar(&targetProject, "into", "", "target project id (default: source project)")
	cmd.Flags().StringVar(&newParent, "under", "", "existing task to attach the copy under")
	cmd.Flags().StringVar(&actorID, "actor", "", "user id recorded as creator of the copies")
	cmd.Flags().StringSliceVar(&excluded, "exclude", nil, "task ids to skip (with their subtrees)")
	return cmd
}
