package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	tasksCmd := &cobra.Command{Use: "tasks", Short: "Task operations"}

	// create
	var userId, title, due, tz string
	var remind int
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task with a reminder call",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userId == "" || title == "" || due == "" {
				return fmt.Errorf("--user, --title and --due required")
			}
			payload := map[string]interface{}{"title": title, "due": due}
			if tz != "" {
				payload["timezone"] = tz
			}
			if remind > 0 {
				payload["reminderMinutesBefore"] = remind
			}
			url := fmt.Sprintf("%s/api/users/%s/tasks", apiFlag, userId)
			data, err := doPostJSON(url, payload)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	createCmd.Flags().StringVarP(&userId, "user", "u", "", "User ID (required)")
	createCmd.Flags().StringVarP(&title, "title", "T", "", "Task title (required)")
	createCmd.Flags().StringVarP(&due, "due", "d", "", "Due time, RFC3339 (required)")
	createCmd.Flags().StringVarP(&tz, "tz", "t", "", "Time zone (defaults to user's)")
	createCmd.Flags().IntVarP(&remind, "remind", "r", 0, "Reminder lead time in minutes")
	tasksCmd.AddCommand(createCmd)

	// list
	var listUser string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if listUser == "" {
				return fmt.Errorf("--user required")
			}
			data, err := doGet(fmt.Sprintf("%s/api/users/%s/tasks", apiFlag, listUser))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	listCmd.Flags().StringVarP(&listUser, "user", "u", "", "User ID (required)")
	tasksCmd.AddCommand(listCmd)

	// get
	getCmd := &cobra.Command{
		Use:   "get TASK_ID",
		Short: "Get task by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet(fmt.Sprintf("%s/api/tasks/%s", apiFlag, args[0]))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	tasksCmd.AddCommand(getCmd)

	// complete
	completeCmd := &cobra.Command{
		Use:   "complete TASK_ID",
		Short: "Mark a task completed and cancel its reminder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url := fmt.Sprintf("%s/api/tasks/%s/complete", apiFlag, args[0])
			data, err := doPostJSON(url, map[string]interface{}{})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	tasksCmd.AddCommand(completeCmd)

	// delete
	deleteCmd := &cobra.Command{
		Use:   "delete TASK_ID",
		Short: "Delete a task and its reminder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := doDelete(fmt.Sprintf("%s/api/tasks/%s", apiFlag, args[0])); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, "deleted")
			return nil
		},
	}
	tasksCmd.AddCommand(deleteCmd)

	rootCmd.AddCommand(tasksCmd)
}
