package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	callsCmd := &cobra.Command{Use: "calls", Short: "Scheduled call operations"}

	// schedule
	var userId, at string
	scheduleCmd := &cobra.Command{
		Use:   "schedule",
		Short: "Schedule a one-shot call",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userId == "" || at == "" {
				return fmt.Errorf("--user and --at required")
			}
			url := fmt.Sprintf("%s/api/users/%s/calls", apiFlag, userId)
			data, err := doPostJSON(url, map[string]interface{}{"scheduledAt": at})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	scheduleCmd.Flags().StringVarP(&userId, "user", "u", "", "User ID (required)")
	scheduleCmd.Flags().StringVarP(&at, "at", "w", "", "Call time, RFC3339 (required)")
	callsCmd.AddCommand(scheduleCmd)

	// list
	var listUser string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List calls for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if listUser == "" {
				return fmt.Errorf("--user required")
			}
			data, err := doGet(fmt.Sprintf("%s/api/users/%s/calls", apiFlag, listUser))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	listCmd.Flags().StringVarP(&listUser, "user", "u", "", "User ID (required)")
	callsCmd.AddCommand(listCmd)

	// get
	getCmd := &cobra.Command{
		Use:   "get CALL_ID",
		Short: "Get call by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet(fmt.Sprintf("%s/api/calls/%s", apiFlag, args[0]))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	callsCmd.AddCommand(getCmd)

	// retry
	var retryAt string
	retryCmd := &cobra.Command{
		Use:   "retry CALL_ID",
		Short: "Reschedule a failed call",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]interface{}{}
			if retryAt != "" {
				payload["scheduledAt"] = retryAt
			}
			url := fmt.Sprintf("%s/api/calls/%s/retry", apiFlag, args[0])
			data, err := doPostJSON(url, payload)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	retryCmd.Flags().StringVarP(&retryAt, "at", "w", "", "New call time, RFC3339 (defaults to now)")
	callsCmd.AddCommand(retryCmd)

	rootCmd.AddCommand(callsCmd)
}
