package main

import (
	"fmt"
	"net/url"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	availCmd := &cobra.Command{Use: "availability", Short: "Availability queries"}

	// get
	var userId, start, end, tz string
	var businessHours bool
	getCmd := &cobra.Command{
		Use:   "get",
		Short: "Compute free slots for a window",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userId == "" || start == "" || end == "" {
				return fmt.Errorf("--user, --start and --end required")
			}
			q := url.Values{}
			q.Set("start", start)
			q.Set("end", end)
			if tz != "" {
				q.Set("timezone", tz)
			}
			if businessHours {
				q.Set("businessHours", "true")
			}
			u := fmt.Sprintf("%s/api/users/%s/availability?%s", apiFlag, userId, q.Encode())
			data, err := doGet(u)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	getCmd.Flags().StringVarP(&userId, "user", "u", "", "User ID (required)")
	getCmd.Flags().StringVarP(&start, "start", "s", "", "Window start, RFC3339 (required)")
	getCmd.Flags().StringVarP(&end, "end", "e", "", "Window end, RFC3339 (required)")
	getCmd.Flags().StringVarP(&tz, "tz", "t", "", "Time zone override")
	getCmd.Flags().BoolVarP(&businessHours, "business-hours", "b", false, "Trim to business hours")
	availCmd.AddCommand(getCmd)

	// check
	var checkUser, checkStart, checkEnd string
	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Check whether a slot is free",
		RunE: func(cmd *cobra.Command, args []string) error {
			if checkUser == "" || checkStart == "" || checkEnd == "" {
				return fmt.Errorf("--user, --start and --end required")
			}
			u := fmt.Sprintf("%s/api/users/%s/availability/check", apiFlag, checkUser)
			data, err := doPostJSON(u, map[string]interface{}{"start": checkStart, "end": checkEnd})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	checkCmd.Flags().StringVarP(&checkUser, "user", "u", "", "User ID (required)")
	checkCmd.Flags().StringVarP(&checkStart, "start", "s", "", "Slot start, RFC3339 (required)")
	checkCmd.Flags().StringVarP(&checkEnd, "end", "e", "", "Slot end, RFC3339 (required)")
	availCmd.AddCommand(checkCmd)

	rootCmd.AddCommand(availCmd)
}
