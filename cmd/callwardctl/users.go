package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	usersCmd := &cobra.Command{Use: "users", Short: "User operations"}

	// create
	var userId, email, fullName, tz string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userId == "" || email == "" {
				return fmt.Errorf("--userId and --email required")
			}
			payload := map[string]interface{}{"userId": userId, "email": email}
			if fullName != "" {
				payload["displayName"] = fullName
			}
			if tz != "" {
				payload["timeZone"] = tz
			}
			data, err := doPostJSON(fmt.Sprintf("%s/api/users", apiFlag), payload)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	createCmd.Flags().StringVarP(&userId, "userId", "u", "", "UserID (required)")
	createCmd.Flags().StringVarP(&email, "email", "e", "", "User email (required)")
	createCmd.Flags().StringVarP(&fullName, "name", "n", "", "Display name")
	createCmd.Flags().StringVarP(&tz, "tz", "t", "", "Time zone (defaults UTC)")
	_ = createCmd.MarkFlagRequired("userId")
	usersCmd.AddCommand(createCmd)

	// get
	getCmd := &cobra.Command{
		Use:   "get USER_ID",
		Short: "Get user by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet(fmt.Sprintf("%s/api/users/%s", apiFlag, args[0]))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	usersCmd.AddCommand(getCmd)

	// settings
	var phone, callTime, settingsTz string
	settingsCmd := &cobra.Command{
		Use:   "settings USER_ID",
		Short: "Update call settings (phone, call time, time zone)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]interface{}{}
			if phone != "" {
				payload["phoneNumber"] = phone
			}
			if callTime != "" {
				payload["callTime"] = callTime
			}
			if settingsTz != "" {
				payload["timeZone"] = settingsTz
			}
			if len(payload) == 0 {
				return fmt.Errorf("at least one of --phone, --callTime, --tz required")
			}
			url := fmt.Sprintf("%s/api/users/%s/call-settings", apiFlag, args[0])
			data, err := doPatchJSON(url, payload)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	settingsCmd.Flags().StringVarP(&phone, "phone", "p", "", "Phone number in E.164 form")
	settingsCmd.Flags().StringVarP(&callTime, "callTime", "c", "", "Daily call time HH:MM")
	settingsCmd.Flags().StringVarP(&settingsTz, "tz", "t", "", "Time zone")
	usersCmd.AddCommand(settingsCmd)

	rootCmd.AddCommand(usersCmd)
}
