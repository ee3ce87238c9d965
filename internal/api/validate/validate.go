// Package validate checks request field formats before they reach the
// services.
package validate

import (
	"fmt"
	"regexp"
	"time"
)

var emailRx = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// phoneRx accepts E.164: a plus sign, a non-zero leading digit, up to 15 digits total.
var phoneRx = regexp.MustCompile(`^\+[1-9][0-9]{1,14}$`)

// callTimeRx is a 24-hour HH:MM wall-clock time.
var callTimeRx = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

func Email(v string) error {
	if v == "" {
		return fmt.Errorf("email is required")
	}
	if len(v) > 320 || !emailRx.MatchString(v) {
		return fmt.Errorf("invalid email")
	}
	return nil
}

// PhoneNumber validates an E.164 phone number.
func PhoneNumber(v string) error {
	if v == "" {
		return fmt.Errorf("phone number is required")
	}
	if !phoneRx.MatchString(v) {
		return fmt.Errorf("phone number must be E.164, e.g. +15551234567")
	}
	return nil
}

// CallTime validates an HH:MM wall-clock time.
func CallTime(v string) error {
	if v == "" {
		return fmt.Errorf("call time is required")
	}
	if !callTimeRx.MatchString(v) {
		return fmt.Errorf("call time must be HH:MM, e.g. 08:30")
	}
	return nil
}

// TimeZone validates an IANA zone name.
func TimeZone(v string) error {
	if v == "" {
		return fmt.Errorf("time zone is required")
	}
	if _, err := time.LoadLocation(v); err != nil {
		return fmt.Errorf("unknown time zone %q", v)
	}
	return nil
}

// Title validates a task title: 1-200 bytes, no leading/trailing space.
func Title(v string) error {
	if v == "" {
		return fmt.Errorf("title is required")
	}
	if len(v) > 200 {
		return fmt.Errorf("title exceeds 200 characters")
	}
	if v[0] == ' ' || v[len(v)-1] == ' ' {
		return fmt.Errorf("title must not have leading or trailing spaces")
	}
	return nil
}

func NonEmpty(field, v string) error {
	if v == "" {
		return fmt.Errorf("%s is required", field)
	}
	return nil
}

func MaxLen(field string, v *string, limit int) error {
	if v == nil {
		return nil
	}
	if len(*v) > limit {
		return fmt.Errorf("%s exceeds %d characters", field, limit)
	}
	return nil
}

// -------- Request specific helpers ----------

// CreateUser validates input for creating a new user.
func CreateUser(email, timeZone string, displayName, phoneNumber *string) error {
	if err := Email(email); err != nil {
		return err
	}
	if timeZone != "" {
		if err := TimeZone(timeZone); err != nil {
			return err
		}
	}
	if err := MaxLen("displayName", displayName, 100); err != nil {
		return err
	}
	if phoneNumber != nil {
		if err := PhoneNumber(*phoneNumber); err != nil {
			return err
		}
	}
	return nil
}

// CallSettings validates a partial call-settings update.
func CallSettings(phoneNumber, callTime, timeZone *string) error {
	if phoneNumber != nil {
		if err := PhoneNumber(*phoneNumber); err != nil {
			return err
		}
	}
	if callTime != nil {
		if err := CallTime(*callTime); err != nil {
			return err
		}
	}
	if timeZone != nil {
		if err := TimeZone(*timeZone); err != nil {
			return err
		}
	}
	return nil
}

// CreateTask validates input for creating a task.
func CreateTask(title string, due time.Time, timeZone string) error {
	if err := Title(title); err != nil {
		return err
	}
	if due.IsZero() {
		return fmt.Errorf("due is required")
	}
	if timeZone != "" {
		if err := TimeZone(timeZone); err != nil {
			return err
		}
	}
	return nil
}
