package validate

import (
	"strings"
	"testing"
	"time"
)

func TestPhoneNumber(t *testing.T) {
	for _, ok := range []string{"+15551234567", "+447911123456", "+4915112345678"} {
		if err := PhoneNumber(ok); err != nil {
			t.Errorf("PhoneNumber(%q) = %v, want nil", ok, err)
		}
	}
	for _, bad := range []string{"", "15551234567", "+0123456", "+1 555 123", "+1555123456789012345"} {
		if err := PhoneNumber(bad); err == nil {
			t.Errorf("PhoneNumber(%q) = nil, want error", bad)
		}
	}
}

func TestCallTime(t *testing.T) {
	for _, ok := range []string{"00:00", "08:30", "23:59"} {
		if err := CallTime(ok); err != nil {
			t.Errorf("CallTime(%q) = %v, want nil", ok, err)
		}
	}
	for _, bad := range []string{"", "24:00", "8:30", "08:60", "08-30", "morning"} {
		if err := CallTime(bad); err == nil {
			t.Errorf("CallTime(%q) = nil, want error", bad)
		}
	}
}

func TestTimeZone(t *testing.T) {
	for _, ok := range []string{"UTC", "America/New_York", "Europe/Oslo"} {
		if err := TimeZone(ok); err != nil {
			t.Errorf("TimeZone(%q) = %v, want nil", ok, err)
		}
	}
	for _, bad := range []string{"", "Mars/Olympus", "EST5EDT nope"} {
		if err := TimeZone(bad); err == nil {
			t.Errorf("TimeZone(%q) = nil, want error", bad)
		}
	}
}

func TestTitle(t *testing.T) {
	if err := Title("buy milk"); err != nil {
		t.Errorf("Title: %v", err)
	}
	for _, bad := range []string{"", " leading", "trailing ", strings.Repeat("x", 201)} {
		if err := Title(bad); err == nil {
			t.Errorf("Title(%q) = nil, want error", bad)
		}
	}
}

func TestCreateTask(t *testing.T) {
	due := time.Now().Add(time.Hour)
	if err := CreateTask("buy milk", due, "UTC"); err != nil {
		t.Errorf("CreateTask: %v", err)
	}
	if err := CreateTask("buy milk", time.Time{}, "UTC"); err == nil {
		t.Error("CreateTask with zero due: want error")
	}
	if err := CreateTask("buy milk", due, "Nowhere/Town"); err == nil {
		t.Error("CreateTask with bad zone: want error")
	}
}
