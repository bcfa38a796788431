package notifications

import (
	"fmt"
	"strings"
	"time"
)

const testSubject = "File Alert: test"

// Subject is the mail subject for alert.
func Subject(alert Alert) string {
	return "File Alert: " + strings.TrimSpace(alert.FileName)
}

// Body is the plain-text message for alert.
func Body(alert Alert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The file '%s' has been in the export folder for more than %s.",
		strings.TrimSpace(alert.FileName), describeThreshold(alert.Threshold))
	switch {
	case alert.Others == 1:
		b.WriteString("\n\n1 other file is also in quarantine")
	case alert.Others > 1:
		fmt.Fprintf(&b, "\n\n%d other files are also in quarantine", alert.Others)
	}
	if alert.Others > 0 {
		if dir := strings.TrimSpace(alert.Dir); dir != "" {
			fmt.Fprintf(&b, " in %s", dir)
		}
		b.WriteString(".")
	}
	return b.String()
}

func testBody() string {
	return "This is a test notification from sftpsync. No action is required."
}

// describeThreshold renders whole minutes as "5 minutes" and anything else in
// seconds.
func describeThreshold(threshold time.Duration) string {
	if threshold <= 0 {
		threshold = 5 * time.Minute
	}
	if threshold%time.Minute == 0 {
		return plural(int(threshold/time.Minute), "minute")
	}
	return plural(int(threshold.Round(time.Second)/time.Second), "second")
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
