// cmd/preflight/main.go
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

func main() {
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	db := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	smtpHost := strings.TrimSpace(os.Getenv("SMTP_HOST"))
	smtpUser := strings.TrimSpace(os.Getenv("SMTP_USER"))
	smtpPass := strings.TrimSpace(os.Getenv("SMTP_PASS"))
	webhook := strings.TrimSpace(os.Getenv("ALERT_WEBHOOK_URL"))
	addr := strings.TrimSpace(os.Getenv("ADDR"))

	if db == "" {
		warn("DATABASE_URL empty — cycle will run against an in-memory store and persist nothing.")
	} else {
		ok("DATABASE_URL present")
	}

	if smtpHost == "" && webhook == "" {
		warn("neither SMTP_HOST nor ALERT_WEBHOOK_URL set — alerts will be dropped.")
	}
	if smtpHost != "" {
		if smtpUser == "" || smtpPass == "" {
			fail("SMTP_HOST set but SMTP_USER/SMTP_PASS missing (mail auth will fail).")
		}
		ok("SMTP configured for " + smtpHost)
	}
	if webhook != "" {
		if !strings.HasPrefix(webhook, "http") {
			fail("ALERT_WEBHOOK_URL does not look like a URL: " + webhook)
		}
		ok("webhook configured")
	}

	for _, name := range []string{"UNIT_PRICE", "HISTORY_CAP", "BASE_TIMEOUT_MS"} {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			if n, err := strconv.Atoi(v); err != nil || n <= 0 {
				fail(name + " must be a positive integer, got " + v)
			}
			ok(name + "=" + v)
		}
	}

	if addr == "" {
		warn("ADDR is empty; the ops API default will be used.")
	} else {
		ok("ADDR=" + addr)
	}

	ok("preflight passed")
}
