// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/olegiv/onews-go/internal/testutil"
)

// testLoginProtection returns a protector with a controllable clock.
func testLoginProtection(t *testing.T, maxAttempts int, lockout, window time.Duration) (*LoginProtection, *time.Time) {
	t.Helper()
	lp := NewLoginProtection(LoginProtectionConfig{
		IPRateLimit:       10,
		IPBurst:           100,
		MaxFailedAttempts: maxAttempts,
		LockoutDuration:   lockout,
		AttemptWindow:     window,
	}, testutil.DiscardLogger())
	t.Cleanup(lp.Stop)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	lp.now = func() time.Time { return now }
	return lp, &now
}

func TestDefaultLoginProtectionConfig(t *testing.T) {
	cfg := DefaultLoginProtectionConfig()

	if cfg.IPRateLimit != 0.5 {
		t.Errorf("IPRateLimit = %v, want 0.5", cfg.IPRateLimit)
	}
	if cfg.IPBurst != 5 {
		t.Errorf("IPBurst = %d, want 5", cfg.IPBurst)
	}
	if cfg.MaxFailedAttempts != 5 {
		t.Errorf("MaxFailedAttempts = %d, want 5", cfg.MaxFailedAttempts)
	}
	if cfg.LockoutDuration != 15*time.Minute {
		t.Errorf("LockoutDuration = %v, want 15m", cfg.LockoutDuration)
	}
}

func TestNewLoginProtectionDefaultValues(t *testing.T) {
	lp := NewLoginProtection(LoginProtectionConfig{}, testutil.DiscardLogger())
	defer lp.Stop()

	if lp.maxFailedAttempts != 5 {
		t.Errorf("maxFailedAttempts = %d, want 5", lp.maxFailedAttempts)
	}
	if lp.lockoutDuration != 15*time.Minute {
		t.Errorf("lockoutDuration = %v, want 15m", lp.lockoutDuration)
	}
}

func TestLoginProtectionStopTwice(t *testing.T) {
	lp := NewLoginProtection(DefaultLoginProtectionConfig(), testutil.DiscardLogger())
	lp.Stop()
	lp.Stop()
}

func TestRecordFailedAttemptLocks(t *testing.T) {
	lp, _ := testLoginProtection(t, 3, time.Minute, time.Hour)

	for i := 1; i < 3; i++ {
		if locked, _ := lp.RecordFailedAttempt("editor"); locked {
			t.Fatalf("attempt %d locked the account early", i)
		}
	}
	if got := lp.RemainingAttempts("editor"); got != 1 {
		t.Errorf("RemainingAttempts = %d, want 1", got)
	}

	locked, d := lp.RecordFailedAttempt("EDITOR")
	if !locked {
		t.Fatal("third attempt should lock the account")
	}
	if d != time.Minute {
		t.Errorf("lock duration = %v, want 1m", d)
	}

	if locked, remaining := lp.IsAccountLocked("Editor"); !locked || remaining <= 0 {
		t.Errorf("IsAccountLocked = (%v, %v), want locked", locked, remaining)
	}
}

func TestLockoutExpiresAndBacksOff(t *testing.T) {
	lp, now := testLoginProtection(t, 2, time.Minute, time.Hour)

	lp.RecordFailedAttempt("editor")
	if locked, _ := lp.RecordFailedAttempt("editor"); !locked {
		t.Fatal("expected first lockout")
	}

	*now = now.Add(2 * time.Minute)
	if locked, _ := lp.IsAccountLocked("editor"); locked {
		t.Fatal("lockout should have expired")
	}

	lp.RecordFailedAttempt("editor")
	locked, d := lp.RecordFailedAttempt("editor")
	if !locked {
		t.Fatal("expected second lockout")
	}
	if d != 2*time.Minute {
		t.Errorf("second lockout = %v, want 2m", d)
	}
}

func TestLockoutCapped(t *testing.T) {
	lp, _ := testLoginProtection(t, 2, 12*time.Hour, 100*time.Hour)

	var durations []time.Duration
	for i := 0; i < 8; i++ {
		if locked, d := lp.RecordFailedAttempt("editor"); locked {
			durations = append(durations, d)
		}
	}
	if len(durations) != 4 {
		t.Fatalf("lockouts = %d, want 4", len(durations))
	}
	if durations[0] != 12*time.Hour {
		t.Errorf("first lockout = %v, want 12h", durations[0])
	}
	if last := durations[3]; last != maxLockout {
		t.Errorf("lockout = %v, want cap %v", last, maxLockout)
	}
}

func TestAttemptWindowResets(t *testing.T) {
	lp, now := testLoginProtection(t, 3, time.Minute, 10*time.Minute)

	lp.RecordFailedAttempt("editor")
	lp.RecordFailedAttempt("editor")
	*now = now.Add(11 * time.Minute)

	if locked, _ := lp.RecordFailedAttempt("editor"); locked {
		t.Error("attempts outside the window should not count")
	}
}

func TestRecordSuccessfulLoginClears(t *testing.T) {
	lp, _ := testLoginProtection(t, 3, time.Minute, time.Hour)

	lp.RecordFailedAttempt("editor")
	lp.RecordFailedAttempt("editor")
	lp.RecordSuccessfulLogin("editor")

	if got := lp.RemainingAttempts("editor"); got != 3 {
		t.Errorf("RemainingAttempts = %d, want 3", got)
	}
}

func TestLoginProtectionMiddleware(t *testing.T) {
	lp := NewLoginProtection(LoginProtectionConfig{IPRateLimit: 0.001, IPBurst: 2}, testutil.DiscardLogger())
	defer lp.Stop()

	handler := lp.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(method string) int {
		req := httptest.NewRequest(method, "/api/auth/login", nil)
		req.RemoteAddr = "192.0.2.10:5555"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 2; i++ {
		if code := send(http.MethodPost); code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i, code)
		}
	}
	if code := send(http.MethodPost); code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", code)
	}
	if code := send(http.MethodGet); code != http.StatusOK {
		t.Errorf("GET status = %d, want 200 (only POST is limited)", code)
	}
}

func TestWriteLocked(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteLocked(rec, 90*time.Second)

	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "90" {
		t.Errorf("Retry-After = %q, want 90", got)
	}
}
