// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"testing"
)

func TestSigninThrottledAfterRepeatedFailures(t *testing.T) {
	app := newTestApp(t)
	createTestUser(t, app.db, "locked-out", false)

	wrongBody := `{"username":"locked-out","password":"not the password"}`

	// The default policy allows five failed attempts per window
	for i := 0; i < 5; i++ {
		w := app.do(t, http.MethodPost, "/users/signin", wrongBody, nil)
		if w.Code != http.StatusNotFound {
			t.Fatalf("attempt %d status = %d, want 404", i+1, w.Code)
		}
	}

	// The sixth attempt is rejected before credentials are checked,
	// even with the correct password.
	goodBody := `{"username":"locked-out","password":"` + testPassword + `"}`
	w := app.do(t, http.MethodPost, "/users/signin", goodBody, nil)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("throttled attempt status = %d, want 429: %s", w.Code, w.Body.String())
	}
}

func TestSigninSuccessesDoNotCountTowardThrottle(t *testing.T) {
	app := newTestApp(t)
	createTestUser(t, app.db, "frequent-user", false)

	body := `{"username":"frequent-user","password":"` + testPassword + `"}`

	// Well past the failure allowance; successes are never recorded
	for i := 0; i < 8; i++ {
		w := app.do(t, http.MethodPost, "/users/signin", body, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("signin %d status = %d, want 200: %s", i+1, w.Code, w.Body.String())
		}
	}
}
