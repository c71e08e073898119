package user

import (
	"testing"
	"time"
)

func TestMakeVerifyToken(t *testing.T) {
	gen := newTokenGenerator("secret", 3*24*time.Hour)

	now := time.Now()
	usr := User{
		ID:        "9b2e4c1a-1f7e-4c55-9d53-0e3f5a1b2c3d",
		Name:      "T",
		Username:  "t",
		Email:     "t@test.test",
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
		LastLogin: now,
	}
	_ = usr.SetPassword("pwd")

	validToken := gen.makeToken(usr)

	// generate an expired token
	dayLate := gen.timeout + (24 * time.Hour)
	gen.now = func() time.Time { return time.Now().Add(-dayLate) }
	expiredToken := gen.makeToken(usr)
	gen.now = time.Now // reset

	// a new login invalidates previous tokens
	loggedIn := usr
	loggedIn.LastLogin = now.Add(time.Minute)

	// so does a password change
	pwdChanged := usr
	_ = pwdChanged.SetPassword("new-pwd")

	otherGen := newTokenGenerator("other-secret", gen.timeout)

	tests := []struct {
		name    string
		gen     *tokenGenerator
		usr     User
		token   string
		wantErr error
	}{
		{name: "no token", gen: gen, usr: usr, wantErr: errInvalidToken},
		{name: "invalid parts len", gen: gen, usr: usr, token: "lmaooolol", wantErr: errInvalidToken},
		{name: "invalid base32", gen: gen, usr: usr, token: "hahaha-sigsig-sig", wantErr: errInvalidToken},
		{name: "invalid timestamp", gen: gen, usr: usr, token: "NRXWY-sigsig-sig", wantErr: errInvalidToken},
		{name: "invalid token", gen: gen, usr: usr, token: "HE4TS-sigsig-sig", wantErr: errInvalidToken},
		{name: "expired token", gen: gen, usr: usr, token: expiredToken, wantErr: errTokenExpired},
		{name: "after login", gen: gen, usr: loggedIn, token: validToken, wantErr: errInvalidToken},
		{name: "after password change", gen: gen, usr: pwdChanged, token: validToken, wantErr: errInvalidToken},
		{name: "other secret", gen: otherGen, usr: usr, token: validToken, wantErr: errInvalidToken},
		{name: "valid token", gen: gen, usr: usr, token: validToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.gen.verifyToken(tt.usr, tt.token); err != tt.wantErr {
				t.Errorf("verifyToken() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEncodeDecodeUID(t *testing.T) {
	usr := User{ID: "9b2e4c1a-1f7e-4c55-9d53-0e3f5a1b2c3d"}
	got, err := decodeUID(EncodeUID(usr))
	if err != nil || got != usr.ID {
		t.Errorf("decodeUID(EncodeUID()) = (%q, %v), want %q", got, err, usr.ID)
	}
	if _, err := decodeUID("!!!"); err == nil {
		t.Error("decodeUID(\"!!!\") succeeded")
	}
}
