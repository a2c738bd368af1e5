package gateway

import (
	"fmt"
	"testing"

	"github.com/nao1215/authgate/internal/identity"
)

// providerErr はテスト用のProviderErrorを生成する。
func providerErr(codes ...string) error {
	return &identity.ProviderError{Codes: codes}
}

// TestDescribeLoginFailure はログイン失敗時のメッセージ選択を検証する。
func TestDescribeLoginFailure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		email    string
		password string
		err      error
		want     string
	}{
		{"PASSWORD_INCORRECT", "a@b.c", "p", providerErr("PASSWORD_INCORRECT"), "Login failed"},
		{"USER_DOES_NOT_EXIST", "a@b.c", "p", providerErr("USER_DOES_NOT_EXIST"), "Login failed"},
		{"EMAIL_MISSING", "a@b.c", "p", providerErr("EMAIL_MISSING"), "Please enter your email"},
		{"PASSWORD_MISSING", "a@b.c", "p", providerErr("PASSWORD_MISSING"), "Please enter your password"},
		{"メールアドレスが空", "", "p", providerErr("USER_DOES_NOT_EXIST"), "Please enter your email"},
		{"パスワードが空", "a@b.c", "", providerErr("PASSWORD_INCORRECT"), "Please enter your password"},
		{"未知のコード", "a@b.c", "p", providerErr("X"), "Unexpected error (X)"},
		{"未知のコードが複数", "a@b.c", "p", providerErr("Y", "Z"), "Unexpected error (Y)"},
		{"既知のコードが後にある", "a@b.c", "p", providerErr("X", "PASSWORD_INCORRECT"), "Login failed"},
		{"資格情報が未設定", "", "", identity.ErrNotConfigured, "Environment variables missing!"},
		{"接続できない", "a@b.c", "p", fmt.Errorf("%w: timeout", identity.ErrUnavailable), "Unexpected error (SERVICE_UNAVAILABLE)"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := describeLoginFailure(tt.email, tt.password, tt.err)
			if got.message != tt.want {
				t.Errorf("message = %q, want %q", got.message, tt.want)
			}
			if got.dropPassword {
				t.Error("ログイン失敗でdropPasswordがtrueになった")
			}
		})
	}
}

// TestDescribeSignupFailure はサインアップ失敗時のメッセージ選択を検証する。
func TestDescribeSignupFailure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		firstName    string
		email        string
		password     string
		err          error
		want         string
		dropPassword bool
	}{
		{"NAME_TOO_SHORT", "D", "a@b.c", "p", providerErr("NAME_TOO_SHORT"), "The name is too short", false},
		{"FIRST_NAME_TOO_SHORT", "D", "a@b.c", "p", providerErr("FIRST_NAME_TOO_SHORT"), "The name is too short", false},
		{"FIRST_NAME_TOO_LONG", "D", "a@b.c", "p", providerErr("FIRST_NAME_TOO_LONG"), "The name is too long", false},
		{"PASSWORD_TOO_SHORT", "D", "a@b.c", "p", providerErr("PASSWORD_TOO_SHORT"), "Your password is too short", true},
		{"PASSWORD_TOO_LONG", "D", "a@b.c", "p", providerErr("PASSWORD_TOO_LONG"), "Your password is too long", true},
		{"EMAIL_INVALID", "D", "a@b.c", "p", providerErr("EMAIL_INVALID"), "Your email is invalid", false},
		{"EMAIL_ALREADY_IN_USE", "D", "a@b.c", "p", providerErr("EMAIL_ALREADY_IN_USE"), "This email address is already in use", false},
		{"FIRST_NAME_MISSING", "D", "a@b.c", "p", providerErr("FIRST_NAME_MISSING"), "Please enter your name", false},
		{"名前が空", "", "a@b.c", "p", providerErr("NAME_TOO_SHORT"), "Please enter your name", false},
		{"メールアドレスが空", "D", "", "p", providerErr("EMAIL_INVALID"), "Please enter your email", false},
		{"パスワードが空", "D", "a@b.c", "", providerErr("PASSWORD_TOO_SHORT"), "Please enter a password", false},
		{"名前とパスワードの両方が短い", "D", "a@b.c", "p", providerErr("PASSWORD_TOO_SHORT", "NAME_TOO_SHORT"), "The name is too short", false},
		{"未知のコード", "D", "a@b.c", "p", providerErr("X"), "Unexpected error (X)", false},
		{"資格情報が未設定", "D", "a@b.c", "p", identity.ErrNotConfigured, "Environment variables missing!", false},
		{"接続できない", "D", "a@b.c", "p", identity.ErrUnavailable, "Unexpected error (SERVICE_UNAVAILABLE)", false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := describeSignupFailure(tt.firstName, tt.email, tt.password, tt.err)
			if got.message != tt.want {
				t.Errorf("message = %q, want %q", got.message, tt.want)
			}
			if got.dropPassword != tt.dropPassword {
				t.Errorf("dropPassword = %v, want %v", got.dropPassword, tt.dropPassword)
			}
		})
	}
}

// TestLookup_Codes は記録用にエラーコードが保持されることを検証する。
func TestLookup_Codes(t *testing.T) {
	t.Parallel()

	got := lookup(signupMessages, providerErr("EMAIL_INVALID", "X"))
	if len(got.codes) != 2 || got.codes[0] != "EMAIL_INVALID" || got.codes[1] != "X" {
		t.Errorf("codes = %v, want [EMAIL_INVALID X]", got.codes)
	}

	got = lookup(loginMessages, identity.ErrUnavailable)
	if got.codes != nil {
		t.Errorf("codes = %v, want nil", got.codes)
	}
}
