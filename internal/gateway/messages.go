package gateway

import (
	"errors"
	"fmt"

	"github.com/nao1215/authgate/internal/identity"
)

// フォームに表示するメッセージ。利用者向けのため英語で固定する。
const (
	messageRequiredParamMissing = "Required url param missing!"
	messageRedirectURLInvalid   = "Redirect url invalid!"
	messagePasswordMismatch     = "Your password doesn't match the password confirmation"
	messageEnvironmentMissing   = "Environment variables missing!"

	messageEnterName         = "Please enter your name"
	messageEnterEmail        = "Please enter your email"
	messageEnterPassword     = "Please enter your password"
	messageEnterAPassword    = "Please enter a password"
	messageLoginFailed       = "Login failed"
	messageNameTooShort      = "The name is too short"
	messageNameTooLong       = "The name is too long"
	messagePasswordTooShort  = "Your password is too short"
	messagePasswordTooLong   = "Your password is too long"
	messageEmailInvalid      = "Your email is invalid"
	messageEmailAlreadyInUse = "This email address is already in use"
)

// codeServiceUnavailable はIDサービスから有効な応答が得られなかった場合に表示するコード。
const codeServiceUnavailable = "SERVICE_UNAVAILABLE"

// codeMessage はIDサービスのエラーコードと表示メッセージの対応。
type codeMessage struct {
	// code はIDサービスのエラーコード。
	code string
	// message はフォームに表示するメッセージ。
	message string
	// dropPassword はリダイレクト先にパスワードを含めない場合にtrue。
	dropPassword bool
}

// loginMessages はログイン失敗時の対応表。先頭から順に照合する。
var loginMessages = []codeMessage{
	{code: "EMAIL_MISSING", message: messageEnterEmail},
	{code: "PASSWORD_MISSING", message: messageEnterPassword},
	{code: "PASSWORD_INCORRECT", message: messageLoginFailed},
	{code: "USER_DOES_NOT_EXIST", message: messageLoginFailed},
}

// signupMessages はサインアップ失敗時の対応表。先頭から順に照合する。
var signupMessages = []codeMessage{
	{code: "FIRST_NAME_MISSING", message: messageEnterName},
	{code: "EMAIL_MISSING", message: messageEnterEmail},
	{code: "PASSWORD_MISSING", message: messageEnterAPassword},
	{code: "NAME_TOO_SHORT", message: messageNameTooShort},
	{code: "FIRST_NAME_TOO_SHORT", message: messageNameTooShort},
	{code: "PASSWORD_TOO_SHORT", message: messagePasswordTooShort, dropPassword: true},
	{code: "FIRST_NAME_TOO_LONG", message: messageNameTooLong},
	{code: "NAME_TOO_LONG", message: messageNameTooLong},
	{code: "PASSWORD_TOO_LONG", message: messagePasswordTooLong, dropPassword: true},
	{code: "EMAIL_INVALID", message: messageEmailInvalid},
	{code: "EMAIL_ALREADY_IN_USE", message: messageEmailAlreadyInUse},
}

// failure はフォームに戻すときの表示内容。
type failure struct {
	// message はフォームに表示するメッセージ。
	message string
	// dropPassword はリダイレクト先にパスワードを含めない場合にtrue。
	dropPassword bool
	// codes はIDサービスが返したエラーコード。記録用。
	codes []string
}

// describeLoginFailure はログイン失敗の理由を表示内容に変換する。
func describeLoginFailure(email, password string, err error) failure {
	switch {
	case errors.Is(err, identity.ErrNotConfigured):
		return failure{message: messageEnvironmentMissing}
	case email == "":
		return failure{message: messageEnterEmail, codes: providerCodes(err)}
	case password == "":
		return failure{message: messageEnterPassword, codes: providerCodes(err)}
	}
	return lookup(loginMessages, err)
}

// describeSignupFailure はサインアップ失敗の理由を表示内容に変換する。
func describeSignupFailure(firstName, email, password string, err error) failure {
	switch {
	case errors.Is(err, identity.ErrNotConfigured):
		return failure{message: messageEnvironmentMissing}
	case firstName == "":
		return failure{message: messageEnterName, codes: providerCodes(err)}
	case email == "":
		return failure{message: messageEnterEmail, codes: providerCodes(err)}
	case password == "":
		return failure{message: messageEnterAPassword, codes: providerCodes(err)}
	}
	return lookup(signupMessages, err)
}

// lookup は対応表を先頭から照合し、報告されたコードに最初に一致した項目を返す。
// どれにも一致しない場合は最初に報告されたコードをそのまま表示する。
func lookup(table []codeMessage, err error) failure {
	var providerErr *identity.ProviderError
	if !errors.As(err, &providerErr) || len(providerErr.Codes) == 0 {
		return failure{message: unexpectedError(codeServiceUnavailable)}
	}

	for _, entry := range table {
		if providerErr.Has(entry.code) {
			return failure{message: entry.message, dropPassword: entry.dropPassword, codes: providerErr.Codes}
		}
	}
	return failure{message: unexpectedError(providerErr.Codes[0]), codes: providerErr.Codes}
}

// providerCodes はIDサービスのエラーコードを取り出す。ProviderErrorでなければnil。
func providerCodes(err error) []string {
	var providerErr *identity.ProviderError
	if errors.As(err, &providerErr) {
		return providerErr.Codes
	}
	return nil
}

// unexpectedError は対応表に無いエラーコードのメッセージを返す。
func unexpectedError(code string) string {
	return fmt.Sprintf("Unexpected error (%s)", code)
}
