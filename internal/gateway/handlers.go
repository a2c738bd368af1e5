package gateway

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/authgate/internal/identity"
	"github.com/nao1215/authgate/pkg/event"
	"github.com/nao1215/authgate/pkg/httpclient"
	"github.com/nao1215/authgate/pkg/middleware"
)

const (
	// loginPath はログインフォームのパス。
	loginPath = "/login"
	// signupPath はサインアップフォームのパス。
	signupPath = "/signup"
)

// handleForm はHTMLフォームを返すハンドラを返す。
func (s *Server) handleForm(page []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", page)
	}
}

// handleAsset は静的ファイルを返すハンドラを返す。ディレクトリは返さない。
func (s *Server) handleAsset() gin.HandlerFunc {
	assets := http.FS(s.assets)
	return func(c *gin.Context) {
		name := strings.TrimPrefix(c.Param("filepath"), "/")
		info, err := fs.Stat(s.assets, name)
		if name == "" || err != nil || info.IsDir() {
			c.String(http.StatusNotFound, "Not Found")
			return
		}
		c.FileFromFS(name, assets)
	}
}

// handleRoot はルートパスのプレースホルダーを返すハンドラを返す。
func (s *Server) handleRoot() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.String(http.StatusOK, "Nothing to see here")
	}
}

// handleLogin はログインフォームの送信を処理するハンドラを返す。
func (s *Server) handleLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		r, ok := s.routingOrRedirect(c, loginPath)
		if !ok {
			return
		}

		email := c.PostForm("email")
		password := c.PostForm("password")

		session, err := s.identity.CreateSession(s.outboundContext(c), identity.SessionParams{
			Email:    email,
			Password: password,
			AppID:    r.appID,
			APIKey:   r.apiKey,
		}, s.device)
		if err == nil {
			s.record(c, email, event.TypeLoginSucceeded, event.AttemptData{AppID: r.appID})
			c.Redirect(http.StatusFound, r.successURL(session.AccessToken))
			return
		}

		f := describeLoginFailure(email, password, err)
		s.logFailure(c, "ログイン", err)
		s.record(c, email, event.TypeLoginFailed, event.AttemptData{AppID: r.appID, ErrorCodes: f.codes, Message: f.message})

		params := append(r.params(),
			queryParam{key: "email", value: email},
			queryParam{key: "error", value: f.message},
		)
		c.Redirect(http.StatusFound, buildURL(loginPath, params...))
	}
}

// handleSignup はサインアップフォームの送信を処理するハンドラを返す。
func (s *Server) handleSignup() gin.HandlerFunc {
	return func(c *gin.Context) {
		r, ok := s.routingOrRedirect(c, signupPath)
		if !ok {
			return
		}

		firstName := c.PostForm("firstName")
		email := c.PostForm("email")
		password := c.PostForm("password")
		passwordConfirmation := c.PostForm("passwordConfirmation")

		if password != passwordConfirmation {
			s.record(c, email, event.TypeSignupRejected, event.AttemptData{AppID: r.appID, Message: messagePasswordMismatch})

			params := append(r.params(),
				queryParam{key: "firstName", value: firstName},
				queryParam{key: "password", value: password},
				queryParam{key: "email", value: email},
				queryParam{key: "error", value: messagePasswordMismatch},
			)
			c.Redirect(http.StatusFound, buildURL(signupPath, params...))
			return
		}

		session, err := s.identity.CreateUser(s.outboundContext(c), identity.UserParams{
			FirstName: firstName,
			Email:     email,
			Password:  password,
			AppID:     r.appID,
			APIKey:    r.apiKey,
		}, s.device)
		if err == nil {
			s.record(c, email, event.TypeSignupSucceeded, event.AttemptData{AppID: r.appID})
			c.Redirect(http.StatusFound, r.successURL(session.AccessToken))
			return
		}

		f := describeSignupFailure(firstName, email, password, err)
		s.logFailure(c, "サインアップ", err)
		s.record(c, email, event.TypeSignupFailed, event.AttemptData{AppID: r.appID, ErrorCodes: f.codes, Message: f.message})

		params := append(r.params(),
			queryParam{key: "firstName", value: firstName},
			queryParam{key: "email", value: email},
			queryParam{key: "error", value: f.message},
		)
		if !f.dropPassword {
			params = append(params, queryParam{key: "password", value: password})
		}
		c.Redirect(http.StatusFound, buildURL(signupPath, params...))
	}
}

// routingOrRedirect はクエリのルーティングパラメータを検証する。
// 不足や不正がある場合はエラーメッセージだけを付けてフォームにリダイレクトし、falseを返す。
func (s *Server) routingOrRedirect(c *gin.Context, formPath string) (routing, bool) {
	r, err := parseRouting(c.Request.URL.Query(), s.defaultAppID)
	if err == nil {
		return r, true
	}

	message := messageRequiredParamMissing
	if errors.Is(err, errRedirectInvalid) {
		message = messageRedirectURLInvalid
	}
	c.Redirect(http.StatusFound, buildURL(formPath, queryParam{key: "error", value: message}))
	return routing{}, false
}

// outboundContext はIDサービス呼び出し用のコンテキストを返す。
// クライアントが切断した場合は呼び出しもキャンセルされる。
func (s *Server) outboundContext(c *gin.Context) context.Context {
	return httpclient.WithRequestID(c.Request.Context(), middleware.GetRequestID(c))
}

// logFailure はIDサービス呼び出しの失敗をログに出力する。
// 利用者の入力ミスによる拒否は通常の結果なので、それ以外の失敗だけを出力する。
func (s *Server) logFailure(c *gin.Context, operation string, err error) {
	var providerErr *identity.ProviderError
	if errors.As(err, &providerErr) {
		return
	}
	log.Printf("%sでIDサービスの呼び出しに失敗: request_id=%s: %v", operation, middleware.GetRequestID(c), err)
}

// record は認証試行を記録する。クライアントが切断しても記録は続ける。
// 記録の失敗はログに出力するだけでレスポンスには影響させない。
func (s *Server) record(c *gin.Context, email string, eventType event.Type, data event.AttemptData) {
	data.RequestID = middleware.GetRequestID(c)

	e, err := event.NewAttempt(email, eventType, data)
	if err != nil {
		log.Printf("認証試行イベントの生成に失敗: %v", err)
		return
	}
	if err := s.recorder.Record(context.WithoutCancel(c.Request.Context()), e); err != nil {
		log.Printf("認証試行の記録に失敗: request_id=%s: %v", data.RequestID, err)
	}
}
