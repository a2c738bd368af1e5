package gateway

import (
	"errors"
	"net/url"
	"strconv"
	"strings"
)

// queryParam はリダイレクト先URLのクエリパラメータ。
// フォームが読む順序を保つためmapではなくスライスで扱う。
type queryParam struct {
	key   string
	value string
}

// buildURL はパスとクエリパラメータから相対URLを組み立てる。
// パラメータは指定した順序のままエンコードする。
func buildURL(path string, params ...queryParam) string {
	if len(params) == 0 {
		return path
	}

	var b strings.Builder
	b.WriteString(path)
	for i, p := range params {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.value))
	}
	return b.String()
}

var (
	// errRoutingMissing は必須のクエリパラメータが欠けていることを表す。
	errRoutingMissing = errors.New("required routing parameter missing")
	// errRedirectInvalid はredirectUrlを解釈できないことを表す。
	errRedirectInvalid = errors.New("redirect url invalid")
)

// routing は呼び出し元アプリケーションが指定するクエリパラメータ。
type routing struct {
	// appID はアプリケーションID。
	appID int64
	// apiKey はアプリケーションのAPIキー。
	apiKey string
	// rawRedirectURL はクエリで受け取ったままのredirectUrl。フォームに戻すときに使う。
	rawRedirectURL string
	// target はデコード済みのリダイレクト先。
	target *url.URL
}

// parseRouting はクエリからappId、apiKey、redirectUrlを取り出して検証する。
// appIdが無い場合はdefaultAppIDを使う。0以下や数値でないappIdは欠落として扱う。
func parseRouting(query url.Values, defaultAppID int64) (routing, error) {
	r := routing{
		apiKey:         query.Get("apiKey"),
		rawRedirectURL: query.Get("redirectUrl"),
	}

	rawAppID := query.Get("appId")
	if rawAppID == "" {
		r.appID = defaultAppID
	} else if id, err := strconv.ParseInt(rawAppID, 10, 64); err == nil {
		r.appID = id
	}

	if r.appID <= 0 || r.apiKey == "" || strings.TrimSpace(r.rawRedirectURL) == "" {
		return routing{}, errRoutingMissing
	}

	target, err := decodeRedirectURL(r.rawRedirectURL)
	if err != nil {
		return routing{}, err
	}
	r.target = target
	return r, nil
}

// decodeRedirectURL はクエリから受け取ったredirectUrlをもう一度パーセントデコードし、
// 前後の空白を除いてURLとして解釈する。呼び出し元は二重にエンコードして渡すことがある。
func decodeRedirectURL(raw string) (*url.URL, error) {
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return nil, errRedirectInvalid
	}
	decoded = strings.TrimSpace(decoded)
	if decoded == "" {
		return nil, errRoutingMissing
	}

	u, err := url.Parse(decoded)
	if err != nil {
		return nil, errRedirectInvalid
	}
	return u, nil
}

// params はフォームに戻すときに引き継ぐクエリパラメータを返す。
func (r routing) params() []queryParam {
	return []queryParam{
		{key: "appId", value: strconv.FormatInt(r.appID, 10)},
		{key: "apiKey", value: r.apiKey},
		{key: "redirectUrl", value: r.rawRedirectURL},
	}
}

// successURL はリダイレクト先にaccessTokenを付けたURLを返す。
// リダイレクト先が既にクエリを持つ場合はその後ろに追加する。
func (r routing) successURL(accessToken string) string {
	u := *r.target
	token := "accessToken=" + url.QueryEscape(accessToken)
	if u.RawQuery == "" {
		u.RawQuery = token
	} else {
		u.RawQuery += "&" + token
	}
	u.ForceQuery = false
	return u.String()
}
