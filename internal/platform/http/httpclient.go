package http

import (
	"net"
	"net/http"
	"time"
)

// DefaultMaxIdleConnsPerHost はフロントエンドから単一のResource APIへ張るアイドル接続の上限です。
const DefaultMaxIdleConnsPerHost = 16

// NewHTTPClient はResource API呼び出し用のHTTPクライアントを作成します。
//
// timeout はリクエスト全体の上限です。接続先は1ホストのみなので、
// ホスト単位のアイドル接続数を既定の2から引き上げています。
// http.DefaultClient はタイムアウトを持たないため使わないこと。
func NewHTTPClient(timeout time.Duration) *http.Client {
	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          DefaultMaxIdleConnsPerHost,
		MaxIdleConnsPerHost:   DefaultMaxIdleConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: timeout,
	}
	return &http.Client{Timeout: timeout, Transport: t}
}
