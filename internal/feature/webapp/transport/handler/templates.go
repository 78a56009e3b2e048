// Package handler はフロントエンドのHTMLページを処理するGinハンドラーを提供します。
package handler

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

// Templates は埋め込みのHTMLテンプレートを解析して返します。
func Templates() *template.Template {
	return template.Must(template.New("").ParseFS(templateFS, "templates/*.html"))
}

// page は全ページ共通のテンプレートデータです。
type page struct {
	Title    string
	LoggedIn bool
	Error    string
	Success  string
}
