package db

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"calendar_backend/internal/api"
)

type (
	txKey    struct{}
	hooksKey struct{}
)

// commitHooks はコミット後に実行する関数を登録順に保持します。
type commitHooks struct {
	fns []func(ctx context.Context)
}

func withHooks(ctx context.Context) (context.Context, *commitHooks) {
	h := &commitHooks{}
	return context.WithValue(ctx, hooksKey{}, h), h
}

func (h *commitHooks) run(ctx context.Context) {
	for _, fn := range h.fns {
		fn(ctx)
	}
}

// AfterCommit は現在のトランザクションがコミットされた後にfnを実行するよう登録します。
// 最も外側のトランザクションがロールバックされた場合は実行しません。
// 入れ子のRunInTxで登録したfnは、そのセーブポイントが戻されても外側のコミット後に実行されます。
// トランザクション外、または登録先が無い場合は何もせずfalseを返します。
func AfterCommit(ctx context.Context, fn func(ctx context.Context)) bool {
	h, ok := ctx.Value(hooksKey{}).(*commitHooks)
	if !ok || TxFrom(ctx) == nil {
		return false
	}
	h.fns = append(h.fns, fn)
	return true
}

// WithTx はトランザクションを格納したコンテキストを返します。
func WithTx(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// TxFrom はコンテキストに格納されたトランザクションを返します。無ければnilです。
func TxFrom(ctx context.Context) *gorm.DB {
	tx, _ := ctx.Value(txKey{}).(*gorm.DB)
	return tx
}

// Conn はリポジトリが使うDBハンドルを解決します。
// リクエストのトランザクションがあればそれを、無ければfallbackを返します。
func Conn(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx := TxFrom(ctx); tx != nil {
		return tx.WithContext(ctx)
	}
	return fallback.WithContext(ctx)
}

// RunInTx はfnを1つのトランザクション内で実行します。
// 既にトランザクション内であればセーブポイントとして入れ子になります。
func RunInTx(ctx context.Context, fallback *gorm.DB, fn func(ctx context.Context) error) error {
	if TxFrom(ctx) != nil {
		return Conn(ctx, fallback).Transaction(func(tx *gorm.DB) error {
			return fn(WithTx(ctx, tx))
		})
	}

	txCtx, hooks := withHooks(ctx)
	err := fallback.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(WithTx(txCtx, tx))
	})
	if err != nil {
		return err
	}
	hooks.run(ctx)
	return nil
}

// Transactional はリクエストごとに1つのトランザクションを開くGinミドルウェアを返します。
//
// ハンドラーが400未満で終わりGinのエラーが無ければコミット、それ以外はロールバックします。
// レスポンスはコミットが終わるまでバッファされ、コミットに失敗した場合は500に差し替えられます。
// AfterCommitで登録された関数はコミット後、レスポンスを書き出す前に実行されます。
// パニック時はロールバックしてから上位のRecoveryに任せます。
func Transactional(gdb *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		tx := gdb.WithContext(c.Request.Context()).Begin()
		if tx.Error != nil {
			api.AbortInternal(c, fmt.Errorf("begin transaction: %w", tx.Error))
			return
		}

		orig := c.Writer
		buf := &bufferedWriter{ResponseWriter: orig, status: http.StatusOK}
		c.Writer = buf
		reqCtx := c.Request.Context()
		txCtx, hooks := withHooks(reqCtx)
		c.Request = c.Request.WithContext(WithTx(txCtx, tx))

		finished := false
		defer func() {
			if finished {
				return
			}
			// パニック中: バッファを捨ててロールバック
			c.Writer = orig
			rollback(tx)
		}()

		c.Next()

		c.Writer = orig
		if buf.Status() >= http.StatusBadRequest || len(c.Errors) > 0 {
			rollback(tx)
			finished = true
			buf.flushTo(orig)
			return
		}

		if err := tx.Commit().Error; err != nil {
			finished = true
			api.AbortInternal(c, fmt.Errorf("commit transaction: %w", err))
			return
		}
		finished = true
		hooks.run(reqCtx)
		buf.flushTo(orig)
	}
}

func rollback(tx *gorm.DB) {
	if err := tx.Rollback().Error; err != nil {
		slog.Error("transaction rollback failed", "error", err)
	}
}

// bufferedWriter はコミット完了までステータスとボディを保持します。
type bufferedWriter struct {
	gin.ResponseWriter
	status      int
	wroteHeader bool
	body        bytes.Buffer
}

func (w *bufferedWriter) WriteHeader(code int) {
	if code > 0 && !w.wroteHeader {
		w.status = code
	}
}

func (w *bufferedWriter) WriteHeaderNow() {
	w.wroteHeader = true
}

func (w *bufferedWriter) Write(data []byte) (int, error) {
	w.wroteHeader = true
	return w.body.Write(data)
}

func (w *bufferedWriter) WriteString(s string) (int, error) {
	w.wroteHeader = true
	return w.body.WriteString(s)
}

func (w *bufferedWriter) Status() int {
	return w.status
}

func (w *bufferedWriter) Size() int {
	if !w.wroteHeader {
		return -1
	}
	return w.body.Len()
}

func (w *bufferedWriter) Written() bool {
	return w.wroteHeader
}

// Flush はバッファ中は何もしません。
func (w *bufferedWriter) Flush() {}

func (w *bufferedWriter) flushTo(dst gin.ResponseWriter) {
	dst.WriteHeader(w.status)
	if w.body.Len() > 0 {
		if _, err := dst.Write(w.body.Bytes()); err != nil {
			slog.Warn("failed to write response", "error", err)
		}
		return
	}
	if w.wroteHeader {
		dst.WriteHeaderNow()
	}
}
