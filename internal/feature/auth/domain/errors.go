// Package domain はauth機能の層をまたいで共有されるエラーを定義します。
package domain

import "errors"

// ErrUserNotFound はメールアドレスまたはIDに一致するユーザーがいない場合に返されます。
var ErrUserNotFound = errors.New("user not found")
