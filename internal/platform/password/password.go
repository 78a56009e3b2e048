// Package password はPBKDF2-HMAC-SHA256によるパスワードのハッシュ化と検証を提供します。
//
// 保存形式は自己記述的な4フィールドの文字列です:
//
//	pbkdf2_sha256$<iterations>$<salt_base64>$<hash_base64>
//
// 反復回数はハッシュ文字列に含まれるため、設定値を変更しても既存のハッシュは検証できます。
package password

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// Algorithm は保存形式の先頭に付与するアルゴリズム識別子です。
	Algorithm = "pbkdf2_sha256"
	// DefaultIterations はPBKDF2のデフォルト反復回数です。
	DefaultIterations = 600_000

	saltLength = 16
	keyLength  = sha256.Size
)

// ErrInvalidHashFormat は保存されたハッシュ文字列が解釈できない場合に返されます。
var ErrInvalidHashFormat = errors.New("invalid hash format")

// Hasher はパスワードのハッシュ化と検証を行います。
// 状態を持たないため、複数のゴルーチンから同時に利用できます。
type Hasher struct {
	iterations int
}

// NewHasher は指定された反復回数でHasherを生成します。
// 0以下の値が指定された場合はDefaultIterationsを使用します。
func NewHasher(iterations int) *Hasher {
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	return &Hasher{iterations: iterations}
}

// Iterations は新規ハッシュに使用する反復回数を返します。
func (h *Hasher) Iterations() int {
	return h.iterations
}

// Hash は平文パスワードを呼び出しごとに新しいソルトでハッシュ化します。
func (h *Hasher) Hash(plain string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	dk := pbkdf2.Key([]byte(plain), salt, h.iterations, keyLength, sha256.New)

	return strings.Join([]string{
		Algorithm,
		strconv.Itoa(h.iterations),
		base64.StdEncoding.EncodeToString(salt),
		base64.StdEncoding.EncodeToString(dk),
	}, "$"), nil
}

// Verify は平文パスワードが保存済みハッシュと一致するかを判定します。
// 保存済みハッシュの形式が不正な場合は false ではなく ErrInvalidHashFormat を返します。
func (h *Hasher) Verify(plain, stored string) (bool, error) {
	parts := strings.Split(stored, "$")
	if len(parts) != 4 {
		return false, ErrInvalidHashFormat
	}
	if parts[0] != Algorithm {
		return false, fmt.Errorf("%w: unsupported algorithm %q", ErrInvalidHashFormat, parts[0])
	}

	iterations, err := strconv.Atoi(parts[1])
	if err != nil || iterations <= 0 {
		return false, fmt.Errorf("%w: bad iteration count", ErrInvalidHashFormat)
	}
	salt, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil {
		return false, fmt.Errorf("%w: bad salt encoding", ErrInvalidHashFormat)
	}
	want, err := base64.StdEncoding.DecodeString(parts[3])
	if err != nil || len(want) == 0 {
		return false, fmt.Errorf("%w: bad key encoding", ErrInvalidHashFormat)
	}

	got := pbkdf2.Key([]byte(plain), salt, iterations, len(want), sha256.New)

	// 比較は必ず定数時間で行う
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}
