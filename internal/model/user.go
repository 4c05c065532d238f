// Package model はドメインモデルを定義する。
package model

import "time"

// User は掲示板の利用ユーザーを表す。
// パスワードは平文で保持する（テスト練習用のため意図的にハッシュ化しない）。
type User struct {
	ID        string
	Username  string
	Email     string
	Password  string
	CreatedAt time.Time
	Avatar    string // アバターの色タグ（例: "#4ECDC4"）
}

// AvatarPalette は新規ユーザーに割り当てるアバター色の一覧。
var AvatarPalette = []string{
	"#FF6B6B",
	"#4ECDC4",
	"#45B7D1",
	"#96CEB4",
	"#FFEAA7",
	"#DDA0DD",
	"#98D8C8",
	"#F7DC6F",
	"#BB8FCE",
	"#85C1E9",
}

// Clone はユーザーのコピーを返す。
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
