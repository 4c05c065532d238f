// Package seed は掲示板の初期データセットを提供する。
//
// データはYAMLで記述し、既定ではバイナリに埋め込んだseed.yamlを使う。
// SEED_FILEで別ファイルを指定できる。
package seed

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/hitoshi/mockboard/internal/model"
	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var defaultData []byte

// Dataset はYAMLから読み込んだ初期データ。
// 作成日時は絶対時刻ではなく、Build時点からの経過時間（age）で表す。
type Dataset struct {
	Users    []UserDef    `yaml:"users"`
	Posts    []PostDef    `yaml:"posts"`
	Comments []CommentDef `yaml:"comments"`
}

type UserDef struct {
	ID       string `yaml:"id"`
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Avatar   string `yaml:"avatar"`
	Age      string `yaml:"age"`
}

type PostDef struct {
	ID      string            `yaml:"id"`
	Author  string            `yaml:"author"`
	Title   string            `yaml:"title"`
	Content string            `yaml:"content"`
	Age     string            `yaml:"age"`
	Votes   map[string]string `yaml:"votes,omitempty"`
}

type CommentDef struct {
	ID      string            `yaml:"id"`
	Post    string            `yaml:"post"`
	Parent  string            `yaml:"parent,omitempty"`
	Author  string            `yaml:"author"`
	Content string            `yaml:"content"`
	Age     string            `yaml:"age"`
	Votes   map[string]string `yaml:"votes,omitempty"`
}

// Entities はStore.Replaceにそのまま渡せる形のデータ。
type Entities struct {
	Users    []*model.User
	Posts    []*model.Post
	Comments []*model.Comment
}

// Default は埋め込みの初期データを返す。
func Default() (*Dataset, error) {
	ds, err := Parse(defaultData)
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded seed: %w", err)
	}
	return ds, nil
}

// LoadFile は指定ファイルから初期データを読み込む。pathが空の場合は埋め込みデータを返す。
func LoadFile(path string) (*Dataset, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	ds, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}
	return ds, nil
}

// Parse はYAMLを解析する。未知のフィールドと複数ドキュメントはエラーとする。
func Parse(data []byte) (*Dataset, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var ds Dataset
	if err := dec.Decode(&ds); err != nil {
		if errors.Is(err, io.EOF) {
			return &ds, nil
		}
		return nil, err
	}

	var extra any
	if err := dec.Decode(&extra); err == nil {
		return nil, fmt.Errorf("multiple YAML documents are not supported")
	} else if !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed after first YAML document: %w", err)
	}
	return &ds, nil
}

// Build は基準時刻nowから各エンティティの作成日時を求め、モデルに変換する。
// 参照整合性の検証はStore.Replaceが行う。
func (ds *Dataset) Build(now time.Time) (*Entities, error) {
	out := &Entities{
		Users:    make([]*model.User, 0, len(ds.Users)),
		Posts:    make([]*model.Post, 0, len(ds.Posts)),
		Comments: make([]*model.Comment, 0, len(ds.Comments)),
	}

	for _, u := range ds.Users {
		createdAt, err := resolveAge(now, u.Age)
		if err != nil {
			return nil, fmt.Errorf("user %s: %w", u.ID, err)
		}
		out.Users = append(out.Users, &model.User{
			ID:        u.ID,
			Username:  u.Username,
			Email:     u.Email,
			Password:  u.Password,
			Avatar:    u.Avatar,
			CreatedAt: createdAt,
		})
	}

	for _, p := range ds.Posts {
		createdAt, err := resolveAge(now, p.Age)
		if err != nil {
			return nil, fmt.Errorf("post %s: %w", p.ID, err)
		}
		out.Posts = append(out.Posts, &model.Post{
			ID:        p.ID,
			Title:     p.Title,
			Content:   p.Content,
			AuthorID:  p.Author,
			CreatedAt: createdAt,
			Votes:     votes(p.Votes),
		})
	}

	for _, c := range ds.Comments {
		createdAt, err := resolveAge(now, c.Age)
		if err != nil {
			return nil, fmt.Errorf("comment %s: %w", c.ID, err)
		}
		out.Comments = append(out.Comments, &model.Comment{
			ID:        c.ID,
			Content:   c.Content,
			AuthorID:  c.Author,
			PostID:    c.Post,
			ParentID:  c.Parent,
			CreatedAt: createdAt,
			Votes:     votes(c.Votes),
		})
	}

	return out, nil
}

func resolveAge(now time.Time, age string) (time.Time, error) {
	if age == "" {
		return now, nil
	}
	d, err := time.ParseDuration(age)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid age %q: %w", age, err)
	}
	if d < 0 {
		return time.Time{}, fmt.Errorf("age must not be negative: %q", age)
	}
	return now.Add(-d), nil
}

// votes はYAMLの投票表をVotesに変換する。カウンタはStore.Replaceで再計算される。
func votes(in map[string]string) model.Votes {
	v := model.Votes{VotedBy: make(map[string]model.VoteType, len(in))}
	for userID, t := range in {
		v.VotedBy[userID] = model.VoteType(t)
	}
	return v
}
