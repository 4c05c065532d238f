package seed

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/hitoshi/mockboard/internal/model"
	"github.com/hitoshi/mockboard/internal/store"
)

var now = time.Date(2026, 1, 8, 12, 0, 0, 0, time.UTC)

// TestDefault_LoadsIntoStore は埋め込みデータがStoreの検証を通ることを検証する。
func TestDefault_LoadsIntoStore(t *testing.T) {
	ds, err := Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	ents, err := ds.Build(now)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	st := store.New(store.Config{})
	if err := st.Replace(ents.Users, ents.Posts, ents.Comments); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}

	got := st.Counts()
	if got != (store.Counts{Users: 2, Posts: 3, Comments: 2}) {
		t.Errorf("Counts = %+v", got)
	}

	if _, err := st.Authenticate("demo_user", "password123"); err != nil {
		t.Errorf("demo_user should be able to log in: %v", err)
	}
	if _, err := st.Authenticate("test_automation", "test123"); err != nil {
		t.Errorf("test_automation should be able to log in: %v", err)
	}

	var ids []string
	for _, p := range st.ListPosts() {
		ids = append(ids, p.ID)
	}
	if diff := cmp.Diff([]string{"post-3", "post-2", "post-1"}, ids); diff != "" {
		t.Errorf("post order mismatch (-want +got):\n%s", diff)
	}

	p1 := st.GetPost("post-1")
	if p1.Upvotes != 1 || p1.VotedBy["user-2"] != model.VoteUp {
		t.Errorf("post-1 votes = %+v", p1.Votes)
	}
}

func TestBuild_CreatedAtFromAge(t *testing.T) {
	ds, err := Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	ents, err := ds.Build(now)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if got, want := ents.Users[0].CreatedAt, now.Add(-7*24*time.Hour); !got.Equal(want) {
		t.Errorf("user-1 CreatedAt = %v, want %v", got, want)
	}
	if got, want := ents.Comments[1].CreatedAt, now.Add(-6*time.Hour); !got.Equal(want) {
		t.Errorf("comment-2 CreatedAt = %v, want %v", got, want)
	}
	if !strings.HasPrefix(ents.Posts[0].Content, "This is a mock Reddit clone") {
		t.Errorf("post-1 content = %q", ents.Posts[0].Content)
	}
	if ents.Comments[0].ParentID != "" {
		t.Errorf("comment-1 ParentID = %q, want top-level", ents.Comments[0].ParentID)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"unknown field", "users:\n  - id: u1\n    nickname: x\n"},
		{"multiple documents", "users: []\n---\nposts: []\n"},
		{"wrong type", "users: 3\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.data)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestParse_Empty(t *testing.T) {
	ds, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse(nil) error = %v", err)
	}
	if len(ds.Users) != 0 {
		t.Errorf("Users = %d, want 0", len(ds.Users))
	}
}

func TestBuild_InvalidAge(t *testing.T) {
	for _, age := range []string{"yesterday", "-1h"} {
		ds := &Dataset{Users: []UserDef{{ID: "u1", Age: age}}}
		if _, err := ds.Build(now); err == nil {
			t.Errorf("age %q: expected error", age)
		}
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seed.yaml")
	data := `users:
  - id: u1
    username: solo
    email: solo@example.com
    password: secret1
    avatar: "#85C1E9"
posts:
  - id: p1
    author: u1
    title: Only post
    content: The one and only post.
    age: 1h
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	ds, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	ents, err := ds.Build(now)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(ents.Users) != 1 || len(ents.Posts) != 1 || len(ents.Comments) != 0 {
		t.Errorf("entities = %d/%d/%d", len(ents.Users), len(ents.Posts), len(ents.Comments))
	}
	if !ents.Users[0].CreatedAt.Equal(now) {
		t.Errorf("missing age should mean now, got %v", ents.Users[0].CreatedAt)
	}

	if _, err := LoadFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	ds, err = LoadFile("")
	if err != nil {
		t.Fatalf("LoadFile(\"\") error = %v", err)
	}
	if len(ds.Users) != 2 {
		t.Errorf("empty path should return embedded seed, got %d users", len(ds.Users))
	}
}
