package store

import "github.com/hitoshi/mockboard/internal/model"

// DeletedAuthorName は削除済み（または存在しない）投稿者の表示名。
const DeletedAuthorName = "[deleted]"

// CommentNode はコメントツリーの1ノードを表す。
// 親コメントが削除済み・存在しない返信は、Deleted=trueのプレースホルダーノードの下にぶら下がる。
type CommentNode struct {
	ID       string
	Comment  *model.Comment // プレースホルダーの場合はnil
	Deleted  bool
	Children []*CommentNode
}

// BuildCommentTree はParentIDで親子関係をたどり、フラットなコメント一覧からツリーを構築する。
// 兄弟ノードの順序は入力順を維持する。ツリーは保存せず、読み出しのたびに構築する。
//
// 親が入力に含まれない返信は、親IDごとに1つ作られるプレースホルダーの子になる。
// プレースホルダーは最初の返信が現れた位置にトップレベルとして置かれる。
// 循環参照に含まれるコメントはトップレベルに置く。
func BuildCommentTree(comments []*model.Comment) []*CommentNode {
	nodes := make(map[string]*CommentNode, len(comments))
	parentOf := make(map[string]string, len(comments))
	for _, c := range comments {
		if _, dup := nodes[c.ID]; dup {
			continue
		}
		nodes[c.ID] = &CommentNode{ID: c.ID, Comment: c}
		parentOf[c.ID] = c.ParentID
	}

	var roots []*CommentNode
	placeholders := make(map[string]*CommentNode)
	attached := make(map[string]bool, len(comments))

	for _, c := range comments {
		if attached[c.ID] {
			continue
		}
		attached[c.ID] = true
		n := nodes[c.ID]

		if c.ParentID == "" || createsCycle(c.ID, c.ParentID, parentOf) {
			roots = append(roots, n)
			continue
		}

		if parent, ok := nodes[c.ParentID]; ok {
			parent.Children = append(parent.Children, n)
			continue
		}

		ph, ok := placeholders[c.ParentID]
		if !ok {
			ph = &CommentNode{ID: c.ParentID, Deleted: true}
			placeholders[c.ParentID] = ph
			roots = append(roots, ph)
		}
		ph.Children = append(ph.Children, n)
	}

	return roots
}

// createsCycle はidをparentIDの子にすると循環が生じるかを返す。
func createsCycle(id, parentID string, parentOf map[string]string) bool {
	seen := make(map[string]bool)
	for cur := parentID; cur != ""; cur = parentOf[cur] {
		if cur == id {
			return true
		}
		if seen[cur] {
			return false
		}
		seen[cur] = true
	}
	return false
}
