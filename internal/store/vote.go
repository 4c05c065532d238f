package store

import "github.com/hitoshi/mockboard/internal/model"

// applyVote は投票トグルを適用する。
//
//   - 同じ種別の投票が既にある場合は取り消す（カウンタを減らしエントリを削除）。
//   - 逆の投票がある場合はそのカウンタを先に減らし、新しい種別を加算して記録する。
//   - 投票がない場合は新しい種別を加算して記録する。
//
// どの経路でもカウンタとVotedByの整合性は保たれる。
func applyVote(v *model.Votes, userID string, voteType model.VoteType) {
	if v.VotedBy == nil {
		v.VotedBy = make(map[string]model.VoteType)
	}

	current, voted := v.VotedBy[userID]
	if voted && current == voteType {
		decrement(v, voteType)
		delete(v.VotedBy, userID)
		return
	}

	if voted {
		decrement(v, current)
	}
	increment(v, voteType)
	v.VotedBy[userID] = voteType
}

func increment(v *model.Votes, voteType model.VoteType) {
	if voteType == model.VoteUp {
		v.Upvotes++
	} else {
		v.Downvotes++
	}
}

func decrement(v *model.Votes, voteType model.VoteType) {
	if voteType == model.VoteUp {
		v.Upvotes--
	} else {
		v.Downvotes--
	}
}

// recountVotes はVotedByからカウンタを再計算する。
// シード投入時に不整合なカウンタが持ち込まれないようにする。
func recountVotes(v *model.Votes) {
	v.Upvotes, v.Downvotes = 0, 0
	if v.VotedBy == nil {
		v.VotedBy = make(map[string]model.VoteType)
		return
	}
	for _, t := range v.VotedBy {
		increment(v, t)
	}
}
