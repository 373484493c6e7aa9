package screening

// ColumnCandidates lists header names tried, case-insensitively, when
// auto-detecting comment export columns.
type ColumnCandidates struct {
	Comment   []string `json:"comment"`
	Author    []string `json:"author"`
	Avatar    []string `json:"avatar"`
	Timestamp []string `json:"timestamp"`
	Likes     []string `json:"likes"`
	AuthorID  []string `json:"authorId"`
	IsReply   []string `json:"isReply"`
	ReplyTo   []string `json:"replyTo"`
}

func defaultColumnCandidates() ColumnCandidates {
	return ColumnCandidates{
		Comment:   []string{"comment", "text", "content", "message", "body", "komento", "textDisplay", "textOriginal"},
		Author:    []string{"author", "username", "user", "name", "authorDisplayName", "may-akda"},
		Avatar:    []string{"avatar", "avatar_url", "profile_image", "authorProfileImageUrl"},
		Timestamp: []string{"timestamp", "time", "date", "published", "publishedAt", "created_at"},
		Likes:     []string{"likes", "like_count", "likeCount", "reactions"},
		AuthorID:  []string{"author_id", "authorId", "user_id", "authorChannelId"},
		IsReply:   []string{"is_reply", "isReply", "reply"},
		ReplyTo:   []string{"reply_to", "replyTo", "parent", "parentId", "in_reply_to"},
	}
}

// DefaultColumnCandidates returns the built-in detection candidates.
func DefaultColumnCandidates() ColumnCandidates {
	return defaultColumnCandidates()
}

// withDefaults fills nil lists from the built-in candidates so callers can
// override only the columns they care about.
func (c ColumnCandidates) withDefaults() ColumnCandidates {
	d := defaultColumnCandidates()
	return ColumnCandidates{
		Comment:   pickStrings(c.Comment, d.Comment),
		Author:    pickStrings(c.Author, d.Author),
		Avatar:    pickStrings(c.Avatar, d.Avatar),
		Timestamp: pickStrings(c.Timestamp, d.Timestamp),
		Likes:     pickStrings(c.Likes, d.Likes),
		AuthorID:  pickStrings(c.AuthorID, d.AuthorID),
		IsReply:   pickStrings(c.IsReply, d.IsReply),
		ReplyTo:   pickStrings(c.ReplyTo, d.ReplyTo),
	}
}

func pickStrings(custom, fallback []string) []string {
	if custom == nil {
		return append([]string(nil), fallback...)
	}
	return append([]string(nil), custom...)
}
