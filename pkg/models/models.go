package models

import "time"

// DeletedUser is the ignore-list sentinel that matches items whose author
// account no longer exists. Putting it in the ignored-authors set skips
// every post and reply with an absent author.
const DeletedUser = "DELETED"

// Item is the unit of work flowing through the pipeline: either a *Post
// or a *Reply, never anything else. Consumers switch exhaustively on the
// two concrete types.
type Item interface {
	// ItemID returns the base-36 Reddit ID without the type prefix.
	ItemID() string
	// ItemAuthor returns the author name, empty for deleted accounts.
	ItemAuthor() string

	isItem()
}

// Post is a Reddit submission
type Post struct {
	ID          string // base-36 ID, e.g. "abc123"
	FullID      string // type-prefixed fullname, e.g. "t3_abc123"
	Subreddit   string
	Author      string // empty when the account is deleted
	Title       string
	SelfText    string
	URL         string
	Permalink   string
	Score       int
	UpvoteRatio float64
	NumComments int
	NSFW        bool
	IsSelf      bool
	Created     time.Time
}

func (p *Post) ItemID() string     { return p.ID }
func (p *Post) ItemAuthor() string { return p.Author }
func (p *Post) isItem()            {}

// Reply is a comment on a submission. Replies holds the children forest
// when the reply came from a full thread fetch; it is nil for replies
// collected from flat listings.
type Reply struct {
	ID        string // base-36 ID, e.g. "def456"
	FullID    string // type-prefixed fullname, e.g. "t1_def456"
	PostID    string // base-36 ID of the submission this reply belongs to
	PostTitle string // parent submission title when the listing provides it
	Subreddit string
	Author    string // empty when the account is deleted
	Body      string
	Permalink string
	Score     int
	Created   time.Time
	Replies   []*Reply
}

func (r *Reply) ItemID() string     { return r.ID }
func (r *Reply) ItemAuthor() string { return r.Author }
func (r *Reply) isItem()            {}

var (
	_ Item = (*Post)(nil)
	_ Item = (*Reply)(nil)
)
