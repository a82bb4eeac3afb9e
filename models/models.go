package models

// Flair labels used on posts in the bot's own subreddit. The platform owns
// the label; we only ever read it or ask for it to be changed.
const (
	FlairUnclaimed  = "Unclaimed"
	FlairInProgress = "In Progress"
	FlairCompleted  = "Completed!"
	FlairMeta       = "META"
)

// Post represents a submission on the discussion platform.
type Post struct {
	ID        string `json:"id"`
	Author    string `json:"author"`
	Title     string `json:"title"`
	URL       string `json:"url"`
	Permalink string `json:"permalink"`
	Flair     string `json:"link_flair_text"`
	Subreddit string `json:"subreddit"`
	Domain    string `json:"domain"`
	Score     int    `json:"score"`
	IsSelf    bool   `json:"is_self"`
	Locked    bool   `json:"locked"`
	Archived  bool   `json:"archived"`
}

// Shortlink returns the canonical short URL for the post.
func (p Post) Shortlink() string {
	return "https://redd.it/" + p.ID
}

// Comment represents a single comment in a post's reply tree. ParentID refers
// to either another comment or the post itself; PostID always refers to the
// post the comment ultimately belongs to.
type Comment struct {
	ID       string `json:"id"`
	Author   string `json:"author"`
	Body     string `json:"body"`
	ParentID string `json:"parent_id"`
	PostID   string `json:"link_id"`
}

// Message represents a private message. Author is empty for messages sent by
// the platform administration itself.
type Message struct {
	ID      string `json:"id"`
	Author  string `json:"author"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Inbox item kinds as reported by the platform.
const (
	KindComment = "t1"
	KindPost    = "t3"
	KindMessage = "t4"
)

// InboxItem is one unread item from the bot account's inbox. Exactly one of
// the payload interpretations applies, selected by Kind.
type InboxItem struct {
	Kind    string `json:"kind"`
	ID      string `json:"id"`
	Author  string `json:"author"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// FlairChoice is one selectable flair template on a post.
type FlairChoice struct {
	TemplateID string `json:"flair_template_id"`
	Text       string `json:"flair_text"`
}

// FeedItem is one entry of a subreddit /new listing, fetched anonymously.
type FeedItem struct {
	Kind string `json:"kind"`
	Data Post   `json:"data"`
}
