package auth

import (
	"strconv"
	"time"

	"github.com/uptrace/bun"
)

// User is the user model. Email and username each carry a unique index;
// the password hash never serializes outward.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`

	ID           int64     `bun:"id,pk,autoincrement" json:"id"`
	Email        string    `bun:"email,notnull,unique" json:"email"`
	Username     string    `bun:"username,notnull,unique" json:"username"`
	PasswordHash string    `bun:"password_hash,notnull" json:"-"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt    time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`

	Subscriptions []*Topic `bun:"m2m:subscriptions,join:User=Topic" json:"subscriptions,omitempty"`
}

// SubjectID renders the immutable numeric id as the token subject
// string. Tokens are keyed by id, not by the mutable email/username.
func (u *User) SubjectID() string {
	return strconv.FormatInt(u.ID, 10)
}

// Topic is a subject area users can subscribe to and post under
type Topic struct {
	bun.BaseModel `bun:"table:topics,alias:tpc"`

	ID          int64     `bun:"id,pk,autoincrement" json:"id"`
	Title       string    `bun:"title,notnull" json:"title"`
	Description string    `bun:"description" json:"description"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt   time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

// Subscription is the (user, topic) membership row. The composite
// primary key is the uniqueness invariant: a pair exists at most once.
type Subscription struct {
	bun.BaseModel `bun:"table:subscriptions,alias:sub"`

	UserID    int64     `bun:"user_id,pk" json:"user_id"`
	User      *User     `bun:"rel:belongs-to,join:user_id=id" json:"-"`
	TopicID   int64     `bun:"topic_id,pk" json:"topic_id"`
	Topic     *Topic    `bun:"rel:belongs-to,join:topic_id=id" json:"-"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

func prepareUserDefaults(user *User) {
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = now
	}
}
