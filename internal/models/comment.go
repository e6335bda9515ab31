package models

import "time"

type Comment struct {
	ID          int64     `db:"id"`
	TaskID      int64     `db:"task_id"`
	AuthorID    int64     `db:"author_id"`
	AuthorEmail string    `db:"author_email"`
	Content     string    `db:"content"`
	CreatedAt   time.Time `db:"created_at"`
}
