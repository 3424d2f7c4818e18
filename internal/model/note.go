package model

import "time"

// Note represents a user's text note. UpdatedAt equals CreatedAt until the
// note is first edited.
type Note struct {
	ID        string    `json:"_id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	Text      *string   `json:"text,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NoteRequest is the body of create and update requests. Text is optional;
// on update an absent text clears the stored one.
type NoteRequest struct {
	Title string  `json:"title"`
	Text  *string `json:"text"`
}
