// Package search provides full-text search over questions using Bleve.
// It complements the feed's substring filter with stemming, typo tolerance
// and relevance ranking.
package search

import (
	"github.com/askboard/askboard-server/internal/content"
	"github.com/askboard/askboard-server/internal/domain"
)

// DocType represents the type of document in the index.
type DocType string

// DocTypeQuestion is the only indexed document type today.
const DocTypeQuestion DocType = "question"

// SearchDocument is the indexed form of a question.
type SearchDocument struct {
	ID          string   `json:"id"`
	Type        DocType  `json:"type"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"` // plain text
	Author      string   `json:"author,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Votes       int      `json:"votes"`
	AnswerCount int      `json:"answer_count"`
	CreatedAt   int64    `json:"created_at"` // Unix millis
	UpdatedAt   int64    `json:"updated_at"` // Unix millis
}

// ToMap converts the document to a map with lowercase field names.
// This ensures field names match the Bleve index mapping.
func (d *SearchDocument) ToMap() map[string]any {
	m := map[string]any{
		"id":           d.ID,
		"type":         string(d.Type),
		"title":        d.Title,
		"votes":        d.Votes,
		"answer_count": d.AnswerCount,
		"created_at":   d.CreatedAt,
		"updated_at":   d.UpdatedAt,
	}

	if d.Description != "" {
		m["description"] = d.Description
	}
	if d.Author != "" {
		m["author"] = d.Author
	}
	if len(d.Tags) > 0 {
		m["tags"] = d.Tags
	}
	return m
}

// QuestionToSearchDocument converts a question. Markdown and HTML in the
// description are reduced to plain text first.
func QuestionToSearchDocument(q *domain.Question) *SearchDocument {
	return &SearchDocument{
		ID:          q.ID,
		Type:        DocTypeQuestion,
		Title:       q.Title,
		Description: content.PlainText(q.Description),
		Author:      q.Author(),
		Tags:        q.Tags,
		Votes:       q.Votes,
		AnswerCount: q.AnswerCount,
		CreatedAt:   q.CreatedAt.UnixMilli(),
		UpdatedAt:   q.UpdatedAt.UnixMilli(),
	}
}
