package db

import (
	"context"
	"fmt"

	"qaforum/internal/models"
)

// GetAllCategories returns all categories.
func (q *Queries) GetAllCategories(ctx context.Context) ([]*models.Category, error) {
	rows, err := q.db.QueryContext(ctx, "SELECT id, name, slug, question_count FROM categories ORDER BY name ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []*models.Category
	for rows.Next() {
		cat := &models.Category{}
		if err := rows.Scan(&cat.ID, &cat.Name, &cat.Slug, &cat.QuestionCount); err != nil {
			return nil, err
		}
		categories = append(categories, cat)
	}
	return categories, rows.Err()
}

// GetCategoryByID returns a category or ErrNotFound.
func (q *Queries) GetCategoryByID(ctx context.Context, id int64) (*models.Category, error) {
	cat := &models.Category{}
	err := q.db.QueryRowContext(ctx, "SELECT id, name, slug, question_count FROM categories WHERE id = ?", id).
		Scan(&cat.ID, &cat.Name, &cat.Slug, &cat.QuestionCount)
	if err != nil {
		return nil, notFound(err)
	}
	return cat, nil
}

// CreateCategory creates a new category.
func (q *Queries) CreateCategory(ctx context.Context, name, slug string) (*models.Category, error) {
	res, err := q.db.ExecContext(ctx, "INSERT INTO categories (name, slug) VALUES (?, ?)", name, slug)
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &models.Category{ID: id, Name: name, Slug: slug}, nil
}

// AdjustCategoryCount applies a relative delta to a category's question count.
func (q *Queries) AdjustCategoryCount(ctx context.Context, categoryID int64, delta int) error {
	res, err := q.db.ExecContext(ctx, "UPDATE categories SET question_count = question_count + ? WHERE id = ?", delta, categoryID)
	if err != nil {
		return fmt.Errorf("adjust category count: %w", err)
	}
	return expectOne(res)
}

// AttachTags links tags to a question and bumps each tag's counter,
// creating unknown tags on the fly.
func (q *Queries) AttachTags(ctx context.Context, questionID int64, tags []string) error {
	for _, tag := range tags {
		if _, err := q.db.ExecContext(ctx, `INSERT INTO tags (name, question_count) VALUES (?, 1)
            ON CONFLICT(name) DO UPDATE SET question_count = question_count + 1`, tag); err != nil {
			return fmt.Errorf("attach tag %q: %w", tag, err)
		}
		if _, err := q.db.ExecContext(ctx, "INSERT INTO question_tags (question_id, tag) VALUES (?, ?)", questionID, tag); err != nil {
			return fmt.Errorf("attach tag %q: %w", tag, err)
		}
	}
	return nil
}

// DetachTags unlinks tags from a question and decrements their counters.
func (q *Queries) DetachTags(ctx context.Context, questionID int64, tags []string) error {
	for _, tag := range tags {
		res, err := q.db.ExecContext(ctx, "DELETE FROM question_tags WHERE question_id = ? AND tag = ?", questionID, tag)
		if err != nil {
			return fmt.Errorf("detach tag %q: %w", tag, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			continue
		}
		if _, err := q.db.ExecContext(ctx, "UPDATE tags SET question_count = question_count - 1 WHERE name = ?", tag); err != nil {
			return fmt.Errorf("detach tag %q: %w", tag, err)
		}
	}
	return nil
}

// TagsForQuestions returns the sorted tags of each question.
func (q *Queries) TagsForQuestions(ctx context.Context, questionIDs []int64) (map[int64][]string, error) {
	out := make(map[int64][]string, len(questionIDs))
	if len(questionIDs) == 0 {
		return out, nil
	}
	placeholders, args := int64List(questionIDs)
	rows, err := q.db.QueryContext(ctx, "SELECT question_id, tag FROM question_tags WHERE question_id IN ("+placeholders+") ORDER BY tag ASC", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		var tag string
		if err := rows.Scan(&id, &tag); err != nil {
			return nil, err
		}
		out[id] = append(out[id], tag)
	}
	return out, rows.Err()
}

// GetTag returns a tag with its counter.
func (q *Queries) GetTag(ctx context.Context, name string) (*models.Tag, error) {
	t := &models.Tag{}
	err := q.db.QueryRowContext(ctx, "SELECT name, question_count FROM tags WHERE name = ?", name).Scan(&t.Name, &t.QuestionCount)
	if err != nil {
		return nil, notFound(err)
	}
	return t, nil
}

// PopularTags returns tags ordered by usage.
func (q *Queries) PopularTags(ctx context.Context, limit int) ([]*models.Tag, error) {
	rows, err := q.db.QueryContext(ctx, "SELECT name, question_count FROM tags WHERE question_count > 0 ORDER BY question_count DESC, name ASC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tags []*models.Tag
	for rows.Next() {
		t := &models.Tag{}
		if err := rows.Scan(&t.Name, &t.QuestionCount); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}
