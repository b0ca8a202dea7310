package qa

import (
	"context"
	"strings"
	"unicode/utf8"

	"qaforum/internal/db"
	"qaforum/internal/models"
)

const defaultTagLimit = 20

// ListCategories returns all categories with their question counts.
func (s *Service) ListCategories(ctx context.Context) ([]*models.Category, error) {
	cats, err := s.repo.GetAllCategories(ctx)
	if err != nil {
		return nil, storeErr("list categories", "category", err)
	}
	if cats == nil {
		cats = []*models.Category{}
	}
	return cats, nil
}

// CreateCategory adds a category. Admins only.
func (s *Service) CreateCategory(ctx context.Context, actor Actor, name string) (*models.Category, error) {
	const op = "create category"
	if err := requireActor(op, actor); err != nil {
		return nil, err
	}
	if actor.Role != models.RoleAdmin {
		return nil, newError(CodeUnauthorized, op, "only admins may create categories")
	}
	name = strings.TrimSpace(name)
	if n := utf8.RuneCountInString(name); n < 2 || n > 50 {
		return nil, newError(CodeInvalid, op, "name must be 2-50 characters")
	}
	cat, err := s.repo.CreateCategory(ctx, name, Slugify(name))
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, newError(CodeInvalid, op, "category %q already exists", name)
		}
		return nil, storeErr(op, "category", err)
	}
	return cat, nil
}

// PopularTags returns the most used tags.
func (s *Service) PopularTags(ctx context.Context, limit int) ([]*models.Tag, error) {
	tags, err := s.repo.PopularTags(ctx, clampLimit(limit, defaultTagLimit))
	if err != nil {
		return nil, storeErr("popular tags", "tag", err)
	}
	if tags == nil {
		tags = []*models.Tag{}
	}
	return tags, nil
}
