package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"blognest/api/internal/ids"
	"blognest/api/internal/models"
	"blognest/api/internal/repository"
)

var (
	ErrCategoryExists = errors.New("category already exists")
	ErrNoCategories   = errors.New("categories not found")
	ErrNoPosts        = errors.New("blogs not found")
)

type BlogService struct {
	posts      repository.PostStore
	categories repository.CategoryStore
}

func NewBlogService(posts repository.PostStore, categories repository.CategoryStore) *BlogService {
	return &BlogService{
		posts:      posts,
		categories: categories,
	}
}

func (s *BlogService) AddCategory(ctx context.Context, name string) (models.PostCategory, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.PostCategory{}, ErrMissingFields
	}

	_, found, err := s.categories.FindByName(ctx, name)
	if err != nil {
		return models.PostCategory{}, fmt.Errorf("find category: %w", err)
	}
	if found {
		return models.PostCategory{}, ErrCategoryExists
	}

	now := time.Now().UTC()
	category := models.PostCategory{
		ID:        ids.New(),
		Category:  name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.categories.Create(ctx, category); err != nil {
		if errors.Is(err, repository.ErrCategoryExists) {
			return models.PostCategory{}, ErrCategoryExists
		}
		return models.PostCategory{}, fmt.Errorf("create category: %w", err)
	}
	return category, nil
}

func (s *BlogService) ListCategories(ctx context.Context) ([]models.PostCategory, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	if len(categories) == 0 {
		return nil, ErrNoCategories
	}
	return categories, nil
}

type PostInput struct {
	Title   string
	Picture string
	Content string
}

func (s *BlogService) AddPost(ctx context.Context, input PostInput) (models.Post, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Picture = strings.TrimSpace(input.Picture)
	input.Content = strings.TrimSpace(input.Content)

	if input.Title == "" || input.Picture == "" || input.Content == "" {
		return models.Post{}, ErrMissingFields
	}

	now := time.Now().UTC()
	post := models.Post{
		ID:        ids.New(),
		Title:     input.Title,
		Picture:   input.Picture,
		Content:   input.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return models.Post{}, fmt.Errorf("create post: %w", err)
	}
	return post, nil
}

func (s *BlogService) ListPosts(ctx context.Context) ([]models.Post, error) {
	posts, err := s.posts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	if len(posts) == 0 {
		return nil, ErrNoPosts
	}
	return posts, nil
}
