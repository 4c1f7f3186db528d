// Package testutil provides in-memory fakes for the store and media-host
// contracts so service and handler tests run without postgres or an object
// store.
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"sync"
	"time"

	"blognest/api/internal/models"
	"blognest/api/internal/repository"
)

// FakeStore implements UserStore, SubscriptionStore, PostStore and
// CategoryStore over in-memory maps, mirroring the uniqueness and
// compare-and-swap semantics of the postgres repositories.
type FakeStore struct {
	mu         sync.Mutex
	users      map[string]models.User
	subs       map[string]models.Subscription
	posts      []models.Post
	categories []models.PostCategory
}

func NewFakeStore() *FakeStore {
	return &FakeStore{
		users: make(map[string]models.User),
		subs:  make(map[string]models.Subscription),
	}
}

// User returns a stored user by ID for assertions.
func (f *FakeStore) User(id string) (models.User, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	return user, ok
}

func (f *FakeStore) Create(ctx context.Context, user models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, existing := range f.users {
		if existing.Email == user.Email || existing.UserName == user.UserName {
			return repository.ErrDuplicateUser
		}
	}

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	f.users[user.ID] = user
	return nil
}

func (f *FakeStore) FindByID(ctx context.Context, id string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.users[id]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	return user, nil
}

func (f *FakeStore) FindByIdentifier(ctx context.Context, identifier string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, user := range f.users {
		if user.Email == identifier || user.UserName == identifier {
			return user, nil
		}
	}
	return models.User{}, repository.ErrUserNotFound
}

func (f *FakeStore) FindByUserName(ctx context.Context, userName string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, user := range f.users {
		if user.UserName == userName {
			return user, nil
		}
	}
	return models.User{}, repository.ErrUserNotFound
}

func (f *FakeStore) ExistsByEmailOrUserName(ctx context.Context, email, userName string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, user := range f.users {
		if user.Email == email || user.UserName == userName {
			return true, nil
		}
	}
	return false, nil
}

func (f *FakeStore) UpdateProfile(ctx context.Context, id, userName, fullName, email string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.users[id]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	for otherID, other := range f.users {
		if otherID == id {
			continue
		}
		if other.Email == email || other.UserName == userName {
			return models.User{}, repository.ErrDuplicateUser
		}
	}

	user.UserName = userName
	user.FullName = fullName
	user.Email = email
	user.UpdatedAt = time.Now().UTC()
	f.users[id] = user
	return user, nil
}

func (f *FakeStore) UpdateAvatar(ctx context.Context, id, url string) (models.User, error) {
	return f.updateUser(id, func(user *models.User) { user.AvatarURL = url })
}

func (f *FakeStore) UpdateCoverImage(ctx context.Context, id, url string) (models.User, error) {
	return f.updateUser(id, func(user *models.User) { user.CoverImageURL = &url })
}

func (f *FakeStore) UpdatePassword(ctx context.Context, id string, hash []byte) error {
	_, err := f.updateUser(id, func(user *models.User) { user.PasswordHash = hash })
	return err
}

func (f *FakeStore) SetRefreshToken(ctx context.Context, id, token string, expiresAt time.Time) error {
	_, err := f.updateUser(id, func(user *models.User) {
		user.RefreshToken = &token
		user.RefreshExpiresAt = &expiresAt
	})
	return err
}

func (f *FakeStore) RotateRefreshToken(ctx context.Context, id, old, new string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.users[id]
	if !ok || user.RefreshToken == nil || *user.RefreshToken != old {
		return repository.ErrRefreshTokenMismatch
	}

	user.RefreshToken = &new
	user.RefreshExpiresAt = &expiresAt
	user.UpdatedAt = time.Now().UTC()
	f.users[id] = user
	return nil
}

func (f *FakeStore) ClearRefreshToken(ctx context.Context, id string) error {
	_, err := f.updateUser(id, func(user *models.User) {
		user.RefreshToken = nil
		user.RefreshExpiresAt = nil
	})
	return err
}

func (f *FakeStore) ClearExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var cleared int64
	for id, user := range f.users {
		if user.RefreshExpiresAt != nil && user.RefreshExpiresAt.Before(now) {
			user.RefreshToken = nil
			user.RefreshExpiresAt = nil
			f.users[id] = user
			cleared++
		}
	}
	return cleared, nil
}

func (f *FakeStore) ChannelProfile(ctx context.Context, userName, viewerID string) (models.ChannelProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var channel *models.User
	for _, user := range f.users {
		if user.UserName == userName {
			u := user
			channel = &u
			break
		}
	}
	if channel == nil {
		return models.ChannelProfile{}, repository.ErrUserNotFound
	}

	profile := models.ChannelProfile{PublicUser: channel.Public()}
	for _, sub := range f.subs {
		if sub.ChannelID == channel.ID {
			profile.SubscriberCount++
			if sub.SubscriberID == viewerID {
				profile.IsSubscribed = true
			}
		}
		if sub.SubscriberID == channel.ID {
			profile.SubscribedChannelCount++
		}
	}
	return profile, nil
}

func (f *FakeStore) updateUser(id string, apply func(*models.User)) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.users[id]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	apply(&user)
	user.UpdatedAt = time.Now().UTC()
	f.users[id] = user
	return user, nil
}

func subKey(subscriberID, channelID string) string {
	return subscriberID + "|" + channelID
}

func (f *FakeStore) CreateSubscription(ctx context.Context, sub models.Subscription) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := subKey(sub.SubscriberID, sub.ChannelID)
	if _, ok := f.subs[key]; ok {
		return repository.ErrAlreadySubscribed
	}
	sub.CreatedAt = time.Now().UTC()
	f.subs[key] = sub
	return nil
}

func (f *FakeStore) DeleteSubscription(ctx context.Context, subscriberID, channelID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := subKey(subscriberID, channelID)
	if _, ok := f.subs[key]; !ok {
		return repository.ErrSubscriptionNotFound
	}
	delete(f.subs, key)
	return nil
}

// Subscriptions returns a SubscriptionStore view of the fake.
func (f *FakeStore) Subscriptions() repository.SubscriptionStore {
	return fakeSubStore{f}
}

type fakeSubStore struct{ store *FakeStore }

func (s fakeSubStore) Create(ctx context.Context, sub models.Subscription) error {
	return s.store.CreateSubscription(ctx, sub)
}

func (s fakeSubStore) Delete(ctx context.Context, subscriberID, channelID string) error {
	return s.store.DeleteSubscription(ctx, subscriberID, channelID)
}

func (f *FakeStore) CreatePost(ctx context.Context, post models.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts = append([]models.Post{post}, f.posts...)
	return nil
}

func (f *FakeStore) ListPosts(ctx context.Context) ([]models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Post(nil), f.posts...), nil
}

// Posts returns a PostStore view of the fake.
func (f *FakeStore) Posts() repository.PostStore {
	return fakePostStore{f}
}

type fakePostStore struct{ store *FakeStore }

func (s fakePostStore) Create(ctx context.Context, post models.Post) error {
	return s.store.CreatePost(ctx, post)
}

func (s fakePostStore) List(ctx context.Context) ([]models.Post, error) {
	return s.store.ListPosts(ctx)
}

func (f *FakeStore) CreateCategory(ctx context.Context, category models.PostCategory) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, existing := range f.categories {
		if existing.Category == category.Category {
			return repository.ErrCategoryExists
		}
	}
	f.categories = append(f.categories, category)
	return nil
}

func (f *FakeStore) FindCategoryByName(ctx context.Context, name string) (models.PostCategory, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, existing := range f.categories {
		if existing.Category == name {
			return existing, true, nil
		}
	}
	return models.PostCategory{}, false, nil
}

func (f *FakeStore) ListCategories(ctx context.Context) ([]models.PostCategory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.PostCategory(nil), f.categories...), nil
}

// Categories returns a CategoryStore view of the fake.
func (f *FakeStore) Categories() repository.CategoryStore {
	return fakeCategoryStore{f}
}

type fakeCategoryStore struct{ store *FakeStore }

func (s fakeCategoryStore) Create(ctx context.Context, category models.PostCategory) error {
	return s.store.CreateCategory(ctx, category)
}

func (s fakeCategoryStore) FindByName(ctx context.Context, name string) (models.PostCategory, bool, error) {
	return s.store.FindCategoryByName(ctx, name)
}

func (s fakeCategoryStore) List(ctx context.Context) ([]models.PostCategory, error) {
	return s.store.ListCategories(ctx)
}

// FakeMedia is a MediaUploader that hands back deterministic URLs, or Err
// when set.
type FakeMedia struct {
	mu      sync.Mutex
	Err     error
	Uploads int
}

func (m *FakeMedia) UploadImage(ctx context.Context, ownerID string, file multipart.File, header *multipart.FileHeader) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return "", m.Err
	}
	m.Uploads++
	return fmt.Sprintf("https://media.test/%s/%s", ownerID, header.Filename), nil
}

// MemFile wraps a byte slice as a multipart.File.
func MemFile(data []byte) multipart.File {
	return memFile{bytes.NewReader(data)}
}

type memFile struct{ *bytes.Reader }

func (memFile) Close() error { return nil }

// FileHeader builds a minimal multipart header for MemFile payloads.
func FileHeader(filename string, size int64) *multipart.FileHeader {
	return &multipart.FileHeader{Filename: filename, Size: size}
}
