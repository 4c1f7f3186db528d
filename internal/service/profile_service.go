package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"blognest/api/internal/ids"
	"blognest/api/internal/models"
	"blognest/api/internal/repository"
)

var (
	ErrChannelNotFound   = errors.New("channel does not exist")
	ErrSelfSubscription  = errors.New("cannot subscribe to your own channel")
	ErrAlreadySubscribed = errors.New("already subscribed to this channel")
	ErrNotSubscribed     = errors.New("not subscribed to this channel")
)

const channelCacheTTL = 30 * time.Second

// ProfileService covers profile mutation, avatar/cover uploads and the
// aggregated channel-profile view.
type ProfileService struct {
	users repository.UserStore
	subs  repository.SubscriptionStore
	media MediaUploader
	cache *redis.Client
	log   zerolog.Logger
}

func NewProfileService(users repository.UserStore, subs repository.SubscriptionStore, media MediaUploader, cache *redis.Client, log zerolog.Logger) *ProfileService {
	return &ProfileService{
		users: users,
		subs:  subs,
		media: media,
		cache: cache,
		log:   log,
	}
}

type ProfileUpdateInput struct {
	UserName string
	FullName string
	Email    string
}

func (s *ProfileService) UpdateProfile(ctx context.Context, userID string, input ProfileUpdateInput) (models.PublicUser, error) {
	input.UserName = strings.TrimSpace(strings.ToLower(input.UserName))
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))
	input.FullName = strings.TrimSpace(input.FullName)

	if input.UserName == "" || input.FullName == "" || input.Email == "" {
		return models.PublicUser{}, ErrMissingFields
	}

	current, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.PublicUser{}, ErrUserNotFound
		}
		return models.PublicUser{}, fmt.Errorf("find user: %w", err)
	}

	updated, err := s.users.UpdateProfile(ctx, userID, input.UserName, input.FullName, input.Email)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			return models.PublicUser{}, ErrUserExists
		}
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.PublicUser{}, ErrUserNotFound
		}
		return models.PublicUser{}, fmt.Errorf("update profile: %w", err)
	}

	s.invalidateChannel(ctx, current.UserName)
	if updated.UserName != current.UserName {
		s.invalidateChannel(ctx, updated.UserName)
	}
	return updated.Public(), nil
}

func (s *ProfileService) UpdateAvatar(ctx context.Context, userID string, file multipart.File, header *multipart.FileHeader) (models.PublicUser, error) {
	if file == nil || header == nil {
		return models.PublicUser{}, ErrAvatarRequired
	}

	url, err := s.media.UploadImage(ctx, userID, file, header)
	if err != nil {
		return models.PublicUser{}, fmt.Errorf("upload avatar: %w", err)
	}

	updated, err := s.users.UpdateAvatar(ctx, userID, url)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.PublicUser{}, ErrUserNotFound
		}
		return models.PublicUser{}, fmt.Errorf("update avatar: %w", err)
	}

	s.invalidateChannel(ctx, updated.UserName)
	return updated.Public(), nil
}

func (s *ProfileService) UpdateCoverImage(ctx context.Context, userID string, file multipart.File, header *multipart.FileHeader) (models.PublicUser, error) {
	if file == nil || header == nil {
		return models.PublicUser{}, ErrMissingFields
	}

	url, err := s.media.UploadImage(ctx, userID, file, header)
	if err != nil {
		return models.PublicUser{}, fmt.Errorf("upload cover image: %w", err)
	}

	updated, err := s.users.UpdateCoverImage(ctx, userID, url)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.PublicUser{}, ErrUserNotFound
		}
		return models.PublicUser{}, fmt.Errorf("update cover image: %w", err)
	}

	s.invalidateChannel(ctx, updated.UserName)
	return updated.Public(), nil
}

// ChannelProfile returns the aggregated channel view for userName as seen by
// viewerID. Results are cached briefly since the aggregation touches the
// subscriptions table twice.
func (s *ProfileService) ChannelProfile(ctx context.Context, userName, viewerID string) (models.ChannelProfile, error) {
	userName = strings.TrimSpace(strings.ToLower(userName))
	if userName == "" {
		return models.ChannelProfile{}, ErrMissingFields
	}

	cacheKey := fmt.Sprintf("channel:%s:%s", userName, viewerID)
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, cacheKey).Bytes(); err == nil {
			var cached models.ChannelProfile
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
		}
	}

	profile, err := s.users.ChannelProfile(ctx, userName, viewerID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.ChannelProfile{}, ErrChannelNotFound
		}
		return models.ChannelProfile{}, fmt.Errorf("aggregate channel profile: %w", err)
	}

	if s.cache != nil {
		if raw, err := json.Marshal(profile); err == nil {
			if err := s.cache.Set(ctx, cacheKey, raw, channelCacheTTL).Err(); err != nil {
				s.log.Debug().Err(err).Str("channel", userName).Msg("channel cache set failed")
			}
		}
	}
	return profile, nil
}

func (s *ProfileService) Subscribe(ctx context.Context, viewerID, channelUserName string) error {
	channel, err := s.findChannel(ctx, channelUserName)
	if err != nil {
		return err
	}
	if channel.ID == viewerID {
		return ErrSelfSubscription
	}

	sub := models.Subscription{
		ID:           ids.New(),
		SubscriberID: viewerID,
		ChannelID:    channel.ID,
	}
	if err := s.subs.Create(ctx, sub); err != nil {
		if errors.Is(err, repository.ErrAlreadySubscribed) {
			return ErrAlreadySubscribed
		}
		return fmt.Errorf("create subscription: %w", err)
	}

	s.invalidateChannel(ctx, channel.UserName)
	return nil
}

func (s *ProfileService) Unsubscribe(ctx context.Context, viewerID, channelUserName string) error {
	channel, err := s.findChannel(ctx, channelUserName)
	if err != nil {
		return err
	}

	if err := s.subs.Delete(ctx, viewerID, channel.ID); err != nil {
		if errors.Is(err, repository.ErrSubscriptionNotFound) {
			return ErrNotSubscribed
		}
		return fmt.Errorf("delete subscription: %w", err)
	}

	s.invalidateChannel(ctx, channel.UserName)
	return nil
}

func (s *ProfileService) findChannel(ctx context.Context, userName string) (models.User, error) {
	userName = strings.TrimSpace(strings.ToLower(userName))
	if userName == "" {
		return models.User{}, ErrMissingFields
	}

	channel, err := s.users.FindByUserName(ctx, userName)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.User{}, ErrChannelNotFound
		}
		return models.User{}, fmt.Errorf("find channel: %w", err)
	}
	return channel, nil
}

func (s *ProfileService) invalidateChannel(ctx context.Context, userName string) {
	if s.cache == nil {
		return
	}

	pattern := fmt.Sprintf("channel:%s:*", userName)
	iter := s.cache.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := s.cache.Del(ctx, iter.Val()).Err(); err != nil {
			s.log.Debug().Err(err).Str("key", iter.Val()).Msg("channel cache invalidation failed")
		}
	}
	if err := iter.Err(); err != nil {
		s.log.Debug().Err(err).Str("channel", userName).Msg("channel cache scan failed")
	}
}
