package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/MartyBonacci/tweeter-gdg-1/internal/apperr"
	"github.com/MartyBonacci/tweeter-gdg-1/internal/config"
	"github.com/MartyBonacci/tweeter-gdg-1/internal/domain"
	"github.com/MartyBonacci/tweeter-gdg-1/internal/logger"
	"github.com/MartyBonacci/tweeter-gdg-1/internal/repository/memory"
	"github.com/MartyBonacci/tweeter-gdg-1/pkg/jwt"
	"github.com/MartyBonacci/tweeter-gdg-1/pkg/upload"
	"github.com/MartyBonacci/tweeter-gdg-1/pkg/validator"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedEmail struct {
	to  string
	url string
}

type captureSender struct {
	mu   sync.Mutex
	sent []capturedEmail
	err  error
}

func (c *captureSender) SendVerificationEmail(_ context.Context, to, verificationURL string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, capturedEmail{to: to, url: verificationURL})
	return nil
}

func (c *captureSender) lastToken(t *testing.T) string {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	require.NotEmpty(t, c.sent)
	u, err := url.Parse(c.sent[len(c.sent)-1].url)
	require.NoError(t, err)
	return u.Query().Get("token")
}

type fakeImageHost struct {
	uploadErr error
	deleted   []string
	next      int
}

func (f *fakeImageHost) UploadAvatar(_ context.Context, file io.Reader) (*upload.Image, error) {
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	if _, err := io.ReadAll(file); err != nil {
		return nil, err
	}
	f.next++
	id := "avatars/img" + strconv.Itoa(f.next)
	return &upload.Image{
		URL:      "https://res.cloudinary.com/demo/image/upload/v1700/" + id + ".jpg",
		PublicID: id,
	}, nil
}

func (f *fakeImageHost) Delete(_ context.Context, publicID string) error {
	f.deleted = append(f.deleted, publicID)
	return nil
}

type fixture struct {
	store    *memory.Store
	mailer   *captureSender
	images   *fakeImageHost
	auth     *AuthService
	tweets   *TweetService
	likes    *LikeService
	profiles *ProfileService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	mailer := &captureSender{}
	images := &fakeImageHost{}
	v := validator.NewValidator()
	log := logger.NewTestLogger(t)

	tokens, err := jwt.NewTokenService("test-secret", 24*time.Hour)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Email.Timeout = time.Second

	return &fixture{
		store:    store,
		mailer:   mailer,
		images:   images,
		auth:     NewAuthService(store.Profiles(), tokens, mailer, v, log, cfg),
		tweets:   NewTweetService(store.Tweets(), store.Likes(), v, log),
		likes:    NewLikeService(store.Likes()),
		profiles: NewProfileService(store.Profiles(), images, v, log),
	}
}

// verifiedUser signs up and verifies a user, returning its id.
func (f *fixture) verifiedUser(t *testing.T, username string) string {
	t.Helper()
	ctx := context.Background()

	resp, err := f.auth.Signup(ctx, SignupRequest{
		Username: username,
		Email:    username + "@x.com",
		Password: "password123",
	}, "http://localhost:3000")
	require.NoError(t, err)
	require.NoError(t, f.auth.VerifyEmail(ctx, f.mailer.lastToken(t)))
	return resp.UserID.String()
}

func requireKind(t *testing.T, err error, kind apperr.Kind, message string) {
	t.Helper()
	appErr, ok := apperr.As(err)
	require.True(t, ok, "expected *apperr.Error, got %v", err)
	assert.Equal(t, kind, appErr.Kind)
	assert.Equal(t, message, appErr.Message)
}

// ==========================
// Auth
// ==========================

func TestAuthService_SignupVerifyLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.auth.Signup(ctx, SignupRequest{Username: "ann", Email: "ann@x.com", Password: "password123"}, "http://localhost:3000/")
	require.NoError(t, err)
	assert.Equal(t, "Account created. Please check your email to verify.", resp.Message)
	assert.NotEqual(t, uuid.Nil, resp.UserID)

	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, "ann@x.com", f.mailer.sent[0].to)
	assert.True(t, strings.HasPrefix(f.mailer.sent[0].url, "http://localhost:3000/api/auth/verify-email?token="))

	_, err = f.auth.Login(ctx, LoginRequest{Email: "ann@x.com", Password: "password123"})
	requireKind(t, err, apperr.KindDomain, MsgEmailNotVerified)

	token := f.mailer.lastToken(t)
	require.NoError(t, f.auth.VerifyEmail(ctx, token))
	require.NoError(t, f.auth.VerifyEmail(ctx, token), "verifying twice is harmless")

	profile, err := f.auth.Login(ctx, LoginRequest{Email: "ann@x.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, resp.UserID, profile.ID)
	assert.True(t, profile.EmailVerified)
	assert.NotEqual(t, "password123", profile.PasswordHash)
}

func TestAuthService_SignupConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.Signup(ctx, SignupRequest{Username: "ann", Email: "ann@x.com", Password: "password123"}, "http://x")
	require.NoError(t, err)

	_, err = f.auth.Signup(ctx, SignupRequest{Username: "ann", Email: "other@x.com", Password: "password123"}, "http://x")
	requireKind(t, err, apperr.KindDomain, MsgUsernameTaken)

	_, err = f.auth.Signup(ctx, SignupRequest{Username: "bob", Email: "ann@x.com", Password: "password123"}, "http://x")
	requireKind(t, err, apperr.KindDomain, MsgEmailTaken)
}

func TestAuthService_SignupValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.auth.Signup(context.Background(), SignupRequest{Username: "a", Email: "nope", Password: "x"}, "http://x")
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindValidation, appErr.Kind)
	assert.Equal(t, "Username must be at least 3 characters", appErr.Message)
	assert.Len(t, appErr.Details, 3)
	assert.Empty(t, f.mailer.sent)
}

func TestAuthService_SignupSurvivesEmailFailure(t *testing.T) {
	f := newFixture(t)
	f.mailer.err = errors.New("provider down")

	resp, err := f.auth.Signup(context.Background(), SignupRequest{Username: "ann", Email: "ann@x.com", Password: "password123"}, "http://x")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, resp.UserID)
}

func TestAuthService_LoginInvalidCredentials(t *testing.T) {
	f := newFixture(t)
	f.verifiedUser(t, "ann")
	ctx := context.Background()

	_, err := f.auth.Login(ctx, LoginRequest{Email: "ann@x.com", Password: "wrongpassword"})
	requireKind(t, err, apperr.KindInvalidCredentials, MsgInvalidCredentials)

	_, err = f.auth.Login(ctx, LoginRequest{Email: "nobody@x.com", Password: "password123"})
	requireKind(t, err, apperr.KindInvalidCredentials, MsgInvalidCredentials)
}

func TestAuthService_VerifyEmailRejectsBadTokens(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	requireKind(t, f.auth.VerifyEmail(ctx, ""), apperr.KindValidation, MsgTokenRequired)
	requireKind(t, f.auth.VerifyEmail(ctx, "not-a-jwt"), apperr.KindDomain, MsgInvalidToken)

	other, err := jwt.NewTokenService("another-secret", time.Hour)
	require.NoError(t, err)
	forged, err := other.GenerateVerificationToken(uuid.NewString(), "ann@x.com")
	require.NoError(t, err)
	requireKind(t, f.auth.VerifyEmail(ctx, forged), apperr.KindDomain, MsgInvalidToken)
}

func TestVerificationURL(t *testing.T) {
	assert.Equal(t, "https://tweeter.dev/api/auth/verify-email?token=a.b.c", VerificationURL("https://tweeter.dev/", "a.b.c"))
}

// ==========================
// Tweets and likes
// ==========================

func TestTweetService_CreateBoundaries(t *testing.T) {
	f := newFixture(t)
	ann := f.verifiedUser(t, "ann")
	ctx := context.Background()

	tweet, err := f.tweets.Create(ctx, ann, CreateTweetRequest{Content: strings.Repeat("a", 140)})
	require.NoError(t, err)
	assert.Equal(t, ann, tweet.ProfileID.String())

	_, err = f.tweets.Create(ctx, ann, CreateTweetRequest{Content: strings.Repeat("a", 141)})
	requireKind(t, err, apperr.KindValidation, "Tweet cannot exceed 140 characters")

	_, err = f.tweets.Create(ctx, ann, CreateTweetRequest{Content: ""})
	requireKind(t, err, apperr.KindValidation, "Tweet cannot be empty")

	_, err = f.tweets.Create(ctx, uuid.NewString(), CreateTweetRequest{Content: "ghost"})
	requireKind(t, err, apperr.KindNotFound, MsgProfileNotFound)
}

func TestTweetService_FeedAnnotatesLikes(t *testing.T) {
	f := newFixture(t)
	ann := f.verifiedUser(t, "ann")
	bob := f.verifiedUser(t, "bob")
	ctx := context.Background()

	first, err := f.tweets.Create(ctx, ann, CreateTweetRequest{Content: "first"})
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	second, err := f.tweets.Create(ctx, bob, CreateTweetRequest{Content: "second"})
	require.NoError(t, err)

	_, err = f.likes.Toggle(ctx, first.ID.String(), bob)
	require.NoError(t, err)

	feed, err := f.tweets.Feed(ctx, Page{Limit: DefaultPageLimit}, bob)
	require.NoError(t, err)
	require.Len(t, feed, 2)
	assert.Equal(t, second.ID, feed[0].ID, "newest first")
	assert.Equal(t, "bob", feed[0].Author.Username)
	assert.Equal(t, 0, feed[0].LikeCount)
	assert.Equal(t, 1, feed[1].LikeCount)
	assert.True(t, feed[1].IsLiked)

	anon, err := f.tweets.Feed(ctx, Page{Limit: DefaultPageLimit}, "")
	require.NoError(t, err)
	assert.False(t, anon[1].IsLiked)
	assert.Equal(t, 1, anon[1].LikeCount)

	page, err := f.tweets.Feed(ctx, Page{Limit: 1, Offset: 1}, "")
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, first.ID, page[0].ID)
}

func TestTweetService_ListByUser(t *testing.T) {
	f := newFixture(t)
	ann := f.verifiedUser(t, "ann")
	bob := f.verifiedUser(t, "bob")
	ctx := context.Background()

	_, err := f.tweets.Create(ctx, ann, CreateTweetRequest{Content: "from ann"})
	require.NoError(t, err)
	_, err = f.tweets.Create(ctx, bob, CreateTweetRequest{Content: "from bob"})
	require.NoError(t, err)

	list, err := f.tweets.ListByUser(ctx, ann, Page{Limit: DefaultPageLimit}, "")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "from ann", list[0].Content)

	list, err = f.tweets.ListByUser(ctx, "not-a-uuid", Page{Limit: DefaultPageLimit}, "")
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestTweetService_Delete(t *testing.T) {
	f := newFixture(t)
	ann := f.verifiedUser(t, "ann")
	bob := f.verifiedUser(t, "bob")
	ctx := context.Background()

	tweet, err := f.tweets.Create(ctx, ann, CreateTweetRequest{Content: "mine"})
	require.NoError(t, err)

	requireKind(t, f.tweets.Delete(ctx, tweet.ID.String(), bob), apperr.KindNotFound, MsgTweetNotDeletable)
	requireKind(t, f.tweets.Delete(ctx, "garbage", ann), apperr.KindNotFound, MsgTweetNotDeletable)
	require.NoError(t, f.tweets.Delete(ctx, tweet.ID.String(), ann))
	requireKind(t, f.tweets.Delete(ctx, tweet.ID.String(), ann), apperr.KindNotFound, MsgTweetNotDeletable)
}

func TestPage_Normalize(t *testing.T) {
	assert.Equal(t, Page{Limit: 1, Offset: 0}, Page{Limit: 0, Offset: -5}.Normalize())
	assert.Equal(t, Page{Limit: MaxPageLimit, Offset: 3}, Page{Limit: 1000, Offset: 3}.Normalize())
	assert.Equal(t, Page{Limit: 20, Offset: 40}, Page{Limit: 20, Offset: 40}.Normalize())
}

func TestLikeService_ToggleAndStatus(t *testing.T) {
	f := newFixture(t)
	ann := f.verifiedUser(t, "ann")
	bob := f.verifiedUser(t, "bob")
	ctx := context.Background()

	tweet, err := f.tweets.Create(ctx, ann, CreateTweetRequest{Content: "like me"})
	require.NoError(t, err)
	id := tweet.ID.String()

	status, err := f.likes.Toggle(ctx, id, bob)
	require.NoError(t, err)
	assert.Equal(t, &domain.LikeStatus{Liked: true, LikeCount: 1}, status)

	status, err = f.likes.Status(ctx, id, bob)
	require.NoError(t, err)
	assert.Equal(t, &domain.LikeStatus{Liked: true, LikeCount: 1}, status)

	status, err = f.likes.Status(ctx, id, "")
	require.NoError(t, err)
	assert.Equal(t, &domain.LikeStatus{Liked: false, LikeCount: 1}, status)

	status, err = f.likes.Toggle(ctx, id, bob)
	require.NoError(t, err)
	assert.Equal(t, &domain.LikeStatus{Liked: false, LikeCount: 0}, status)
}

func TestLikeService_UnknownTweets(t *testing.T) {
	f := newFixture(t)
	bob := f.verifiedUser(t, "bob")
	ctx := context.Background()

	_, err := f.likes.Toggle(ctx, uuid.NewString(), bob)
	requireKind(t, err, apperr.KindNotFound, MsgTweetNotFound)

	_, err = f.likes.Toggle(ctx, "garbage", bob)
	requireKind(t, err, apperr.KindNotFound, MsgTweetNotFound)

	_, err = f.likes.Status(ctx, "garbage", bob)
	requireKind(t, err, apperr.KindNotFound, MsgTweetNotFound)

	status, err := f.likes.Status(ctx, uuid.NewString(), bob)
	require.NoError(t, err)
	assert.Equal(t, &domain.LikeStatus{}, status)
}

// ==========================
// Profiles
// ==========================

func TestProfileService_GetAndUpdate(t *testing.T) {
	f := newFixture(t)
	ann := f.verifiedUser(t, "ann")
	ctx := context.Background()

	public, err := f.profiles.GetByUsername(ctx, "ann")
	require.NoError(t, err)
	assert.Equal(t, "ann", public.Username)

	_, err = f.profiles.GetByUsername(ctx, "nobody")
	requireKind(t, err, apperr.KindNotFound, MsgUserNotFound)

	own, err := f.profiles.GetOwn(ctx, ann)
	require.NoError(t, err)
	assert.Equal(t, "ann", own.Username)

	_, err = f.profiles.GetOwn(ctx, uuid.NewString())
	requireKind(t, err, apperr.KindNotFound, MsgProfileNotFound)

	bio := "hello"
	updated, err := f.profiles.Update(ctx, ann, UpdateProfileRequest{Bio: &bio})
	require.NoError(t, err)
	require.NotNil(t, updated.Bio)
	assert.Equal(t, "hello", *updated.Bio)
	assert.Nil(t, updated.AvatarURL)

	long := strings.Repeat("b", 161)
	_, err = f.profiles.Update(ctx, ann, UpdateProfileRequest{Bio: &long})
	requireKind(t, err, apperr.KindValidation, "Bio cannot exceed 160 characters")

	avatar := "https://res.cloudinary.com/demo/image/upload/v1/avatars/a.png"
	updated, err = f.profiles.Update(ctx, ann, UpdateProfileRequest{AvatarURL: &avatar})
	require.NoError(t, err)
	require.NotNil(t, updated.AvatarURL)
	assert.Equal(t, avatar, *updated.AvatarURL)

	empty := ""
	updated, err = f.profiles.Update(ctx, ann, UpdateProfileRequest{AvatarURL: &empty})
	require.NoError(t, err)
	assert.Nil(t, updated.AvatarURL, "an empty avatarUrl clears the avatar")
	require.NotNil(t, updated.Bio)
	assert.Equal(t, "hello", *updated.Bio)

	own, err = f.profiles.GetOwn(ctx, ann)
	require.NoError(t, err)
	assert.Nil(t, own.AvatarURL)

	bad := "not a url"
	_, err = f.profiles.Update(ctx, ann, UpdateProfileRequest{AvatarURL: &bad})
	requireKind(t, err, apperr.KindValidation, "Must be a valid URL")
}

func TestProfileService_UploadAvatar(t *testing.T) {
	f := newFixture(t)
	ann := f.verifiedUser(t, "ann")
	ctx := context.Background()

	file := func(contentType string, size int64) *AvatarFile {
		return &AvatarFile{Content: bytes.NewReader([]byte("img")), Size: size, ContentType: contentType}
	}

	_, err := f.profiles.UploadAvatar(ctx, ann, nil)
	requireKind(t, err, apperr.KindValidation, MsgNoFile)

	_, err = f.profiles.UploadAvatar(ctx, ann, file("image/png", MaxAvatarSize+1))
	requireKind(t, err, apperr.KindValidation, MsgFileTooLarge)

	_, err = f.profiles.UploadAvatar(ctx, ann, file("image/gif", 10))
	requireKind(t, err, apperr.KindValidation, MsgInvalidFileType)

	first, err := f.profiles.UploadAvatar(ctx, ann, file("image/jpeg", 10))
	require.NoError(t, err)
	require.NotNil(t, first.AvatarURL)
	assert.Empty(t, f.images.deleted)

	second, err := f.profiles.UploadAvatar(ctx, ann, file("image/webp", 10))
	require.NoError(t, err)
	require.NotNil(t, second.AvatarURL)
	assert.NotEqual(t, *first.AvatarURL, *second.AvatarURL)
	assert.Equal(t, []string{"avatars/img1"}, f.images.deleted)

	own, err := f.profiles.GetOwn(ctx, ann)
	require.NoError(t, err)
	require.NotNil(t, own.AvatarURL)
	assert.Equal(t, *second.AvatarURL, *own.AvatarURL)

	f.images.uploadErr = errors.New("cloudinary down")
	_, err = f.profiles.UploadAvatar(ctx, ann, file("image/png", 10))
	requireKind(t, err, apperr.KindUpstream, MsgUploadFailed)
}
