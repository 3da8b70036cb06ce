package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"mime/multipart"
	stdhttp "net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adrenaline_backend/internal/app"
	"adrenaline_backend/internal/identity"
	"adrenaline_backend/internal/logger"
	"adrenaline_backend/internal/model"
	"adrenaline_backend/internal/repository"
	"adrenaline_backend/internal/repository/memory"
	"adrenaline_backend/internal/state"
	"adrenaline_backend/internal/storage"
)

const testSecret = "router-test-secret"

type apiClient struct {
	t      *testing.T
	router stdhttp.Handler
	blobs  *storage.MemoryStore
}

func newAPI(t *testing.T) *apiClient {
	t.Helper()
	return newAPIWithStore(t, nil)
}

// newAPIWithStore lets wrap replace repositories of the memory store before
// the router is built.
func newAPIWithStore(t *testing.T, wrap func(*repository.Store)) *apiClient {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	local := identity.NewLocal(logger.Discard())
	blobs := storage.NewMemoryStore()
	store := memory.New().Repositories()
	if wrap != nil {
		wrap(store)
	}
	infra := &app.Infra{
		Log:         log,
		Store:       store,
		State:       state.NewMemoryState(),
		Blobs:       blobs,
		Auth:        local,
		Unconfirmed: local,
		Verifier:    identity.NewHMACVerifier(testSecret),
	}
	return &apiClient{t: t, router: buildRouter(infra, 0, log), blobs: blobs}
}

func token(t *testing.T, userID string, ttl time.Duration) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(ttl).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func (c *apiClient) do(method, path, userID string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	c.t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+token(c.t, userID, time.Hour))
	}
	rec := httptest.NewRecorder()
	c.router.ServeHTTP(rec, req)
	return rec
}

func (c *apiClient) json(method, path, userID string, payload interface{}) *httptest.ResponseRecorder {
	c.t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(c.t, err)
		body = bytes.NewReader(raw)
	}
	return c.do(method, path, userID, body, "application/json")
}

func (c *apiClient) register(userID, first string, accountType model.AccountType) {
	c.t.Helper()
	rec := c.json(stdhttp.MethodPost, "/me", userID, map[string]interface{}{
		"first_name":   first,
		"last_name":    "Test",
		"email":        userID + "@example.com",
		"account_type": accountType,
	})
	require.Equal(c.t, stdhttp.StatusCreated, rec.Code, rec.Body.String())
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env.Error.Code
}

func jpegBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func postForm(t *testing.T, caption string, coachOnly bool, files int) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("caption", caption))
	if coachOnly {
		require.NoError(t, mw.WriteField("coach_only", "true"))
	}
	for i := 0; i < files; i++ {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", `form-data; name="files"; filename="photo.jpg"`)
		h.Set("Content-Type", "image/jpeg")
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(jpegBytes(t))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestHealth(t *testing.T) {
	api := newAPI(t)
	rec := api.do(stdhttp.MethodGet, "/health", "", nil, "")
	assert.Equal(t, stdhttp.StatusOK, rec.Code)
}

func TestAuthRequired(t *testing.T) {
	api := newAPI(t)

	rec := api.do(stdhttp.MethodGet, "/me", "", nil, "")
	assert.Equal(t, stdhttp.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(stdhttp.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, "u1", -time.Minute))
	expired := httptest.NewRecorder()
	api.router.ServeHTTP(expired, req)
	assert.Equal(t, stdhttp.StatusUnauthorized, expired.Code)
	assert.Equal(t, "TOKEN_EXPIRED", errorCode(t, expired))
}

func TestRegisterAndMe(t *testing.T) {
	api := newAPI(t)
	api.register("u1", "Ana", model.AccountAthlete)

	me := decode[model.User](t, api.do(stdhttp.MethodGet, "/me", "u1", nil, ""))
	assert.Equal(t, "u1", me.ID)
	assert.Equal(t, "Ana", me.FirstName)
	require.NotNil(t, me.AthleteID)

	rec := api.json(stdhttp.MethodPatch, "/me", "u1", map[string]interface{}{"field": "firstName", "value": "Anna"})
	require.Equal(t, stdhttp.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Anna", decode[model.User](t, rec).FirstName)

	rec = api.json(stdhttp.MethodPatch, "/me", "u1", map[string]interface{}{"field": "shoeSize", "value": 9})
	assert.Equal(t, stdhttp.StatusBadRequest, rec.Code)

	rec = api.do(stdhttp.MethodGet, "/users/nobody", "", nil, "")
	assert.Equal(t, stdhttp.StatusNotFound, rec.Code)
}

func TestMeWithoutRecord(t *testing.T) {
	api := newAPI(t)
	rec := api.do(stdhttp.MethodGet, "/me", "ghost", nil, "")
	assert.Equal(t, stdhttp.StatusNotFound, rec.Code)
}

func TestFollowAndReorderFavorites(t *testing.T) {
	api := newAPI(t)
	api.register("coach", "Cora", model.AccountCoach)
	api.register("a1", "Abe", model.AccountAthlete)
	api.register("a2", "Bea", model.AccountAthlete)

	for _, id := range []string{"a1", "a2"} {
		rec := api.do(stdhttp.MethodPost, "/users/"+id+"/follow", "coach", nil, "")
		require.Equal(t, stdhttp.StatusOK, rec.Code, rec.Body.String())
	}

	rec := api.do(stdhttp.MethodPost, "/users/coach/follow", "coach", nil, "")
	assert.Equal(t, stdhttp.StatusBadRequest, rec.Code)

	rec = api.do(stdhttp.MethodGet, "/users/coach/favorites/athletes", "", nil, "")
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	athletes := decode[struct {
		Athletes []model.User `json:"athletes"`
	}](t, rec).Athletes
	require.Len(t, athletes, 2)
	assert.Equal(t, "a1", athletes[0].ID)

	rec = api.json(stdhttp.MethodPut, "/me/favorites/order", "coach", map[string]interface{}{"order": []int{1, 0}})
	require.Equal(t, stdhttp.StatusOK, rec.Code, rec.Body.String())

	rec = api.do(stdhttp.MethodGet, "/users/coach/favorites/athletes", "", nil, "")
	athletes = decode[struct {
		Athletes []model.User `json:"athletes"`
	}](t, rec).Athletes
	require.Len(t, athletes, 2)
	assert.Equal(t, "a2", athletes[0].ID)

	rec = api.json(stdhttp.MethodPut, "/me/favorites/order", "coach", map[string]interface{}{"order": []int{0, 0}})
	assert.Equal(t, stdhttp.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_FAVORITES_ORDER", errorCode(t, rec))

	rec = api.json(stdhttp.MethodPut, "/me/favorites/order", "a1", map[string]interface{}{"order": []int{}})
	assert.Equal(t, stdhttp.StatusForbidden, rec.Code)

	rec = api.do(stdhttp.MethodDelete, "/users/a2/follow", "coach", nil, "")
	require.Equal(t, stdhttp.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []string{"a1"}, decode[model.User](t, rec).FavoritesIDs)
}

func TestPostsAndFeed(t *testing.T) {
	api := newAPI(t)
	api.register("author", "Ana", model.AccountAthlete)
	api.register("fan", "Finn", model.AccountSpectator)
	api.register("coach", "Cora", model.AccountCoach)

	body, ct := postForm(t, "first dive", false, 1)
	rec := api.do(stdhttp.MethodPost, "/posts", "author", body, ct)
	require.Equal(t, stdhttp.StatusCreated, rec.Code, rec.Body.String())
	public := decode[model.Post](t, rec)
	assert.Equal(t, 1, api.blobs.Len())

	body, ct = postForm(t, "coaches only", true, 0)
	rec = api.do(stdhttp.MethodPost, "/posts", "author", body, ct)
	require.Equal(t, stdhttp.StatusCreated, rec.Code, rec.Body.String())
	private := decode[model.Post](t, rec)

	rec = api.do(stdhttp.MethodGet, "/posts/"+private.ID, "", nil, "")
	assert.Equal(t, stdhttp.StatusNotFound, rec.Code)
	rec = api.do(stdhttp.MethodGet, "/posts/"+private.ID, "coach", nil, "")
	assert.Equal(t, stdhttp.StatusOK, rec.Code)

	rec = api.do(stdhttp.MethodGet, "/users/author/posts", "", nil, "")
	wall := decode[struct {
		Posts []model.Post `json:"posts"`
	}](t, rec).Posts
	require.Len(t, wall, 1)
	assert.Equal(t, public.ID, wall[0].ID)

	require.Equal(t, stdhttp.StatusOK, api.do(stdhttp.MethodPost, "/users/author/follow", "fan", nil, "").Code)
	require.Equal(t, stdhttp.StatusOK, api.do(stdhttp.MethodPost, "/users/author/follow", "coach", nil, "").Code)

	fanFeed := decode[model.FeedResponse](t, api.do(stdhttp.MethodGet, "/feed", "fan", nil, ""))
	require.Len(t, fanFeed.Items, 1)
	assert.Equal(t, public.ID, fanFeed.Items[0].Post.ID)
	assert.Equal(t, "author", fanFeed.Items[0].User.ID)

	coachFeed := decode[model.FeedResponse](t, api.do(stdhttp.MethodGet, "/feed", "coach", nil, ""))
	assert.Len(t, coachFeed.Items, 2)

	rec = api.do(stdhttp.MethodGet, "/feed?cursor=garbage", "fan", nil, "")
	assert.Equal(t, stdhttp.StatusBadRequest, rec.Code)
	rec = api.do(stdhttp.MethodGet, "/feed?limit=-1", "fan", nil, "")
	assert.Equal(t, stdhttp.StatusBadRequest, rec.Code)

	rec = api.do(stdhttp.MethodPost, "/posts/"+public.ID+"/save", "fan", nil, "")
	require.Equal(t, stdhttp.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []string{public.ID}, decode[model.User](t, rec).SavedPostIDs)

	rec = api.do(stdhttp.MethodDelete, "/posts/"+public.ID, "fan", nil, "")
	assert.Equal(t, stdhttp.StatusForbidden, rec.Code)

	rec = api.do(stdhttp.MethodDelete, "/posts/"+public.ID, "author", nil, "")
	assert.Equal(t, stdhttp.StatusNoContent, rec.Code)
	assert.Equal(t, 0, api.blobs.Len())

	fan := decode[model.User](t, api.do(stdhttp.MethodGet, "/me", "fan", nil, ""))
	assert.Empty(t, fan.SavedPostIDs)
}

type unreachablePosts struct {
	repository.PostRepository
}

var errPostsDown = errors.New("posts table unreachable")

func (unreachablePosts) ListByAuthor(context.Context, string) ([]model.Post, error) {
	return nil, errPostsDown
}

func (unreachablePosts) ListByAuthors(context.Context, []string) ([]model.Post, error) {
	return nil, errPostsDown
}

func TestFeedStoreDownRendersEmpty(t *testing.T) {
	api := newAPIWithStore(t, func(s *repository.Store) {
		s.Posts = unreachablePosts{PostRepository: s.Posts}
	})
	api.register("author", "Ana", model.AccountAthlete)
	api.register("fan", "Finn", model.AccountSpectator)
	require.Equal(t, stdhttp.StatusOK, api.do(stdhttp.MethodPost, "/users/author/follow", "fan", nil, "").Code)

	rec := api.do(stdhttp.MethodGet, "/feed", "fan", nil, "")
	require.Equal(t, stdhttp.StatusOK, rec.Code, rec.Body.String())
	resp := decode[model.FeedResponse](t, rec)
	assert.Empty(t, resp.Items)
	assert.False(t, resp.HasMore)
	assert.Nil(t, resp.NextCursor)

	rec = api.do(stdhttp.MethodGet, "/feed?cursor=garbage", "fan", nil, "")
	assert.Equal(t, stdhttp.StatusBadRequest, rec.Code)
}

func TestMessages(t *testing.T) {
	api := newAPI(t)
	api.register("u1", "Ana", model.AccountAthlete)
	api.register("u2", "Ben", model.AccountCoach)

	rec := api.json(stdhttp.MethodPost, "/messages/u2", "u1", map[string]string{"body": "  hi coach  "})
	require.Equal(t, stdhttp.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "hi coach", decode[model.Message](t, rec).Body)

	rec = api.json(stdhttp.MethodPost, "/messages/u1", "u2", map[string]string{"body": "hello"})
	require.Equal(t, stdhttp.StatusCreated, rec.Code)

	rec = api.json(stdhttp.MethodPost, "/messages/u1", "u2", map[string]string{"body": "   "})
	assert.Equal(t, stdhttp.StatusBadRequest, rec.Code)

	rec = api.json(stdhttp.MethodPost, "/messages/nobody", "u1", map[string]string{"body": "hi"})
	assert.Equal(t, stdhttp.StatusNotFound, rec.Code)

	rec = api.do(stdhttp.MethodGet, "/messages/u2", "u1", nil, "")
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	msgs := decode[struct {
		Messages []model.ConversationMessage `json:"messages"`
	}](t, rec).Messages
	require.Len(t, msgs, 2)
	assert.True(t, msgs[0].IsSender)
	assert.False(t, msgs[1].IsSender)
}

func TestDeleteAccount(t *testing.T) {
	api := newAPI(t)
	api.register("victim", "Vic", model.AccountAthlete)
	api.register("coach", "Cora", model.AccountCoach)

	require.Equal(t, stdhttp.StatusOK, api.do(stdhttp.MethodPost, "/users/victim/follow", "coach", nil, "").Code)
	body, ct := postForm(t, "bye", false, 1)
	require.Equal(t, stdhttp.StatusCreated, api.do(stdhttp.MethodPost, "/posts", "victim", body, ct).Code)

	rec := api.do(stdhttp.MethodDelete, "/me", "victim", nil, "")
	require.Equal(t, stdhttp.StatusOK, rec.Code, rec.Body.String())
	report := decode[map[string]interface{}](t, rec)
	assert.Equal(t, "victim", report["user_id"])
	assert.EqualValues(t, 1, report["posts"])
	assert.EqualValues(t, 1, report["favorites_of"])

	assert.Equal(t, stdhttp.StatusNotFound, api.do(stdhttp.MethodGet, "/users/victim", "", nil, "").Code)
	assert.Equal(t, 0, api.blobs.Len())

	coach := decode[model.User](t, api.do(stdhttp.MethodGet, "/me", "coach", nil, ""))
	assert.Empty(t, coach.FavoritesIDs)

	// a second delete finds nothing to purge and still signs out
	rec = api.do(stdhttp.MethodDelete, "/me", "victim", nil, "")
	assert.Equal(t, stdhttp.StatusOK, rec.Code, rec.Body.String())
}
