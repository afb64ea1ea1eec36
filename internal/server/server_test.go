package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chankruze/liber/internal/config"
	"github.com/chankruze/liber/internal/model"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := &config.Config{
		Port:   0,
		DBPath: ":memory:",
		JWT: config.JWT{
			Secret:     "test-secret-at-least-16-chars",
			AccessTTL:  time.Minute,
			RefreshTTL: time.Hour,
		},
		Bcrypt: config.Bcrypt{Cost: 4},
		CORS:   config.CORS{Origins: []string{"http://localhost:3000"}},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s, err := New(context.Background(), cfg, logger)
	require.NoError(t, err)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		s.Close()
	})
	return ts
}

type client struct {
	t     *testing.T
	base  string
	token string
}

// do sends body as JSON and decodes the response into out when out is set.
func (c *client) do(method, path string, body, out any) int {
	c.t.Helper()

	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(c.t, err)
		rdr = bytes.NewReader(buf)
	}

	req, err := http.NewRequest(method, c.base+path, rdr)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(c.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func register(t *testing.T, base, handle string) *client {
	t.Helper()

	anon := &client{t: t, base: base}
	var pair model.TokenPair
	status := anon.do(http.MethodPost, "/auth/register", map[string]string{
		"handle":   handle,
		"name":     handle + " Example",
		"email":    handle + "@example.com",
		"password": "correct-horse",
	}, &pair)
	require.Equal(t, http.StatusCreated, status)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	return &client{t: t, base: base, token: pair.AccessToken}
}

func (c *client) me() model.User {
	c.t.Helper()
	var u model.User
	require.Equal(c.t, http.StatusOK, c.do(http.MethodGet, "/auth/me", nil, &u))
	return u
}

func (c *client) createLink(label string, private bool) string {
	c.t.Helper()
	var created model.Created
	status := c.do(http.MethodPost, "/links", map[string]any{
		"label":     label,
		"url":       "https://example.com/" + label,
		"isPrivate": private,
	}, &created)
	require.Equal(c.t, http.StatusCreated, status)
	require.True(c.t, created.OK)
	return created.ID
}

func (c *client) createFolder(name string, private bool) string {
	c.t.Helper()
	var created model.Created
	status := c.do(http.MethodPost, "/folders", map[string]any{
		"name":      name,
		"isPrivate": private,
	}, &created)
	require.Equal(c.t, http.StatusCreated, status)
	return created.ID
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	anon := &client{t: t, base: ts.URL}

	var body map[string]string
	assert.Equal(t, http.StatusOK, anon.do(http.MethodGet, "/healthz", nil, &body))
	assert.Equal(t, "ok", body["status"])
}

func TestRegisterLoginRefresh(t *testing.T) {
	ts := newTestServer(t)
	register(t, ts.URL, "ann")
	anon := &client{t: t, base: ts.URL}

	var pair model.TokenPair
	status := anon.do(http.MethodPost, "/auth/login", map[string]string{
		"email":    "ANN@example.com",
		"password": "correct-horse",
	}, &pair)
	require.Equal(t, http.StatusOK, status)

	var bad ErrorBody
	status = anon.do(http.MethodPost, "/auth/login", map[string]string{
		"email":    "ann@example.com",
		"password": "wrong-password",
	}, &bad)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "unauthorized", bad.Error)

	var refreshed model.TokenPair
	status = anon.do(http.MethodPost, "/auth/refresh", map[string]string{
		"refreshToken": pair.RefreshToken,
	}, &refreshed)
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, refreshed.AccessToken)

	// an access token is not a refresh token
	status = anon.do(http.MethodPost, "/auth/refresh", map[string]string{
		"refreshToken": pair.AccessToken,
	}, nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	ts := newTestServer(t)
	register(t, ts.URL, "ann")
	anon := &client{t: t, base: ts.URL}

	var body ErrorBody
	status := anon.do(http.MethodPost, "/auth/register", map[string]string{
		"handle":   "ann2",
		"name":     "Another Ann",
		"email":    "ann@example.com",
		"password": "correct-horse",
	}, &body)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "conflict", body.Error)
}

func TestRegisterScenario(t *testing.T) {
	ts := newTestServer(t)
	anon := &client{t: t, base: ts.URL}

	ann := map[string]string{"handle": "ann", "name": "Ann", "email": "a@x.com", "password": "longpass1"}
	var pair model.TokenPair
	require.Equal(t, http.StatusCreated, anon.do(http.MethodPost, "/auth/register", ann, &pair))
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	ann["handle"] = "ann2"
	assert.Equal(t, http.StatusConflict, anon.do(http.MethodPost, "/auth/register", ann, nil))

	status := anon.do(http.MethodPost, "/auth/login", map[string]string{"email": "a@x.com", "password": "longpass1"}, nil)
	assert.Equal(t, http.StatusOK, status)
	status = anon.do(http.MethodPost, "/auth/login", map[string]string{"email": "nobody@liber-app.dev", "password": "longpass1"}, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestLogin_ExtraBytesPastBcryptLimitRejected(t *testing.T) {
	ts := newTestServer(t)
	anon := &client{t: t, base: ts.URL}
	password := strings.Repeat("p", 72)

	status := anon.do(http.MethodPost, "/auth/register", map[string]string{
		"handle": "ann", "name": "Ann", "email": "ann@liber-app.dev", "password": password,
	}, nil)
	require.Equal(t, http.StatusCreated, status)

	status = anon.do(http.MethodPost, "/auth/login", map[string]string{
		"email": "ann@liber-app.dev", "password": password + "-not-my-password",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	ts := newTestServer(t)
	anon := &client{t: t, base: ts.URL}

	for _, path := range []string{"/links", "/folders", "/users", "/auth/me"} {
		assert.Equal(t, http.StatusUnauthorized, anon.do(http.MethodGet, path, nil, nil), path)
	}

	garbage := &client{t: t, base: ts.URL, token: "not-a-jwt"}
	assert.Equal(t, http.StatusUnauthorized, garbage.do(http.MethodGet, "/links", nil, nil))
}

func TestUsersNeverExposeSecrets(t *testing.T) {
	ts := newTestServer(t)
	ann := register(t, ts.URL, "ann")
	register(t, ts.URL, "bob")

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/users", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+ann.token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var raw []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	require.Len(t, raw, 2)
	for _, u := range raw {
		assert.NotContains(t, u, "password")
		assert.NotContains(t, u, "passwordHash")
		assert.NotContains(t, u, "ip")
		assert.Contains(t, u, "handle")
	}
}

func TestUserUpdateIsSelfOnly(t *testing.T) {
	ts := newTestServer(t)
	ann := register(t, ts.URL, "ann")
	bob := register(t, ts.URL, "bob")
	annID := ann.me().ID

	status := bob.do(http.MethodPatch, "/users/"+annID, map[string]string{"bio": "hijacked"}, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	var ok struct {
		OK bool `json:"ok"`
	}
	status = ann.do(http.MethodPatch, "/users/"+annID, map[string]string{"bio": "reading list"}, &ok)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, ok.OK)
	assert.Equal(t, "reading list", ann.me().Bio)
}

func TestHandles(t *testing.T) {
	ts := newTestServer(t)
	register(t, ts.URL, "ann")
	anon := &client{t: t, base: ts.URL}

	var avail struct {
		IsAvailable bool `json:"isAvailable"`
	}
	require.Equal(t, http.StatusOK, anon.do(http.MethodGet, "/handles/ann", nil, &avail))
	assert.False(t, avail.IsAvailable)
	require.Equal(t, http.StatusOK, anon.do(http.MethodGet, "/handles/nobody", nil, &avail))
	assert.True(t, avail.IsAvailable)

	var profile model.PublicProfile
	require.Equal(t, http.StatusOK, anon.do(http.MethodGet, "/handles/ann/details", nil, &profile))
	assert.Equal(t, "ann Example", profile.Name)
	assert.Equal(t, model.DefaultBio, profile.Bio)

	assert.Equal(t, http.StatusNotFound, anon.do(http.MethodGet, "/handles/nobody/details", nil, nil))
}

func TestLinkVisibility(t *testing.T) {
	ts := newTestServer(t)
	ann := register(t, ts.URL, "ann")
	bob := register(t, ts.URL, "bob")

	public := ann.createLink("public", false)
	private := ann.createLink("private", true)

	assert.Equal(t, http.StatusOK, bob.do(http.MethodGet, "/links/"+public, nil, nil))
	assert.Equal(t, http.StatusNotFound, bob.do(http.MethodGet, "/links/"+private, nil, nil))
	assert.Equal(t, http.StatusOK, ann.do(http.MethodGet, "/links/"+private, nil, nil))

	var seen []model.Link
	require.Equal(t, http.StatusOK, bob.do(http.MethodGet, "/links", nil, &seen))
	require.Len(t, seen, 1)
	assert.Equal(t, public, seen[0].ID)

	anon := &client{t: t, base: ts.URL}
	annID := ann.me().ID
	require.Equal(t, http.StatusOK, anon.do(http.MethodGet, "/links/u/"+annID, nil, &seen))
	require.Len(t, seen, 1)
	assert.Equal(t, public, seen[0].ID)
}

func TestLinkWritesAreOwnerOnly(t *testing.T) {
	ts := newTestServer(t)
	ann := register(t, ts.URL, "ann")
	bob := register(t, ts.URL, "bob")
	link := ann.createLink("mine", false)

	assert.Equal(t, http.StatusUnauthorized, bob.do(http.MethodPatch, "/links/"+link, map[string]string{"label": "theirs"}, nil))
	assert.Equal(t, http.StatusUnauthorized, bob.do(http.MethodDelete, "/links/"+link, nil, nil))
	assert.Equal(t, http.StatusUnauthorized, bob.do(http.MethodPatch, "/links/"+link, map[string]string{"label": ""}, nil))
	assert.Equal(t, http.StatusNotFound, ann.do(http.MethodPatch, "/links/missing", map[string]string{"label": ""}, nil))

	assert.Equal(t, http.StatusBadRequest, ann.do(http.MethodPatch, "/links/"+link, map[string]string{"url": "not a url"}, nil))
	assert.Equal(t, http.StatusOK, ann.do(http.MethodDelete, "/links/"+link, nil, nil))
	assert.Equal(t, http.StatusNotFound, ann.do(http.MethodGet, "/links/"+link, nil, nil))
}

func TestFolderMembershipFlow(t *testing.T) {
	ts := newTestServer(t)
	ann := register(t, ts.URL, "ann")
	bob := register(t, ts.URL, "bob")
	annID := ann.me().ID

	link := ann.createLink("go-blog", false)
	hidden := ann.createLink("diary", true)
	folder := ann.createFolder("reading", false)
	secret := ann.createFolder("secret", true)

	// adding twice leaves a single occurrence
	require.Equal(t, http.StatusOK, ann.do(http.MethodPatch, "/links/"+link+"/f/"+folder, nil, nil))
	require.Equal(t, http.StatusOK, ann.do(http.MethodPatch, "/links/"+link+"/f/"+folder, nil, nil))
	require.Equal(t, http.StatusOK, ann.do(http.MethodPatch, "/links/"+hidden+"/f/"+folder, nil, nil))

	var got model.Link
	require.Equal(t, http.StatusOK, ann.do(http.MethodGet, "/links/"+link, nil, &got))
	assert.Equal(t, []string{folder}, got.FolderIDs)

	// someone else cannot file a link into ann's folder
	assert.Equal(t, http.StatusUnauthorized, bob.do(http.MethodPatch, "/links/"+link+"/f/"+folder, nil, nil))

	var links []model.Link
	require.Equal(t, http.StatusOK, ann.do(http.MethodGet, "/folders/"+folder+"/links", nil, &links))
	assert.Len(t, links, 2)
	require.Equal(t, http.StatusOK, bob.do(http.MethodGet, "/folders/"+folder+"/links", nil, &links))
	require.Len(t, links, 1)
	assert.Equal(t, link, links[0].ID)

	// private folders are invisible to others
	assert.Equal(t, http.StatusNotFound, bob.do(http.MethodGet, "/folders/"+secret+"/links", nil, nil))
	assert.Equal(t, http.StatusNotFound, bob.do(http.MethodGet, "/folders/"+secret, nil, nil))

	var folders []model.Folder
	require.Equal(t, http.StatusOK, bob.do(http.MethodGet, "/folders/u/"+annID, nil, &folders))
	require.Len(t, folders, 1)
	assert.Equal(t, folder, folders[0].ID)

	require.Equal(t, http.StatusOK, ann.do(http.MethodGet, "/folders/u/"+annID, nil, &folders))
	assert.Len(t, folders, 2)

	anon := &client{t: t, base: ts.URL}
	require.Equal(t, http.StatusOK, anon.do(http.MethodGet, "/folders/u/"+annID, nil, &folders))
	assert.Len(t, folders, 1)

	// removing, then deleting the folder detaches it from every link
	require.Equal(t, http.StatusOK, ann.do(http.MethodDelete, "/links/"+link+"/f/"+folder, nil, nil))
	require.Equal(t, http.StatusOK, ann.do(http.MethodGet, "/links/"+link, nil, &got))
	assert.Empty(t, got.FolderIDs)

	require.Equal(t, http.StatusOK, ann.do(http.MethodDelete, "/folders/"+folder, nil, nil))
	require.Equal(t, http.StatusOK, ann.do(http.MethodGet, "/links/"+hidden, nil, &got))
	assert.Empty(t, got.FolderIDs)
}

func TestDeleteUserCascades(t *testing.T) {
	ts := newTestServer(t)
	ann := register(t, ts.URL, "ann")
	bob := register(t, ts.URL, "bob")
	annID := ann.me().ID

	ann.createLink("go-blog", false)
	ann.createFolder("reading", false)

	require.Equal(t, http.StatusOK, ann.do(http.MethodDelete, "/users/"+annID, nil, nil))

	var links []model.Link
	require.Equal(t, http.StatusOK, bob.do(http.MethodGet, "/links/u/"+annID, nil, &links))
	assert.Empty(t, links)

	var folders []model.Folder
	require.Equal(t, http.StatusOK, bob.do(http.MethodGet, "/folders/u/"+annID, nil, &folders))
	assert.Empty(t, folders)
}

func TestGitHubRoutesDisabledWithoutCredentials(t *testing.T) {
	ts := newTestServer(t)
	anon := &client{t: t, base: ts.URL}
	assert.Equal(t, http.StatusNotFound, anon.do(http.MethodGet, "/auth/github/login", nil, nil))
}

// ErrorBody mirrors handler.ErrorResponse for decoding.
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
