package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"testing"

	"github.com/chankruze/liber/internal/apperror"
	"github.com/chankruze/liber/internal/auth"
	"github.com/chankruze/liber/internal/avatar"
	"github.com/chankruze/liber/internal/model"
	"github.com/chankruze/liber/internal/repository"
)

// =========================================================================
// IN-MEMORY FAKES
// =========================================================================
//
// Each fake implements one repository interface over a map. Stored values are
// copies so a test cannot mutate repository state through a returned pointer.
// Set the *Err fields to simulate storage failures.

type fakeUserRepo struct {
	users     map[string]*model.User
	nextID    int
	createErr error
	updateErr error
	deleteErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User)}
}

var _ repository.UserRepository = (*fakeUserRepo)(nil)

func (f *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	user.ID = fmt.Sprintf("user-%d", f.nextID)
	stored := *user
	f.users[user.ID] = &stored
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	c := *u
	return &c, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			c := *u
			c.IP = ""
			return &c, nil
		}
	}
	return nil, apperror.NotFoundMessage("user not found with email " + email)
}

func (f *fakeUserRepo) GetProfileByHandle(_ context.Context, handle string) (*model.PublicProfile, error) {
	for _, u := range f.users {
		if u.Handle == handle {
			return &model.PublicProfile{Name: u.Name, Avatar: u.Avatar, Bio: u.Bio}, nil
		}
	}
	return nil, apperror.NotFoundMessage("user not found with handle " + handle)
}

func (f *fakeUserRepo) List(_ context.Context, _ repository.ListOptions) ([]model.User, error) {
	out := make([]model.User, 0, len(f.users))
	for _, u := range f.users {
		c := *u
		c.PasswordHash = ""
		c.IP = ""
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeUserRepo) EmailExists(_ context.Context, email string) (bool, error) {
	for _, u := range f.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUserRepo) HandleExists(_ context.Context, handle string) (bool, error) {
	for _, u := range f.users {
		if u.Handle == handle {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUserRepo) Update(_ context.Context, user *model.User) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.users[user.ID]; !ok {
		return apperror.NotFound("user", user.ID)
	}
	stored := *user
	f.users[user.ID] = &stored
	return nil
}

func (f *fakeUserRepo) Delete(_ context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.users[id]; !ok {
		return apperror.NotFound("user", id)
	}
	delete(f.users, id)
	return nil
}

type fakeLinkRepo struct {
	links     map[string]*model.Link
	order     []string
	nextID    int
	createErr error
	updateErr error
	deleteErr error
	detachErr error
	updates   int
}

func newFakeLinkRepo() *fakeLinkRepo {
	return &fakeLinkRepo{links: make(map[string]*model.Link)}
}

var _ repository.LinkRepository = (*fakeLinkRepo)(nil)

func (f *fakeLinkRepo) Create(_ context.Context, link *model.Link) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	link.ID = fmt.Sprintf("link-%d", f.nextID)
	stored := *link
	stored.FolderIDs = slices.Clone(link.FolderIDs)
	f.links[link.ID] = &stored
	f.order = append(f.order, link.ID)
	return nil
}

func (f *fakeLinkRepo) GetByID(_ context.Context, id string) (*model.Link, error) {
	l, ok := f.links[id]
	if !ok {
		return nil, apperror.NotFound("link", id)
	}
	c := *l
	c.FolderIDs = slices.Clone(l.FolderIDs)
	return &c, nil
}

// each visits links newest first.
func (f *fakeLinkRepo) each(keep func(*model.Link) bool) []model.Link {
	out := make([]model.Link, 0)
	for i := len(f.order) - 1; i >= 0; i-- {
		l, ok := f.links[f.order[i]]
		if ok && keep(l) {
			c := *l
			c.FolderIDs = slices.Clone(l.FolderIDs)
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeLinkRepo) ListVisible(_ context.Context, callerID string, _ repository.ListOptions) ([]model.Link, error) {
	return f.each(func(l *model.Link) bool { return model.CanView(l, callerID) }), nil
}

func (f *fakeLinkRepo) ListPublicByOwner(_ context.Context, ownerID string) ([]model.Link, error) {
	return f.each(func(l *model.Link) bool { return l.OwnerID == ownerID && !l.IsPrivate }), nil
}

func (f *fakeLinkRepo) ListInFolder(_ context.Context, folderID string, includePrivate bool) ([]model.Link, error) {
	return f.each(func(l *model.Link) bool {
		return l.InFolder(folderID) && (includePrivate || !l.IsPrivate)
	}), nil
}

func (f *fakeLinkRepo) Update(_ context.Context, link *model.Link) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.links[link.ID]; !ok {
		return apperror.NotFound("link", link.ID)
	}
	f.updates++
	stored := *link
	stored.FolderIDs = slices.Clone(link.FolderIDs)
	f.links[link.ID] = &stored
	return nil
}

func (f *fakeLinkRepo) Delete(_ context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.links[id]; !ok {
		return apperror.NotFound("link", id)
	}
	delete(f.links, id)
	return nil
}

func (f *fakeLinkRepo) DetachFolder(_ context.Context, folderID string) (int64, error) {
	if f.detachErr != nil {
		return 0, f.detachErr
	}
	var n int64
	for _, l := range f.links {
		if l.InFolder(folderID) {
			l.FolderIDs = l.WithoutFolder(folderID)
			n++
		}
	}
	return n, nil
}

func (f *fakeLinkRepo) DeleteByOwner(_ context.Context, ownerID string) (int64, error) {
	var n int64
	for id, l := range f.links {
		if l.OwnerID == ownerID {
			delete(f.links, id)
			n++
		}
	}
	return n, nil
}

type fakeFolderRepo struct {
	folders   map[string]*model.Folder
	nextID    int
	createErr error
	updateErr error
	deleteErr error
}

func newFakeFolderRepo() *fakeFolderRepo {
	return &fakeFolderRepo{folders: make(map[string]*model.Folder)}
}

var _ repository.FolderRepository = (*fakeFolderRepo)(nil)

func (f *fakeFolderRepo) Create(_ context.Context, folder *model.Folder) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	folder.ID = fmt.Sprintf("folder-%d", f.nextID)
	stored := *folder
	f.folders[folder.ID] = &stored
	return nil
}

func (f *fakeFolderRepo) GetByID(_ context.Context, id string) (*model.Folder, error) {
	folder, ok := f.folders[id]
	if !ok {
		return nil, apperror.NotFound("folder", id)
	}
	c := *folder
	return &c, nil
}

func (f *fakeFolderRepo) ListVisible(_ context.Context, callerID string, _ repository.ListOptions) ([]model.Folder, error) {
	out := make([]model.Folder, 0)
	for _, folder := range f.folders {
		if model.CanView(folder, callerID) {
			out = append(out, *folder)
		}
	}
	return out, nil
}

func (f *fakeFolderRepo) ListByOwner(_ context.Context, ownerID string, includePrivate bool) ([]model.Folder, error) {
	out := make([]model.Folder, 0)
	for _, folder := range f.folders {
		if folder.OwnerID == ownerID && (includePrivate || !folder.IsPrivate) {
			out = append(out, *folder)
		}
	}
	return out, nil
}

func (f *fakeFolderRepo) Update(_ context.Context, folder *model.Folder) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.folders[folder.ID]; !ok {
		return apperror.NotFound("folder", folder.ID)
	}
	stored := *folder
	f.folders[folder.ID] = &stored
	return nil
}

func (f *fakeFolderRepo) Delete(_ context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.folders[id]; !ok {
		return apperror.NotFound("folder", id)
	}
	delete(f.folders, id)
	return nil
}

func (f *fakeFolderRepo) DeleteByOwner(_ context.Context, ownerID string) (int64, error) {
	var n int64
	for id, folder := range f.folders {
		if folder.OwnerID == ownerID {
			delete(f.folders, id)
			n++
		}
	}
	return n, nil
}

// =========================================================================
// TEST HARNESS
// =========================================================================

type testEnv struct {
	userRepo   *fakeUserRepo
	linkRepo   *fakeLinkRepo
	folderRepo *fakeFolderRepo
	tokens     *auth.TokenService

	users   *UserService
	auth    *AuthService
	handles *HandleService
	links   *LinkService
	folders *FolderService
}

const testAvatar = "data:image/svg+xml;base64,dGVzdA=="

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	passwords := auth.NewPasswordServiceForTest()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	env := &testEnv{
		userRepo:   newFakeUserRepo(),
		linkRepo:   newFakeLinkRepo(),
		folderRepo: newFakeFolderRepo(),
		tokens:     tokens,
	}
	env.users = NewUserService(env.userRepo, env.linkRepo, env.folderRepo, passwords, avatar.Static(testAvatar), logger)
	env.auth = NewAuthService(env.users, tokens, passwords, logger)
	env.handles = NewHandleService(env.users)
	env.links = NewLinkService(env.linkRepo, env.folderRepo, logger)
	env.folders = NewFolderService(env.folderRepo, env.links, logger)
	return env
}

func (e *testEnv) register(t *testing.T, handle string) *model.User {
	t.Helper()
	user, err := e.users.Create(context.Background(), RegisterInput{
		Handle:   handle,
		Name:     "User " + handle,
		Email:    handle + "@example.com",
		Password: "password123",
	}, "127.0.0.1")
	if err != nil {
		t.Fatalf("register %s: %v", handle, err)
	}
	return user
}

func (e *testEnv) link(t *testing.T, owner, label string, private bool) string {
	t.Helper()
	created, err := e.links.Create(context.Background(), CreateLinkInput{
		Label:     label,
		URL:       "https://example.com/" + label,
		IsPrivate: private,
	}, owner)
	if err != nil {
		t.Fatalf("create link %s: %v", label, err)
	}
	return created.ID
}

func (e *testEnv) folder(t *testing.T, owner, name string, private bool) string {
	t.Helper()
	created, err := e.folders.Create(context.Background(), CreateFolderInput{Name: name, IsPrivate: private}, owner)
	if err != nil {
		t.Fatalf("create folder %s: %v", name, err)
	}
	return created.ID
}

func ptr[T any](v T) *T { return &v }
