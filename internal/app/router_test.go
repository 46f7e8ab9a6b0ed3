package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"talky/internal/config"
	"talky/internal/email"
	"talky/internal/models"
	"talky/internal/services"
	"talky/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testApp struct {
	router    *gin.Engine
	container *services.ServiceContainer
	db        *gorm.DB
	mail      *email.MockProvider
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	cfg := &config.Config{}
	cfg.Server.Env = "test"
	cfg.Server.BaseURL = "http://talky.test"
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.TTL = 60
	cfg.Upload.MaxSize = 1024 * 1024
	cfg.Upload.CleanupFiles = true

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	store, err := storage.NewLocalStorage(storage.Config{BasePath: t.TempDir()})
	require.NoError(t, err)

	mail := email.NewMockProvider()
	router, container := SetupRouter(cfg, db, mail, store)

	return &testApp{router: router, container: container, db: db, mail: mail}
}

func (a *testApp) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testApp) experiment(t *testing.T, name string) *models.Experiment {
	t.Helper()
	exp := &models.Experiment{Name: name}
	require.NoError(t, a.db.Create(exp).Error)
	return exp
}

func (a *testApp) user(t *testing.T, email string, experimentID uint, roles ...string) *models.User {
	t.Helper()
	user, err := a.container.Users.Create(services.CreateUserInput{
		Name:         email,
		Email:        email,
		Password:     "test-password",
		ExperimentID: experimentID,
		Roles:        roles,
	})
	require.NoError(t, err)
	return user
}

func (a *testApp) login(t *testing.T, email string) string {
	t.Helper()
	token, _, err := a.container.Auth.Login(email, "test-password")
	require.NoError(t, err)
	return token
}

func (a *testApp) talk(t *testing.T, experimentID uint) *models.Talk {
	t.Helper()
	conf := &models.Conference{Name: "Conf", Venue: "CERN"}
	require.NoError(t, a.db.Create(conf).Error)

	talk, err := a.container.Talks.Create(services.CreateTalkInput{
		Title:        "A talk",
		Duration:     "20m",
		Speaker:      "speaker@example.org",
		ExperimentID: experimentID,
		ConferenceID: conf.ID,
	})
	require.NoError(t, err)
	a.container.Dispatcher.Wait()
	a.mail.Reset()
	return talk
}

func seedRoles(t *testing.T, a *testApp) {
	t.Helper()
	cfg := &config.Config{}
	require.NoError(t, Seed(a.db, cfg))
}

func TestViewPage(t *testing.T) {
	app := newTestApp(t)
	exp := app.experiment(t, "LHCb")
	talk := app.talk(t, exp.ID)

	w := app.do(t, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/view/%d/%s/", talk.ID, talk.ViewKey), nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), talk.Title)

	// Wrong key, other talk's key shape, and privileged keys all 404.
	w = app.do(t, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/view/%d/%s/", talk.ID, "bogus"), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = app.do(t, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/view/%d/%s/", talk.ID, talk.UploadKey), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = app.do(t, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/upload/%d/%s/", talk.ID, talk.ViewKey), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCommentFlow(t *testing.T) {
	app := newTestApp(t)
	exp := app.experiment(t, "LHCb")
	talk := app.talk(t, exp.ID)

	form := url.Values{
		"name":    {"Visitor"},
		"email":   {"visitor@example.org"},
		"comment": {"interesting result"},
	}
	req := httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/view/%d/%s/comment/", talk.ID, talk.ViewKey),
		strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	w := app.do(t, req)
	assert.Equal(t, http.StatusSeeOther, w.Code)

	w = app.do(t, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/view/%d/%s/", talk.ID, talk.ViewKey), nil))
	assert.Contains(t, w.Body.String(), "interesting result")

	// Whitespace-only fields are a uniform 400.
	bad := url.Values{"name": {"  "}, "email": {"v@e.org"}, "comment": {"x"}}
	req = httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/view/%d/%s/comment/", talk.ID, talk.ViewKey),
		strings.NewReader(bad.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w = app.do(t, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	app.container.Dispatcher.Wait()
}

func multipartPDF(t *testing.T, filename, contents string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(contents))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUploadAndDownload(t *testing.T) {
	app := newTestApp(t)
	exp := app.experiment(t, "LHCb")
	talk := app.talk(t, exp.ID)

	body, contentType := multipartPDF(t, "slides.pdf", "pdf bytes")
	req := httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/upload/%d/%s/", talk.ID, talk.UploadKey), body)
	req.Header.Set("Content-Type", contentType)

	w := app.do(t, req)
	require.Equal(t, http.StatusSeeOther, w.Code)
	app.container.Dispatcher.Wait()

	w = app.do(t, httptest.NewRequest(http.MethodGet,
		fmt.Sprintf("/view/%d/%s/submission/v1/", talk.ID, talk.ViewKey), nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pdf bytes", w.Body.String())

	w = app.do(t, httptest.NewRequest(http.MethodGet,
		fmt.Sprintf("/view/%d/%s/submission/v9/", talk.ID, talk.ViewKey), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Non-PDF rejected.
	body, contentType = multipartPDF(t, "archive.zip", "zip bytes")
	req = httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/upload/%d/%s/", talk.ID, talk.UploadKey), body)
	req.Header.Set("Content-Type", contentType)
	w = app.do(t, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadTooLarge(t *testing.T) {
	app := newTestApp(t)
	exp := app.experiment(t, "LHCb")
	talk := app.talk(t, exp.ID)

	body, contentType := multipartPDF(t, "big.pdf", strings.Repeat("x", 2*1024*1024))
	req := httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/upload/%d/%s/", talk.ID, talk.UploadKey), body)
	req.Header.Set("Content-Type", contentType)

	w := app.do(t, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	subs, err := app.container.Submissions.ListByTalk(talk.ID)
	require.NoError(t, err)
	assert.Empty(t, subs)
}

func TestManageSurface(t *testing.T) {
	app := newTestApp(t)
	exp := app.experiment(t, "LHCb")
	talk := app.talk(t, exp.ID)

	comment, err := app.container.Comments.Create(talk, services.CommentInput{
		Name: "A", Email: "a@example.org", Comment: "remove me",
	})
	require.NoError(t, err)
	app.container.Dispatcher.Wait()

	w := app.do(t, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/manage/%d/%s/", talk.ID, talk.ManageKey), nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "remove me")

	w = app.do(t, httptest.NewRequest(http.MethodGet,
		fmt.Sprintf("/manage/%d/%s/comment/%d/delete/", talk.ID, talk.ManageKey, comment.ID), nil))
	assert.Equal(t, http.StatusSeeOther, w.Code)

	tree, err := app.container.Comments.Tree(talk.ID)
	require.NoError(t, err)
	assert.Empty(t, tree)

	// The view key must not open the manage surface.
	w = app.do(t, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/manage/%d/%s/", talk.ID, talk.ViewKey), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestModerationRequiresManagementRights(t *testing.T) {
	app := newTestApp(t)
	seedRoles(t, app)
	owner := app.experiment(t, "LHCb")
	other := app.experiment(t, "ATLAS")
	talk := app.talk(t, owner.ID)

	app.user(t, "member@example.org", owner.ID)
	app.user(t, "outsider@example.org", other.ID)

	comment, err := app.container.Comments.Create(talk, services.CommentInput{
		Name: "A", Email: "a@example.org", Comment: "contested",
	})
	require.NoError(t, err)
	app.container.Dispatcher.Wait()

	deleteURL := fmt.Sprintf("/view/%d/%s/comment/%d/delete/", talk.ID, talk.ViewKey, comment.ID)

	// No session: 404, never 401.
	w := app.do(t, httptest.NewRequest(http.MethodGet, deleteURL, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Wrong experiment: still 404.
	req := httptest.NewRequest(http.MethodGet, deleteURL, nil)
	req.AddCookie(&http.Cookie{Name: "talky_session", Value: app.login(t, "outsider@example.org")})
	w = app.do(t, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Same experiment succeeds.
	req = httptest.NewRequest(http.MethodGet, deleteURL, nil)
	req.AddCookie(&http.Cookie{Name: "talky_session", Value: app.login(t, "member@example.org")})
	w = app.do(t, req)
	assert.Equal(t, http.StatusSeeOther, w.Code)
}

func TestLogin(t *testing.T) {
	app := newTestApp(t)
	seedRoles(t, app)
	exp := app.experiment(t, "LHCb")
	app.user(t, "user@example.org", exp.ID)

	body, _ := json.Marshal(gin.H{"email": "user@example.org", "password": "test-password"})
	req := httptest.NewRequest(http.MethodPost, "/secure/login/", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := app.do(t, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)

	body, _ = json.Marshal(gin.H{"email": "user@example.org", "password": "wrong"})
	req = httptest.NewRequest(http.MethodPost, "/secure/login/", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w = app.do(t, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSecureTalkAPI(t *testing.T) {
	app := newTestApp(t)
	seedRoles(t, app)
	owner := app.experiment(t, "LHCb")
	other := app.experiment(t, "ATLAS")
	talk := app.talk(t, owner.ID)

	app.user(t, "member@example.org", owner.ID)
	app.user(t, "outsider@example.org", other.ID)

	// Unauthenticated requests are rejected outright.
	w := app.do(t, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/secure/api/talks/%d", talk.ID), nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	memberToken := app.login(t, "member@example.org")
	outsiderToken := app.login(t, "outsider@example.org")

	// Members of another experiment see a 404, not a 403.
	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/secure/api/talks/%d", talk.ID), nil)
	req.Header.Set("Authorization", "Bearer "+outsiderToken)
	w = app.do(t, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	req = httptest.NewRequest(http.MethodGet, fmt.Sprintf("/secure/api/talks/%d/manage-link", talk.ID), nil)
	req.Header.Set("Authorization", "Bearer "+memberToken)
	w = app.do(t, req)
	require.Equal(t, http.StatusOK, w.Code)

	var links services.TalkLinks
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &links))
	assert.Contains(t, links.Upload, talk.UploadKey)

	// A speaker change through the API regenerates the privileged keys.
	body, _ := json.Marshal(gin.H{"speaker": "newspeaker@example.org"})
	req = httptest.NewRequest(http.MethodPut, fmt.Sprintf("/secure/api/talks/%d", talk.ID), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+memberToken)
	w = app.do(t, req)
	require.Equal(t, http.StatusOK, w.Code)
	app.container.Dispatcher.Wait()

	updated, err := app.container.Talks.GetByID(talk.ID)
	require.NoError(t, err)
	assert.NotEqual(t, talk.UploadKey, updated.UploadKey)
	assert.Equal(t, talk.ViewKey, updated.ViewKey)
}

func TestUserAdminRequiresSuperuser(t *testing.T) {
	app := newTestApp(t)
	seedRoles(t, app)
	exp := app.experiment(t, "LHCb")
	app.user(t, "member@example.org", exp.ID)
	app.user(t, "admin@example.org", exp.ID, models.RoleSuperuser)

	req := httptest.NewRequest(http.MethodGet, "/secure/api/users", nil)
	req.Header.Set("Authorization", "Bearer "+app.login(t, "member@example.org"))
	w := app.do(t, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/secure/api/users", nil)
	req.Header.Set("Authorization", "Bearer "+app.login(t, "admin@example.org"))
	w = app.do(t, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCatalogScoping(t *testing.T) {
	app := newTestApp(t)
	seedRoles(t, app)
	owner := app.experiment(t, "LHCb")
	other := app.experiment(t, "ATLAS")

	app.user(t, "member@example.org", owner.ID)

	require.NoError(t, app.db.Create(&models.Category{Name: "Flavour", ExperimentID: owner.ID}).Error)
	foreign := &models.Category{Name: "Top", ExperimentID: other.ID}
	require.NoError(t, app.db.Create(foreign).Error)

	token := app.login(t, "member@example.org")

	req := httptest.NewRequest(http.MethodGet, "/secure/api/categories", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := app.do(t, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Flavour")
	assert.NotContains(t, w.Body.String(), "Top")

	// Foreign rows read as missing.
	req = httptest.NewRequest(http.MethodGet, fmt.Sprintf("/secure/api/categories/%d", foreign.ID), nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = app.do(t, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
