package web

import (
	"context"
	"image/png"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/shramba/internal/auth"
	"github.com/erazemk/shramba/internal/db"
	"github.com/erazemk/shramba/internal/inventory"
	"github.com/erazemk/shramba/internal/model"
)

var fixedNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

type testApp struct {
	handler   http.Handler
	inventory *inventory.Service
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	database := db.NewTestDB(t)

	authService := auth.NewService(database, "test-secret", time.Hour)
	authService.Cost = bcrypt.MinCost

	inventoryService := inventory.NewService(database)
	inventoryService.Now = func() time.Time { return fixedNow }

	h, err := NewRouter(authService, inventoryService, false)
	require.NoError(t, err)
	return &testApp{handler: h, inventory: inventoryService}
}

func (a *testApp) get(path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) post(path string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookie {
			return c
		}
	}
	return nil
}

func credentials(username, password string) url.Values {
	return url.Values{"username": {username}, "password": {password}}
}

func itemForm(name, quantity, category, expiration string) url.Values {
	return url.Values{
		"name":            {name},
		"quantity":        {quantity},
		"category":        {category},
		"expiration_date": {expiration},
	}
}

// signUp registers and logs in a user, returning the session cookie.
func (a *testApp) signUp(t *testing.T, username string) *http.Cookie {
	t.Helper()

	rec := a.post("/register", credentials(username, "secret"), nil)
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	require.Equal(t, "/login", rec.Header().Get("Location"))

	rec = a.post("/login", credentials(username, "secret"), nil)
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	require.Equal(t, "/", rec.Header().Get("Location"))

	cookie := sessionCookie(rec)
	require.NotNil(t, cookie)
	return cookie
}

func (a *testApp) itemsOf(t *testing.T, userID int64) []model.ItemView {
	t.Helper()
	items, err := a.inventory.ListItems(context.Background(), userID)
	require.NoError(t, err)
	return items
}

func TestRegisterLoginAndAddItem(t *testing.T) {
	app := newTestApp(t)
	cookie := app.signUp(t, "alice")

	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
	assert.False(t, cookie.Secure)

	rec := app.post("/add", itemForm("Milk", "2", "Dairy", "2024-03-12"), cookie)
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	assert.Equal(t, "/", rec.Header().Get("Location"))

	rec = app.get("/", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Milk")
	assert.Contains(t, body, "2024-03-12")
	assert.Contains(t, body, `class="expiring"`)
	assert.Contains(t, body, "1 item(s) expiring within 3 days")
}

func TestProtectedRoutesRedirectToLogin(t *testing.T) {
	app := newTestApp(t)

	for _, path := range []string{"/", "/add", "/edit/1", "/delete/1", "/logout", "/dashboard", "/dashboard/chart.png"} {
		rec := app.get(path, nil)
		assert.Equal(t, http.StatusSeeOther, rec.Code, path)
		assert.Equal(t, "/login", rec.Header().Get("Location"), path)
	}

	rec := app.get("/", &http.Cookie{Name: SessionCookie, Value: "garbage"})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestLogoutRevokesSession(t *testing.T) {
	app := newTestApp(t)
	cookie := app.signUp(t, "alice")

	rec := app.get("/logout", cookie)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	cleared := sessionCookie(rec)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)

	// Replaying the old cookie no longer works.
	rec = app.get("/", cookie)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestRegisterDuplicateUsername(t *testing.T) {
	app := newTestApp(t)
	app.signUp(t, "alice")

	rec := app.post("/register", credentials("alice", "other"), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "already taken")
}

func TestRegisterValidation(t *testing.T) {
	app := newTestApp(t)

	rec := app.post("/register", credentials("", "secret"), nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "username is required")
}

func TestLoginInvalidCredentials(t *testing.T) {
	app := newTestApp(t)
	app.signUp(t, "alice")

	rec := app.post("/login", credentials("alice", "wrong"), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, sessionCookie(rec))
	assert.Contains(t, rec.Body.String(), "Invalid username or password")

	rec = app.post("/login", credentials("nobody", "secret"), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMalformedFormsRejected(t *testing.T) {
	app := newTestApp(t)
	cookie := app.signUp(t, "alice")

	form := itemForm("Milk", "1", "", "")
	form.Set("owner", "bob")
	rec := app.post("/add", form, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = app.post("/add", url.Values{"name": {"Milk"}}, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = app.post("/login", url.Values{"username": {"alice"}}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddItemValidationRerendersForm(t *testing.T) {
	app := newTestApp(t)
	cookie := app.signUp(t, "alice")

	rec := app.post("/add", itemForm("", "-3", "Dairy", "tomorrow"), cookie)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "name is required")
	assert.Contains(t, body, `value="Dairy"`)
	assert.Contains(t, body, `value="tomorrow"`)
}

func TestEditAndDeleteItem(t *testing.T) {
	app := newTestApp(t)
	cookie := app.signUp(t, "alice")

	rec := app.post("/add", itemForm("Milk", "1", "Dairy", ""), cookie)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	items := app.itemsOf(t, 1)
	require.Len(t, items, 1)
	id := items[0].ID
	path := "/edit/" + itoa(id)

	rec = app.get(path, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `value="Milk"`)

	rec = app.post(path, itemForm("Oat milk", "4", "Dairy", "2024-04-01"), cookie)
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())

	items = app.itemsOf(t, 1)
	require.Len(t, items, 1)
	assert.Equal(t, "Oat milk", items[0].Name)
	assert.Equal(t, 4, items[0].Quantity)
	assert.Equal(t, "2024-04-01", items[0].ExpirationString())

	rec = app.post(path, itemForm("Oat milk", "lots", "Dairy", ""), cookie)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = app.get("/delete/"+itoa(id), cookie)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Empty(t, app.itemsOf(t, 1))

	rec = app.get("/delete/"+itoa(id), cookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = app.get("/edit/abc", cookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestForeignItemsAreNotFound(t *testing.T) {
	app := newTestApp(t)
	alice := app.signUp(t, "alice")
	bob := app.signUp(t, "bob")

	rec := app.post("/add", itemForm("Milk", "1", "Dairy", ""), alice)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	id := itoa(app.itemsOf(t, 1)[0].ID)

	rec = app.get("/", bob)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "Milk")

	assert.Equal(t, http.StatusNotFound, app.get("/edit/"+id, bob).Code)
	assert.Equal(t, http.StatusNotFound, app.post("/edit/"+id, itemForm("Stolen", "9", "", ""), bob).Code)
	assert.Equal(t, http.StatusNotFound, app.post("/edit/"+id, itemForm("", "", "", ""), bob).Code)
	assert.Equal(t, http.StatusNotFound, app.get("/delete/"+id, bob).Code)

	items := app.itemsOf(t, 1)
	require.Len(t, items, 1)
	assert.Equal(t, "Milk", items[0].Name)
	assert.Equal(t, 1, items[0].Quantity)
}

func TestDashboard(t *testing.T) {
	app := newTestApp(t)
	cookie := app.signUp(t, "alice")

	rec := app.get("/dashboard", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No items yet")

	for _, f := range []url.Values{
		itemForm("Milk", "1", "Dairy", ""),
		itemForm("Eggs", "12", "Dairy", ""),
		itemForm("Salt", "1", "", ""),
	} {
		require.Equal(t, http.StatusSeeOther, app.post("/add", f, cookie).Code)
	}

	rec = app.get("/dashboard", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Dairy")
	assert.Contains(t, body, model.UncategorizedLabel)
	assert.Contains(t, body, "/dashboard/chart.png")
	assert.Less(t, strings.Index(body, "Dairy"), strings.Index(body, model.UncategorizedLabel))

	rec = app.get("/dashboard/chart.png", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	_, err := png.Decode(rec.Body)
	assert.NoError(t, err)
}

func TestStaticAndNotFound(t *testing.T) {
	app := newTestApp(t)

	rec := app.get("/static/style.css", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/css")

	rec = app.get("/no-such-page", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLoggingMiddlewareRecordsPanics(t *testing.T) {
	r := chi.NewRouter()
	r.Use(LoggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Get("/panic", func(http.ResponseWriter, *http.Request) { panic("boom") })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func TestEditMissingItemIgnoresBody(t *testing.T) {
	app := newTestApp(t)
	alice := app.signUp(t, "alice")
	bob := app.signUp(t, "bob")

	rec := app.post("/edit/99999", url.Values{"name": {"Milk"}}, alice)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	require.Equal(t, http.StatusSeeOther, app.post("/add", itemForm("Milk", "1", "", ""), alice).Code)
	id := itoa(app.itemsOf(t, 1)[0].ID)

	rec = app.post("/edit/"+id, url.Values{"name": {"Stolen"}}, bob)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = app.post("/edit/"+id, url.Values{"name": {"Milk"}}, alice)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoggingMiddlewareSupportsFlush(t *testing.T) {
	h := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		assert.NoError(t, http.NewResponseController(w).Flush())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.True(t, rec.Flushed)
}
