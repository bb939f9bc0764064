package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"shop-catalog/internal/config"
	"shop-catalog/internal/domain"
	"shop-catalog/internal/middleware"
	"shop-catalog/internal/repository"
	"shop-catalog/internal/repository/repotest"
	"shop-catalog/internal/service"
	"shop-catalog/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testJWT = config.JWTConfig{Secret: "test-secret", AccessExpiry: 15, RefreshExpiry: 7}

var pngData = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), bytes.Repeat([]byte{0}, 32)...)

type testAPI struct {
	router     chi.Router
	store      *repotest.Store
	images     *storage.LocalStore
	users      service.UserService
	categories service.CategoryService
	products   service.ProductService
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	images, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	store := repotest.New()
	tx := repotest.TxManager{}
	logger := zap.NewNop()

	api := &testAPI{
		router:     chi.NewRouter(),
		store:      store,
		images:     images,
		users:      service.NewUserService(store.Users(), store.RefreshTokens(), tx, testJWT),
		categories: service.NewCategoryService(store.Categories(), store.Products(), tx),
		products:   service.NewProductService(store.Products(), store.Categories(), store.Images(), images, tx, logger),
	}
	imageService := service.NewImageService(store.Products(), store.Images(), images, tx, 1<<10, logger)

	auth := middleware.AuthMiddleware(api.users, logger)
	NewUserHandler(api.users, logger).RegisterRoutes(api.router, auth, nil)
	NewCategoryHandler(api.categories, logger).RegisterRoutes(api.router, auth)
	NewProductHandler(api.products, logger).RegisterRoutes(api.router, auth)
	NewImageHandler(imageService, 1<<20, logger).RegisterRoutes(api.router)

	return api
}

// login registers username, grants roles and returns an access token
func (a *testAPI) login(t *testing.T, username string, roles ...domain.Role) (string, *domain.User) {
	t.Helper()
	ctx := context.Background()

	_, err := a.users.Register(ctx, service.RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "secret-pass",
	})
	require.NoError(t, err)
	for _, r := range roles {
		_, err := a.users.GrantRole(ctx, username, r)
		require.NoError(t, err)
	}

	token, _, user, err := a.users.Login(ctx, username, "secret-pass")
	require.NoError(t, err)
	return token, user
}

func (a *testAPI) category(t *testing.T, name string) *domain.Category {
	t.Helper()
	c, err := a.categories.Create(context.Background(), service.CategoryInput{Name: name})
	require.NoError(t, err)
	return c
}

func (a *testAPI) product(t *testing.T, name string, categoryID int64) *domain.Product {
	t.Helper()
	p, err := a.products.Create(context.Background(), service.CreateProductInput{
		Name:       name,
		Mark:       "Acme",
		Quantity:   4,
		UnitPrice:  12.5,
		CategoryID: &categoryID,
	})
	require.NoError(t, err)
	return p
}

func (a *testAPI) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testAPI) upload(t *testing.T, method, path string, filename string, data []byte) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if data != nil {
		part, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	} else {
		require.NoError(t, mw.WriteField("note", "no file"))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

// signedToken builds an access token for arbitrary claims without touching the store
func signedToken(t *testing.T, userID int64, roles []string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": strconv.FormatInt(userID, 10),
		"roles":   roles,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testJWT.Secret))
	require.NoError(t, err)
	return signed
}

func decodeObject(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func decodeList(t *testing.T, w *httptest.ResponseRecorder) []map[string]interface{} {
	t.Helper()
	var body []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func keys(m map[string]interface{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	msg, _ := decodeObject(t, w)["error"].(string)
	return msg
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func listAll() repository.ProductFilter {
	return repository.ProductFilter{Page: 1, PageSize: 100}
}
