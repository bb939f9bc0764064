package transport

import (
	"context"
	"net/http"
	"testing"

	"shop-catalog/internal/domain"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryHandler_ListCarriesProductCount(t *testing.T) {
	api := newTestAPI(t)
	shoes := api.category(t, "Shoes")
	api.category(t, "Hats")
	api.product(t, "Runner", shoes.ID)
	api.product(t, "Trail", shoes.ID)

	w := api.do(t, http.MethodGet, "/api/categories", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	list := decodeList(t, w)
	require.Len(t, list, 2)
	assert.ElementsMatch(t, []string{"id", "name", "slug", "productCount"}, keys(list[0]))

	counts := map[string]float64{}
	for _, c := range list {
		counts[c["name"].(string)] = c["productCount"].(float64)
	}
	assert.Equal(t, map[string]float64{"Shoes": 2, "Hats": 0}, counts)
}

func TestCategoryHandler_Get(t *testing.T) {
	api := newTestAPI(t)
	shoes := api.category(t, "Shoes")
	api.product(t, "Runner", shoes.ID)

	w := api.do(t, http.MethodGet, "/api/categories/"+itoa(shoes.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeObject(t, w)
	assert.ElementsMatch(t, []string{"id", "name", "slug", "createdAt", "updatedAt", "products", "productCount"}, keys(body))

	products := body["products"].([]interface{})
	require.Len(t, products, 1)
	product := products[0].(map[string]interface{})
	assert.NotContains(t, product, "images")
	assert.NotContains(t, product, "category")
	assert.Equal(t, "Runner", product["name"])
}

func TestCategoryHandler_NotFound(t *testing.T) {
	api := newTestAPI(t)

	for _, path := range []string{"/api/categories/999", "/api/categories/abc"} {
		w := api.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
		assert.Equal(t, "Category not found", errorOf(t, w))
	}
}

func TestCategoryHandler_CreateDerivesSlug(t *testing.T) {
	api := newTestAPI(t)
	token, _ := api.login(t, "admin", domain.RoleSuperAdmin)

	w := api.do(t, http.MethodPost, "/api/categories", token, map[string]string{"name": "Summer Shoes"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body := decodeObject(t, w)
	assert.ElementsMatch(t, []string{"id", "name", "slug", "createdAt", "updatedAt"}, keys(body))
	assert.Equal(t, "summer-shoes", body["slug"])
}

func TestCategoryHandler_CreateValidation(t *testing.T) {
	api := newTestAPI(t)
	token, _ := api.login(t, "admin", domain.RoleSuperAdmin)

	w := api.do(t, http.MethodPost, "/api/categories", token, map[string]string{"name": "  "})
	require.Equal(t, http.StatusBadRequest, w.Code)

	body := decodeObject(t, w)
	assert.Equal(t, "Validation failed", body["error"])
	assert.Contains(t, body, "details")

	w = api.do(t, http.MethodPost, "/api/categories", token, `{"name":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid input data", errorOf(t, w))
}

func TestCategoryHandler_WritesNeedSuperAdmin(t *testing.T) {
	api := newTestAPI(t)
	editor, _ := api.login(t, "editor", domain.RoleEdit, domain.RoleGrantEdit)

	w := api.do(t, http.MethodPost, "/api/categories", "", map[string]string{"name": "Shoes"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do(t, http.MethodPost, "/api/categories", editor, map[string]string{"name": "Shoes"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Access denied.", errorOf(t, w))

	list, err := api.categories.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCategoryHandler_UpdateIgnoresProducts(t *testing.T) {
	api := newTestAPI(t)
	token, _ := api.login(t, "admin", domain.RoleSuperAdmin)
	shoes := api.category(t, "Shoes")
	api.product(t, "Runner", shoes.ID)

	w := api.do(t, http.MethodPatch, "/api/categories/"+itoa(shoes.ID), token,
		`{"name":"Footwear","products":[]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decodeObject(t, w)
	assert.Equal(t, "Footwear", body["name"])
	assert.Equal(t, "shoes", body["slug"])
	assert.NotContains(t, body, "products")

	count, err := api.store.Categories().CountProducts(context.Background(), shoes.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCategoryHandler_Delete(t *testing.T) {
	api := newTestAPI(t)
	token, _ := api.login(t, "admin", domain.RoleSuperAdmin)
	shoes := api.category(t, "Shoes")
	hats := api.category(t, "Hats")
	api.product(t, "Runner", shoes.ID)

	w := api.do(t, http.MethodDelete, "/api/categories/"+itoa(shoes.ID), token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Category still has products", errorOf(t, w))

	w = api.do(t, http.MethodDelete, "/api/categories/"+itoa(hats.ID), token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = api.do(t, http.MethodGet, "/api/categories/"+itoa(hats.ID), "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProperty_RejectedCategoryWritesLeaveNoTrace(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("callers without ROLE_SUPER_ADMIN always get 403 and nothing is stored", prop.ForAll(
		func(roles []string, name string) bool {
			api := newTestAPI(t)
			token := signedToken(t, 42, roles)

			w := api.do(t, http.MethodPost, "/api/categories", token, map[string]string{"name": name})
			if w.Code != http.StatusForbidden {
				return false
			}

			list, err := api.categories.List(context.Background())
			return err == nil && len(list) == 0
		},
		gen.SliceOf(gen.OneConstOf("ROLE_USER", "ROLE_EDIT", "ROLE_GRANT_EDIT")),
		gen.AlphaString(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
