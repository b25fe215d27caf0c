package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"labella/internal/middleware"
	"labella/internal/models"
	"labella/internal/repositories"
	"labella/internal/services"
	"labella/pkg/logger"
)

type testEnv struct {
	app         *fiber.App
	db          *gorm.DB
	productRepo repositories.ProductRepository
	authService *services.AuthService
	uploadDir   string
}

// setupApp wires the whole HTTP surface against an in-memory SQLite database,
// mirroring the production composition.
func setupApp(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
	))

	productRepo := repositories.NewGORMProductRepository(db)
	categoryRepo := repositories.NewGORMCategoryRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)
	userRepo := repositories.NewGORMUserRepository(db)

	log := logger.NewNop()
	productService := services.NewProductService(productRepo)
	categoryService := services.NewCategoryService(categoryRepo, productRepo)
	orderService := services.NewOrderService(orderRepo, productRepo, nil, log)
	authService := services.NewAuthService(userRepo, "test_jwt_secret")

	productHandler := NewProductHandler(productService)
	categoryHandler := NewCategoryHandler(categoryService)
	orderHandler := NewOrderHandler(orderService)
	authHandler := NewAuthHandler(authService)
	uploadDir := t.TempDir()
	uploadHandler := NewUploadHandler(uploadDir)

	app := fiber.New(fiber.Config{BodyLimit: 64 << 20})
	apiV1 := app.Group("/api/v1")

	categoryHandler.RegisterPublicRoutes(apiV1)
	productHandler.RegisterPublicRoutes(apiV1)
	orderHandler.RegisterPublicRoutes(apiV1)
	authHandler.RegisterRoutes(apiV1.Group("/auth"))

	admin := apiV1.Group("/admin", middleware.AuthRequired(authService, log))
	categoryHandler.RegisterAdminRoutes(admin)
	productHandler.RegisterAdminRoutes(admin)
	orderHandler.RegisterAdminRoutes(admin)
	uploadHandler.RegisterRoutes(admin)

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return &testEnv{
		app:         app,
		db:          db,
		productRepo: productRepo,
		authService: authService,
		uploadDir:   uploadDir,
	}
}

func (env *testEnv) seedProduct(t *testing.T, name string, price float64, quantity int, active bool) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:     name,
		Slug:     uuid.New().String(),
		SKU:      "SKU-" + uuid.New().String()[:8],
		Price:    decimal.NewFromFloat(price),
		Quantity: quantity,
		IsActive: active,
	}
	require.NoError(t, env.productRepo.Create(product))
	return product
}

func (env *testEnv) request(t *testing.T, method, path string, body interface{}, token string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(jsonBody)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func (env *testEnv) adminToken(t *testing.T) string {
	t.Helper()

	registerBody := map[string]string{
		"username": "admin",
		"email":    "admin@example.com",
		"password": "password123",
	}
	resp := env.request(t, http.MethodPost, "/api/v1/auth/register", registerBody, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = env.request(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"username": "admin",
		"password": "password123",
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var loginResp map[string]string
	decodeBody(t, resp, &loginResp)
	require.NotEmpty(t, loginResp["token"])
	return loginResp["token"]
}

func placeOrderBody(productID string, quantity int) map[string]interface{} {
	return map[string]interface{}{
		"customer_name":    "Maria Silva",
		"customer_email":   "maria@example.com",
		"shipping_address": "Rua das Flores, 123",
		"shipping_city":    "São Paulo",
		"shipping_state":   "SP",
		"shipping_zip":     "01000-000",
		"items": []map[string]interface{}{
			{"product_id": productID, "quantity": quantity},
		},
	}
}

type orderEnvelope struct {
	Message string       `json:"message"`
	Order   models.Order `json:"order"`
}

func TestCreateOrderEndToEnd(t *testing.T) {
	env := setupApp(t)
	product := env.seedProduct(t, "Vestido Floral", 10.00, 3, true)

	body := placeOrderBody(product.ID, 2)
	body["shipping_cost"] = "5.00"

	resp := env.request(t, http.MethodPost, "/api/v1/orders", body, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created orderEnvelope
	decodeBody(t, resp, &created)
	assert.Equal(t, "Order created successfully", created.Message)
	assert.NotEmpty(t, created.Order.OrderNumber)
	assert.Equal(t, models.OrderStatusPending, created.Order.Status)
	assert.True(t, created.Order.Subtotal.Equal(decimal.NewFromFloat(20.00)), "subtotal: %s", created.Order.Subtotal)
	assert.True(t, created.Order.Total.Equal(decimal.NewFromFloat(25.00)), "total: %s", created.Order.Total)
	require.Len(t, created.Order.Items, 1)
	assert.Equal(t, "Vestido Floral", created.Order.Items[0].ProductName)

	// The stock decrement is part of the same write.
	stored, err := env.productRepo.GetByID(product.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Quantity)

	// Readable by ID and by order number on the public surface.
	resp = env.request(t, http.MethodGet, "/api/v1/orders/"+created.Order.ID, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var byID models.Order
	decodeBody(t, resp, &byID)
	assert.Equal(t, created.Order.ID, byID.ID)

	resp = env.request(t, http.MethodGet, "/api/v1/orders/number/"+created.Order.OrderNumber, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var byNumber models.Order
	decodeBody(t, resp, &byNumber)
	assert.Equal(t, created.Order.ID, byNumber.ID)
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	env := setupApp(t)
	product := env.seedProduct(t, "Vestido Floral", 10.00, 1, true)

	resp := env.request(t, http.MethodPost, "/api/v1/orders", placeOrderBody(product.ID, 2), "")
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var errResp map[string]interface{}
	decodeBody(t, resp, &errResp)
	assert.Equal(t, "Error creating order", errResp["message"])
	assert.Contains(t, errResp["error"], "insufficient stock")

	stored, err := env.productRepo.GetByID(product.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Quantity)

	var orderCount int64
	require.NoError(t, env.db.Model(&models.Order{}).Count(&orderCount).Error)
	assert.Zero(t, orderCount)
}

func TestCreateOrderInactiveProduct(t *testing.T) {
	env := setupApp(t)
	product := env.seedProduct(t, "Vestido Antigo", 10.00, 5, false)

	resp := env.request(t, http.MethodPost, "/api/v1/orders", placeOrderBody(product.ID, 1), "")
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var errResp map[string]interface{}
	decodeBody(t, resp, &errResp)
	assert.Contains(t, errResp["error"], "not available")
}

func TestCreateOrderValidation(t *testing.T) {
	env := setupApp(t)
	product := env.seedProduct(t, "Vestido Floral", 10.00, 5, true)

	// Missing customer_email.
	body := placeOrderBody(product.ID, 1)
	delete(body, "customer_email")
	resp := env.request(t, http.MethodPost, "/api/v1/orders", body, "")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	resp.Body.Close()

	// Unknown product is a request error, not a server error.
	resp = env.request(t, http.MethodPost, "/api/v1/orders", placeOrderBody(uuid.New().String(), 1), "")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	resp.Body.Close()

	// No items.
	body = placeOrderBody(product.ID, 1)
	body["items"] = []map[string]interface{}{}
	resp = env.request(t, http.MethodPost, "/api/v1/orders", body, "")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	resp.Body.Close()
}

func TestGetOrderNotFound(t *testing.T) {
	env := setupApp(t)

	resp := env.request(t, http.MethodGet, "/api/v1/orders/"+uuid.New().String(), nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestPublicProductListingHidesInactive(t *testing.T) {
	env := setupApp(t)
	env.seedProduct(t, "Vestido Ativo", 10.00, 5, true)
	inactive := env.seedProduct(t, "Vestido Inativo", 10.00, 5, false)

	resp := env.request(t, http.MethodGet, "/api/v1/products", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var listResp struct {
		Data  []models.Product `json:"data"`
		Total int64            `json:"total"`
	}
	decodeBody(t, resp, &listResp)
	assert.Equal(t, int64(1), listResp.Total)
	require.Len(t, listResp.Data, 1)
	assert.Equal(t, "Vestido Ativo", listResp.Data[0].Name)

	// An inactive product is not retrievable on the public surface either.
	resp = env.request(t, http.MethodGet, "/api/v1/products/"+inactive.ID, nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestAuthRegisterAndLogin(t *testing.T) {
	env := setupApp(t)

	registerBody := map[string]string{
		"username": "testuser",
		"email":    "test@example.com",
		"password": "password123",
	}
	resp := env.request(t, http.MethodPost, "/api/v1/auth/register", registerBody, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var registerResp map[string]interface{}
	decodeBody(t, resp, &registerResp)
	assert.Equal(t, "User registered successfully", registerResp["message"])

	// Duplicate registration conflicts.
	resp = env.request(t, http.MethodPost, "/api/v1/auth/register", registerBody, "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	resp = env.request(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"username": "testuser",
		"password": "password123",
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var loginResp map[string]string
	decodeBody(t, resp, &loginResp)
	require.NotEmpty(t, loginResp["token"])

	claims, err := env.authService.ValidateToken(loginResp["token"])
	require.NoError(t, err)
	assert.Equal(t, "testuser", claims["username"])

	// Wrong password.
	resp = env.request(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"username": "testuser",
		"password": "wrong",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestAdminRoutesRequireAuth(t *testing.T) {
	env := setupApp(t)

	resp := env.request(t, http.MethodGet, "/api/v1/admin/orders", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = env.request(t, http.MethodPost, "/api/v1/admin/products", map[string]interface{}{
		"name": "Vestido", "price": "10.00",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestAdminOrderManagement(t *testing.T) {
	env := setupApp(t)
	token := env.adminToken(t)
	product := env.seedProduct(t, "Vestido Floral", 10.00, 10, true)

	resp := env.request(t, http.MethodPost, "/api/v1/orders", placeOrderBody(product.ID, 1), "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created orderEnvelope
	decodeBody(t, resp, &created)

	// Listing.
	resp = env.request(t, http.MethodGet, "/api/v1/admin/orders", nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var listResp struct {
		Data  []models.Order `json:"data"`
		Total int64          `json:"total"`
	}
	decodeBody(t, resp, &listResp)
	assert.Equal(t, int64(1), listResp.Total)

	// Status update.
	resp = env.request(t, http.MethodPut, "/api/v1/admin/orders/"+created.Order.ID, map[string]string{
		"status": "shipped",
	}, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated orderEnvelope
	decodeBody(t, resp, &updated)
	assert.Equal(t, models.OrderStatusShipped, updated.Order.Status)

	// A shipped order cannot be deleted.
	resp = env.request(t, http.MethodDelete, "/api/v1/admin/orders/"+created.Order.ID, nil, token)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	resp.Body.Close()

	// Cancelled orders can.
	resp = env.request(t, http.MethodPut, "/api/v1/admin/orders/"+created.Order.ID, map[string]string{
		"status": "cancelled",
	}, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = env.request(t, http.MethodDelete, "/api/v1/admin/orders/"+created.Order.ID, nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = env.request(t, http.MethodGet, "/api/v1/orders/"+created.Order.ID, nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestAdminDiscountUpdateRecomputesTotal(t *testing.T) {
	env := setupApp(t)
	token := env.adminToken(t)
	product := env.seedProduct(t, "Vestido Floral", 10.00, 10, true)

	body := placeOrderBody(product.ID, 2)
	body["shipping_cost"] = "5.00"
	resp := env.request(t, http.MethodPost, "/api/v1/orders", body, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created orderEnvelope
	decodeBody(t, resp, &created)

	resp = env.request(t, http.MethodPut, "/api/v1/admin/orders/"+created.Order.ID, map[string]string{
		"discount": "50.00",
	}, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated orderEnvelope
	decodeBody(t, resp, &updated)

	// Recomputed from the stored subtotal, negative totals allowed.
	assert.True(t, updated.Order.Total.Equal(decimal.NewFromFloat(-25.00)), "total: %s", updated.Order.Total)
}

func TestAdminProductCRUD(t *testing.T) {
	env := setupApp(t)
	token := env.adminToken(t)

	createBody := map[string]interface{}{
		"name":      "Vestido Midi",
		"price":     "149.90",
		"quantity":  8,
		"is_active": true,
	}
	resp := env.request(t, http.MethodPost, "/api/v1/admin/products", createBody, token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		Message string         `json:"message"`
		Product models.Product `json:"product"`
	}
	decodeBody(t, resp, &created)
	require.NotEmpty(t, created.Product.ID)
	assert.Equal(t, "vestido-midi", created.Product.Slug)

	// Rename recomputes the slug.
	resp = env.request(t, http.MethodPut, "/api/v1/admin/products/"+created.Product.ID, map[string]string{
		"name": "Vestido Longo",
	}, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated struct {
		Product models.Product `json:"product"`
	}
	decodeBody(t, resp, &updated)
	assert.Equal(t, "vestido-longo", updated.Product.Slug)

	resp = env.request(t, http.MethodDelete, "/api/v1/admin/products/"+created.Product.ID, nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = env.request(t, http.MethodGet, "/api/v1/admin/products/"+created.Product.ID, nil, token)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestCategoryEndpoints(t *testing.T) {
	env := setupApp(t)
	token := env.adminToken(t)

	resp := env.request(t, http.MethodPost, "/api/v1/admin/categories", map[string]interface{}{
		"name":      "Vestidos de Festa",
		"is_active": true,
	}, token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created struct {
		Category models.Category `json:"category"`
	}
	decodeBody(t, resp, &created)
	assert.Equal(t, "vestidos-de-festa", created.Category.Slug)

	resp = env.request(t, http.MethodGet, "/api/v1/categories", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var categories []models.Category
	decodeBody(t, resp, &categories)
	require.Len(t, categories, 1)
	assert.Equal(t, "Vestidos de Festa", categories[0].Name)

	// Backed by products, deletion conflicts.
	product := env.seedProduct(t, "Vestido Floral", 10.00, 5, true)
	require.NoError(t, env.db.Model(&models.Product{}).
		Where("id = ?", product.ID).
		Update("category_id", created.Category.ID).Error)

	resp = env.request(t, http.MethodDelete, "/api/v1/admin/categories/"+created.Category.ID, nil, token)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
}

type uploadedFile struct {
	name    string
	content []byte
}

func (env *testEnv) multipartRequest(t *testing.T, method, path, field string, files []uploadedFile, token string) *http.Response {
	t.Helper()

	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	for _, f := range files {
		part, err := writer.CreateFormFile(field, f.name)
		require.NoError(t, err)
		_, err = part.Write(f.content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestUploadImageLifecycle(t *testing.T) {
	env := setupApp(t)
	token := env.adminToken(t)

	resp := env.multipartRequest(t, http.MethodPost, "/api/v1/admin/upload/image", "image",
		[]uploadedFile{{name: "vestido.png", content: []byte("png-bytes")}}, token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var uploadResp map[string]interface{}
	decodeBody(t, resp, &uploadResp)
	storedPath, ok := uploadResp["path"].(string)
	require.True(t, ok)
	require.NotEmpty(t, storedPath)

	onDisk := filepath.Join(env.uploadDir, filepath.FromSlash(storedPath))
	_, err := os.Stat(onDisk)
	require.NoError(t, err, "uploaded file must exist under the configured directory")

	// Delete it through the API.
	resp = env.request(t, http.MethodDelete, "/api/v1/admin/upload/image", map[string]string{
		"path": storedPath,
	}, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	_, err = os.Stat(onDisk)
	assert.True(t, os.IsNotExist(err))

	// Deleting again reports not found.
	resp = env.request(t, http.MethodDelete, "/api/v1/admin/upload/image", map[string]string{
		"path": storedPath,
	}, token)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestUploadImageRejectsBadExtension(t *testing.T) {
	env := setupApp(t)
	token := env.adminToken(t)

	resp := env.multipartRequest(t, http.MethodPost, "/api/v1/admin/upload/image", "image",
		[]uploadedFile{{name: "script.txt", content: []byte("not an image")}}, token)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	resp.Body.Close()
}

func TestUploadImageRejectsOversizedFile(t *testing.T) {
	env := setupApp(t)
	token := env.adminToken(t)

	oversized := bytes.Repeat([]byte("a"), 5<<20+1)
	resp := env.multipartRequest(t, http.MethodPost, "/api/v1/admin/upload/image", "image",
		[]uploadedFile{{name: "huge.jpg", content: oversized}}, token)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	resp.Body.Close()
}

func TestUploadImagesMultiFile(t *testing.T) {
	env := setupApp(t)
	token := env.adminToken(t)

	resp := env.multipartRequest(t, http.MethodPost, "/api/v1/admin/upload/images", "images",
		[]uploadedFile{
			{name: "frente.jpg", content: []byte("jpg-bytes")},
			{name: "costas.webp", content: []byte("webp-bytes")},
		}, token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var uploadResp struct {
		Images []map[string]string `json:"images"`
	}
	decodeBody(t, resp, &uploadResp)
	assert.Len(t, uploadResp.Images, 2)

	// More than ten files in one request is rejected.
	var tooMany []uploadedFile
	for i := 0; i < 11; i++ {
		tooMany = append(tooMany, uploadedFile{
			name:    fmt.Sprintf("foto-%d.png", i),
			content: []byte("png-bytes"),
		})
	}
	resp = env.multipartRequest(t, http.MethodPost, "/api/v1/admin/upload/images", "images", tooMany, token)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	resp.Body.Close()
}

func TestDeleteImageIgnoresPathTraversal(t *testing.T) {
	env := setupApp(t)
	token := env.adminToken(t)

	// A file sitting outside the upload directory must be unreachable.
	outside := filepath.Join(filepath.Dir(env.uploadDir), "secret.png")
	require.NoError(t, os.WriteFile(outside, []byte("keep"), 0o644))
	defer os.Remove(outside)

	resp := env.request(t, http.MethodDelete, "/api/v1/admin/upload/image", map[string]string{
		"path": "../secret.png",
	}, token)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	_, err := os.Stat(outside)
	assert.NoError(t, err, "file outside the upload directory must survive")
}
