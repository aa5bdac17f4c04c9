package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/junaidrashid-git/storefront-api/config"
	"github.com/junaidrashid-git/storefront-api/database"
	"github.com/junaidrashid-git/storefront-api/realtime"
	"github.com/junaidrashid-git/storefront-api/repository"
	"github.com/junaidrashid-git/storefront-api/services"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type RoutesTestSuite struct {
	suite.Suite
	router *gin.Engine
	hub    *realtime.Hub
}

func (s *RoutesTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	db, err := database.Open(&config.Config{DBDriver: config.DriverSQLite, SQLitePath: ":memory:"}, zerolog.Nop())
	require.NoError(s.T(), err)
	require.NoError(s.T(), database.Migrate(db))
	s.T().Cleanup(func() { database.Close(db) })

	repo := repository.New(db, false)
	s.hub = realtime.NewHub(zerolog.Nop())
	s.T().Cleanup(s.hub.Close)

	s.router = gin.New()
	SetupRoutes(s.router, Dependencies{
		DB:      db,
		Catalog: services.NewCatalogService(repo, nil, nil, zerolog.Nop()),
		Cart:    services.NewCartService(repo, nil, nil, s.hub, zerolog.Nop()),
		Live:    s.hub,
	})
}

func (s *RoutesTestSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.T(), err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *RoutesTestSuite) decode(w *httptest.ResponseRecorder, v any) {
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func (s *RoutesTestSuite) createCategory(name string) uint {
	w := s.do(http.MethodPost, "/categories", gin.H{"name": name, "description": name + " things"})
	require.Equal(s.T(), http.StatusCreated, w.Code, w.Body.String())
	var out struct{ ID uint }
	s.decode(w, &out)
	require.Equal(s.T(), fmt.Sprintf("/categories/%d", out.ID), w.Header().Get("Location"))
	return out.ID
}

func (s *RoutesTestSuite) createProduct(categoryID uint, name string, price any, stock int) uint {
	w := s.do(http.MethodPost, "/products", gin.H{
		"name": name, "description": name, "price": price, "stock": stock, "categoryId": categoryID,
	})
	require.Equal(s.T(), http.StatusCreated, w.Code, w.Body.String())
	var out struct{ ID uint }
	s.decode(w, &out)
	require.Equal(s.T(), fmt.Sprintf("/products/%d", out.ID), w.Header().Get("Location"))
	return out.ID
}

type summaryBody struct {
	SessionID  string `json:"sessionId"`
	TotalItems int    `json:"totalItems"`
	TotalPrice string `json:"totalPrice"`
	Items      []struct {
		ID       uint `json:"id"`
		Quantity int  `json:"quantity"`
		Product  struct {
			Name     string `json:"name"`
			Category struct {
				Name string `json:"name"`
			} `json:"category"`
		} `json:"product"`
	} `json:"items"`
}

func (s *RoutesTestSuite) cart(sessionID string) summaryBody {
	w := s.do(http.MethodGet, "/cart/"+sessionID, nil)
	require.Equal(s.T(), http.StatusOK, w.Code)
	var out summaryBody
	s.decode(w, &out)
	return out
}

func (s *RoutesTestSuite) TestHealth() {
	w := s.do(http.MethodGet, "/health", nil)
	require.Equal(s.T(), http.StatusOK, w.Code)
	require.JSONEq(s.T(), `{"status":"ok"}`, w.Body.String())
}

func (s *RoutesTestSuite) TestCartFlow() {
	kitchen := s.createCategory("Kitchen")
	teapot := s.createProduct(kitchen, "Teapot", "19.99", 5)
	kettle := s.createProduct(kitchen, "Kettle", 32.99, 3)

	w := s.do(http.MethodPost, "/cart", gin.H{"sessionId": "abc", "productId": teapot, "quantity": 2})
	require.Equal(s.T(), http.StatusOK, w.Code, w.Body.String())
	require.Contains(s.T(), w.Body.String(), "Item added to cart")

	// quantity defaults to 1
	w = s.do(http.MethodPost, "/cart", gin.H{"sessionId": "abc", "productId": kettle})
	require.Equal(s.T(), http.StatusOK, w.Code, w.Body.String())

	summary := s.cart("abc")
	require.Equal(s.T(), "abc", summary.SessionID)
	require.Equal(s.T(), 3, summary.TotalItems)
	require.Equal(s.T(), "72.97", summary.TotalPrice)
	require.Len(s.T(), summary.Items, 2)
	require.Equal(s.T(), "Teapot", summary.Items[0].Product.Name)
	require.Equal(s.T(), "Kitchen", summary.Items[0].Product.Category.Name)

	// merge past stock
	w = s.do(http.MethodPost, "/cart", gin.H{"sessionId": "abc", "productId": teapot, "quantity": 4})
	require.Equal(s.T(), http.StatusBadRequest, w.Code)
	require.Contains(s.T(), w.Body.String(), "insufficient stock")

	w = s.do(http.MethodPost, "/cart", gin.H{"sessionId": "abc", "productId": 9999, "quantity": 1})
	require.Equal(s.T(), http.StatusNotFound, w.Code)

	w = s.do(http.MethodPost, "/cart", gin.H{"sessionId": "abc", "productId": teapot, "quantity": 0})
	require.Equal(s.T(), http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/cart", gin.H{"productId": teapot, "quantity": 1})
	require.Equal(s.T(), http.StatusBadRequest, w.Code)

	itemID := summary.Items[0].ID
	w = s.do(http.MethodPut, fmt.Sprintf("/cart/%d", itemID), gin.H{"quantity": 6})
	require.Equal(s.T(), http.StatusBadRequest, w.Code)
	w = s.do(http.MethodPut, fmt.Sprintf("/cart/%d", itemID), gin.H{"quantity": 0})
	require.Equal(s.T(), http.StatusBadRequest, w.Code)
	w = s.do(http.MethodPut, "/cart/9999", gin.H{"quantity": 1})
	require.Equal(s.T(), http.StatusNotFound, w.Code)
	w = s.do(http.MethodPut, fmt.Sprintf("/cart/%d", itemID), gin.H{"quantity": 5})
	require.Equal(s.T(), http.StatusOK, w.Code)
	require.Equal(s.T(), 6, s.cart("abc").TotalItems)

	w = s.do(http.MethodDelete, fmt.Sprintf("/cart/%d", itemID), nil)
	require.Equal(s.T(), http.StatusOK, w.Code)
	w = s.do(http.MethodDelete, fmt.Sprintf("/cart/%d", itemID), nil)
	require.Equal(s.T(), http.StatusNotFound, w.Code)

	w = s.do(http.MethodDelete, "/cart/clear/abc", nil)
	require.Equal(s.T(), http.StatusOK, w.Code)
	w = s.do(http.MethodDelete, "/cart/clear/abc", nil)
	require.Equal(s.T(), http.StatusOK, w.Code)

	empty := s.cart("abc")
	require.Empty(s.T(), empty.Items)
	require.Zero(s.T(), empty.TotalItems)
	require.Equal(s.T(), "0.00", empty.TotalPrice)
}

func (s *RoutesTestSuite) TestCatalogEndpoints() {
	garden := s.createCategory("Garden")
	rake := s.createProduct(garden, "Rake", "14.00", 3)
	s.createProduct(garden, "hose", "25.00", 2)

	w := s.do(http.MethodPost, "/products", gin.H{"name": "Ghost", "price": "1.00", "categoryId": 9999})
	require.Equal(s.T(), http.StatusBadRequest, w.Code)
	w = s.do(http.MethodPost, "/products", gin.H{"name": "Free", "price": "-1", "categoryId": garden})
	require.Equal(s.T(), http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/products", nil)
	require.Equal(s.T(), http.StatusOK, w.Code)
	var all []struct{ Name string }
	s.decode(w, &all)
	require.Len(s.T(), all, 2)
	require.Equal(s.T(), "Rake", all[0].Name)

	w = s.do(http.MethodGet, "/products/search?query=HOSE", nil)
	require.Equal(s.T(), http.StatusOK, w.Code)
	var found []struct{ Name string }
	s.decode(w, &found)
	require.Len(s.T(), found, 1)
	require.Equal(s.T(), "hose", found[0].Name)

	w = s.do(http.MethodGet, "/products/search", nil)
	require.Equal(s.T(), http.StatusOK, w.Code)
	s.decode(w, &found)
	require.Len(s.T(), found, 2)

	w = s.do(http.MethodGet, fmt.Sprintf("/products/%d", rake), nil)
	require.Equal(s.T(), http.StatusOK, w.Code)
	require.Contains(s.T(), w.Body.String(), `"category":{`)
	require.Equal(s.T(), http.StatusNotFound, s.do(http.MethodGet, "/products/9999", nil).Code)
	require.Equal(s.T(), http.StatusBadRequest, s.do(http.MethodGet, "/products/abc", nil).Code)

	w = s.do(http.MethodGet, "/products/category/4242", nil)
	require.Equal(s.T(), http.StatusOK, w.Code)
	require.JSONEq(s.T(), `[]`, w.Body.String())
	require.Equal(s.T(), http.StatusBadRequest, s.do(http.MethodGet, "/products/category/x", nil).Code)

	w = s.do(http.MethodPatch, fmt.Sprintf("/products/%d/stock", rake), gin.H{"stock": 11})
	require.Equal(s.T(), http.StatusOK, w.Code)
	require.JSONEq(s.T(), fmt.Sprintf(`{"productId":%d,"newStock":11}`, rake), w.Body.String())
	w = s.do(http.MethodPatch, fmt.Sprintf("/products/%d/stock", rake), gin.H{"stock": -1})
	require.Equal(s.T(), http.StatusBadRequest, w.Code)
	w = s.do(http.MethodPatch, "/products/9999/stock", gin.H{"stock": 1})
	require.Equal(s.T(), http.StatusNotFound, w.Code)

	w = s.do(http.MethodPut, fmt.Sprintf("/products/%d", rake), gin.H{"name": "Leaf rake", "price": "15.50", "stock": 4, "categoryId": garden})
	require.Equal(s.T(), http.StatusOK, w.Code)
	require.Contains(s.T(), w.Body.String(), `"price":"15.50"`)
	w = s.do(http.MethodPut, "/products/9999", gin.H{"name": "x", "price": "1", "categoryId": garden})
	require.Equal(s.T(), http.StatusNotFound, w.Code)

	w = s.do(http.MethodPut, fmt.Sprintf("/categories/%d", garden), gin.H{"name": "Yard"})
	require.Equal(s.T(), http.StatusOK, w.Code)
	require.Equal(s.T(), http.StatusNotFound, s.do(http.MethodPut, "/categories/9999", gin.H{"name": "x"}).Code)

	w = s.do(http.MethodGet, "/categories", nil)
	require.Equal(s.T(), http.StatusOK, w.Code)
	var categories []struct {
		Name     string
		Products []struct{ Name string }
	}
	s.decode(w, &categories)
	require.Len(s.T(), categories, 1)
	require.Equal(s.T(), "Yard", categories[0].Name)
	require.Len(s.T(), categories[0].Products, 2)

	w = s.do(http.MethodDelete, fmt.Sprintf("/products/%d", rake), nil)
	require.Equal(s.T(), http.StatusOK, w.Code)
	require.Equal(s.T(), http.StatusNotFound, s.do(http.MethodDelete, fmt.Sprintf("/products/%d", rake), nil).Code)
}

func (s *RoutesTestSuite) TestDeleteCategoryCascadesIntoCarts() {
	doomed := s.createCategory("Doomed")
	p := s.createProduct(doomed, "Widget", "3.00", 10)
	require.Equal(s.T(), http.StatusOK, s.do(http.MethodPost, "/cart", gin.H{"sessionId": "s1", "productId": p, "quantity": 2}).Code)

	w := s.do(http.MethodDelete, fmt.Sprintf("/categories/%d", doomed), nil)
	require.Equal(s.T(), http.StatusOK, w.Code)
	require.Contains(s.T(), w.Body.String(), "message")

	require.Equal(s.T(), http.StatusNotFound, s.do(http.MethodGet, fmt.Sprintf("/categories/%d", doomed), nil).Code)
	require.Equal(s.T(), http.StatusNotFound, s.do(http.MethodGet, fmt.Sprintf("/products/%d", p), nil).Code)
	require.Empty(s.T(), s.cart("s1").Items)
	require.Equal(s.T(), http.StatusNotFound, s.do(http.MethodDelete, fmt.Sprintf("/categories/%d", doomed), nil).Code)
}

func (s *RoutesTestSuite) TestExportImport() {
	books := s.createCategory("Books")
	s.createProduct(books, "Go in Action", "32.99", 4)

	w := s.do(http.MethodGet, "/products/export", nil)
	require.Equal(s.T(), http.StatusOK, w.Code)
	require.Equal(s.T(), "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", w.Header().Get("Content-Type"))
	exported := w.Body.Bytes()
	require.NotEmpty(s.T(), exported)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "products.xlsx")
	require.NoError(s.T(), err)
	_, err = part.Write(exported)
	require.NoError(s.T(), err)
	require.NoError(s.T(), mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/products/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(s.T(), http.StatusOK, w.Code, w.Body.String())
	require.JSONEq(s.T(), `{"message":"Import completed","createdCount":0,"updatedCount":1,"skippedCount":0}`, w.Body.String())

	w = s.do(http.MethodPost, "/products/import", nil)
	require.Equal(s.T(), http.StatusBadRequest, w.Code)
}

func (s *RoutesTestSuite) TestCartWebSocketReceivesUpdates() {
	kitchen := s.createCategory("Kitchen")
	teapot := s.createProduct(kitchen, "Teapot", "19.99", 5)

	srv := httptest.NewServer(s.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/cart/live/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(s.T(), err)
	defer conn.Close()

	var initial summaryBody
	require.NoError(s.T(), conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(s.T(), conn.ReadJSON(&initial))
	require.Equal(s.T(), "live", initial.SessionID)
	require.Zero(s.T(), initial.TotalItems)

	require.Eventually(s.T(), func() bool { return s.hub.Watching("live") }, time.Second, 10*time.Millisecond)

	w := s.do(http.MethodPost, "/cart", gin.H{"sessionId": "live", "productId": teapot, "quantity": 2})
	require.Equal(s.T(), http.StatusOK, w.Code)

	var pushed summaryBody
	require.NoError(s.T(), conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(s.T(), conn.ReadJSON(&pushed))
	require.Equal(s.T(), 2, pushed.TotalItems)
	require.Equal(s.T(), "39.98", pushed.TotalPrice)

	require.Equal(s.T(), http.StatusBadRequest, s.do(http.MethodGet, "/cart/live/ws", nil).Code)
}

func TestRoutesTestSuite(t *testing.T) {
	suite.Run(t, new(RoutesTestSuite))
}
