package tour

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tourika/audiotour/internal/app/common"
	"github.com/tourika/audiotour/internal/app/models"
)

// --- Mocks for Dependencies ---

type MockTourService struct {
	mock.Mock
}

func (m *MockTourService) ListTours(ctx context.Context, filter models.TourFilter, page, limit int) ([]models.Tour, int, error) {
	args := m.Called(ctx, filter, page, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]models.Tour), args.Int(1), args.Error(2)
}

func (m *MockTourService) GetTour(ctx context.Context, id uuid.UUID) (*models.Tour, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tour), args.Error(1)
}

func (m *MockTourService) CreateTour(ctx context.Context, req models.CreateTourRequest) (*models.Tour, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tour), args.Error(1)
}

func (m *MockTourService) UpdateTour(ctx context.Context, id uuid.UUID, req models.UpdateTourRequest) (*models.Tour, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tour), args.Error(1)
}

func (m *MockTourService) DeleteTour(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockEntitlementService struct {
	mock.Mock
}

func (m *MockEntitlementService) AccessForDevice(ctx context.Context, deviceID string, tour *models.Tour) (*models.Access, error) {
	args := m.Called(ctx, deviceID, tour)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Access), args.Error(1)
}

func (m *MockEntitlementService) PurchaseTour(ctx context.Context, req models.PurchaseRequest) (*models.PurchaseResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PurchaseResult), args.Error(1)
}

func (m *MockEntitlementService) RestorePurchases(ctx context.Context, req models.RestoreRequest) ([]models.Purchase, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Purchase), args.Error(1)
}

func (m *MockEntitlementService) GetStatus(ctx context.Context, transactionID string) (*models.PaymentStatus, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentStatus), args.Error(1)
}

func (m *MockEntitlementService) ListUserPurchases(ctx context.Context, deviceID string) ([]models.Purchase, error) {
	args := m.Called(ctx, deviceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Purchase), args.Error(1)
}

func newTestRouter(service Service, entitlement *MockEntitlementService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	respond := common.NewResponder(logger, false)
	handler := NewHandler(service, entitlement, respond, logger)

	r := gin.New()
	r.GET("/api/tours", handler.List)
	r.GET("/api/tours/:id", handler.Get)
	r.POST("/api/tours", handler.Create)
	r.PUT("/api/tours/:id", handler.Update)
	r.DELETE("/api/tours/:id", handler.Delete)
	return r
}

func TestCreateTourEndpoint(t *testing.T) {
	service := new(MockTourService)
	router := newTestRouter(service, new(MockEntitlementService))

	created := &models.Tour{
		ID:         uuid.New(),
		Title:      "Old Town Walk",
		PriceCents: 1000,
		Attributes: []string{},
		POIs:       []models.POI{},
	}
	service.On("CreateTour", mock.Anything, mock.MatchedBy(func(req models.CreateTourRequest) bool {
		return req.Title == "Old Town Walk" && req.PriceCents == 1000
	})).Return(created, nil).Once()

	body, _ := json.Marshal(map[string]any{
		"title":       "Old Town Walk",
		"description": "A walk through the old town",
		"priceCents":  1000,
		"attributes":  []string{},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/tours", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var resp models.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "Tour created successfully", resp.Message)
	assert.NotZero(t, resp.Timestamp)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, created.ID.String(), data["id"])
	assert.Equal(t, float64(1000), data["priceCents"])
	assert.Equal(t, []any{}, data["attributes"])
	assert.Equal(t, []any{}, data["pois"])

	service.AssertExpectations(t)
}

func TestCreateTourValidation(t *testing.T) {
	service := new(MockTourService)
	router := newTestRouter(service, new(MockEntitlementService))

	// missing required title
	body, _ := json.Marshal(map[string]any{
		"description": "No title here",
		"priceCents":  500,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/tours", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp models.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	service.AssertNotCalled(t, "CreateTour")
}

func TestGetTourEndpoint(t *testing.T) {
	t.Run("WithoutDeviceReturnsFullTour", func(t *testing.T) {
		service := new(MockTourService)
		router := newTestRouter(service, new(MockEntitlementService))

		tourID := uuid.New()
		tour := &models.Tour{
			ID:    tourID,
			Title: "Old Town Walk",
			POIs: []models.POI{
				{ID: uuid.New(), TourID: tourID, IsFree: true, OrderIndex: 0},
				{ID: uuid.New(), TourID: tourID, IsFree: false, OrderIndex: 1},
			},
		}
		service.On("GetTour", mock.Anything, tourID).Return(tour, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/tours/"+tourID.String(), nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var resp models.APIResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		data := resp.Data.(map[string]any)
		userAccess := data["userAccess"].(map[string]any)
		assert.Equal(t, false, userAccess["hasPurchased"])
		assert.Equal(t, float64(1), userAccess["freeAccessCount"])
		pois := data["tour"].(map[string]any)["pois"].([]any)
		assert.Len(t, pois, 2)
	})

	t.Run("WithDeviceTrimsToVisiblePOIs", func(t *testing.T) {
		service := new(MockTourService)
		entitlement := new(MockEntitlementService)
		router := newTestRouter(service, entitlement)

		tourID := uuid.New()
		freePOI := models.POI{ID: uuid.New(), TourID: tourID, IsFree: true, OrderIndex: 0}
		tour := &models.Tour{
			ID:    tourID,
			Title: "Old Town Walk",
			POIs: []models.POI{
				freePOI,
				{ID: uuid.New(), TourID: tourID, IsFree: false, OrderIndex: 1},
			},
		}
		service.On("GetTour", mock.Anything, tourID).Return(tour, nil).Once()
		entitlement.On("AccessForDevice", mock.Anything, "device-1", tour).
			Return(&models.Access{HasFullAccess: false, VisiblePOIs: []models.POI{freePOI}}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/tours/"+tourID.String()+"?deviceId=device-1", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var resp models.APIResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		data := resp.Data.(map[string]any)
		pois := data["tour"].(map[string]any)["pois"].([]any)
		require.Len(t, pois, 1)
		assert.Equal(t, freePOI.ID.String(), pois[0].(map[string]any)["id"])
		entitlement.AssertExpectations(t)
	})

	t.Run("UnknownTourIs404", func(t *testing.T) {
		service := new(MockTourService)
		router := newTestRouter(service, new(MockEntitlementService))

		tourID := uuid.New()
		service.On("GetTour", mock.Anything, tourID).Return(nil, models.ErrNotFound).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/tours/"+tourID.String(), nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("MalformedIDIs400", func(t *testing.T) {
		router := newTestRouter(new(MockTourService), new(MockEntitlementService))

		req := httptest.NewRequest(http.MethodGet, "/api/tours/not-a-uuid", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestListToursRejectsMalformedPriceBounds(t *testing.T) {
	service := new(MockTourService)
	router := newTestRouter(service, new(MockEntitlementService))

	for _, query := range []string{"minPrice=12abc", "maxPrice=1e3", "minPrice=twelve"} {
		req := httptest.NewRequest(http.MethodGet, "/api/tours?"+query, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code, query)
	}
	service.AssertNotCalled(t, "ListTours")
}

func TestListToursEndpoint(t *testing.T) {
	service := new(MockTourService)
	router := newTestRouter(service, new(MockEntitlementService))

	tours := []models.Tour{{ID: uuid.New(), Title: "Old Town Walk", Attributes: []string{}, POIs: []models.POI{}}}
	service.On("ListTours", mock.Anything, mock.MatchedBy(func(f models.TourFilter) bool {
		return f.MinPrice != nil && *f.MinPrice == 500 && f.MaxPrice != nil && *f.MaxPrice == 1500
	}), 2, 5).Return(tours, 11, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/tours?page=2&limit=5&minPrice=500&maxPrice=1500", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp models.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]any)
	assert.Equal(t, float64(11), data["total"])
	assert.Equal(t, float64(2), data["page"])
	assert.Equal(t, float64(3), data["totalPages"])
	service.AssertExpectations(t)
}
