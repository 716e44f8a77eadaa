package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ispdesk/ops-console/internal/api/http/handlers"
	"github.com/ispdesk/ops-console/internal/auth"
	"github.com/ispdesk/ops-console/internal/domain"
	"github.com/ispdesk/ops-console/internal/events"
	"github.com/ispdesk/ops-console/internal/observability"
	"github.com/ispdesk/ops-console/internal/repository/memory"
	"github.com/ispdesk/ops-console/internal/service"
)

type testServer struct {
	app    *fiber.App
	tokens *auth.TokenManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zap.NewNop()
	store := memory.NewStore()
	authz, err := auth.NewCasbinAuthorizer("", logger)
	require.NoError(t, err)
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)

	categories := service.NewCategoryService(service.CategoryDependencies{CategoryRepo: store.Categories(), Authorizer: authz})
	tickets := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  store.Tickets(),
		CommentRepo: store.Comments(),
		Categories:  categories,
		Authorizer:  authz,
		Dispatcher:  dispatcher,
		Metrics:     metrics,
	})
	comments := service.NewCommentService(service.CommentDependencies{
		TicketRepo:  store.Tickets(),
		CommentRepo: store.Comments(),
		Authorizer:  authz,
		Dispatcher:  dispatcher,
	})

	tokens := auth.NewTokenManager("test-secret", 5)
	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, 5*time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("ops-console", "test", nil),
		Tickets:        handlers.NewTicketsHandler(tickets, comments),
		Categories:     handlers.NewCategoriesHandler(categories),
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
		Metrics:        metrics,
	})
	return &testServer{app: app, tokens: tokens}
}

func (s *testServer) token(t *testing.T, role domain.EmployeeRole) string {
	t.Helper()
	token, _, err := s.tokens.GenerateToken(domain.Employee{ID: "emp-" + string(role), Name: "Test " + string(role), Role: role})
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	payload := map[string]any{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &payload))
	}
	return resp.StatusCode, payload
}

func errorCode(payload map[string]any) string {
	errObj, _ := payload["error"].(map[string]any)
	code, _ := errObj["code"].(string)
	return code
}

func TestTicketWorkflowOverHTTP(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(t, domain.EmployeeRoleAdmin)
	tech := s.token(t, domain.EmployeeRoleTechnician)

	status, body := s.do(t, http.MethodPost, "/api/v1/categories/seed", admin, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 5.0, body["data"].(map[string]any)["inserted"])

	status, body = s.do(t, http.MethodPost, "/api/v1/tickets", admin, map[string]any{
		"title":    "Customer offline",
		"category": "internet_issue",
	})
	require.Equal(t, http.StatusCreated, status)
	ticket := body["data"].(map[string]any)
	id := ticket["id"].(string)
	assert.Equal(t, "OPEN", ticket["status"])
	assert.NotNil(t, ticket["due_date"])
	assert.Equal(t, false, ticket["is_overdue"])
	assert.Equal(t, []any{"assign", "escalate"}, ticket["available_operations"])

	status, body = s.do(t, http.MethodPost, "/api/v1/tickets/"+id+"/close", tech, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "INVALID_TRANSITION", errorCode(body))

	status, body = s.do(t, http.MethodPost, "/api/v1/tickets/"+id+"/assign", tech, map[string]any{"assignee": "Jane"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", errorCode(body))

	status, _ = s.do(t, http.MethodPost, "/api/v1/tickets/"+id+"/assign", admin, map[string]any{"assignee": "Jane"})
	require.Equal(t, http.StatusOK, status)

	status, body = s.do(t, http.MethodPost, "/api/v1/tickets/"+id+"/escalate", tech, map[string]any{"reason": "Backbone outage", "assignee": "NOC Team"})
	require.Equal(t, http.StatusOK, status)
	escalation := body["data"].(map[string]any)
	assert.Equal(t, "HIGH", escalation["ticket"].(map[string]any)["priority"])
	assert.Equal(t, "NOC Team", escalation["ticket"].(map[string]any)["assigned_to"])
	assert.Equal(t, "[ESCALATION] Reason: Backbone outage\nReassigned to: NOC Team", escalation["comment"].(map[string]any)["content"])
	assert.Equal(t, true, escalation["comment"].(map[string]any)["is_escalation"])

	status, body = s.do(t, http.MethodPost, "/api/v1/tickets/"+id+"/comments", tech, map[string]any{"content": "On site"})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "Test TECHNICIAN", body["data"].(map[string]any)["author_name"])

	status, body = s.do(t, http.MethodPost, "/api/v1/tickets/"+id+"/comments", tech, map[string]any{"content": "[ESCALATION] Reason: fake", "author_name": "system"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))

	status, body = s.do(t, http.MethodGet, "/api/v1/tickets/"+id+"/comments", tech, nil)
	require.Equal(t, http.StatusOK, status)
	entries := body["data"].([]any)
	require.Len(t, entries, 2)
	assert.Equal(t, true, entries[0].(map[string]any)["is_escalation"])
	assert.Equal(t, false, entries[1].(map[string]any)["is_escalation"])

	status, body = s.do(t, http.MethodGet, "/api/v1/tickets?escalated=true&status=ASSIGNED", tech, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"].([]any), 1)
}

func TestErrorResponses(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(t, domain.EmployeeRoleAdmin)

	status, body := s.do(t, http.MethodGet, "/api/v1/tickets", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", errorCode(body))

	status, body = s.do(t, http.MethodGet, "/api/v1/tickets/nope", admin, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(body))

	status, body = s.do(t, http.MethodGet, "/api/v1/tickets?status=DONE", admin, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))

	status, body = s.do(t, http.MethodGet, "/api/v1/tickets?page=9223372036854775807", admin, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))

	status, _ = s.do(t, http.MethodGet, "/api/v1/tickets?page=10000&page_size=100", admin, nil)
	assert.Equal(t, http.StatusOK, status)

	status, body = s.do(t, http.MethodPost, "/api/v1/tickets", admin, map[string]any{"title": "x", "category": "unknown"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))
}

func TestCategoryCodeIsImmutable(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(t, domain.EmployeeRoleAdmin)

	status, body := s.do(t, http.MethodPost, "/api/v1/categories", admin, map[string]any{"code": "fiber", "name": "Fiber", "sla_hours": 2})
	require.Equal(t, http.StatusCreated, status)
	id := body["data"].(map[string]any)["id"].(string)

	status, body = s.do(t, http.MethodPatch, "/api/v1/categories/"+id, admin, map[string]any{"code": "copper"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))

	status, body = s.do(t, http.MethodPatch, "/api/v1/categories/"+id, admin, map[string]any{"code": "fiber", "sla_hours": 6})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 6.0, body["data"].(map[string]any)["sla_hours"])
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ready", body["status"])

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "ops_console_http_requests_total")
}
