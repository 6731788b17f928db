package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/Ananth-NQI/orderbot-backend/internal/config"
	"github.com/Ananth-NQI/orderbot-backend/internal/handlers"
	"github.com/Ananth-NQI/orderbot-backend/internal/models"
	"github.com/Ananth-NQI/orderbot-backend/internal/services"
	"github.com/Ananth-NQI/orderbot-backend/internal/storage"
)

type noopExtractor struct{}

func (noopExtractor) Extract(context.Context, string, models.OrderDraft) (string, error) {
	return "", nil
}

type discardSubmitter struct{ count int }

func (d *discardSubmitter) Submit(models.InboundMessage) bool {
	d.count++
	return true
}

func newApp(cfg *config.Config) (*fiber.App, *discardSubmitter) {
	archive := storage.NewMemoryOrderArchive()
	sessions := storage.NewMemorySessionStore()
	conversation := services.NewConversationService(sessions, archive,
		services.NewAccessFilter([]string{"+15550001"}, ""), noopExtractor{}, services.LogSender{},
		services.DefaultMessages(), services.ConversationConfig{})
	submitter := &discardSubmitter{}

	app := fiber.New()
	SetupRoutes(app, cfg, Handlers{
		WhatsApp: handlers.NewWhatsAppHandler(submitter, conversation, ""),
		Health:   handlers.NewHealthHandler("test", "In-Memory (Testing)", false, archive, sessions),
		Orders:   handlers.NewOrderHandler(archive),
	})
	return app, submitter
}

func status(t *testing.T, app *fiber.App, req *http.Request) int {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	resp.Body.Close()
	return resp.StatusCode
}

func webhook() *http.Request {
	form := url.Values{"From": {"whatsapp:+15550001"}, "Body": {"hi"}}
	req := httptest.NewRequest(http.MethodPost, "/webhook/whatsapp", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", fiber.MIMEApplicationForm)
	return req
}

func TestSetupRoutes_Production(t *testing.T) {
	app, submitter := newApp(&config.Config{
		Environment: "production",
		AdminToken:  "s3cret",
		Twilio:      config.TwilioConfig{AuthToken: "token"},
	})

	require.Equal(t, http.StatusOK, status(t, app, httptest.NewRequest(http.MethodGet, "/", nil)))
	require.Equal(t, http.StatusOK, status(t, app, httptest.NewRequest(http.MethodGet, "/health", nil)))

	// unsigned webhook is rejected
	require.Equal(t, http.StatusUnauthorized, status(t, app, webhook()))
	require.Zero(t, submitter.count)

	// test endpoint is development only
	require.Equal(t, http.StatusNotFound, status(t, app, httptest.NewRequest(http.MethodPost, "/test/whatsapp", nil)))

	require.Equal(t, http.StatusUnauthorized, status(t, app, httptest.NewRequest(http.MethodGet, "/admin/orders", nil)))
	req := httptest.NewRequest(http.MethodGet, "/admin/orders", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	require.Equal(t, http.StatusOK, status(t, app, req))
}

func TestSetupRoutes_DevelopmentSkipsSignature(t *testing.T) {
	app, submitter := newApp(&config.Config{Environment: "development"})

	require.Equal(t, http.StatusOK, status(t, app, webhook()))
	require.Equal(t, 1, submitter.count)

	req := httptest.NewRequest(http.MethodPost, "/test/whatsapp", strings.NewReader(`{"from":"+15550001","message":"hi"}`))
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	require.Equal(t, http.StatusOK, status(t, app, req))

	// no ADMIN_TOKEN, no admin routes
	require.Equal(t, http.StatusNotFound, status(t, app, httptest.NewRequest(http.MethodGet, "/admin/orders", nil)))
}
