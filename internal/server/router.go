package server

import (
	"log"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/printdesk/printdesk/internal/gate"
	"github.com/printdesk/printdesk/internal/handlers"
	"github.com/printdesk/printdesk/internal/httpx"
	"github.com/printdesk/printdesk/internal/identity"
	"github.com/printdesk/printdesk/internal/services"
)

// New constructs the root http.Handler with all routes and middlewares applied.
func New(db *gorm.DB) http.Handler {
	mux := http.NewServeMux()

	g := gate.New()
	notifier := &services.LogNotifier{}

	quoteSvc := services.NewQuoteService(db, g, notifier)
	assignSvc := services.NewAssignmentService(db, g, notifier)
	fulfillSvc := services.NewFulfillmentService(db, g, notifier)
	scoringSvc := services.NewScoringService(db, g)
	viewSvc := services.NewViewService(db, g)
	attachSvc := services.NewAttachmentService(db, g, services.AcceptAllFiles{})
	customerSvc := services.NewCustomerService(db)

	qh := handlers.NewQuoteHandler(quoteSvc, assignSvc, viewSvc)
	jh := handlers.NewJobHandler(fulfillSvc, viewSvc)
	rh := handlers.NewRecommendationHandler(scoringSvc)
	ah := handlers.NewAttachmentHandler(attachSvc)
	ch := handlers.NewCustomerHandler(customerSvc)

	// --- Health endpoints ---
	//revive:disable:unused-parameter simple handlers intentionally ignore *http.Request
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Exec("SELECT 1").Error; err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"degraded"}`))
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	//revive:enable:unused-parameter

	// Customers
	mux.HandleFunc("POST /api/customers", ch.Create)

	// Quote lifecycle
	mux.HandleFunc("POST /api/quotes", qh.Create)
	mux.HandleFunc("GET /api/quotes/{quoteId}", qh.Get)
	mux.HandleFunc("POST /api/quotes/{quoteId}/price", qh.Price)
	mux.HandleFunc("POST /api/quotes/{quoteId}/approve", qh.Approve)
	mux.HandleFunc("POST /api/quotes/{quoteId}/reject", qh.Reject)
	mux.HandleFunc("POST /api/quotes/{quoteId}/revise", qh.Revise)
	mux.HandleFunc("POST /api/quotes/{quoteId}/rate", qh.RateDeal)
	mux.HandleFunc("POST /api/quotes/{quoteId}/assign", qh.Assign)
	mux.HandleFunc("GET /api/quotes/{quoteId}/customer-view", qh.CustomerView)
	mux.HandleFunc("GET /api/quotes/chain/{rootId}", qh.Chain)

	// Quote attachments
	mux.HandleFunc("POST /api/quotes/{quoteId}/attachments", ah.Add)
	mux.HandleFunc("GET /api/quotes/{quoteId}/attachments", ah.ListForQuote)

	// Supplier jobs
	mux.HandleFunc("POST /api/jobs/{jobId}/accept", jh.Accept)
	mux.HandleFunc("POST /api/jobs/{jobId}/ready", jh.Ready)
	mux.HandleFunc("POST /api/jobs/{jobId}/pickup", jh.Pickup)
	mux.HandleFunc("POST /api/jobs/{jobId}/deliver", jh.Deliver)
	mux.HandleFunc("POST /api/jobs/{jobId}/cancel", jh.Cancel)
	mux.HandleFunc("POST /api/jobs/{jobId}/rate", jh.Rate)
	mux.HandleFunc("GET /api/jobs/{jobId}/supplier-view", jh.SupplierView)
	mux.HandleFunc("GET /api/jobs/{jobId}/courier-view", jh.CourierView)
	mux.HandleFunc("GET /api/jobs/{jobId}/attachments", ah.ListForJob)

	// Supplier recommendations and scoring weights
	mux.HandleFunc("GET /api/recommendations/sku/{skuId}", rh.BySKU)
	mux.HandleFunc("POST /api/recommendations/category", rh.ByCategory)
	mux.HandleFunc("GET /api/weights", rh.GetWeights)
	mux.HandleFunc("PUT /api/weights", rh.UpdateWeights)

	return withRecover(withLogging(identity.Middleware(mux)))
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

func withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("panic serving %s %s: %v", r.Method, r.URL.Path, rec)
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
