package main

import (
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	"parkslot/internal/api"
	"parkslot/internal/auth"
	"parkslot/internal/client"
	"parkslot/internal/repository"
	"parkslot/internal/service"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
)

const defaultPayeeVPA = "parking@upi"

func main() {
	godotenv.Load()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL not set")
	}
	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	payeeVPA := os.Getenv("UPI_PAYEE_VPA")
	if payeeVPA == "" {
		payeeVPA = defaultPayeeVPA
	}

	userRepo := repository.NewUserRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	jobRepo := repository.NewJobRepository(db)

	sender := service.NewSenderService()
	authSvc := service.NewAuthService(userRepo)
	catalogSvc := service.NewCatalogService(catalogRepo)
	identitySvc := service.NewIdentityService(userRepo)
	bookingSvc := service.NewBookingService(bookingRepo, userRepo, sender)
	jobSvc := service.NewJobService(jobRepo)

	c := cron.New()
	c.AddFunc("*/10 * * * *", func() {
		if err := jobSvc.CompleteFinishedBookings(); err != nil {
			log.Printf("Cron: %v", err)
		}
	})
	c.AddFunc("@hourly", func() {
		purged, err := jobSvc.PurgeStalePendingPayments(24 * time.Hour)
		if err != nil {
			log.Printf("Cron: %v", err)
		} else if purged > 0 {
			log.Printf("Cron: purged %d stale pending payments", purged)
		}
	})
	c.Start()
	defer c.Stop()

	// The wizard talks to the booking contracts over HTTP even when both
	// sides run in this process, so the contracts stay independently
	// deployable.
	bookingAPIURL := os.Getenv("BOOKING_API_URL")
	if bookingAPIURL == "" {
		bookingAPIURL = "http://localhost:" + port
	}
	bookingClient := client.NewBookingClient(bookingAPIURL)

	authHandler := api.NewAuthHandler(authSvc)
	catalogHandler := api.NewCatalogHandler(catalogSvc)
	identityHandler := api.NewIdentityHandler(identitySvc)
	bookingHandler := api.NewBookingHandler(bookingSvc, payeeVPA)
	wizardHandler := api.NewWizardHandler(catalogSvc, identitySvc, bookingClient, payeeVPA)

	r := mux.NewRouter()

	// Public endpoints
	r.HandleFunc("/api/auth/register", authHandler.Register).Methods("POST")
	r.HandleFunc("/api/auth/login", authHandler.Login).Methods("POST")
	r.HandleFunc("/api/parking", catalogHandler.GetParking).Methods("GET")
	r.HandleFunc("/api/bookings", bookingHandler.CreateBooking).Methods("POST")
	r.HandleFunc("/api/submit-upi-txn/", bookingHandler.SubmitUPITxn).Methods("POST")
	r.HandleFunc("/api/upi_qr_image/{amount:[0-9]+}/", bookingHandler.UPIQRImage).Methods("GET")

	// Authenticated endpoints
	r.Handle("/api/vehicles", auth.RequireUser(http.HandlerFunc(identityHandler.ListVehicles))).Methods("GET")

	// Wizard endpoints (anonymous allowed, identity attached when present)
	wiz := r.PathPrefix("/api/wizard").Subrouter()
	wiz.Use(auth.WithUser)
	wiz.HandleFunc("", wizardHandler.Open).Methods("POST")
	wiz.HandleFunc("/{id}", wizardHandler.Get).Methods("GET")
	wiz.HandleFunc("/{id}", wizardHandler.Close).Methods("DELETE")
	wiz.HandleFunc("/{id}/vehicle-type", wizardHandler.SelectVehicleType).Methods("POST")
	wiz.HandleFunc("/{id}/slot", wizardHandler.SelectSlot).Methods("POST")
	wiz.HandleFunc("/{id}/back", wizardHandler.Back).Methods("POST")
	wiz.HandleFunc("/{id}/details", wizardHandler.SubmitDetails).Methods("POST")
	wiz.HandleFunc("/{id}/payment", wizardHandler.CompleteBooking).Methods("POST")
	wiz.HandleFunc("/{id}/upi-id", wizardHandler.EnterUPIID).Methods("POST")
	wiz.HandleFunc("/{id}/upi-txn", wizardHandler.SubmitTxnRef).Methods("POST")

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)

	log.Printf("Server running on port %s", port)
	log.Fatal(http.ListenAndServe(":"+port, handlers.LoggingHandler(os.Stdout, cors(r))))
}
