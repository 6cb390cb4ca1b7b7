package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"maggram/internal/common"
	"maggram/internal/wire"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Initialize application with dependency injection
	log.Println("Initializing application...")
	app, err := wire.InitializeApplication()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	// Interval sweep backstop for attachment retention
	app.ChatSvc.StartSweeper()

	router := setupRouter(app)

	server := &http.Server{
		Addr:           fmt.Sprintf("%s:%s", app.Config.Server.Host, app.Config.Server.Port),
		Handler:        router,
		ReadTimeout:    time.Duration(app.Config.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(app.Config.Server.WriteTimeout) * time.Second,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}

	go func() {
		log.Printf("Server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	app.ChatSvc.Shutdown()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	if err := app.Mongo.Close(ctx); err != nil {
		log.Printf("Mongo disconnect failed: %v", err)
	}

	log.Println("Server gracefully stopped")
}

// setupRouter configures HTTP routes
func setupRouter(app *wire.Application) *mux.Router {
	router := mux.NewRouter()

	router.Use(common.CORS)
	router.Use(common.RequestLogging)

	// API v1 routes
	api := router.PathPrefix("/api/v1").Subrouter()

	// Health check
	api.HandleFunc("/health", healthCheckHandler).Methods("GET")

	// Public auth routes
	api.HandleFunc("/auth/register", app.UserHandler.Register).Methods("POST")
	api.HandleFunc("/auth/login", app.UserHandler.Login).Methods("POST")

	// Routes where a viewer identity is optional
	open := api.NewRoute().Subrouter()
	open.Use(common.OptionalAuth)
	open.HandleFunc("/feed", app.FeedHandler.GetFeed).Methods("GET")
	open.HandleFunc("/posts/{postID}", app.FeedHandler.GetPost).Methods("GET")
	open.HandleFunc("/posts/{postID}/comments", app.FeedHandler.ListComments).Methods("GET")
	open.HandleFunc("/media/{fileID}", app.FeedHandler.ServeMedia).Methods("GET")
	open.HandleFunc("/users/{userID}", app.UserHandler.GetProfile).Methods("GET")
	open.HandleFunc("/users/{userID}/followers", app.UserHandler.Followers).Methods("GET")
	open.HandleFunc("/users/{userID}/following", app.UserHandler.Following).Methods("GET")

	// Routes that fail closed without a valid token
	auth := api.NewRoute().Subrouter()
	auth.Use(common.RequireAuth)
	auth.HandleFunc("/users/me", app.UserHandler.Me).Methods("GET")
	auth.HandleFunc("/users/me", app.UserHandler.UpdateMe).Methods("PUT")
	auth.HandleFunc("/users/{userID}/follow", app.UserHandler.Follow).Methods("POST")
	auth.HandleFunc("/users/{userID}/follow", app.UserHandler.Unfollow).Methods("DELETE")

	auth.HandleFunc("/posts", app.FeedHandler.CreatePost).Methods("POST")
	auth.HandleFunc("/posts/{postID}", app.FeedHandler.DeletePost).Methods("DELETE")
	auth.HandleFunc("/posts/{postID}/like", app.FeedHandler.LikePost).Methods("POST")
	auth.HandleFunc("/posts/{postID}/like", app.FeedHandler.UnlikePost).Methods("DELETE")
	auth.HandleFunc("/posts/{postID}/comments", app.FeedHandler.CreateComment).Methods("POST")

	auth.HandleFunc("/conversations", app.ChatHandler.CreateConversation).Methods("POST")
	auth.HandleFunc("/conversations", app.ChatHandler.ListConversations).Methods("GET")
	auth.HandleFunc("/conversations/{conversationID}/messages", app.ChatHandler.SendMessage).Methods("POST")
	auth.HandleFunc("/conversations/{conversationID}/messages", app.ChatHandler.GetHistory).Methods("GET")
	auth.HandleFunc("/attachments/{attachmentID}", app.ChatHandler.DownloadAttachment).Methods("GET")
	auth.HandleFunc("/attachments/{attachmentID}/meta", app.ChatHandler.AttachmentMeta).Methods("GET")

	return router
}

// healthCheckHandler provides basic health check
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy","service":"maggram"}`))
}
