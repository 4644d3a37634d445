// Package backend provides the Artfolio API server.

// This package contains the main application entry point. The actual API
// documentation is organized into subpackages:

// - internal/handlers: HTTP request handlers for all API endpoints
// - internal/models: Data models and database schemas
// - internal/detection: AI-content detection gate and provider adapters
// - internal/storage: File storage (S3) operations
// - internal/database: Database connection and migrations
// - internal/search: Elasticsearch work and artist search
// - internal/cache: Redis caching for the explore feed
// - internal/email: Email service integration
// - internal/middleware: HTTP middleware (auth, rate limiting, etc.)

// See the individual package documentation for detailed API reference.
package backend
