// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// console is filled in by Startup and used by BuildHandler and
	// Shutdown. WAFFLE passes DBDeps by value, so it is a pointer.
	console *console
}
