// config/db.go
package config

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConnectDB establishes connection to MongoDB
func ConnectDB() *mongo.Client {
	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		mongoURI = os.Getenv("MONGODB_URI")
	}

	// Only use the Docker service name as fallback in development
	if mongoURI == "" {
		env := os.Getenv("ENV")
		if env == "development" || env == "dev" {
			mongoURI = "mongodb://localhost:27017/?replicaSet=rs0"
		} else {
			log.Fatal("MONGO_URI or MONGODB_URI environment variable is required for production")
		}
	}

	log.Printf("Connecting to MongoDB at: %s", maskMongoURI(mongoURI))

	clientOptions := options.Client().ApplyURI(mongoURI)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		log.Fatal("MongoDB connection error:", err)
	}

	err = client.Ping(ctx, nil)
	if err != nil {
		log.Fatal("MongoDB ping error:", err)
	}

	log.Println("Connected to MongoDB")

	SetupCollections(client)

	return client
}

// GetDatabase returns the application database handle.
func GetDatabase(client *mongo.Client) *mongo.Database {
	return client.Database(DatabaseName())
}

// DatabaseName resolves the configured database name.
func DatabaseName() string {
	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		dbName = "agency"
	}
	return dbName
}

// SetupCollections ensures all necessary collections and indexes exist
func SetupCollections(client *mongo.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := client.Database(DatabaseName())

	collections := []string{"managers", "transactions", "bonuses", "batches", "payoutRequests", "systemConfigs"}
	for _, collName := range collections {
		db.CreateCollection(ctx, collName)
	}

	indexes := map[string][]mongo.IndexModel{
		"managers": {
			{
				Keys:    bson.D{{Key: "fullName", Value: 1}, {Key: "managerType", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{
				// Partial so ingested accounts without credentials don't collide.
				Keys: bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetUnique(true).
					SetPartialFilterExpression(bson.M{"email": bson.M{"$type": "string"}}),
			},
		},
		"batches": {
			{
				// Partial over non-superseded batches: a forced re-run marks
				// the prior batch superseded and inserts a fresh one with the
				// same hash without tripping the unique check.
				Keys: bson.D{{Key: "sourceHash", Value: 1}},
				Options: options.Index().SetUnique(true).
					SetPartialFilterExpression(bson.M{"superseded": false}),
			},
			{Keys: bson.D{{Key: "batchId", Value: 1}}},
		},
		"transactions": {
			{Keys: bson.D{{Key: "liveManagerId", Value: 1}, {Key: "period", Value: 1}}},
			{Keys: bson.D{{Key: "teamManagerId", Value: 1}, {Key: "period", Value: 1}}},
			{Keys: bson.D{{Key: "batchId", Value: 1}}},
		},
		"bonuses": {
			{Keys: bson.D{{Key: "managerId", Value: 1}, {Key: "period", Value: 1}}},
			{Keys: bson.D{{Key: "batchId", Value: 1}}},
		},
		"payoutRequests": {
			{Keys: bson.D{{Key: "managerId", Value: 1}, {Key: "period", Value: 1}, {Key: "status", Value: 1}}},
		},
		"systemConfigs": {
			{Keys: bson.D{{Key: "effectiveFrom", Value: -1}}},
		},
	}

	for collName, collIndexes := range indexes {
		if _, err := db.Collection(collName).Indexes().CreateMany(ctx, collIndexes); err != nil {
			log.Printf("Error creating indexes for %s: %v", collName, err)
		}
	}

	log.Println("Database collections and indexes setup complete")
}

// maskMongoURI masks the password in MongoDB URI for logging
func maskMongoURI(uri string) string {
	if idx := strings.Index(uri, "@"); idx > 0 {
		if colonIdx := strings.LastIndex(uri[:idx], ":"); colonIdx > 0 {
			return uri[:colonIdx+1] + "***" + uri[idx:]
		}
	}
	return uri
}
