// Package test provides shared container helpers for integration tests.
package test

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"github.com/testcontainers/testcontainers-go/wait"
)

const mongoImage = "mongo:7"

// StartMongoContainer starts a MongoDB container for testing.
func StartMongoContainer(ctx context.Context) (*mongodb.MongoDBContainer, error) {
	return mongodb.Run(ctx, mongoImage,
		testcontainers.WithWaitStrategy(wait.ForAll(
			wait.ForLog("Waiting for connections"),
			wait.ForListeningPort(nat.Port("27017/tcp")),
		)),
	)
}

// RandomDatabaseName returns a unique database name so parallel test
// packages never share state.
func RandomDatabaseName() string {
	return fmt.Sprintf("payments-test-%d-%04d", time.Now().UnixNano(), rand.Intn(10000))
}
