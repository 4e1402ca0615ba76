//go:build integration
// +build integration

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"

	"github.com/suparena/persist/errors"
)

// newIntegrationClient reads AWS_REGION, AWS_ACCESS_KEY, AWS_SECRET_KEY,
// AWS_DDB_TABLE and optionally AWS_DDB_ENDPOINT from the environment or a .env file.
func newIntegrationClient(t *testing.T) *Client {
	t.Helper()
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, proceeding with environment variables")
	}
	table := os.Getenv("AWS_DDB_TABLE")
	if table == "" {
		t.Skip("AWS_DDB_TABLE not set")
	}

	c, err := NewFromConfig(context.Background(), Config{
		Region:    os.Getenv("AWS_REGION"),
		AccessKey: os.Getenv("AWS_ACCESS_KEY"),
		SecretKey: os.Getenv("AWS_SECRET_KEY"),
		Endpoint:  os.Getenv("AWS_DDB_ENDPOINT"),
		Table:     table,
	}, WithEntityType("Employee"), WithKeyFields("id"), WithKeyMap(map[string]string{
		"PK": "EMPLOYEE#{id}",
		"SK": "PROFILE",
	}))
	require.NoError(t, err)
	return c
}

func TestIntegrationScan(t *testing.T) {
	c := newIntegrationClient(t)

	s, err := c.ReadQuery(context.Background(), readRequest(t, "name"))
	require.NoError(t, err)
	records, err := collect(t, s)
	require.NoError(t, err)
	for _, r := range records {
		require.Contains(t, r, "id")
	}
	t.Logf("scanned %d employees", len(records))
}

func TestIntegrationMissingKey(t *testing.T) {
	c := newIntegrationClient(t)
	req := readRequest(t, "name")

	_, err := c.ReadByKey(context.Background(), keyRequestFor(req, "no-such-employee"))
	require.True(t, errors.IsNotFound(err), "got %v", err)
}
