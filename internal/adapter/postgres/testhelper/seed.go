package testhelper

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uniqueSuffix returns a short unique string for generating non-conflicting test data.
func uniqueSuffix() string {
	return uuid.New().String()[:8]
}

// SeedCollection creates a top collection with a unique title.
// Returns its id and title.
func SeedCollection(t *testing.T, pool *pgxpool.Pool) (uuid.UUID, string) {
	t.Helper()

	id := uuid.New()
	title := "Collection " + uniqueSuffix()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO top_collections (id, title, order_index) VALUES ($1, $2, 0)`,
		id, title,
	)
	if err != nil {
		t.Fatalf("SeedCollection: %v", err)
	}
	return id, title
}

// SeedDocument creates an empty document in a new collection.
// Returns the document id and short name.
func SeedDocument(t *testing.T, pool *pgxpool.Pool) (uuid.UUID, string) {
	t.Helper()

	collectionID, _ := SeedCollection(t, pool)
	id := uuid.New()
	shortName := "DOC-" + uniqueSuffix()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO documents (id, short_name, title, collection_id, order_index, page_image_ids)
		 VALUES ($1, $2, $3, $4, 0, '{}')`,
		id, shortName, "Document "+shortName, collectionID,
	)
	if err != nil {
		t.Fatalf("SeedDocument: %v", err)
	}
	return id, shortName
}
