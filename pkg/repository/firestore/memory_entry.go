package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"

	"github.com/kindred-lab/kindred/pkg/domain/model"
	"github.com/kindred-lab/kindred/pkg/domain/types"
)

type memoryEntryDoc struct {
	AgentID    string    `firestore:"AgentID"`
	Category   string    `firestore:"Category"`
	Key        string    `firestore:"Key"`
	Value      string    `firestore:"Value"`
	Confidence int       `firestore:"Confidence"`
	UpdatedAt  time.Time `firestore:"UpdatedAt"`
}

type memoryEntryRepository struct {
	client *firestore.Client
}

// docID makes the (agent, category, key) tuple addressable so Upsert is a
// single Set instead of query-then-write.
func (r *memoryEntryRepository) docID(e *model.MemoryEntry) string {
	return fmt.Sprintf("%s_%s_%s", e.AgentID, e.Category, e.Key)
}

func (r *memoryEntryRepository) Upsert(ctx context.Context, entry *model.MemoryEntry) error {
	cp := *entry
	cp.ClampConfidence()

	doc := &memoryEntryDoc{
		AgentID:    cp.AgentID.String(),
		Category:   cp.Category.String(),
		Key:        cp.Key,
		Value:      cp.Value,
		Confidence: cp.Confidence,
		UpdatedAt:  time.Now().UTC(),
	}
	if _, err := r.client.Collection(collMemories).Doc(r.docID(&cp)).Set(ctx, doc); err != nil {
		return goerr.Wrap(err, "failed to upsert memory entry",
			goerr.V("agent_id", cp.AgentID), goerr.V("key", cp.Key))
	}
	return nil
}

func (r *memoryEntryRepository) ListTop(ctx context.Context, agentID types.AgentID, floor, limit int) ([]*model.MemoryEntry, error) {
	iter := r.client.Collection(collMemories).
		Where("AgentID", "==", agentID.String()).
		Where("Confidence", ">=", floor).
		OrderBy("Confidence", firestore.Desc).
		Limit(limit).
		Documents(ctx)
	defer iter.Stop()

	entries := make([]*model.MemoryEntry, 0, limit)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate memory entries", goerr.V("agent_id", agentID))
		}

		var d memoryEntryDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal memory entry")
		}
		entries = append(entries, &model.MemoryEntry{
			AgentID:    types.AgentID(d.AgentID),
			Category:   types.MemoryCategory(d.Category),
			Key:        d.Key,
			Value:      d.Value,
			Confidence: d.Confidence,
			UpdatedAt:  d.UpdatedAt,
		})
	}
	return entries, nil
}
