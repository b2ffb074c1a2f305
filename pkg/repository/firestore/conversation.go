package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"

	"github.com/kindred-lab/kindred/pkg/domain/model"
	"github.com/kindred-lab/kindred/pkg/domain/types"
)

type messageDoc struct {
	ID        string    `firestore:"ID"`
	AgentID   string    `firestore:"AgentID"`
	Role      string    `firestore:"Role"`
	Content   string    `firestore:"Content"`
	Channel   string    `firestore:"Channel"`
	Provider  string    `firestore:"Provider,omitempty"`
	LatencyMS int64     `firestore:"LatencyMS,omitempty"`
	CreatedAt time.Time `firestore:"CreatedAt"`
}

func toMessageDoc(m *model.ConversationMessage) *messageDoc {
	return &messageDoc{
		ID:        string(m.ID),
		AgentID:   m.AgentID.String(),
		Role:      m.Role.String(),
		Content:   m.Content,
		Channel:   m.Channel.String(),
		Provider:  m.Provider.String(),
		LatencyMS: m.LatencyMS,
		CreatedAt: m.CreatedAt,
	}
}

func fromMessageDoc(d *messageDoc) *model.ConversationMessage {
	return &model.ConversationMessage{
		ID:        model.MessageID(d.ID),
		AgentID:   types.AgentID(d.AgentID),
		Role:      types.Role(d.Role),
		Content:   d.Content,
		Channel:   types.Channel(d.Channel),
		Provider:  types.ProviderID(d.Provider),
		LatencyMS: d.LatencyMS,
		CreatedAt: d.CreatedAt,
	}
}

type conversationRepository struct {
	client *firestore.Client
}

func (r *conversationRepository) Append(ctx context.Context, msgs ...*model.ConversationMessage) error {
	bw := r.client.BulkWriter(ctx)
	for _, msg := range msgs {
		cp := *msg
		if cp.ID == "" {
			cp.ID = model.NewMessageID()
		}
		if cp.CreatedAt.IsZero() {
			cp.CreatedAt = time.Now().UTC()
		}
		ref := r.client.Collection(collConversations).Doc(string(cp.ID))
		if _, err := bw.Set(ref, toMessageDoc(&cp)); err != nil {
			return goerr.Wrap(err, "failed to queue message write", goerr.V("message_id", cp.ID))
		}
	}
	bw.End()
	return nil
}

func (r *conversationRepository) Recent(ctx context.Context, agentID types.AgentID, limit int) ([]*model.ConversationMessage, error) {
	iter := r.client.Collection(collConversations).
		Where("AgentID", "==", agentID.String()).
		OrderBy("CreatedAt", firestore.Desc).
		Limit(limit).
		Documents(ctx)
	defer iter.Stop()

	msgs := make([]*model.ConversationMessage, 0, limit)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate messages", goerr.V("agent_id", agentID))
		}

		var d messageDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal message")
		}
		msgs = append(msgs, fromMessageDoc(&d))
	}
	return msgs, nil
}
