package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"

	"github.com/kindred-lab/kindred/pkg/domain/model"
	"github.com/kindred-lab/kindred/pkg/domain/types"
)

type topicDoc struct {
	AgentID   string    `firestore:"AgentID"`
	Topic     string    `firestore:"Topic"`
	Summary   string    `firestore:"Summary"`
	Source    string    `firestore:"Source"`
	CreatedAt time.Time `firestore:"CreatedAt"`
}

type topicRepository struct {
	client *firestore.Client
}

func (r *topicRepository) Put(ctx context.Context, topic *model.LearnedTopic) error {
	doc := &topicDoc{
		AgentID:   topic.AgentID.String(),
		Topic:     topic.Topic,
		Summary:   topic.Summary,
		Source:    topic.Source,
		CreatedAt: topic.CreatedAt,
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	if _, err := r.client.Collection(collTopics).Doc(uuid.New().String()).Set(ctx, doc); err != nil {
		return goerr.Wrap(err, "failed to put topic", goerr.V("agent_id", topic.AgentID))
	}
	return nil
}

func (r *topicRepository) Recent(ctx context.Context, agentID types.AgentID, limit int) ([]*model.LearnedTopic, error) {
	iter := r.client.Collection(collTopics).
		Where("AgentID", "==", agentID.String()).
		OrderBy("CreatedAt", firestore.Desc).
		Limit(limit).
		Documents(ctx)
	defer iter.Stop()

	topics := make([]*model.LearnedTopic, 0, limit)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate topics", goerr.V("agent_id", agentID))
		}

		var d topicDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal topic")
		}
		topics = append(topics, &model.LearnedTopic{
			AgentID:   types.AgentID(d.AgentID),
			Topic:     d.Topic,
			Summary:   d.Summary,
			Source:    d.Source,
			CreatedAt: d.CreatedAt,
		})
	}
	return topics, nil
}

type insightDoc struct {
	AgentID        string    `firestore:"AgentID"`
	Topics         []string  `firestore:"Topics"`
	EmotionArc     string    `firestore:"EmotionArc"`
	UnderlyingNeed string    `firestore:"UnderlyingNeed"`
	NextHint       string    `firestore:"NextHint"`
	CreatedAt      time.Time `firestore:"CreatedAt"`
}

type insightRepository struct {
	client *firestore.Client
}

func (r *insightRepository) Put(ctx context.Context, insight *model.ConversationInsight) error {
	doc := &insightDoc{
		AgentID:        insight.AgentID.String(),
		Topics:         insight.Topics,
		EmotionArc:     insight.EmotionArc,
		UnderlyingNeed: insight.UnderlyingNeed,
		NextHint:       insight.NextHint,
		CreatedAt:      insight.CreatedAt,
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	if _, err := r.client.Collection(collInsights).Doc(uuid.New().String()).Set(ctx, doc); err != nil {
		return goerr.Wrap(err, "failed to put insight", goerr.V("agent_id", insight.AgentID))
	}
	return nil
}

func (r *insightRepository) Latest(ctx context.Context, agentID types.AgentID) (*model.ConversationInsight, error) {
	iter := r.client.Collection(collInsights).
		Where("AgentID", "==", agentID.String()).
		OrderBy("CreatedAt", firestore.Desc).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get latest insight", goerr.V("agent_id", agentID))
	}

	var d insightDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal insight")
	}
	return &model.ConversationInsight{
		AgentID:        types.AgentID(d.AgentID),
		Topics:         d.Topics,
		EmotionArc:     d.EmotionArc,
		UnderlyingNeed: d.UnderlyingNeed,
		NextHint:       d.NextHint,
		CreatedAt:      d.CreatedAt,
	}, nil
}

type skillDoc struct {
	ID          string `firestore:"ID"`
	Name        string `firestore:"Name"`
	Description string `firestore:"Description"`
}

type skillRepository struct {
	client *firestore.Client
}

func (r *skillRepository) List(ctx context.Context, ids []string) ([]*model.Skill, error) {
	skills := make([]*model.Skill, 0, len(ids))
	for _, id := range ids {
		doc, err := r.client.Collection(collSkills).Doc(id).Get(ctx)
		if err != nil {
			// missing skills are silently skipped; the catalog is
			// managed outside this system
			continue
		}
		var d skillDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal skill", goerr.V("skill_id", id))
		}
		skills = append(skills, &model.Skill{
			ID:          d.ID,
			Name:        d.Name,
			Description: d.Description,
		})
	}
	return skills, nil
}
