package firestore

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"

	"github.com/kindred-lab/kindred/pkg/domain/interfaces"
)

// ErrNotFound indicates the requested document does not exist
var ErrNotFound = errors.New("not found")

// Collection names
const (
	collAgents        = "agents"
	collConversations = "conversations"
	collMemories      = "memories"
	collTopics        = "topics"
	collInsights      = "insights"
	collSkills        = "skills"
	collSystem        = "system"
)

// Firestore is the production Repository implementation
type Firestore struct {
	client       *firestore.Client
	agent        *agentRepository
	conversation *conversationRepository
	memoryEntry  *memoryEntryRepository
	topic        *topicRepository
	insight      *insightRepository
	skill        *skillRepository
	system       *systemRepository
}

var _ interfaces.Repository = &Firestore{}

// New creates a Firestore-backed repository
func New(ctx context.Context, projectID, databaseID string) (*Firestore, error) {
	var client *firestore.Client
	var err error
	if databaseID != "" {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	} else {
		client, err = firestore.NewClient(ctx, projectID)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client", goerr.V("projectID", projectID))
	}

	return &Firestore{
		client:       client,
		agent:        &agentRepository{client: client},
		conversation: &conversationRepository{client: client},
		memoryEntry:  &memoryEntryRepository{client: client},
		topic:        &topicRepository{client: client},
		insight:      &insightRepository{client: client},
		skill:        &skillRepository{client: client},
		system:       &systemRepository{client: client},
	}, nil
}

func (f *Firestore) Agent() interfaces.AgentRepository {
	return f.agent
}

func (f *Firestore) Conversation() interfaces.ConversationRepository {
	return f.conversation
}

func (f *Firestore) Memory() interfaces.MemoryRepository {
	return f.memoryEntry
}

func (f *Firestore) Topic() interfaces.TopicRepository {
	return f.topic
}

func (f *Firestore) Insight() interfaces.InsightRepository {
	return f.insight
}

func (f *Firestore) Skill() interfaces.SkillRepository {
	return f.skill
}

func (f *Firestore) System() interfaces.SystemRepository {
	return f.system
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}
