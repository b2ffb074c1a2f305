package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/kindred-lab/kindred/pkg/domain/model"
	"github.com/kindred-lab/kindred/pkg/domain/types"
)

// agentDoc is the Firestore document representation of model.Agent
type agentDoc struct {
	ID                 string    `firestore:"ID"`
	OwnerID            string    `firestore:"OwnerID"`
	Name               string    `firestore:"Name"`
	Warmth             int       `firestore:"Warmth"`
	Logic              int       `firestore:"Logic"`
	Creativity         int       `firestore:"Creativity"`
	Energy             int       `firestore:"Energy"`
	Humor              int       `firestore:"Humor"`
	Generation         int       `firestore:"Generation"`
	EvolutionProgress  int       `firestore:"EvolutionProgress"`
	TotalConversations int       `firestore:"TotalConversations"`
	SimpleMode         bool      `firestore:"SimpleMode"`
	Persona            string    `firestore:"Persona"`
	CustomPersona      string    `firestore:"CustomPersona"`
	Domains            []string  `firestore:"Domains"`
	KidsSafe           bool      `firestore:"KidsSafe"`
	SkillIDs           []string  `firestore:"SkillIDs"`
	LastActive         time.Time `firestore:"LastActive"`
	CreatedAt          time.Time `firestore:"CreatedAt"`
}

func toAgentDoc(a *model.Agent) *agentDoc {
	domains := make([]string, len(a.Settings.Domains))
	for i, d := range a.Settings.Domains {
		domains[i] = d.String()
	}
	return &agentDoc{
		ID:                 a.ID.String(),
		OwnerID:            a.OwnerID.String(),
		Name:               a.Name,
		Warmth:             a.Personality.Warmth,
		Logic:              a.Personality.Logic,
		Creativity:         a.Personality.Creativity,
		Energy:             a.Personality.Energy,
		Humor:              a.Personality.Humor,
		Generation:         a.Generation,
		EvolutionProgress:  a.EvolutionProgress,
		TotalConversations: a.TotalConversations,
		SimpleMode:         a.Settings.SimpleMode,
		Persona:            a.Settings.Persona.String(),
		CustomPersona:      a.Settings.CustomPersona,
		Domains:            domains,
		KidsSafe:           a.Settings.KidsSafe,
		SkillIDs:           a.Settings.SkillIDs,
		LastActive:         a.LastActive,
		CreatedAt:          a.CreatedAt,
	}
}

func fromAgentDoc(d *agentDoc) *model.Agent {
	domains := make([]types.AnalysisDomain, 0, len(d.Domains))
	for _, s := range d.Domains {
		if dom := types.AnalysisDomain(s); dom.IsValid() {
			domains = append(domains, dom)
		}
	}
	return &model.Agent{
		ID:      types.AgentID(d.ID),
		OwnerID: types.UserID(d.OwnerID),
		Name:    d.Name,
		Personality: model.Personality{
			Warmth:     d.Warmth,
			Logic:      d.Logic,
			Creativity: d.Creativity,
			Energy:     d.Energy,
			Humor:      d.Humor,
		},
		Generation:         d.Generation,
		EvolutionProgress:  d.EvolutionProgress,
		TotalConversations: d.TotalConversations,
		Settings: model.AgentSettings{
			SimpleMode:    d.SimpleMode,
			Persona:       types.Persona(d.Persona),
			CustomPersona: d.CustomPersona,
			Domains:       domains,
			KidsSafe:      d.KidsSafe,
			SkillIDs:      d.SkillIDs,
		},
		LastActive: d.LastActive,
		CreatedAt:  d.CreatedAt,
	}
}

type agentRepository struct {
	client *firestore.Client
}

func (r *agentRepository) doc(id types.AgentID) *firestore.DocumentRef {
	return r.client.Collection(collAgents).Doc(id.String())
}

func (r *agentRepository) Get(ctx context.Context, id types.AgentID) (*model.Agent, error) {
	doc, err := r.doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "agent not found", goerr.V("agent_id", id))
		}
		return nil, goerr.Wrap(err, "failed to get agent", goerr.V("agent_id", id))
	}

	var d agentDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal agent", goerr.V("agent_id", id))
	}
	return fromAgentDoc(&d), nil
}

func (r *agentRepository) Put(ctx context.Context, agent *model.Agent) error {
	if err := agent.Validate(); err != nil {
		return goerr.Wrap(err, "invalid agent")
	}
	if _, err := r.doc(agent.ID).Set(ctx, toAgentDoc(agent)); err != nil {
		return goerr.Wrap(err, "failed to put agent", goerr.V("agent_id", agent.ID))
	}
	return nil
}

func (r *agentRepository) UpdateSettings(ctx context.Context, id types.AgentID, persona string, domains []types.AnalysisDomain) error {
	strs := make([]string, len(domains))
	for i, d := range domains {
		strs[i] = d.String()
	}

	_, err := r.doc(id).Update(ctx, []firestore.Update{
		{Path: "CustomPersona", Value: persona},
		{Path: "Domains", Value: strs},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(ErrNotFound, "agent not found", goerr.V("agent_id", id))
		}
		return goerr.Wrap(err, "failed to update agent settings", goerr.V("agent_id", id))
	}
	return nil
}

// IncrementStats runs inside a transaction so concurrent turns for the
// same agent cannot lose counter updates.
func (r *agentRepository) IncrementStats(ctx context.Context, id types.AgentID, convDelta, progressDelta int) (*model.Agent, error) {
	var updated *model.Agent

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(r.doc(id))
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(ErrNotFound, "agent not found", goerr.V("agent_id", id))
			}
			return goerr.Wrap(err, "failed to get agent", goerr.V("agent_id", id))
		}

		var d agentDoc
		if err := doc.DataTo(&d); err != nil {
			return goerr.Wrap(err, "failed to unmarshal agent", goerr.V("agent_id", id))
		}

		d.TotalConversations += convDelta
		d.EvolutionProgress += progressDelta
		if d.EvolutionProgress > 100 {
			d.EvolutionProgress = 100
		}
		d.LastActive = time.Now().UTC()

		if err := tx.Set(r.doc(id), &d); err != nil {
			return goerr.Wrap(err, "failed to update agent stats", goerr.V("agent_id", id))
		}
		updated = fromAgentDoc(&d)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *agentRepository) SetEvolution(ctx context.Context, id types.AgentID, generation, progress int) error {
	_, err := r.doc(id).Update(ctx, []firestore.Update{
		{Path: "Generation", Value: generation},
		{Path: "EvolutionProgress", Value: progress},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(ErrNotFound, "agent not found", goerr.V("agent_id", id))
		}
		return goerr.Wrap(err, "failed to set evolution", goerr.V("agent_id", id))
	}
	return nil
}
