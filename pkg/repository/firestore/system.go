package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/kindred-lab/kindred/pkg/domain/model"
)

const systemStateDoc = "state"

type systemStateDocBody struct {
	KillSwitch bool      `firestore:"KillSwitch"`
	Reason     string    `firestore:"Reason"`
	UpdatedAt  time.Time `firestore:"UpdatedAt"`
}

type systemRepository struct {
	client *firestore.Client
}

func (r *systemRepository) Get(ctx context.Context) (*model.SystemState, error) {
	doc, err := r.client.Collection(collSystem).Doc(systemStateDoc).Get(ctx)
	if err != nil {
		// absent state means the switch has never been thrown
		if status.Code(err) == codes.NotFound {
			return &model.SystemState{}, nil
		}
		return nil, goerr.Wrap(err, "failed to get system state")
	}

	var d systemStateDocBody
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal system state")
	}
	return &model.SystemState{
		KillSwitch: d.KillSwitch,
		Reason:     d.Reason,
		UpdatedAt:  d.UpdatedAt,
	}, nil
}

func (r *systemRepository) Set(ctx context.Context, state *model.SystemState) error {
	doc := &systemStateDocBody{
		KillSwitch: state.KillSwitch,
		Reason:     state.Reason,
		UpdatedAt:  time.Now().UTC(),
	}
	if _, err := r.client.Collection(collSystem).Doc(systemStateDoc).Set(ctx, doc); err != nil {
		return goerr.Wrap(err, "failed to set system state")
	}
	return nil
}
