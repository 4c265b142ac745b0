package daemon

import (
	"context"
	"fmt"

	"github.com/vogelsang/vogelsang/pkg/actor"
	"github.com/vogelsang/vogelsang/pkg/settings"
	"github.com/vogelsang/vogelsang/pkg/trading"
)

// settingsHandler owns the tracked-asset list. All messages are sequential
// so mutations keep their submission order.
type settingsHandler struct {
	store *settings.Store
}

func newSettingsConstructor(
	path string,
	logger trading.Logger,
) actor.Constructor {
	return func(self *actor.Ref) (actor.Handler, error) {
		store, err := settings.NewStore(path, logger)
		if err != nil {
			return nil, fmt.Errorf("could not open settings: [%v]", err)
		}

		return &settingsHandler{store: store}, nil
	}
}

func (sh *settingsHandler) Handle(
	ctx context.Context,
	message interface{},
) (interface{}, error) {
	switch msg := message.(type) {
	case listAssetsCall:
		return sh.store.Assets(), nil
	case addAssetCall:
		return nil, sh.store.Add(msg.id, msg.name)
	case deleteAssetCall:
		return nil, sh.store.Delete(msg.id)
	default:
		return nil, fmt.Errorf("unexpected message [%T]", message)
	}
}
