package topics

import (
	"io"
	"log"
	"log/slog"

	"github.com/nfrund/parlor/internal/topicmgr"
	"github.com/nfrund/parlor/internal/websocket"
)

// Initialize silences logging and registers the bridge topics with the
// default manager, the same ones the server registers at startup.
func Initialize() (*topicmgr.Manager, error) {
	log.SetOutput(io.Discard)
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))

	manager := topicmgr.Default()
	if err := websocket.RegisterTopicsWithManager(manager); err != nil {
		return nil, err
	}
	return manager, nil
}
