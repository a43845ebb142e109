package signal

import (
	"github.com/dkeye/WatchParty/internal/core"
	"github.com/dkeye/WatchParty/internal/domain"
)

// handleWhoAmI repeats the session handshake event.
func (ctl *SignalWSController) handleWhoAmI(cid domain.ConnID, conn *WsSignalConn, ref string) {
	sess, ok := ctl.Orch.Session(cid)
	if !ok {
		return
	}
	ctl.send(conn, core.NewEvent(core.EventSession, sess).Reply(ref))
}
