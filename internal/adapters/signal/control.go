package signal

import "github.com/dkeye/WatchParty/internal/core"

func (ctl *SignalWSController) handlePing(conn *WsSignalConn, ref string) {
	ctl.send(conn, core.NewEvent(core.EventPong, nil).Reply(ref))
}
