package rtc

import (
	"errors"
	"fmt"

	"github.com/dkeye/WatchParty/internal/config"
	"github.com/pion/stun/v3"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

var (
	ErrNoURLs           = errors.New("ice server has no urls")
	ErrTurnCredentials  = errors.New("turn server requires username and credential")
	ErrUnsupportedProto = errors.New("unsupported ice url")
)

// ICEServers converts configured servers to the browser-facing RTCIceServer
// shape, rejecting anything a peer connection would refuse.
func ICEServers(in []config.ICEServer) ([]webrtc.ICEServer, error) {
	out := make([]webrtc.ICEServer, 0, len(in))
	for i, s := range in {
		if len(s.URLs) == 0 {
			return nil, fmt.Errorf("ice_servers[%d]: %w", i, ErrNoURLs)
		}
		for _, raw := range s.URLs {
			uri, err := stun.ParseURI(raw)
			if err != nil {
				return nil, fmt.Errorf("ice_servers[%d] %q: %w", i, raw, err)
			}
			switch uri.Scheme {
			case stun.SchemeTypeSTUN, stun.SchemeTypeSTUNS:
			case stun.SchemeTypeTURN, stun.SchemeTypeTURNS:
				if s.Username == "" || s.Credential == "" {
					return nil, fmt.Errorf("ice_servers[%d] %q: %w", i, raw, ErrTurnCredentials)
				}
			default:
				return nil, fmt.Errorf("ice_servers[%d] %q: %w", i, raw, ErrUnsupportedProto)
			}
		}
		out = append(out, webrtc.ICEServer{
			URLs:       append([]string(nil), s.URLs...),
			Username:   s.Username,
			Credential: s.Credential,
		})
	}
	log.Info().Str("module", "rtc").Int("servers", len(out)).Msg("ice servers ready")
	return out, nil
}
